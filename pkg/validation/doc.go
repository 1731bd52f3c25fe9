// Package validation evaluates declarative rule lists against form values.
//
// A rule list is an ordered slice of Rule values. Named rules reference a
// registered check by tag ("required", "email", "minLength", ...) and may
// override its message; Predicate rules are inline functions. Every rule of a
// list runs, and the failing messages are collected in order. Apart from
// "required", built-in checks treat empty values as valid so presence is
// reported exactly once.
//
// Outcomes are recorded into an Errors set that keeps an entry only for
// fields that currently fail.
package validation
