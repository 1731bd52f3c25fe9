// Package formstate holds the live values of one form instance: it seeds
// them from enabled descriptors and entity defaults, tracks edits, validates
// through pkg/validation and submits the record to a create or update
// service with a double-submit guard.
//
// Guard rejections (a submission already in flight, failed extra validation,
// an edit without a record id) are not errors: Submit returns (nil, nil).
package formstate
