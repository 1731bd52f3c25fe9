package validation

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Built-in rule tags.
const (
	TagRequired   = "required"
	TagEmail      = "email"
	TagPhone      = "phone"
	TagURL        = "url"
	TagNumber     = "number"
	TagDate       = "date"
	TagBloodType  = "bloodType"
	TagMinLength  = "minLength"
	TagMaxLength  = "maxLength"
	TagPattern    = "pattern"
	TagNationalID = "nationalId"
	TagPostalCode = "postalCode"
	TagAge        = "age"
)

// Default messages.
const (
	MsgRequired   = "This field is required"
	MsgEmail      = "Please enter a valid email address"
	MsgPhone      = "Please enter a valid phone number"
	MsgURL        = "Please enter a valid URL"
	MsgNumber     = "Please enter a valid number"
	MsgDate       = "Please enter a valid date (YYYY-MM-DD)"
	MsgBloodType  = "Please select a valid blood type"
	MsgPattern    = "Please enter a valid format"
	MsgNationalID = "Please enter a valid national ID"
	MsgPostalCode = "Please enter a valid postal code"
	MsgAge        = "Please enter a valid age"
	MsgMatch      = "Fields do not match"
)

// BloodTypes lists the accepted blood type values.
var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern      = regexp.MustCompile(`^[\+]?[\d\-\(\)\s]+$`)
	nationalIDPattern = regexp.MustCompile(`^[A-Za-z0-9\-]+$`)
	postalCodePattern = regexp.MustCompile(`^[A-Za-z0-9\s\-]+$`)
)

// Rule is one entry of a rule list. The set of implementations is closed:
// Named and Predicate.
type Rule interface {
	isRule()
}

// Named references a registered check by tag. Message overrides the check's
// default message; Arg carries the factory parameter (length bound, regex).
type Named struct {
	Tag     string
	Message string
	Arg     string
}

func (Named) isRule() {}

// Predicate is an inline rule returning an error message, or "" on success.
type Predicate func(value model.Value) string

func (Predicate) isRule() {}

// CheckFunc implements a named rule. It returns the default failure message,
// or "" when the value passes.
type CheckFunc func(value model.Value, arg string) string

// Required fails on null, empty strings and empty lists.
func Required() Rule { return Named{Tag: TagRequired} }

// Email requires a local@domain.tld shape.
func Email() Rule { return Named{Tag: TagEmail} }

// Phone accepts digits, "+", "-", parentheses and spaces.
func Phone() Rule { return Named{Tag: TagPhone} }

// URL requires an absolute URL.
func URL() Rule { return Named{Tag: TagURL} }

// Number requires a numeric value.
func Number() Rule { return Named{Tag: TagNumber} }

// Date requires a real YYYY-MM-DD calendar date.
func Date() Rule { return Named{Tag: TagDate} }

// BloodType requires one of BloodTypes.
func BloodType() Rule { return Named{Tag: TagBloodType} }

// NationalID accepts letters, digits and dashes.
func NationalID() Rule { return Named{Tag: TagNationalID} }

// PostalCode accepts letters, digits, spaces and dashes.
func PostalCode() Rule { return Named{Tag: TagPostalCode} }

// Age requires an integer between 0 and 150.
func Age() Rule { return Named{Tag: TagAge} }

// MinLength bounds the value length from below.
func MinLength(n int) Rule { return Named{Tag: TagMinLength, Arg: strconv.Itoa(n)} }

// MaxLength bounds the value length from above.
func MaxLength(n int) Rule { return Named{Tag: TagMaxLength, Arg: strconv.Itoa(n)} }

// Pattern requires the value to match expr.
func Pattern(expr string) Rule { return Named{Tag: TagPattern, Arg: expr} }

// WithMessage overrides the message of a named rule. Predicates are returned
// unchanged.
func WithMessage(rule Rule, message string) Rule {
	if named, ok := rule.(Named); ok {
		named.Message = message
		return named
	}
	return rule
}

// RequiredIf behaves like Required while cond reports true.
func RequiredIf(cond func() bool) Rule {
	return Predicate(func(value model.Value) string {
		if cond != nil && cond() && value.IsEmpty() {
			return MsgRequired
		}
		return ""
	})
}

// MatchField fails unless the value equals other.
func MatchField(other model.Value) Rule {
	return Predicate(func(value model.Value) string {
		if value.Equal(other) {
			return ""
		}
		return MsgMatch
	})
}

func builtinChecks() map[string]CheckFunc {
	return map[string]CheckFunc{
		TagRequired: func(v model.Value, _ string) string {
			if v.IsEmpty() {
				return MsgRequired
			}
			return ""
		},
		TagEmail:      regexCheck(emailPattern, MsgEmail),
		TagPhone:      regexCheck(phonePattern, MsgPhone),
		TagNationalID: regexCheck(nationalIDPattern, MsgNationalID),
		TagPostalCode: regexCheck(postalCodePattern, MsgPostalCode),
		TagURL: func(v model.Value, _ string) string {
			if v.IsEmpty() {
				return ""
			}
			parsed, err := url.Parse(v.Text())
			if err != nil || parsed.Scheme == "" || (parsed.Host == "" && parsed.Opaque == "") {
				return MsgURL
			}
			return ""
		},
		TagNumber: func(v model.Value, _ string) string {
			if v.IsEmpty() {
				return ""
			}
			n, ok := v.Float()
			if v.Kind() != model.KindNumber {
				var err error
				n, err = strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
				ok = err == nil
			}
			if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
				return MsgNumber
			}
			return ""
		},
		TagDate: func(v model.Value, _ string) string {
			if v.IsEmpty() {
				return ""
			}
			if _, err := time.Parse("2006-01-02", v.Text()); err != nil {
				return MsgDate
			}
			return ""
		},
		TagBloodType: func(v model.Value, _ string) string {
			if v.IsEmpty() {
				return ""
			}
			text := v.Text()
			for _, bt := range BloodTypes {
				if bt == text {
					return ""
				}
			}
			return MsgBloodType
		},
		TagAge: func(v model.Value, _ string) string {
			if v.IsEmpty() {
				return ""
			}
			age, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
			if err != nil || age < 0 || age > 150 {
				return MsgAge
			}
			return ""
		},
		TagMinLength: func(v model.Value, arg string) string {
			n, err := strconv.Atoi(arg)
			if v.IsEmpty() || err != nil {
				return ""
			}
			if v.Len() < n {
				return "Minimum length is " + arg + " characters"
			}
			return ""
		},
		TagMaxLength: func(v model.Value, arg string) string {
			n, err := strconv.Atoi(arg)
			if v.IsEmpty() || err != nil {
				return ""
			}
			if v.Len() > n {
				return "Maximum length is " + arg + " characters"
			}
			return ""
		},
		TagPattern: func(v model.Value, arg string) string {
			if v.IsEmpty() {
				return ""
			}
			re, err := compilePattern(arg)
			if err != nil || !re.MatchString(v.Text()) {
				return MsgPattern
			}
			return ""
		},
	}
}

func regexCheck(re *regexp.Regexp, message string) CheckFunc {
	return func(v model.Value, _ string) string {
		if v.IsEmpty() {
			return ""
		}
		if !re.MatchString(v.Text()) {
			return message
		}
		return ""
	}
}

var patternCache sync.Map

func compilePattern(expr string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(expr); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternCache.Store(expr, re)
	return re, nil
}

// BuildRulesFromConfig derives the rule list of a descriptor: required when
// flagged, a type rule, then minLength, maxLength and pattern when present.
func BuildRulesFromConfig(field model.FieldDescriptor) []Rule {
	var rules []Rule
	if field.IsRequired {
		rules = append(rules, Required())
	}
	switch field.FieldType.Normalize() {
	case model.FieldEmail:
		rules = append(rules, Email())
	case model.FieldTel, model.FieldPhone:
		rules = append(rules, Phone())
	case model.FieldURL:
		rules = append(rules, URL())
	case model.FieldNumber:
		rules = append(rules, Number())
	case model.FieldDate:
		rules = append(rules, Date())
	}
	if vr := field.ValidationRules; vr != nil {
		if vr.MinLength != nil {
			rules = append(rules, MinLength(*vr.MinLength))
		}
		if vr.MaxLength != nil {
			rules = append(rules, MaxLength(*vr.MaxLength))
		}
		if vr.Pattern != nil && *vr.Pattern != "" {
			rules = append(rules, Pattern(*vr.Pattern))
		}
	}
	return rules
}
