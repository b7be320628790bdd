// Package validation holds the field schemas applied to untrusted form input
// before it reaches the data layer.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator checks a string value and returns an error message when it is invalid.
// An empty return means the value passed.
type Validator func(v string) string

// MinLen rejects values shorter than n runes.
func MinLen(n int, msg string) Validator {
	return func(v string) string {
		if utf8.RuneCountInString(v) < n {
			return msg
		}
		return ""
	}
}

// MaxLen rejects values longer than n runes.
func MaxLen(n int, msg string) Validator {
	return func(v string) string {
		if utf8.RuneCountInString(v) > n {
			return msg
		}
		return ""
	}
}

// ExactLen rejects values whose rune count is not exactly n.
func ExactLen(n int, msg string) Validator {
	return func(v string) string {
		if utf8.RuneCountInString(v) != n {
			return msg
		}
		return ""
	}
}

// Matches rejects values that do not match re.
func Matches(re *regexp.Regexp, msg string) Validator {
	return func(v string) string {
		if !re.MatchString(v) {
			return msg
		}
		return ""
	}
}

// ContainsAll rejects values that do not match every expression in res.
// RE2 has no lookahead, so "must contain X and Y" is expressed as several searches.
func ContainsAll(msg string, res ...*regexp.Regexp) Validator {
	return func(v string) string {
		for _, re := range res {
			if !re.MatchString(v) {
				return msg
			}
		}
		return ""
	}
}

// OneOf accepts only values equal to one of options (case-sensitive).
func OneOf(options []string, msg string) Validator {
	return func(v string) string {
		for _, opt := range options {
			if v == opt {
				return ""
			}
		}
		if msg == "" {
			return fmt.Sprintf("must be one of: %s", strings.Join(options, ", "))
		}
		return msg
	}
}

// FieldValidator collects the first error of every field it checks.
type FieldValidator struct {
	errors map[string]string
	order  []string
}

// New creates a new FieldValidator instance.
func New() *FieldValidator {
	return &FieldValidator{errors: make(map[string]string)}
}

// Validate validates a field with one or more validators.
// It stops at the first error for each field.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	for _, v := range validators {
		if msg := v(value); msg != "" {
			fv.add(field, msg)
			break
		}
	}
	return fv
}

// Schema runs a Schema against value and records its error, if any.
func (fv *FieldValidator) Schema(s Schema, value string) *FieldValidator {
	if _, err := s.Parse(value); err != nil {
		fv.add(err.Field, err.Message)
	}
	return fv
}

func (fv *FieldValidator) add(field, msg string) {
	if _, exists := fv.errors[field]; exists {
		return
	}
	fv.errors[field] = msg
	fv.order = append(fv.order, field)
}

// Errors returns the accumulated validation errors keyed by field.
func (fv *FieldValidator) Errors() map[string]string {
	return fv.errors
}

// First returns the first recorded error in check order, or nil.
func (fv *FieldValidator) First() *FieldError {
	if len(fv.order) == 0 {
		return nil
	}
	f := fv.order[0]
	return &FieldError{Field: f, Message: fv.errors[f]}
}
