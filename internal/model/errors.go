package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrInvariantViolation signals internal misuse of the domain API, such as
// asking for the next occurrence of a reminder that does not repeat.
var ErrInvariantViolation = errors.New("invariant violation")

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError aggregates every field that failed validation.
// No entity is created when one is returned.
type ValidationError struct {
	errs *multierror.Error
}

// Add records a failing field.
func (v *ValidationError) Add(field, message string) {
	v.errs = multierror.Append(v.errs, &FieldError{Field: field, Message: message})
}

// ErrorOrNil returns v if any field failed, nil otherwise.
func (v *ValidationError) ErrorOrNil() error {
	if v == nil || v.errs == nil || len(v.errs.Errors) == 0 {
		return nil
	}
	return v
}

// Error implements error.
func (v *ValidationError) Error() string {
	if v.errs == nil {
		return "validation failed"
	}
	msgs := make([]string, 0, len(v.errs.Errors))
	for _, err := range v.errs.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Fields returns field -> message for every failing field.
// When a field fails more than once the first message wins.
func (v *ValidationError) Fields() map[string]string {
	out := make(map[string]string)
	if v.errs == nil {
		return out
	}
	for _, err := range v.errs.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			if _, seen := out[fe.Field]; !seen {
				out[fe.Field] = fe.Message
			}
		}
	}
	return out
}

// FieldNames returns the sorted names of the failing fields.
func (v *ValidationError) FieldNames() []string {
	fields := v.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unwrap exposes the individual field errors to errors.Is/As.
func (v *ValidationError) Unwrap() []error {
	if v.errs == nil {
		return nil
	}
	return v.errs.Errors
}
