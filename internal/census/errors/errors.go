// Package errors declares the sentinel and structured errors returned by the
// census packages. Callers match them with errors.Is / errors.As.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound          = fmt.Errorf("not found")
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrValidation        = fmt.Errorf("validation failed")
	ErrIllegalTransition = fmt.Errorf("illegal transition")
	ErrConcurrentUpdate  = fmt.Errorf("concurrent update")
	ErrForbidden         = fmt.Errorf("forbidden")
	ErrDuplicateIdentity = fmt.Errorf("duplicate identity")
)

// BaseField is the key for errors that do not belong to a single attribute.
const BaseField = "base"

// ValidationError collects field-level messages for a record.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add appends msg to the messages of field.
func (v *ValidationError) Add(field, msg string) {
	v.Fields[field] = append(v.Fields[field], msg)
}

// Empty reports whether no messages were recorded.
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// On returns the messages recorded for field.
func (v *ValidationError) On(field string) []string {
	return v.Fields[field]
}

// OrNil returns v as an error, or nil when it is empty.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IllegalTransitionError reports an event fired from a state that does not
// accept it, or whose guard rejected it.
type IllegalTransitionError struct {
	Event  string
	From   string
	Reason string
}

func (t *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("%s: event %q not permitted from state %q", ErrIllegalTransition, t.Event, t.From)
	if t.Reason != "" {
		msg += ": " + t.Reason
	}
	return msg
}

func (t *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// AsValidation extracts a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}
