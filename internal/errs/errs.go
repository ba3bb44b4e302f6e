// Package errs defines the error taxonomy shared by the matching and
// rental workflow services. Callers classify failures with errors.Is
// against the sentinels and errors.As against *ConflictError.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
)

func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidRequest)
}

func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}

// ConflictError reports a transition attempted from the wrong state.
type ConflictError struct {
	Current  string
	Expected []string
	Reason   string
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	if e.Reason != "" {
		b.WriteString(e.Reason)
	} else {
		b.WriteString("invalid state transition")
	}
	if e.Current != "" {
		fmt.Fprintf(&b, ". Current status: %s", e.Current)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, ". Must be %s", strings.Join(e.Expected, " or "))
	}
	return b.String()
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Conflict builds a state conflict. current is the status found, expected
// the statuses that would have allowed the transition.
func Conflict(reason, current string, expected ...string) error {
	return &ConflictError{Current: current, Expected: expected, Reason: reason}
}
