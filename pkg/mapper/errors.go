package mapper

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid Invocation field.
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError is returned before any request is sent when the
// invocation is incomplete. Nothing is mapped.
type ValidationError struct {
	Errors []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "invalid invocation"
	}
	if len(e.Errors) == 1 {
		return "invalid invocation: " + e.Errors[0].Message
	}

	var b strings.Builder
	fmt.Fprintf(&b, "invalid invocation (%d errors):", len(e.Errors))
	for _, fe := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(fe.Message)
	}
	return b.String()
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// CancellationError reports a batch interrupted by its context. Records
// finished before the interrupt are still returned in the result.
type CancellationError struct {
	// Stage is where the interrupt was observed: "rate_limit" or "completion".
	Stage string

	// Processed counts records that reached a final state.
	Processed int

	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("mapping cancelled during %s after %d records: %v", e.Stage, e.Processed, e.Cause)
}

// Unwrap returns the cause, which wraps context.Canceled or
// context.DeadlineExceeded.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
