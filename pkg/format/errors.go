package format

import (
	"errors"
	"fmt"
)

// Sentinel kinds carried by FormatError. Match them with errors.Is.
var (
	// ErrEmptyInput indicates blank input text.
	ErrEmptyInput = errors.New("empty input")

	// ErrNoFieldsFound indicates text that decoded to zero fields.
	ErrNoFieldsFound = errors.New("no fields found")

	// ErrMalformed indicates text the selected decoder could not read.
	ErrMalformed = errors.New("malformed input")

	// ErrUnsupported indicates a value shape that cannot become a record.
	ErrUnsupported = errors.New("unsupported input")
)

// FormatError reports why raw input could not be turned into records.
type FormatError struct {
	// Kind is one of the sentinel errors above.
	Kind error

	// Format is the detected format, if detection got that far.
	Format Format

	// Detail is a human readable explanation.
	Detail string

	// Cause is the underlying decoder error, if any.
	Cause error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	msg := e.Kind.Error()
	if e.Format != FormatUnknown {
		msg = fmt.Sprintf("%s (%s)", msg, e.Format)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is reports whether target is this error's kind.
func (e *FormatError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error {
	return e.Cause
}

func newFormatError(kind error, format Format, detail string, cause error) *FormatError {
	return &FormatError{Kind: kind, Format: format, Detail: detail, Cause: cause}
}
