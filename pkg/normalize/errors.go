package normalize

import "fmt"

// Kind classifies a ContentError.
type Kind string

const (
	// KindNoContent means the envelope had no usable message content.
	KindNoContent Kind = "no_content"

	// KindUnrecoverable means content was present but no recovery step
	// produced JSON.
	KindUnrecoverable Kind = "unrecoverable"
)

// ContentError reports model output that could not be used.
type ContentError struct {
	Kind    Kind
	Detail  string
	Preview string
}

// Error implements the error interface.
func (e *ContentError) Error() string {
	msg := fmt.Sprintf("content error (%s)", e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches another *ContentError of the same kind.
func (e *ContentError) Is(target error) bool {
	t, ok := target.(*ContentError)
	return ok && t.Kind == e.Kind && t.Detail == "" && t.Preview == ""
}

var (
	// ErrNoContent matches any ContentError of kind NoContent.
	ErrNoContent = &ContentError{Kind: KindNoContent}

	// ErrUnrecoverable matches any ContentError of kind Unrecoverable.
	ErrUnrecoverable = &ContentError{Kind: KindUnrecoverable}
)
