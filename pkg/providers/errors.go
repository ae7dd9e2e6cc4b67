package providers

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusClass groups non-200 status codes for diagnostics. Every class is
// retried the same way; the class only drives logs and metrics.
type StatusClass string

const (
	ClassAuth             StatusClass = "auth"
	ClassMisconfiguration StatusClass = "misconfiguration"
	ClassThrottled        StatusClass = "throttled"
	ClassUpstream         StatusClass = "upstream"
	ClassClient           StatusClass = "client"
	ClassNetwork          StatusClass = "network"
	ClassEmptyBody        StatusClass = "empty_body"
	ClassOK               StatusClass = "ok"
)

// ClassifyStatus maps an HTTP status code to its diagnostic class.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code == http.StatusOK:
		return ClassOK
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ClassAuth
	case code == http.StatusNotFound:
		return ClassMisconfiguration
	case code == http.StatusTooManyRequests:
		return ClassThrottled
	case code >= 500:
		return ClassUpstream
	default:
		return ClassClient
	}
}

// NetworkError is a transport failure before any status was received.
type NetworkError struct {
	// Provider is the name of the client that failed
	Provider string

	// Cause is the underlying transport error
	Cause error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("provider %q network error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// StatusError is a response with a status other than 200.
type StatusError struct {
	// Provider is the name of the client that received the response
	Provider string

	// Code is the HTTP status code
	Code int

	// Body is the response body, as returned
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("provider %q returned status %d (%s): %s", e.Provider, e.Code, e.Class(), e.Body)
}

// Class returns the diagnostic class of the status code.
func (e *StatusError) Class() StatusClass {
	return ClassifyStatus(e.Code)
}

// EmptyBodyError is a 200 response with an empty or null body.
type EmptyBodyError struct {
	// Provider is the name of the client that received the response
	Provider string
}

// Error implements the error interface.
func (e *EmptyBodyError) Error() string {
	return fmt.Sprintf("provider %q returned an empty response body", e.Provider)
}

// ConfigError represents a client configuration error.
type ConfigError struct {
	// Provider is the name of the client with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// RetryError is the last failure of a call that ran out of attempts.
type RetryError struct {
	// Attempts is how many attempts were made
	Attempts int

	// Last is the failure of the final attempt
	Last error
}

// Error implements the error interface.
func (e *RetryError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap returns the last failure.
func (e *RetryError) Unwrap() error {
	return e.Last
}

// Classify returns the diagnostic class of any error produced by a Client.
func Classify(err error) StatusClass {
	if err == nil {
		return ClassOK
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Class()
	}
	var emptyErr *EmptyBodyError
	if errors.As(err, &emptyErr) {
		return ClassEmptyBody
	}
	return ClassNetwork
}
