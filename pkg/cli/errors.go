package cli

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfig      = 2
	ExitPartial     = 3
	ExitInterrupted = 130
)

// ConfigError represents an error in configuration or command input.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error

	// Code overrides the exit code derived from Err when non-zero.
	Code int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ErrPartial reports a batch where some records failed.
var ErrPartial = errors.New("some records failed")

// ExitCode returns the exit code for an error returned by a command.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return cmdErr.Code
	}

	var cfgErr *ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfig
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, ErrPartial):
		return ExitPartial
	default:
		return ExitFailure
	}
}
