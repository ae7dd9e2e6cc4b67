package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "azure.endpoint",
		Message: "missing required field",
	}

	expected := "config error in azure.endpoint: missing required field"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("field", "message")
	if err.Field != "field" {
		t.Errorf("Field = %q, want %q", err.Field, "field")
	}
	if err.Message != "message" {
		t.Errorf("Message = %q, want %q", err.Message, "message")
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("map", underlying)

	expected := "command map failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlying) {
		t.Error("CommandError should unwrap to the underlying error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"config", NewConfigError("targets", "required"), ExitConfig},
		{"wrapped config", fmt.Errorf("load: %w", NewConfigError("x", "y")), ExitConfig},
		{"cancelled", fmt.Errorf("batch: %w", context.Canceled), ExitInterrupted},
		{"partial", NewCommandError("map", ErrPartial), ExitPartial},
		{"explicit code", &CommandError{Command: "map", Err: errors.New("x"), Code: 7}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
