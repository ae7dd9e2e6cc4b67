package providers

import (
	"errors"
	"strings"
	"testing"
	"time"

	"lcm-hq/intellimap/pkg/providers"
)

// TestHTTPConfig returns a transport configuration with short timeouts.
func TestHTTPConfig(name string) providers.HTTPConfig {
	return providers.HTTPConfig{
		Name:                name,
		Timeout:             5 * time.Second,
		ConnectTimeout:      2 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorAs fails the test unless err has a T in its chain, and returns it.
func AssertErrorAs[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if err == nil {
		t.Fatalf("expected %T, got nil", target)
	}
	if !errors.As(err, &target) {
		t.Fatalf("expected %T in chain, got %T: %v", target, err, err)
	}
	return target
}

// AssertContains fails the test if haystack doesn't contain needle.
func AssertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}
