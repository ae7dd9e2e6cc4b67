package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "json", config: Config{Level: "info", Format: "json", Redact: true}},
		{name: "text", config: Config{Level: "debug", Format: "text"}},
		{name: "console maps to text", config: Config{Level: "warn", Format: "console"}},
		{name: "defaults", config: Config{}},
		{name: "invalid level", config: Config{Level: "loud"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "xml"}, wantErr: true},
		{
			name: "invalid redact pattern",
			config: Config{
				Redact:         true,
				RedactPatterns: []Pattern{{Name: "bad", Pattern: "("}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.config.Writer = &buf
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn were written: %s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("expected warn and error messages, got: %s", out)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithBatchID(context.Background(), "batch-1")
	ctx = WithClientID(ctx, "intellimap_abc")
	ctx = WithRecordID(ctx, "doc_42")
	logger.InfoContext(ctx, "record mapped", "fields", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	for key, want := range map[string]any{
		"batch_id":  "batch-1",
		"client_id": "intellimap_abc",
		"record_id": "doc_42",
		"fields":    float64(3),
	} {
		if entry[key] != want {
			t.Errorf("entry[%q] = %v, want %v", key, entry[key], want)
		}
	}
}

func TestLogger_SlogCarriesContextAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Redact: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sl := logger.Slog().With("component", "azure")
	ctx := WithRecordID(context.Background(), "record_1")
	sl.DebugContext(ctx, "sending with api-key: abcdef123456", "api_key", "secretvalue")

	out := buf.String()
	if strings.Contains(out, "abcdef123456") || strings.Contains(out, "secretvalue") {
		t.Errorf("credentials leaked: %s", out)
	}
	if !strings.Contains(out, `"record_id":"record_1"`) {
		t.Errorf("record_id missing: %s", out)
	}
	if !strings.Contains(out, `"component":"azure"`) {
		t.Errorf("bound attribute missing: %s", out)
	}
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := logger.WithContext(context.Background()); got != logger {
		t.Error("WithContext() with no fields should return the same logger")
	}

	bound := logger.WithContext(WithBatchID(context.Background(), "b-7"))
	bound.Info("done")
	if !strings.Contains(buf.String(), "batch_id=b-7") {
		t.Errorf("expected batch_id in text output, got: %s", buf.String())
	}
	if bound.Format() != FormatText {
		t.Errorf("Format() = %v, want %v", bound.Format(), FormatText)
	}
}

func TestParseLevel(t *testing.T) {
	for _, in := range []string{"debug", "INFO", "", "warning", "error"} {
		if _, err := parseLevel(in); err != nil {
			t.Errorf("parseLevel(%q) error = %v", in, err)
		}
	}
	if _, err := parseLevel("trace"); err == nil {
		t.Error("parseLevel(trace) expected error")
	}
}
