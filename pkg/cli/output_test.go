package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type textResult struct {
	lines []string
}

func (r textResult) WriteText(w io.Writer) error {
	for _, l := range r.lines {
		if _, err := fmt.Fprintln(w, "- "+l); err != nil {
			return err
		}
	}
	return nil
}

func TestTextFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, "test message"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "test message\n" {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), "test message\n")
	}
}

func TestTextFormatterUsesTextWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, textResult{lines: []string{"a", "b"}}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "- a\n- b\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   any
		indent bool
	}{
		{"simple string", "test", false},
		{"map with indent", map[string]string{"key": "value"}, true},
		{"struct", struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
		}{"test", 42}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := (&JSONFormatter{Indent: tt.indent}).FormatTo(buf, tt.data); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}

			var decoded any
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Errorf("output is not valid JSON: %v", err)
			}
			if tt.indent && !strings.Contains(buf.String(), "\n  ") {
				t.Errorf("expected indented output, got %q", buf.String())
			}
		})
	}
}

func TestYAMLFormatter(t *testing.T) {
	data := map[string]any{
		"format":  "json_object",
		"records": []map[string]string{{"F1": "a"}},
	}

	buf := &bytes.Buffer{}
	if err := (&YAMLFormatter{}).FormatTo(buf, data); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded["format"] != "json_object" {
		t.Errorf("format = %v, want json_object", decoded["format"])
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatYAML, "*cli.YAMLFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got := fmt.Sprintf("%T", NewFormatter(tt.format))
			if got != tt.want {
				t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, got, tt.want)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if tt.wantErr && ExitCode(err) != ExitConfig {
				t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitConfig)
			}
		})
	}
}
