package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Pattern is a named redaction rule.
type Pattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Redactor masks credentials in log messages and attributes.
// A nil *Redactor is valid and redacts nothing.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKeyHeader = "api_key_header"
	PatternSecretKey    = "secret_key"
	PatternBearerToken  = "bearer_token"
)

var defaultPatterns = []Pattern{
	{
		Name:        PatternAPIKeyHeader,
		Pattern:     `(?i)(api[-_]?key["']?\s*[:=]\s*["']?)[A-Za-z0-9._\-]+`,
		Replacement: "${1}***",
	},
	{
		Name:        PatternSecretKey,
		Pattern:     `sk-[A-Za-z0-9_\-]{8,}`,
		Replacement: "sk-***",
	},
	{
		Name:        PatternBearerToken,
		Pattern:     `Bearer\s+[A-Za-z0-9\-._~+/]+=*`,
		Replacement: "Bearer ***",
	},
}

// sensitiveKeys mark attributes whose whole value is masked.
var sensitiveKeys = []string{
	"api_key", "apikey", "api-key",
	"secret", "token", "password",
	"authorization",
}

// NewRedactor creates a Redactor with the built-in patterns followed by
// custom ones. An invalid custom pattern is an error.
func NewRedactor(custom []Pattern) (*Redactor, error) {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regexp.MustCompile(p.Pattern),
			replacement: p.Replacement,
		})
	}
	for _, p := range custom {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p.Name, err)
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       re,
			replacement: p.Replacement,
		})
	}
	return r, nil
}

// Patterns returns the names of the active patterns in application order.
func (r *Redactor) Patterns() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		names[i] = p.name
	}
	return names
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if r == nil || value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr masks sensitive keys entirely and pattern-redacts string values.
// Groups are walked recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if r == nil {
		return a
	}
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		out := make([]any, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, out...)
	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, RedactAPIKey(v.String()))
		}
		return slog.String(a.Key, r.RedactString(v.String()))
	default:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, "***")
		}
		return slog.Attr{Key: a.Key, Value: v}
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactAPIKey masks an API key, keeping a four character prefix.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
