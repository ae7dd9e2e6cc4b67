package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in plain text format.
	FormatText LogFormat = "text"
)

// Config contains configuration for the Logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text")
	Format string

	// AddSource includes file and line number in logs
	AddSource bool

	// Redact masks credentials in messages and string attributes
	Redact bool

	// RedactPatterns contains additional redaction patterns
	RedactPatterns []Pattern

	// Writer is the output writer (defaults to os.Stderr)
	Writer io.Writer
}

// Logger provides structured logging with credential redaction and
// context-derived fields.
type Logger struct {
	slog     *slog.Logger
	redactor *Redactor
	level    slog.Level
	format   LogFormat
}

// New creates a new Logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	var redactor *Redactor
	if cfg.Redact {
		redactor, err = NewRedactor(cfg.RedactPatterns)
		if err != nil {
			return nil, err
		}
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var base slog.Handler
	switch format {
	case FormatText:
		base = slog.NewTextHandler(writer, opts)
	default:
		base = slog.NewJSONHandler(writer, opts)
	}

	return &Logger{
		slog:     slog.New(&handler{next: base, redactor: redactor}),
		redactor: redactor,
		level:    level,
		format:   format,
	}, nil
}

// Slog returns the underlying *slog.Logger. Records logged through it are
// redacted and carry the record, batch and client IDs found in the context
// passed to the *Context methods.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Level returns the configured minimum level.
func (l *Logger) Level() slog.Level {
	return l.level
}

// Format returns the configured output format.
func (l *Logger) Format() LogFormat {
	return l.format
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext logs a debug message with context fields.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.Log(ctx, slog.LevelDebug, msg, args...)
}

// InfoContext logs an info message with context fields.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.Log(ctx, slog.LevelInfo, msg, args...)
}

// WarnContext logs a warning message with context fields.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.Log(ctx, slog.LevelWarn, msg, args...)
}

// ErrorContext logs an error message with context fields.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.Log(ctx, slog.LevelError, msg, args...)
}

// With creates a new logger with additional fields.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:     l.slog.With(args...),
		redactor: l.redactor,
		level:    l.level,
		format:   l.format,
	}
}

// WithContext creates a new logger with the context's IDs bound as fields.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	args := extractContextFields(ctx)
	if len(args) == 0 {
		return l
	}
	return l.With(args...)
}

// handler injects context fields and redacts attributes before delegating.
type handler struct {
	next     slog.Handler
	redactor *Redactor
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.redactor.RedactString(r.Message), r.PC)

	fields := extractContextFields(ctx)
	for i := 0; i+1 < len(fields); i += 2 {
		out.AddAttrs(slog.Any(fields[i].(string), fields[i+1]))
	}

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactor.RedactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactor.RedactAttr(a)
	}
	return &handler{next: h.next.WithAttrs(redacted), redactor: h.redactor}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{next: h.next.WithGroup(name), redactor: h.redactor}
}

// parseLevel parses a log level string into slog.Level.
func parseLevel(levelStr string) (slog.Level, error) {
	switch levelStr {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into LogFormat.
func parseFormat(formatStr string) (LogFormat, error) {
	switch formatStr {
	case "json", "JSON", "":
		return FormatJSON, nil
	case "text", "TEXT", "console":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
