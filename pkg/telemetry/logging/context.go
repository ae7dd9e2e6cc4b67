package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RecordIDKey is the context key for record identifiers.
	RecordIDKey contextKey = "record_id"

	// BatchIDKey is the context key for batch identifiers.
	BatchIDKey contextKey = "batch_id"

	// ClientIDKey is the context key for the rate-limit identity.
	ClientIDKey contextKey = "client_id"
)

// contextKeys is the emission order of context fields.
var contextKeys = []contextKey{BatchIDKey, ClientIDKey, RecordIDKey}

// WithRecordID adds a record ID to the context.
func WithRecordID(ctx context.Context, recordID string) context.Context {
	return context.WithValue(ctx, RecordIDKey, recordID)
}

// GetRecordID retrieves the record ID from the context.
func GetRecordID(ctx context.Context) string {
	return getString(ctx, RecordIDKey)
}

// WithBatchID adds a batch ID to the context.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, BatchIDKey, batchID)
}

// GetBatchID retrieves the batch ID from the context.
func GetBatchID(ctx context.Context) string {
	return getString(ctx, BatchIDKey)
}

// WithClientID adds a client identity to the context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDKey, clientID)
}

// GetClientID retrieves the client identity from the context.
func GetClientID(ctx context.Context) string {
	return getString(ctx, ClientIDKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields returns key/value pairs for every ID set on ctx.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range contextKeys {
		if v := getString(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}

// ContextLogger returns a *slog.Logger with the context's IDs bound.
// A nil base falls back to slog.Default().
func ContextLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
