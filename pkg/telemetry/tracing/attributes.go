package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Custom keys use the "intellimap.*" namespace.
const (
	// Batch and record attributes
	AttrBatchID       = "intellimap.batch_id"
	AttrClientID      = "intellimap.client_id"
	AttrRecordID      = "intellimap.record_id"
	AttrRecordIndex   = "intellimap.record_index"
	AttrFormat        = "intellimap.format"
	AttrRecordCount   = "intellimap.records"
	AttrFieldCount    = "intellimap.fields"
	AttrChunks        = "intellimap.chunks"
	AttrChunksDropped = "intellimap.chunks_dropped"
	AttrState         = "intellimap.state"
	AttrConfidence    = "intellimap.confidence"
	AttrPath          = "intellimap.normalize_path"

	// Completion attributes
	AttrProvider    = "intellimap.provider"
	AttrDeployment  = "intellimap.deployment"
	AttrMaxTokens   = "intellimap.max_tokens"
	AttrStatusClass = "intellimap.status_class"
	AttrLatency     = "intellimap.latency_ms"
	AttrAttempts    = "intellimap.attempts"

	AttrPromptTokens     = "intellimap.prompt_tokens"
	AttrCompletionTokens = "intellimap.completion_tokens"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// SetBatchAttributes sets the identifying attributes of a batch span.
func SetBatchAttributes(span trace.Span, batchID, clientID string) {
	span.SetAttributes(
		attribute.String(AttrBatchID, batchID),
		attribute.String(AttrClientID, clientID),
	)
}

// SetRecordAttributes sets the identifying attributes of a record span.
func SetRecordAttributes(span trace.Span, recordID string, index, fields int) {
	span.SetAttributes(
		attribute.String(AttrRecordID, recordID),
		attribute.Int(AttrRecordIndex, index),
		attribute.Int(AttrFieldCount, fields),
	)
}

// SetOutcomeAttributes records a record's terminal state and confidence.
func SetOutcomeAttributes(span trace.Span, state string, confidence float64) {
	span.SetAttributes(
		attribute.String(AttrState, state),
		attribute.Float64(AttrConfidence, confidence),
	)
}
