package mapper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"lcm-hq/intellimap/pkg/normalize"
	"lcm-hq/intellimap/pkg/providers"
	"lcm-hq/intellimap/pkg/providers/azure"
	"lcm-hq/intellimap/pkg/records"
	"lcm-hq/intellimap/pkg/telemetry/logging"
	"lcm-hq/intellimap/pkg/telemetry/tracing"
)

// errNoFields skips a record that decoded to nothing.
var errNoFields = errors.New("record has no fields")

// mapRecord drives one record through its states. A record succeeds when at
// least one of its chunks produced a normalized result. The second return is
// set only when ctx ended; the outcome is then final only if every chunk had
// already been handled.
func (m *Mapper) mapRecord(ctx context.Context, r *run, index int, rec *records.Record) (RecordOutcome, *CancellationError) {
	out := RecordOutcome{Index: index, State: StatePending}
	if rec == nil || rec.Len() == 0 {
		out.State = StateSkipped
		out.err = errNoFields
		out.Error = errNoFields.Error()
		m.logger.WarnContext(ctx, "record skipped", "index", index, "reason", out.Error)
		return out, nil
	}

	out.RecordID = rec.ID()
	out.State = StateParsed
	ctx = logging.WithRecordID(ctx, out.RecordID)
	ctx, span := m.tracer.Start(ctx, "intellimap.record")
	defer span.End()
	tracing.SetRecordAttributes(span, out.RecordID, index, rec.Len())

	plan, err := m.plan(rec)
	if err != nil {
		m.fail(ctx, &out, err)
		tracing.SetOutcomeAttributes(span, string(out.State), out.Confidence)
		span.SetStatus(codes.Error, out.Error)
		return out, nil
	}
	out.ChunksDropped = plan.Dropped
	span.SetAttributes(
		attribute.Int(tracing.AttrChunks, len(plan.Chunks)),
		attribute.Int(tracing.AttrChunksDropped, plan.Dropped),
	)
	if plan.Dropped > 0 {
		m.logger.WarnContext(ctx, "record exceeds chunk ceiling, dropping trailing chunks",
			"chunks", len(plan.Chunks),
			"dropped", plan.Dropped,
			"max_chunks", m.cfg.MaxChunksPerRequest,
		)
	}

	var (
		results []normalize.Result
		lastErr error
	)
	for _, chunk := range plan.Chunks {
		out.State = StateSubmitted
		out.Chunks++

		res, attempts, err := m.submit(ctx, r, chunk)
		out.Attempts += attempts
		if err != nil {
			if ctx.Err() != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "cancelled")
				return out, &CancellationError{Stage: stage(err), Cause: err}
			}
			out.ChunksFailed++
			lastErr = err
			m.logger.WarnContext(ctx, "chunk failed",
				"chunk", chunk.Index+1,
				"total", chunk.Total,
				"error", err,
			)
			continue
		}
		results = append(results, res)
	}

	if len(results) == 0 {
		m.fail(ctx, &out, lastErr)
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, out.Error)
		tracing.SetOutcomeAttributes(span, string(out.State), out.Confidence)
		return out, nil
	}

	merged := results[0]
	if len(results) > 1 {
		merged = m.norm.Merge(results...)
	}
	out.State = StateSuccess
	out.Fields = merged.Fields
	out.Confidence = merged.Confidence
	out.Path = merged.Path
	if out.ChunksFailed > 0 {
		out.err = lastErr
		out.Error = fmt.Sprintf("%d of %d chunks failed: %v", out.ChunksFailed, out.Chunks, lastErr)
	} else if issue := firstIssue(results); issue != nil {
		out.err = issue
		out.Error = issue.Error()
	}

	tracing.SetOutcomeAttributes(span, string(out.State), out.Confidence)
	span.SetAttributes(attribute.String(tracing.AttrPath, string(out.Path)))
	span.SetStatus(codes.Ok, "")
	m.logger.DebugContext(ctx, "record mapped",
		"fields", len(out.Fields),
		"confidence", out.Confidence,
		"path", string(out.Path),
		"chunks", out.Chunks,
		"attempts", out.Attempts,
	)
	return out, nil
}

// plan returns the submission units for rec: the whole record when it fits
// the token budget, otherwise contiguous key chunks.
func (m *Mapper) plan(rec *records.Record) (records.ChunkPlan, error) {
	if m.cfg.MaxTokensPerChunk <= 0 || !m.estimator.Exceeds(rec.JSON(), m.cfg.MaxTokensPerChunk) {
		return records.ChunkPlan{Chunks: []records.Chunk{{Index: 0, Total: 1, Record: rec}}}, nil
	}
	plan, err := records.Split(rec, m.cfg.MaxKeysPerChunk, m.cfg.MaxChunksPerRequest)
	if err != nil {
		return records.ChunkPlan{}, fmt.Errorf("split record: %w", err)
	}
	return plan, nil
}

// submit rate-limits, sends and normalizes one chunk.
func (m *Mapper) submit(ctx context.Context, r *run, chunk records.Chunk) (normalize.Result, int, error) {
	if _, err := m.limiter.Check(ctx, r.clientID); err != nil {
		return normalize.Result{}, 0, &stageError{stage: "rate_limit", err: err}
	}

	payload := chunk.Record.JSON()
	req := azure.NewMappingRequest(r.prompt, payload, m.cfg.MaxTokens, m.cfg.Temperature)
	m.logger.DebugContext(ctx, "submitting chunk",
		"chunk", chunk.Index+1,
		"total", chunk.Total,
		"fields", chunk.Record.Len(),
		"estimated_tokens", m.estimator.EstimateMessages(r.prompt, azure.InputPrefix+payload),
	)

	start := time.Now()
	outcome, err := r.retrier.Call(ctx, req)
	attempts := attemptsOf(outcome, err)
	if err != nil {
		if ctx.Err() == nil {
			m.recordCompletion(providers.Classify(err), attempts, time.Since(start))
		}
		return normalize.Result{}, attempts, &stageError{stage: "completion", err: err}
	}
	m.recordCompletion(providers.ClassOK, attempts, time.Since(start))
	m.logger.DebugContext(ctx, "chunk completed",
		"chunk", chunk.Index+1,
		"attempts", attempts,
		"prompt_tokens", outcome.Response.Usage.PromptTokens,
		"completion_tokens", outcome.Response.Usage.CompletionTokens,
	)

	res, err := m.norm.Normalize(outcome.Response.Body)
	if err != nil {
		return normalize.Result{}, attempts, err
	}
	if res.Path == normalize.PathFallback {
		m.logger.WarnContext(ctx, "model output unrecoverable, using fallback confidence",
			"confidence", res.Confidence,
			"error", res.Issue,
		)
	}
	return res, attempts, nil
}

func (m *Mapper) fail(ctx context.Context, out *RecordOutcome, err error) {
	out.State = StateFailed
	out.err = err
	if err != nil {
		out.Error = err.Error()
	}
	m.logger.ErrorContext(ctx, "record failed",
		"index", out.Index,
		"chunks", out.Chunks,
		"attempts", out.Attempts,
		"error", err,
	)
}

func (m *Mapper) recordCompletion(class providers.StatusClass, attempts int, d time.Duration) {
	if m.recorder != nil {
		m.recorder.RecordCompletion(string(class), attempts, d)
	}
}

func attemptsOf(outcome *providers.Outcome, err error) int {
	if outcome != nil {
		return outcome.Attempts
	}
	var rerr *providers.RetryError
	if errors.As(err, &rerr) {
		return rerr.Attempts
	}
	return 0
}

func firstIssue(results []normalize.Result) error {
	for _, r := range results {
		if r.Issue != nil {
			return r.Issue
		}
	}
	return nil
}

// stageError tags a chunk failure with the step that produced it.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func stage(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return "completion"
}
