package mapper

import (
	"encoding/json"
	"time"

	"lcm-hq/intellimap/pkg/normalize"
)

// State is the lifecycle position of one record.
type State string

const (
	StatePending   State = "pending"
	StateParsed    State = "parsed"
	StateSubmitted State = "submitted"
	StateSuccess   State = "success"
	StateSkipped   State = "skipped"
	StateFailed    State = "failed"
)

// Final reports whether s is a terminal state.
func (s State) Final() bool {
	return s == StateSuccess || s == StateSkipped || s == StateFailed
}

// RecordOutcome is what happened to one parsed record.
type RecordOutcome struct {
	RecordID   string            `json:"record_id"`
	Index      int               `json:"index"`
	State      State             `json:"state"`
	Error      string            `json:"error,omitempty"`
	Confidence float64           `json:"confidence"`
	Fields     []json.RawMessage `json:"fields,omitempty"`
	Path       normalize.Path    `json:"path,omitempty"`

	// Chunks is the number of submissions made for the record.
	Chunks        int `json:"chunks"`
	ChunksFailed  int `json:"chunks_failed,omitempty"`
	ChunksDropped int `json:"chunks_dropped,omitempty"`

	// Attempts sums completion attempts over all chunks.
	Attempts int `json:"attempts"`

	err error
}

// Err returns the error that failed or skipped the record, if any.
func (o RecordOutcome) Err() error {
	return o.err
}

// AggregateResult is the outcome of one Map call.
type AggregateResult struct {
	BatchID  string `json:"batch_id"`
	ClientID string `json:"client_id"`
	Format   string `json:"format"`

	Records []RecordOutcome `json:"records"`

	// Fields are the mapped items of every successful record, in record order.
	Fields []json.RawMessage `json:"fields"`

	// Confidence is the mean record confidence over successes, 0 if none.
	Confidence float64 `json:"confidence"`

	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
}

// JSON returns the mapped fields as a JSON array.
func (r *AggregateResult) JSON() string {
	return normalize.FieldsJSON(r.Fields)
}

// add appends an outcome and folds it into the totals.
func (r *AggregateResult) add(o RecordOutcome) {
	r.Records = append(r.Records, o)
	switch o.State {
	case StateSuccess:
		r.Succeeded++
		r.Fields = append(r.Fields, o.Fields...)
	case StateSkipped:
		r.Skipped++
	case StateFailed:
		r.Failed++
	}
}

// finish computes the aggregate confidence.
func (r *AggregateResult) finish(started time.Time) {
	if r.Fields == nil {
		r.Fields = []json.RawMessage{}
	}
	r.Confidence = meanConfidence(r.Records)
	r.Duration = time.Since(started)
}

func meanConfidence(outcomes []RecordOutcome) float64 {
	var (
		sum float64
		n   int
	)
	for _, o := range outcomes {
		if o.State == StateSuccess {
			sum += o.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
