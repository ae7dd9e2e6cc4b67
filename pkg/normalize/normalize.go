package normalize

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"lcm-hq/intellimap/pkg/jsonscan"
)

// ContentPath locates the assistant message in the envelope.
const ContentPath = "choices.0.message.content"

// Confidence constants used by DefaultConfig.
const (
	DefaultConfidence    = 0.5
	DefaultFallback      = 0.3
	DefaultErrorFallback = 0.1
	DefaultPerObject     = 75.0
)

const (
	previewLimit       = 200
	resultKey          = "result"
	confidenceLevelKey = "confidence_level"
	confidenceKey      = "confidence"
	maxConfidence      = 100.0
)

// Path names the recovery step that produced a Result.
type Path string

const (
	PathDirect    Path = "direct"
	PathExtracted Path = "extracted"
	PathRepaired  Path = "repaired"
	PathFallback  Path = "fallback"
)

// Config holds the confidence constants.
type Config struct {
	// Default is used for an empty field list.
	Default float64

	// Fallback is used when structured content could not be recovered.
	Fallback float64

	// ErrorFallback is used when content had no JSON structure at all.
	ErrorFallback float64

	// PerObject is the confidence of an object that states none.
	PerObject float64
}

// DefaultConfig returns the standard confidence constants.
func DefaultConfig() Config {
	return Config{
		Default:       DefaultConfidence,
		Fallback:      DefaultFallback,
		ErrorFallback: DefaultErrorFallback,
		PerObject:     DefaultPerObject,
	}
}

// Result is the normalized output for one completion.
type Result struct {
	// Fields are the mapped items in model order, as compact JSON.
	Fields []json.RawMessage

	// Confidence is the aggregate confidence of Fields.
	Confidence float64

	// Path is the recovery step that produced Fields.
	Path Path

	// Issue explains a fallback; nil otherwise.
	Issue error
}

// JSON returns Fields as a JSON array.
func (r Result) JSON() string {
	return FieldsJSON(r.Fields)
}

// FieldsJSON renders fields as a JSON array.
func FieldsJSON(fields []json.RawMessage) string {
	if len(fields) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(f)
	}
	b.WriteByte(']')
	return b.String()
}

// PathRecorder observes which recovery path each normalization took.
type PathRecorder interface {
	RecordNormalizePath(path string)
}

// Normalizer converts completion bodies into Results. It is safe for
// concurrent use.
type Normalizer struct {
	cfg      Config
	scanner  *jsonscan.Scanner
	logger   *slog.Logger
	recorder PathRecorder
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithScanner sets the scanner used for structure checks and repair.
func WithScanner(s *jsonscan.Scanner) Option {
	return func(n *Normalizer) {
		if s != nil {
			n.scanner = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithRecorder sets the path recorder.
func WithRecorder(r PathRecorder) Option {
	return func(n *Normalizer) {
		n.recorder = r
	}
}

// New creates a Normalizer.
func New(cfg Config, opts ...Option) *Normalizer {
	n := &Normalizer{
		cfg:     cfg,
		scanner: jsonscan.New(nil),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ExtractContent returns the assistant content from a completion envelope.
func ExtractContent(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &ContentError{Kind: KindNoContent, Detail: "response envelope is not JSON", Preview: preview(string(body))}
	}
	res := gjson.GetBytes(body, ContentPath)
	if !res.Exists() || res.Type == gjson.Null {
		return "", &ContentError{Kind: KindNoContent, Detail: "no message content in response"}
	}
	content := res.String()
	if strings.TrimSpace(content) == "" {
		return "", &ContentError{Kind: KindNoContent, Detail: "message content is empty"}
	}
	return content, nil
}

// Normalize reads the envelope and normalizes its content. The only error
// it returns is a NoContent ContentError.
func (n *Normalizer) Normalize(body []byte) (Result, error) {
	content, err := ExtractContent(body)
	if err != nil {
		return Result{}, err
	}
	return n.NormalizeContent(content), nil
}

// NormalizeContent runs the recovery chain over content. It never fails;
// an unusable payload yields an empty fallback Result.
func (n *Normalizer) NormalizeContent(content string) Result {
	text := jsonscan.StripFences(content)
	res := n.recover(text)
	if n.recorder != nil {
		n.recorder.RecordNormalizePath(string(res.Path))
	}
	return res
}

func (n *Normalizer) recover(text string) Result {
	if fields, ok := decodeFields(text); ok {
		return n.result(fields, PathDirect)
	}
	n.logger.Debug("content is not valid JSON", "preview", preview(text))

	candidate := text
	if !n.scanner.Valid(text) {
		if extracted, ok := n.scanner.Extract(text); ok {
			if fields, ok := decodeFields(extracted); ok {
				n.logger.Warn("extracted JSON from mixed content", "preview", preview(text))
				return n.result(fields, PathExtracted)
			}
			candidate = extracted
		}
	}

	repaired := n.scanner.Repair(candidate)
	if fields, ok := decodeFields(repaired); ok {
		n.logger.Warn("repaired malformed JSON content", "preview", preview(text))
		return n.result(fields, PathRepaired)
	}

	confidence := n.cfg.Fallback
	detail := "content could not be repaired"
	if !strings.ContainsAny(text, "[{") {
		confidence = n.cfg.ErrorFallback
		detail = "content has no JSON structure"
	}
	n.logger.Warn("falling back to empty result",
		"reason", detail,
		"preview", preview(text),
	)
	return Result{
		Fields:     []json.RawMessage{},
		Confidence: confidence,
		Path:       PathFallback,
		Issue:      &ContentError{Kind: KindUnrecoverable, Detail: detail, Preview: preview(text)},
	}
}

func (n *Normalizer) result(fields []json.RawMessage, path Path) Result {
	return Result{
		Fields:     fields,
		Confidence: n.Confidence(fields),
		Path:       path,
	}
}

// Merge concatenates the fields of several results in order and scores the
// merged list. When nothing is left and some result fell back, the merge
// keeps that fallback's confidence and issue.
func (n *Normalizer) Merge(results ...Result) Result {
	merged := make([]json.RawMessage, 0)
	path := PathDirect
	var fallback *Result
	for i, r := range results {
		merged = append(merged, r.Fields...)
		if pathRank(r.Path) > pathRank(path) {
			path = r.Path
		}
		if r.Path == PathFallback && fallback == nil {
			fallback = &results[i]
		}
	}
	if len(merged) == 0 && fallback != nil {
		return Result{
			Fields:     merged,
			Confidence: fallback.Confidence,
			Path:       PathFallback,
			Issue:      fallback.Issue,
		}
	}
	return Result{
		Fields:     merged,
		Confidence: n.Confidence(merged),
		Path:       path,
	}
}

func pathRank(p Path) int {
	switch p {
	case PathExtracted:
		return 1
	case PathRepaired:
		return 2
	case PathFallback:
		return 3
	default:
		return 0
	}
}

// Confidence scores a field list. Objects stating a numeric confidence are
// averaged; if none does, each object counts as PerObject. A list without
// objects scores Default.
func (n *Normalizer) Confidence(fields []json.RawMessage) float64 {
	var (
		sum     float64
		stated  int
		objects int
	)
	for _, f := range fields {
		item := gjson.ParseBytes(f)
		if !item.IsObject() {
			continue
		}
		objects++
		if v, ok := statedConfidence(item); ok {
			sum += v
			stated++
		}
	}

	switch {
	case stated > 0:
		return sum / float64(stated)
	case objects > 0:
		return n.cfg.PerObject
	default:
		return n.cfg.Default
	}
}

func statedConfidence(item gjson.Result) (float64, bool) {
	for _, key := range []string{confidenceLevelKey, confidenceKey} {
		v := item.Get(key)
		switch v.Type {
		case gjson.Number:
			return clampConfidence(v.Float()), true
		case gjson.String:
			if num := gjson.Parse(strings.TrimSpace(v.Str)); num.Type == gjson.Number {
				return clampConfidence(num.Float()), true
			}
		}
	}
	return 0, false
}

// clampConfidence bounds a stated confidence to the 0..100 scale.
func clampConfidence(v float64) float64 {
	return math.Min(math.Max(v, 0), maxConfidence)
}

// decodeFields adopts an array, an object's "result" array, or a single
// object. Anything else is rejected.
func decodeFields(text string) ([]json.RawMessage, bool) {
	text = strings.TrimSpace(text)
	if text == "" || !gjson.Valid(text) {
		return nil, false
	}

	root := gjson.Parse(text)
	switch {
	case root.IsArray():
		return rawItems(root), true
	case root.IsObject():
		if inner := root.Get(resultKey); inner.IsArray() {
			return rawItems(inner), true
		}
		return []json.RawMessage{compact(root.Raw)}, true
	default:
		return nil, false
	}
}

func rawItems(arr gjson.Result) []json.RawMessage {
	items := arr.Array()
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		out = append(out, compact(item.Raw))
	}
	return out
}

func compact(raw string) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return json.RawMessage(raw)
	}
	return json.RawMessage(buf.Bytes())
}

// preview shortens s for logs without splitting a UTF-8 sequence.
func preview(s string) string {
	if len(s) <= previewLimit {
		return s
	}
	cut := previewLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
