package normalize

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, content any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

type pathCounter struct {
	mu    sync.Mutex
	paths map[string]int
}

func (p *pathCounter) RecordNormalizePath(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paths == nil {
		p.paths = make(map[string]int)
	}
	p.paths[path]++
}

func newTestNormalizer(opts ...Option) *Normalizer {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(DefaultConfig(), opts...)
}

func TestExtractContent(t *testing.T) {
	content, err := ExtractContent(envelope(t, "hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	tests := []struct {
		name string
		body []byte
	}{
		{"not json", []byte("<html>")},
		{"no choices", []byte(`{"id":"x"}`)},
		{"empty choices", []byte(`{"choices":[]}`)},
		{"null content", envelope(t, nil)},
		{"blank content", envelope(t, "   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractContent(tt.body)
			assert.ErrorIs(t, err, ErrNoContent)
			assert.NotErrorIs(t, err, ErrUnrecoverable)
		})
	}
}

func TestNormalize_NoContentFails(t *testing.T) {
	n := newTestNormalizer()
	_, err := n.Normalize([]byte(`{"choices":[{"message":{}}]}`))

	var ce *ContentError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindNoContent, ce.Kind)
}

func TestNormalizeContent_Paths(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		path       Path
		fields     int
		confidence float64
	}{
		{"array", `[{"field_code":"F1","confidence":80},{"field_code":"F2","confidence":60}]`, PathDirect, 2, 70},
		{"result wrapper", `{"result":[{"field_code":"F1","confidence_level":90}]}`, PathDirect, 1, 90},
		{"single object", `{"field_code":"F1","confidence":"65"}`, PathDirect, 1, 65},
		{"fenced", "```json\n[{\"a\":\"b\",\"confidence\":40}]\n```", PathDirect, 1, 40},
		{"prose around array", `Here you go: [{"a":"b","confidence":55}] hope it helps`, PathExtracted, 1, 55},
		{"prose around object", `Result {"a":"b","confidence":45} end`, PathExtracted, 1, 45},
		{"bare blacklisted value", `[{"field":Production Ready,"confidence":85}]`, PathRepaired, 1, 85},
		{"trailing comma", `[{"a":"b","confidence":30,},]`, PathRepaired, 1, 30},
		{"bare keys", `[{field_code: "F1", value: Prototype, confidence: 20}]`, PathRepaired, 1, 20},
		{"no confidence stated", `[{"a":"b"},{"c":"d"}]`, PathDirect, 2, DefaultPerObject},
		{"empty array", `[]`, PathDirect, 0, DefaultConfidence},
		{"unrepairable", `[{"a": "b" "c"}] {`, PathFallback, 0, DefaultFallback},
		{"plain text", `I could not map these fields.`, PathFallback, 0, DefaultErrorFallback},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := n.NormalizeContent(tt.content)
			assert.Equal(t, tt.path, res.Path)
			assert.Len(t, res.Fields, tt.fields)
			assert.InDelta(t, tt.confidence, res.Confidence, 1e-9)
			assert.True(t, json.Valid([]byte(res.JSON())), "JSON() must be valid: %s", res.JSON())
			if tt.path == PathFallback {
				assert.ErrorIs(t, res.Issue, ErrUnrecoverable)
			} else {
				assert.NoError(t, res.Issue)
			}
		})
	}
}

func TestNormalizeContent_RepairedValue(t *testing.T) {
	n := newTestNormalizer()
	res := n.NormalizeContent(`[{"field":Production Ready,"confidence":85}]`)
	require.Len(t, res.Fields, 1)
	assert.JSONEq(t, `{"field":"Production Ready","confidence":85}`, string(res.Fields[0]))
}

func TestNormalize_RecordsPath(t *testing.T) {
	counter := &pathCounter{}
	n := newTestNormalizer(WithRecorder(counter))

	_, err := n.Normalize(envelope(t, `[{"a":"b"}]`))
	require.NoError(t, err)
	_, err = n.Normalize(envelope(t, `nothing useful`))
	require.NoError(t, err)

	assert.Equal(t, 1, counter.paths["direct"])
	assert.Equal(t, 1, counter.paths["fallback"])
}

func TestConfidence(t *testing.T) {
	n := newTestNormalizer()
	raw := func(items ...string) []json.RawMessage {
		out := make([]json.RawMessage, len(items))
		for i, s := range items {
			out[i] = json.RawMessage(s)
		}
		return out
	}

	tests := []struct {
		name   string
		fields []json.RawMessage
		want   float64
	}{
		{"none", nil, DefaultConfidence},
		{"single", raw(`{"confidence":80}`), 80},
		{"level preferred", raw(`{"confidence_level":10,"confidence":90}`), 10},
		{"numeric string", raw(`{"confidence":" 42 "}`), 42},
		{"non numeric ignored", raw(`{"confidence":"high"}`, `{"confidence":60}`), 60},
		{"only unstated", raw(`{"a":1}`), DefaultPerObject},
		{"scalars only", raw(`"x"`, `3`), DefaultConfidence},
		{"above scale clamped", raw(`{"confidence":120}`), 100},
		{"below scale clamped", raw(`{"confidence":-5}`, `{"confidence":50}`), 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, n.Confidence(tt.fields), 1e-9)
		})
	}
}

func TestMerge(t *testing.T) {
	n := newTestNormalizer()
	a := n.NormalizeContent(`[{"field_code":"F1","confidence":90}]`)
	b := n.NormalizeContent(`[{"field":Production,"confidence":70}]`)

	merged := n.Merge(a, b)
	require.Len(t, merged.Fields, 2)
	assert.InDelta(t, 80, merged.Confidence, 1e-9)
	assert.Equal(t, PathRepaired, merged.Path)
	assert.JSONEq(t, `[{"field_code":"F1","confidence":90},{"field":"Production","confidence":70}]`, merged.JSON())
}

func TestMerge_AllChunksFallBack(t *testing.T) {
	n := newTestNormalizer()
	a := n.NormalizeContent("not json at all, [broken")
	b := n.NormalizeContent(`[{"a":Prod "x"}`)
	require.Equal(t, PathFallback, a.Path)
	require.Equal(t, PathFallback, b.Path)

	merged := n.Merge(a, b)
	assert.Empty(t, merged.Fields)
	assert.Equal(t, PathFallback, merged.Path)
	assert.InDelta(t, DefaultFallback, merged.Confidence, 1e-9)
	assert.InDelta(t, n.NormalizeContent("not json at all, [broken").Confidence, merged.Confidence, 1e-9)
	assert.ErrorIs(t, merged.Issue, ErrUnrecoverable)
}

func TestMerge_FallbackBesideFields(t *testing.T) {
	n := newTestNormalizer()
	a := n.NormalizeContent(`[{"field_code":"F1","confidence":90}]`)
	b := n.NormalizeContent("no structure here")

	merged := n.Merge(a, b)
	require.Len(t, merged.Fields, 1)
	assert.InDelta(t, 90, merged.Confidence, 1e-9)
	assert.Equal(t, PathFallback, merged.Path)
}

func TestPreview_KeepsRunesWhole(t *testing.T) {
	long := strings.Repeat("a", previewLimit-1) + "é" + "tail"
	got := preview(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", previewLimit-1)+"...", got)

	assert.Equal(t, "short", preview("short"))
}

func TestMerge_Empty(t *testing.T) {
	n := newTestNormalizer()
	merged := n.Merge()
	assert.Equal(t, "[]", merged.JSON())
	assert.InDelta(t, DefaultConfidence, merged.Confidence, 1e-9)
}

func TestContentError_Is(t *testing.T) {
	err := &ContentError{Kind: KindUnrecoverable, Detail: "x"}
	assert.ErrorIs(t, err, ErrUnrecoverable)
	assert.NotErrorIs(t, err, ErrNoContent)
	assert.Equal(t, "content error (unrecoverable): x", err.Error())
}
