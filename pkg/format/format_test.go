package format

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcm-hq/intellimap/pkg/records"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Format
	}{
		{"json object", `{"a":"b"}`, FormatJSONObject},
		{"json array", ` [{"a":"b"},{"a":"c"}] `, FormatJSONArray},
		{"delimited", `[*F1:a,*F2:b]`, FormatDelimitedDictionary},
		{"delimited multi", `[*F1:a] ; [*F1:b]`, FormatDelimitedDictionary},
		{"delimited no star", `[Name:Bob,Age:3]`, FormatDelimitedDictionary},
		{"bare blacklisted word", `{"field":Production Ready}`, FormatDelimitedDictionary},
		{"quoted blacklisted word", `{"field":"Production Ready"}`, FormatJSONObject},
		{"json object trailing comma", `{"a":1,}`, FormatJSONObject},
		{"json array trailing comma", `[{"a":1},]`, FormatJSONArray},
		{"key value", "name=Bob\nage=3", FormatKeyValueLines},
		{"fallback", "just some text", FormatDelimitedDictionary},
	}

	d := NewDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Detect(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "format %s", got)
		})
	}
}

func TestDetector_RuleOrder(t *testing.T) {
	d := NewDetector(nil)
	rules := d.Rules()

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"json", "delimited", "key_value"}, names)

	// JSON wins over key=value when both could match.
	assert.True(t, rules[0].Match(`{"expr":"a=b"}`))
	assert.True(t, rules[2].Match(`{"expr":"a=b"}`))

	rules[0] = Rule{Name: "replaced"}
	assert.Equal(t, "json", d.Rules()[0].Name, "Rules returns a copy")
}

func TestDetect_EmptyInput(t *testing.T) {
	d := NewDetector(nil)
	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := d.Detect(in)
		assert.ErrorIs(t, err, ErrEmptyInput)

		var fe *FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, FormatUnknown, fe.Format)
	}
}

func TestParse_DelimitedRoundTrip(t *testing.T) {
	p := NewParser(WithLogger(quietLogger()))

	f, recs, err := p.Parse(`[*F1:a,*F2:b]`)
	require.NoError(t, err)
	assert.Equal(t, FormatDelimitedDictionary, f)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"F1", "F2"}, recs[0].Keys())
	assert.Equal(t, "a", recs[0].Value("F1"))
	assert.Equal(t, "b", recs[0].Value("F2"))
}

func TestParse_DelimitedSeparators(t *testing.T) {
	inputs := []string{
		`[*F1:a] ; [*F1:b]`,
		`[*F1:a]; [*F1:b]`,
		`[*F1:a] [*F1:b]`,
		`[*F1:a][*F1:b]`,
		`[*F1:a],[*F1:b]`,
		`[*F1:a] , [*F1:b]`,
	}
	p := NewParser(WithLogger(quietLogger()))
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, recs, err := p.Parse(in)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, "a", recs[0].Value("F1"))
			assert.Equal(t, "b", recs[1].Value("F1"))
		})
	}
}

func TestSplitRecords_Priority(t *testing.T) {
	// "]; [" outranks "] [" so the inner space separated pair stays intact.
	got := SplitRecords(`[*A:1] [*B:2]; [*C:3]`)
	assert.Equal(t, []string{`[*A:1] [*B:2]`, `[*C:3]`}, got)
}

func TestSplitRecords_IgnoresNestedBrackets(t *testing.T) {
	got := SplitRecords(`[*F1:[x],[y],*F2:b]`)
	assert.Equal(t, []string{`[*F1:[x],[y],*F2:b]`}, got)
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		keys  []string
		nulls []string
		vals  map[string]string
	}{
		{
			name: "nested value kept whole",
			in:   `[*F1:[x,y],*F2:b]`,
			keys: []string{"F1", "F2"},
			vals: map[string]string{"F1": "[x,y]", "F2": "b"},
		},
		{
			name:  "null forms",
			in:    `[*F1:null,*F2:,F3]`,
			keys:  []string{"F1", "F2", "F3"},
			nulls: []string{"F1", "F2", "F3"},
		},
		{
			name: "first colon splits",
			in:   `[*Time:10:30, *Note :  spaced  ]`,
			keys: []string{"Time", "Note"},
			vals: map[string]string{"Time": "10:30", "Note": "spaced"},
		},
		{
			name: "empty names skipped",
			in:   `[:x,*:y,*K:v,,]`,
			keys: []string{"K"},
			vals: map[string]string{"K": "v"},
		},
		{
			name: "no outer brackets",
			in:   `A:1,B:2`,
			keys: []string{"A", "B"},
			vals: map[string]string{"A": "1", "B": "2"},
		},
		{
			name: "no type coercion",
			in:   `[*N:007,*B:TRUE]`,
			keys: []string{"N", "B"},
			vals: map[string]string{"N": "007", "B": "TRUE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeRecord(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.keys, rec.Keys())
			for k, v := range tt.vals {
				assert.Equal(t, v, rec.Value(k), "field %s", k)
			}
			for _, k := range tt.nulls {
				v, ok := rec.Get(k)
				assert.True(t, ok, "field %s present", k)
				assert.Nil(t, v, "field %s null", k)
			}
		})
	}
}

func TestParse_NoFieldsFound(t *testing.T) {
	p := NewParser(WithLogger(quietLogger()))
	for _, in := range []string{"[]", "[ , ]", "[] ; []"} {
		_, _, err := p.Parse(in)
		assert.ErrorIs(t, err, ErrNoFieldsFound, "input %q", in)
	}
}

func TestParse_SkipsEmptyFragment(t *testing.T) {
	p := NewParser(WithLogger(quietLogger()))
	_, recs, err := p.Parse(`[*F1:a]; [ ]; [*F1:c]`)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "c", recs[1].Value("F1"))
}

func TestParse_KeyValueLines(t *testing.T) {
	p := NewParser(WithLogger(quietLogger()))
	f, recs, err := p.Parse("a = 1\n=ignored\nno separator\nb=x=y\n")
	require.NoError(t, err)
	assert.Equal(t, FormatKeyValueLines, f)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"a", "b"}, recs[0].Keys())
	assert.Equal(t, "1", recs[0].Value("a"))
	assert.Equal(t, "x=y", recs[0].Value("b"))
}

func TestDecodeKeyValueLines_Empty(t *testing.T) {
	_, err := DecodeKeyValueLines("=x\n = y")
	assert.ErrorIs(t, err, ErrNoFieldsFound)
}

func TestParse_JSON(t *testing.T) {
	p := NewParser(WithLogger(quietLogger()))
	f, recs, err := p.Parse(`[{"z":"1","a":2,"b":true,"c":null,"d":{"x":[1, 2]}}, 5, "s", {"k":"v"}]`)
	require.NoError(t, err)
	assert.Equal(t, FormatJSONArray, f)
	require.Len(t, recs, 2, "non-object elements are skipped")

	rec := recs[0]
	assert.Equal(t, []string{"z", "a", "b", "c", "d"}, rec.Keys())
	assert.Equal(t, "1", rec.Value("z"))
	assert.Equal(t, "2", rec.Value("a"))
	assert.Equal(t, "true", rec.Value("b"))
	assert.Equal(t, `{"x":[1,2]}`, rec.Value("d"))
	v, ok := rec.Get("c")
	assert.True(t, ok)
	assert.Nil(t, v)

	assert.Equal(t, "v", recs[1].Value("k"))
}

func TestParse_JSONObject(t *testing.T) {
	p := NewParser(WithLogger(quietLogger()))
	f, recs, err := p.Parse(`{"name":"Production Ready","qty":"3"}`)
	require.NoError(t, err)
	assert.Equal(t, FormatJSONObject, f)
	require.Len(t, recs, 1)
	assert.Equal(t, "Production Ready", recs[0].Value("name"))
}

func TestParse_MalformedJSONIsRejected(t *testing.T) {
	p := NewParser(WithLogger(quietLogger()))
	for _, in := range []string{`{"a":1,}`, `[{"a":1,}]`, `{"a":1} {"b":2}`} {
		f, recs, err := p.Parse(in)
		assert.ErrorIs(t, err, ErrMalformed, "input %s", in)
		assert.True(t, f.IsJSON(), "input %s detected as %s", in, f)
		assert.Nil(t, recs)
	}
}

func TestJSONDecoder_TopLevelScalar(t *testing.T) {
	d := NewJSONDecoder(quietLogger())
	for _, in := range []string{`"text"`, `42`, `true`} {
		_, err := d.Decode(in)
		assert.ErrorIs(t, err, ErrUnsupported, "input %s", in)
	}
}

func TestJSONDecoder_Malformed(t *testing.T) {
	d := NewJSONDecoder(quietLogger())
	_, err := d.Decode(`{"a":}`)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParse_CustomBlacklist(t *testing.T) {
	p := NewParser(WithBlacklist([]string{"Widget"}), WithLogger(quietLogger()))

	f, err := p.Detect(`[{"a":Widget}]`)
	require.NoError(t, err)
	assert.Equal(t, FormatDelimitedDictionary, f)

	// The default list no longer applies.
	assert.Equal(t, []string{"Widget"}, p.Scanner().Blacklist())
}

func TestParse_WithDecoder(t *testing.T) {
	called := false
	custom := DecoderFunc(func(text string) ([]*records.Record, error) {
		called = true
		r := records.New()
		r.SetString("raw", text)
		return []*records.Record{r}, nil
	})

	p := NewParser(WithDecoder(FormatKeyValueLines, custom))
	_, recs, err := p.Parse("a=b")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "a=b", recs[0].Value("raw"))
}

func TestParseInput_Structured(t *testing.T) {
	p := NewParser()

	f, recs, err := p.ParseInput(records.FromMap(map[string]any{"b": 1.5, "a": "x", "c": nil}))
	require.NoError(t, err)
	assert.Equal(t, FormatStructured, f)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"a", "b", "c"}, recs[0].Keys())
	assert.Equal(t, "1.5", recs[0].Value("b"))

	_, _, err = p.ParseInput(records.FromMaps(nil))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseInput_Text(t *testing.T) {
	p := NewParser()
	f, recs, err := p.ParseInput(records.FromText(`[*F1:a]`))
	require.NoError(t, err)
	assert.Equal(t, FormatDelimitedDictionary, f)
	assert.Len(t, recs, 1)
}

func TestFormatError_Message(t *testing.T) {
	err := newFormatError(ErrMalformed, FormatJSONArray, "element 2", errors.New("boom"))
	assert.Equal(t, "malformed input (json_array): element 2: boom", err.Error())
	assert.ErrorIs(t, err, ErrMalformed)
	assert.NotErrorIs(t, err, ErrNoFieldsFound)
}
