package format

import (
	"fmt"
	"log/slog"
	"strings"

	"lcm-hq/intellimap/pkg/records"
)

// DelimitedDecoder reads bracketed name:value dictionaries such as
// [*F1:value,*F2:other]. Several records may be joined with "]; [",
// "] [" or "],[".
type DelimitedDecoder struct {
	logger *slog.Logger
}

// NewDelimitedDecoder returns a decoder that logs skipped fragments to logger.
func NewDelimitedDecoder(logger *slog.Logger) *DelimitedDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &DelimitedDecoder{logger: logger}
}

// Decode implements Decoder. A fragment that yields no fields is skipped;
// the call fails only when every fragment does.
func (d *DelimitedDecoder) Decode(text string) ([]*records.Record, error) {
	fragments := SplitRecords(text)

	var out []*records.Record
	for i, fragment := range fragments {
		rec, err := DecodeRecord(fragment)
		if err != nil {
			if len(fragments) > 1 {
				d.logger.Warn("skipping delimited fragment",
					"index", i,
					"fragments", len(fragments),
					"error", err,
				)
			}
			continue
		}
		out = append(out, rec)
	}

	if len(out) == 0 {
		detail := ""
		if len(fragments) > 1 {
			detail = fmt.Sprintf("all %d fragments were empty", len(fragments))
		}
		return nil, newFormatError(ErrNoFieldsFound, FormatDelimitedDictionary, detail, nil)
	}
	return out, nil
}

// SplitRecords splits multi-record delimited text at its top level
// separators and restores the brackets each fragment lost in the split.
// Text without a separator is returned as a single fragment.
func SplitRecords(text string) []string {
	t := strings.TrimSpace(text)
	locs, ok := findSeparator(t)
	if !ok {
		return []string{t}
	}

	fragments := make([]string, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		fragments = append(fragments, t[prev:loc[0]+1])
		prev = loc[1] - 1
	}
	fragments = append(fragments, t[prev:])

	for i, f := range fragments {
		f = strings.TrimSpace(f)
		if !strings.HasPrefix(f, "[") {
			f = "[" + f
		}
		if !strings.HasSuffix(f, "]") {
			f += "]"
		}
		fragments[i] = f
	}
	return fragments
}

// DecodeRecord decodes a single delimited record.
func DecodeRecord(text string) (*records.Record, error) {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
		t = t[1 : len(t)-1]
	}

	rec := records.New()
	for _, entry := range splitTopLevel(t, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, value, hasValue := strings.Cut(entry, ":")
		name = strings.TrimPrefix(strings.TrimSpace(name), "*")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !hasValue {
			rec.SetNull(name)
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || value == "null" {
			rec.SetNull(name)
			continue
		}
		rec.SetString(name, value)
	}

	if rec.Len() == 0 {
		return nil, newFormatError(ErrNoFieldsFound, FormatDelimitedDictionary, "", nil)
	}
	return rec, nil
}

// splitTopLevel splits text on sep where the bracket depth is zero.
func splitTopLevel(text string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, text[start:])
}
