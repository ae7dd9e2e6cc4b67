package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"lcm-hq/intellimap/pkg/records"
)

// JSONDecoder decodes a JSON object or an array of objects, keeping field
// order as written. Scalars become their JSON literal text, nested values
// stay as compact JSON and null becomes a null field.
type JSONDecoder struct {
	logger *slog.Logger
}

// NewJSONDecoder returns a decoder that logs skipped array elements to logger.
func NewJSONDecoder(logger *slog.Logger) *JSONDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONDecoder{logger: logger}
}

// Decode implements Decoder.
func (d *JSONDecoder) Decode(text string) ([]*records.Record, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, newFormatError(ErrEmptyInput, FormatUnknown, "", nil)
	}

	switch t[0] {
	case '{':
		rec, err := DecodeObject([]byte(t))
		if err != nil {
			return nil, newFormatError(ErrMalformed, FormatJSONObject, "", err)
		}
		return []*records.Record{rec}, nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal([]byte(t), &elems); err != nil {
			return nil, newFormatError(ErrMalformed, FormatJSONArray, "", err)
		}
		out := make([]*records.Record, 0, len(elems))
		for i, elem := range elems {
			elem = bytes.TrimSpace(elem)
			if len(elem) == 0 || elem[0] != '{' {
				d.logger.Warn("skipping non-object array element", "index", i)
				continue
			}
			rec, err := DecodeObject(elem)
			if err != nil {
				return nil, newFormatError(ErrMalformed, FormatJSONArray, fmt.Sprintf("element %d", i), err)
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, newFormatError(ErrUnsupported, FormatUnknown, "top level JSON value must be an object or array", nil)
	}
}

// DecodeObject decodes one JSON object into a record in key order.
func DecodeObject(data []byte) (*records.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	rec := records.New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		value, err := renderRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		if key == "" {
			continue
		}
		rec.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if dec.InputOffset() != int64(len(bytes.TrimRight(data, " \t\r\n"))) {
		return nil, fmt.Errorf("unexpected data after object at offset %d", dec.InputOffset())
	}
	return rec, nil
}

func renderRaw(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		return nil, nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &s, nil
	case raw[0] == '{' || raw[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		s := buf.String()
		return &s, nil
	default:
		s := string(raw)
		return &s, nil
	}
}
