package records

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies which variant a RawInput holds.
type Kind int

const (
	// KindText is unparsed text that still needs format detection.
	KindText Kind = iota

	// KindMap is a single structured mapping.
	KindMap

	// KindMaps is a sequence of structured mappings.
	KindMaps
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMap:
		return "map"
	case KindMaps:
		return "maps"
	default:
		return "unknown"
	}
}

// RawInput is the union of inputs a caller can hand to the mapper.
type RawInput struct {
	kind Kind
	text string
	maps []map[string]any
}

// FromText wraps raw text.
func FromText(text string) RawInput {
	return RawInput{kind: KindText, text: text}
}

// FromMap wraps a single mapping.
func FromMap(m map[string]any) RawInput {
	return RawInput{kind: KindMap, maps: []map[string]any{m}}
}

// FromMaps wraps a sequence of mappings.
func FromMaps(ms []map[string]any) RawInput {
	return RawInput{kind: KindMaps, maps: ms}
}

// FromValue classifies an arbitrary decoded value: strings become text,
// objects a single map, and arrays a sequence of maps. Non-object array
// elements are reported in skipped.
func FromValue(v any) (in RawInput, skipped int, err error) {
	switch val := v.(type) {
	case string:
		return FromText(val), 0, nil
	case map[string]any:
		return FromMap(val), 0, nil
	case []map[string]any:
		return FromMaps(val), 0, nil
	case []any:
		ms := make([]map[string]any, 0, len(val))
		for _, el := range val {
			if m, ok := el.(map[string]any); ok {
				ms = append(ms, m)
			} else {
				skipped++
			}
		}
		return FromMaps(ms), skipped, nil
	case nil:
		return RawInput{}, 0, fmt.Errorf("input value is null")
	default:
		return RawInput{}, 0, fmt.Errorf("input must be text, a mapping or a list of mappings, got %T", v)
	}
}

// Kind returns the variant held.
func (in RawInput) Kind() Kind { return in.kind }

// Text returns the text variant.
func (in RawInput) Text() string { return in.text }

// Maps returns the structured variants (one element for KindMap).
func (in RawInput) Maps() []map[string]any { return in.maps }

// FromMapValue converts a structured mapping into a Record. Keys are sorted
// since map order is unspecified. Values are rendered as text: strings
// verbatim, nil as null, other scalars by their JSON literal, nested values as
// compact JSON.
func FromMapValue(m map[string]any) *Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r := New()
	for _, k := range keys {
		r.Set(k, renderValue(m[k]))
	}
	return r
}

func renderValue(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case bool:
		s = strconv.FormatBool(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		s = val.String()
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprint(val)
		} else {
			s = string(b)
		}
	}
	return &s
}
