package format

import "lcm-hq/intellimap/pkg/records"

// Format is a detected input shape.
type Format int

const (
	// FormatUnknown means detection has not run or failed.
	FormatUnknown Format = iota

	// FormatJSONObject is a single JSON object.
	FormatJSONObject

	// FormatJSONArray is a JSON array of objects.
	FormatJSONArray

	// FormatDelimitedDictionary is bracketed name:value text.
	FormatDelimitedDictionary

	// FormatKeyValueLines is newline separated key=value text.
	FormatKeyValueLines

	// FormatStructured is input that arrived already structured.
	FormatStructured
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSONObject:
		return "json_object"
	case FormatJSONArray:
		return "json_array"
	case FormatDelimitedDictionary:
		return "delimited_dictionary"
	case FormatKeyValueLines:
		return "key_value_lines"
	case FormatStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// IsJSON reports whether f is one of the JSON formats.
func (f Format) IsJSON() bool {
	return f == FormatJSONObject || f == FormatJSONArray
}

// Decoder turns text of one format into records.
type Decoder interface {
	Decode(text string) ([]*records.Record, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(text string) ([]*records.Record, error)

// Decode calls f(text).
func (f DecoderFunc) Decode(text string) ([]*records.Record, error) {
	return f(text)
}
