package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// DocIDField is the field used as a record's natural identifier when present.
const DocIDField = "DOC_ID"

// Record maps non-empty field names to optional string values.
// A nil value represents an explicit null. The zero Record is empty and ready
// to use. Record is not safe for concurrent mutation.
type Record struct {
	keys   []string
	values map[string]*string
}

// New returns an empty record.
func New() *Record {
	return &Record{values: make(map[string]*string)}
}

// Set stores value under key. An existing key keeps its position and takes
// the new value. Empty keys are ignored and Set reports false.
func (r *Record) Set(key string, value *string) bool {
	if key == "" {
		return false
	}
	if r.values == nil {
		r.values = make(map[string]*string)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return true
}

// SetString stores a non-null value.
func (r *Record) SetString(key, value string) bool {
	return r.Set(key, &value)
}

// SetNull stores an explicit null.
func (r *Record) SetNull(key string) bool {
	return r.Set(key, nil)
}

// Get returns the value stored under key. ok is false when the key is absent;
// a present null returns (nil, true).
func (r *Record) Get(key string) (value *string, ok bool) {
	value, ok = r.values[key]
	return value, ok
}

// Value returns the string under key, or "" for absent or null fields.
func (r *Record) Value(key string) string {
	if v, ok := r.values[key]; ok && v != nil {
		return *v
	}
	return ""
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// Subset returns a new record holding only keys, in the given order. Keys
// not present in r are skipped.
func (r *Record) Subset(keys []string) *Record {
	out := New()
	for _, k := range keys {
		if v, ok := r.values[k]; ok {
			out.Set(k, v)
		}
	}
	return out
}

// ID returns a stable identifier: "doc_<DOC_ID>" when the record carries a
// non-null DOC_ID, otherwise "record_" plus a hash of its non-null fields in
// order.
func (r *Record) ID() string {
	if v, ok := r.values[DocIDField]; ok && v != nil && *v != "" {
		return "doc_" + *v
	}

	h := xxhash.New()
	for _, k := range r.keys {
		if v := r.values[k]; v != nil {
			_, _ = h.WriteString(k)
			_, _ = h.WriteString(":")
			_, _ = h.WriteString(*v)
			_, _ = h.WriteString("|")
		}
	}
	return "record_" + strconv.FormatUint(h.Sum64(), 16)
}

// MarshalJSON encodes the record as a JSON object in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		v := r.values[k]
		if v == nil {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(*v)
		if err != nil {
			return nil, fmt.Errorf("encode value of %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSON returns the compact JSON form, or "{}" if encoding fails.
func (r *Record) JSON() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
