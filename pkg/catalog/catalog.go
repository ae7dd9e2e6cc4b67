package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoFields is returned when no usable target field was found.
var ErrNoFields = errors.New("no target fields found")

// Field is one target field.
type Field struct {
	Code string `json:"field_code" yaml:"code"`
	Name string `json:"field_name" yaml:"name"`
}

// String renders the field as it appears in prompts.
func (f Field) String() string {
	return "[" + f.Code + "] " + f.Name
}

// Catalog is an ordered set of target fields keyed by code.
type Catalog struct {
	fields []Field
	index  map[string]int
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Parse builds a catalog from entries. Blank entries and entries with an
// empty code or name are skipped. A repeated code replaces the earlier name
// and keeps its position.
func Parse(entries []string) (*Catalog, error) {
	c := New()
	for _, entry := range entries {
		c.AddEntry(entry)
	}
	if c.Len() == 0 {
		return nil, ErrNoFields
	}
	return c, nil
}

// AddEntry parses and adds a single entry. It reports whether a field was
// added or updated.
func (c *Catalog) AddEntry(entry string) bool {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return false
	}
	idx := strings.IndexAny(entry, ":-")
	if idx == -1 {
		return c.Add(Field{Code: fmt.Sprintf("F%d", c.Len()+1), Name: entry})
	}
	return c.Add(Field{
		Code: strings.TrimSpace(entry[:idx]),
		Name: strings.TrimSpace(entry[idx+1:]),
	})
}

// Add inserts or replaces a field.
func (c *Catalog) Add(f Field) bool {
	if f.Code == "" || f.Name == "" {
		return false
	}
	if i, ok := c.index[f.Code]; ok {
		c.fields[i] = f
		return true
	}
	c.index[f.Code] = len(c.fields)
	c.fields = append(c.fields, f)
	return true
}

// Lookup returns the field with code.
func (c *Catalog) Lookup(code string) (Field, bool) {
	i, ok := c.index[code]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// Fields returns the fields in insertion order.
func (c *Catalog) Fields() []Field {
	return append([]Field(nil), c.fields...)
}

// Len returns the number of fields.
func (c *Catalog) Len() int {
	return len(c.fields)
}
