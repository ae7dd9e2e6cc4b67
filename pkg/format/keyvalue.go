package format

import (
	"strings"

	"lcm-hq/intellimap/pkg/records"
)

// DecodeKeyValueLines reads one key=value pair per line into a single
// record. Lines without '=' and pairs with an empty key are ignored.
func DecodeKeyValueLines(text string) ([]*records.Record, error) {
	rec := records.New()
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		rec.SetString(key, strings.TrimSpace(value))
	}
	if rec.Len() == 0 {
		return nil, newFormatError(ErrNoFieldsFound, FormatKeyValueLines, "", nil)
	}
	return []*records.Record{rec}, nil
}
