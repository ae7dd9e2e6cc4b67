package format

import (
	"regexp"
	"strings"

	"lcm-hq/intellimap/pkg/jsonscan"
)

var (
	// separatorPatterns are the multi-record boundaries in priority order.
	separatorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\]\s*;\s*\[`),
		regexp.MustCompile(`\]\s*\[`),
		regexp.MustCompile(`\]\s*,\s*\[`),
	}

	// delimitedPatterns recognise an unquoted identifier followed by a colon
	// inside brackets.
	delimitedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\[\*?[A-Za-z][A-Za-z0-9\s_-]*:`),
		regexp.MustCompile(`\[[^\[\]"]*[A-Za-z][^\[\]"]*:`),
	}
)

// Rule is one step of the detection chain. Match reports whether the
// trimmed, non-empty text has the rule's format.
type Rule struct {
	Name   string
	Format Format
	Match  func(text string) bool
}

// Detector classifies raw text by running its rules in order.
type Detector struct {
	rules    []Rule
	fallback Format
}

// NewDetector creates the default detection chain using scanner for the
// JSON structural checks.
func NewDetector(scanner *jsonscan.Scanner) *Detector {
	if scanner == nil {
		scanner = jsonscan.New(nil)
	}
	return &Detector{
		rules: []Rule{
			{Name: "json", Format: FormatJSONArray, Match: func(text string) bool {
				return scanner.LooksLikeJSON(text) && !looksDelimited(text)
			}},
			{Name: "delimited", Format: FormatDelimitedDictionary, Match: looksDelimited},
			{Name: "key_value", Format: FormatKeyValueLines, Match: hasKeyValueLine},
		},
		fallback: FormatDelimitedDictionary,
	}
}

// Rules returns the rule chain in evaluation order.
func (d *Detector) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Detect returns the format of text. Blank text yields ErrEmptyInput.
func (d *Detector) Detect(text string) (Format, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return FormatUnknown, newFormatError(ErrEmptyInput, FormatUnknown, "", nil)
	}
	for _, rule := range d.rules {
		if !rule.Match(t) {
			continue
		}
		if rule.Format.IsJSON() {
			return jsonShape(t), nil
		}
		return rule.Format, nil
	}
	return d.fallback, nil
}

func jsonShape(text string) Format {
	if strings.HasPrefix(text, "{") {
		return FormatJSONObject
	}
	return FormatJSONArray
}

func looksDelimited(text string) bool {
	if !strings.HasPrefix(text, "[") {
		return false
	}
	if _, ok := findSeparator(text); ok {
		return true
	}
	for _, re := range delimitedPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func hasKeyValueLine(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "=") {
			return true
		}
	}
	return false
}

// findSeparator returns the boundaries of the highest priority separator
// pattern that occurs at the top bracket level. Matches inside nested
// bracketed values are ignored.
func findSeparator(text string) ([][]int, bool) {
	depths := closingDepths(text)
	for _, re := range separatorPatterns {
		var top [][]int
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if depths[loc[0]] == 1 {
				top = append(top, loc)
			}
		}
		if len(top) > 0 {
			return top, true
		}
	}
	return nil, false
}

// closingDepths maps the index of every ']' to the bracket depth it closes.
// Text that does not open with '[' is treated as already inside a record.
func closingDepths(text string) map[int]int {
	depth := 0
	if !strings.HasPrefix(text, "[") {
		depth = 1
	}
	out := make(map[int]int)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			out[i] = depth
			if depth > 0 {
				depth--
			}
		}
	}
	return out
}
