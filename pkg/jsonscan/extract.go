package jsonscan

import "strings"

// StripFences removes a surrounding markdown code fence such as ```json ... ```.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "```json"), "```")
	}
	if end := strings.LastIndex(s, "```"); end != -1 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// Extract pulls a JSON payload out of mixed prose. It tries the span from the
// first '[' to the last ']' and then the span from the first '{' to the last
// '}', which is returned wrapped in an array. A span is accepted only if it
// passes Valid.
func (s *Scanner) Extract(text string) (string, bool) {
	if start, end := strings.IndexByte(text, '['), strings.LastIndexByte(text, ']'); start != -1 && end > start {
		if candidate := text[start : end+1]; s.Valid(candidate) {
			return candidate, true
		}
	}

	if start, end := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}'); start != -1 && end > start {
		if candidate := text[start : end+1]; s.Valid(candidate) {
			return "[" + candidate + "]", true
		}
	}

	return "", false
}
