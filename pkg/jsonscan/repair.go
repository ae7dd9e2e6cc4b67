package jsonscan

import "strings"

// Repair applies one bounded pass of textual fixes outside quoted strings:
//
//   - bare object keys ({field: 1}) are quoted
//   - a bare value after ':' that runs up to ',', '}' or ']' is quoted whole
//   - otherwise a bare blacklisted word after ':' is quoted on its own
//   - trailing commas before '}' or ']' are dropped
//
// true, false and null stay bare. The result is not guaranteed to be valid
// JSON; callers re-decode it.
func (s *Scanner) Repair(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 16)

	n := len(text)
	inQuotes, escaped := false, false
	var prev byte // last significant byte written outside strings

	for i := 0; i < n; i++ {
		c := text[i]

		if inQuotes {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inQuotes = false
				prev = '"'
			}
			continue
		}

		switch {
		case c == '"':
			inQuotes = true
			b.WriteByte(c)

		case c == ':':
			b.WriteByte(c)
			prev = ':'
			i = s.repairValue(&b, text, i+1) - 1

		case c == ',':
			j := skipSpace(text, i+1)
			if j < n && (text[j] == '}' || text[j] == ']') {
				continue
			}
			b.WriteByte(c)
			prev = ','

		case isLetter(c) && (prev == '{' || prev == ','):
			end := scanWord(text, i)
			k := skipSpace(text, end)
			if k < n && text[k] == ':' {
				b.WriteString(`"` + text[i:end] + `"`)
				b.WriteString(text[end:k])
				prev = '"'
				i = k - 1
				continue
			}
			b.WriteString(text[i:end])
			prev = text[end-1]
			i = end - 1

		default:
			b.WriteByte(c)
			if !isSpace(c) {
				prev = c
			}
		}
	}

	return b.String()
}

// repairValue handles the text following a ':' starting at pos. It writes the
// (possibly quoted) value prefix and returns the index where normal scanning
// resumes.
func (s *Scanner) repairValue(b *strings.Builder, text string, pos int) int {
	n := len(text)
	j := skipSpace(text, pos)
	b.WriteString(text[pos:j])
	if j >= n || !isLetter(text[j]) {
		return j
	}

	// Whole bare value up to a delimiter: "field": Production Ready,
	k := j
	for k < n && (isWordByte(text[k]) || isSpace(text[k])) {
		k++
	}
	if k == n || text[k] == ',' || text[k] == '}' || text[k] == ']' {
		raw := text[j:k]
		word := strings.TrimRight(raw, " \t\r\n")
		if isLiteral(word) {
			b.WriteString(raw)
			return k
		}
		b.WriteString(`"` + word + `"`)
		b.WriteString(raw[len(word):])
		return k
	}

	// Value continues with punctuation; only quote a leading bare token.
	end := scanWord(text, j)
	word := text[j:end]
	if s.blacklisted(word) {
		b.WriteString(`"` + word + `"`)
		return end
	}
	return j
}

func (s *Scanner) blacklisted(word string) bool {
	for _, tok := range s.tokens {
		if strings.HasPrefix(word, tok) {
			return true
		}
	}
	return false
}

func scanWord(text string, i int) int {
	for i < len(text) && isWordByte(text[i]) {
		i++
	}
	return i
}

func skipSpace(text string, i int) int {
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLiteral(word string) bool {
	return word == "true" || word == "false" || word == "null"
}
