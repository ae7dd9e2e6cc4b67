package jsonscan

import (
	"strings"
)

// DefaultBlacklist lists the bare words that trip JSON decoders most often.
var DefaultBlacklist = []string{
	"Prod", "Product", "Production", "Prototype", "Professional",
	"Process", "Program", "Project", "Property", "Provider",
}

// Scanner applies the heuristics with a fixed bare-token blacklist.
// A Scanner is immutable and safe for concurrent use.
type Scanner struct {
	tokens []string
}

// New creates a Scanner. A nil or empty blacklist selects DefaultBlacklist.
func New(blacklist []string) *Scanner {
	if len(blacklist) == 0 {
		blacklist = DefaultBlacklist
	}
	tokens := make([]string, 0, len(blacklist))
	for _, tok := range blacklist {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return &Scanner{tokens: tokens}
}

// Blacklist returns a copy of the scanner's bare tokens.
func (s *Scanner) Blacklist() []string {
	return append([]string(nil), s.tokens...)
}

// StripQuoted returns text with the contents of double-quoted strings removed.
// The quote characters themselves are kept so word boundaries survive.
func StripQuoted(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inQuotes, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inQuotes && escaped:
			escaped = false
		case inQuotes && c == '\\':
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
			b.WriteByte(c)
		case !inQuotes:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Balanced reports whether braces and brackets nest correctly outside quoted
// strings and no string is left open.
func Balanced(text string) bool {
	var stack []byte
	inQuotes, escaped := false, false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inQuotes = false
			}
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return false
			}
			open := stack[len(stack)-1]
			if (c == '}' && open != '{') || (c == ']' && open != '[') {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0 && !inQuotes
}

// BareToken returns the longest blacklisted token that begins a word outside
// quoted strings, if any.
func (s *Scanner) BareToken(text string) (string, bool) {
	unquoted := StripQuoted(text)
	found := ""

	for i := 0; i < len(unquoted); i++ {
		if i > 0 && isWordByte(unquoted[i-1]) {
			continue
		}
		rest := unquoted[i:]
		for _, tok := range s.tokens {
			if len(tok) > len(found) && strings.HasPrefix(rest, tok) {
				found = tok
			}
		}
	}
	return found, found != ""
}

// Wrapped reports whether trimmed text opens and closes with a matching
// object or array delimiter.
func Wrapped(text string) bool {
	t := strings.TrimSpace(text)
	if len(t) < 2 {
		return false
	}
	return (t[0] == '{' && t[len(t)-1] == '}') || (t[0] == '[' && t[len(t)-1] == ']')
}

// Valid is the structural pre-check run before strict decoding: the text is
// wrapped in {} or [], balanced outside quotes, and free of bare tokens.
func (s *Scanner) Valid(text string) bool {
	if !Wrapped(text) || !Balanced(text) {
		return false
	}
	_, bare := s.BareToken(text)
	return !bare
}

// LooksLikeJSON is Valid plus the presence of at least one key separator.
func (s *Scanner) LooksLikeJSON(text string) bool {
	return strings.Contains(text, ":") && s.Valid(text)
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}
