package tokens

import (
	"strings"
	"testing"
)

func TestSimpleEstimator_EstimateText(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		text  string
		want  int
	}{
		{"empty", 4, "", 0},
		{"below one token truncates", 4, "abc", 0},
		{"exact", 4, "abcdefgh", 2},
		{"truncated", 4, "abcdefghij", 2},
		{"default ratio", 0, strings.Repeat("x", 40), 10},
		{"custom ratio", 2, "abcdef", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewSimpleEstimator(tt.ratio)
			if got := e.EstimateText(tt.text); got != tt.want {
				t.Errorf("EstimateText(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestSimpleEstimator_EstimateMessages(t *testing.T) {
	e := NewSimpleEstimator(4)

	if got := e.EstimateMessages(); got != 0 {
		t.Errorf("expected 0 for no messages, got %d", got)
	}

	// 3 conversation + 2 * (1 role + 3 framing) + 2 + 1 content
	if got := e.EstimateMessages("12345678", "1234"); got != 14 {
		t.Errorf("expected 14, got %d", got)
	}
}

func TestSimpleEstimator_Exceeds(t *testing.T) {
	e := NewSimpleEstimator(4)
	text := strings.Repeat("a", 4004) // 1001 tokens

	if !e.Exceeds(text, 1000) {
		t.Error("expected 1001 tokens to exceed 1000")
	}
	if e.Exceeds(strings.Repeat("a", 4000), 1000) {
		t.Error("exactly 1000 tokens must not exceed 1000")
	}
}
