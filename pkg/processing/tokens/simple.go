package tokens

// DefaultCharsPerToken is the ratio used when none is configured.
const DefaultCharsPerToken = 4.0

// Estimator predicts token counts for text.
type Estimator interface {
	// EstimateText estimates tokens for a single string.
	EstimateText(text string) int

	// EstimateMessages estimates tokens for a sequence of message contents,
	// including per-message framing overhead.
	EstimateMessages(contents ...string) int
}

// SimpleEstimator implements character-based token estimation.
// It is stateless and safe for concurrent use.
type SimpleEstimator struct {
	charsPerToken float64
}

// NewSimpleEstimator creates an estimator. A ratio <= 0 selects DefaultCharsPerToken.
func NewSimpleEstimator(charsPerToken float64) *SimpleEstimator {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &SimpleEstimator{charsPerToken: charsPerToken}
}

// EstimateText returns len(text)/charsPerToken, truncated.
func (e *SimpleEstimator) EstimateText(text string) int {
	if text == "" {
		return 0
	}
	return int(float64(len(text)) / e.charsPerToken)
}

// EstimateMessages sums the content estimates plus ~3 tokens of framing per
// message and ~3 for the conversation.
func (e *SimpleEstimator) EstimateMessages(contents ...string) int {
	if len(contents) == 0 {
		return 0
	}

	total := 3
	for _, c := range contents {
		total += 1 + e.EstimateText(c) + 3
	}
	return total
}

// Exceeds reports whether text is estimated above limit tokens.
func (e *SimpleEstimator) Exceeds(text string, limit int) bool {
	return e.EstimateText(text) > limit
}

var _ Estimator = (*SimpleEstimator)(nil)
