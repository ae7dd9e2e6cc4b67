// Package tokens provides token estimation for completion requests.
//
// Estimation is character based: text length divided by a characters-per-token
// ratio (4 by default, truncated). It decides when a record is large enough to
// be chunked and is logged alongside each completion request.
//
// # Usage
//
//	estimator := tokens.NewSimpleEstimator(tokens.DefaultCharsPerToken)
//	if estimator.EstimateText(payload) > maxTokensPerChunk {
//	    // split the record
//	}
package tokens
