// Package history bounds the conversational context handed to the
// generation provider: a fixed system-instruction block plus a truncated,
// ordered window of recent turns.
package history

// Estimator maps text to an approximate token count. Estimates must be
// deterministic and monotonic in input length; exactness is not required.
type Estimator func(text string) int

// EstimateTokens estimates the token count for a given text using a
// Unicode-aware heuristic. ASCII characters weigh in at roughly 3 per
// token; non-ASCII characters (CJK, Cyrillic, emoji) at roughly 1 per
// token, which is conservative for multilingual interviews.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	weight := 0
	for _, r := range text {
		if r <= 127 {
			weight += 1
		} else {
			weight += 3
		}
	}
	return (weight + 2) / 3
}
