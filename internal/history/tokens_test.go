package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokensEmpty(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
}

func TestEstimateTokensASCII(t *testing.T) {
	// ~3 ASCII chars per token.
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcdef"))
	assert.Equal(t, 100, EstimateTokens(strings.Repeat("x", 300)))
}

func TestEstimateTokensNonASCII(t *testing.T) {
	// ~1 non-ASCII char per token.
	assert.Equal(t, 1, EstimateTokens("日"))
	assert.Equal(t, 3, EstimateTokens("日本語"))
}

func TestEstimateTokensDeterministic(t *testing.T) {
	input := "What year did you graduate? 日本語テスト"
	first := EstimateTokens(input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, EstimateTokens(input))
	}
}

func TestEstimateTokensMonotonic(t *testing.T) {
	base := "tell me about your last project"
	assert.GreaterOrEqual(t, EstimateTokens(base+base), EstimateTokens(base))
}
