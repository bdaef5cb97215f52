package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio_NormalizedLevenshtein(t *testing.T) {
	// One insertion over eight runes: (8-1)/8 = 0.875.
	assert.InDelta(t, 0.875, Ratio("помидор", "помидоры"), 1e-6)

	assert.Equal(t, 1.0, Ratio("помидор", "помидор"))
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("", "помидор"))
}

func TestPartialRatio_FindsEmbeddedWord(t *testing.T) {
	// The full-string ratio suffers for the two missing leading runes, but
	// the window at offset 2 matches exactly.
	assert.Less(t, Ratio("мидор", "помидор"), 1.0)
	assert.Equal(t, 1.0, PartialRatio("мидор", "помидор"))

	assert.Equal(t, 0.0, PartialRatio("", "помидор"))
}

func TestTokenSortRatio_IgnoresWordOrder(t *testing.T) {
	assert.Equal(t, 1.0, TokenSortRatio("свежие помидоры", "помидоры свежие"))
	assert.Less(t, Ratio("свежие помидоры", "помидоры свежие"), 1.0)
}

func TestTokenSetRatio_SubsetScoresFull(t *testing.T) {
	// The query's only token appears in the row, so the shared-token string
	// equals the query side and the ratio is 1.0 despite the extra words.
	assert.Equal(t, 1.0, TokenSetRatio("помидоры", "помидоры свежие черри"))
	assert.Less(t, Ratio("помидоры", "помидоры свежие черри"), 0.5)

	assert.Equal(t, 0.0, TokenSetRatio("", "помидоры"))
}

func TestBestScore_TakesTheStrongestMetric(t *testing.T) {
	assert.Equal(t, 1.0, BestScore("помидоры", "помидоры свежие черри"))
	assert.Equal(t, 1.0, BestScore("свежие помидоры", "помидоры свежие"))
	assert.Equal(t, 1.0, BestScore("огурцы", "огурцы"))
}
