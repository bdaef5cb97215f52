package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCode_AcceptsPublishedPrecisions(t *testing.T) {
	for _, code := range []string{"0702", "070200", "07020000", "0702000000"} {
		assert.True(t, ValidCode(code), code)
	}
	for _, code := range []string{"", "070", "07020", "07020000001", "070a", "томаты"} {
		assert.False(t, ValidCode(code), code)
	}
	assert.True(t, ValidCode(" 0702000000 "))
}

func TestNormalizeCode_StripsPrintFormatting(t *testing.T) {
	assert.Equal(t, "0702000000", NormalizeCode("0702 00 000 0"))
	assert.Equal(t, "0702000000", NormalizeCode("0702.00.000.0"))

	// Letters survive so that mixed text fails validation downstream.
	assert.Equal(t, "помидоры", NormalizeCode(" помидоры "))
	assert.False(t, ValidCode(NormalizeCode("код 0702")))
}

func TestPadCode(t *testing.T) {
	assert.Equal(t, "0702000000", PadCode("070200"))
	assert.Equal(t, "0702000000", PadCode("0702000000"))
}

func TestSegments_DropsGenericBuckets(t *testing.T) {
	segments := Segments("Томаты -> свежие или охлажденные: прочие")
	assert.Equal(t, []string{"Томаты", "свежие или охлажденные"}, segments)

	segments = Segments("Картофель -> прочий: молодой")
	assert.Equal(t, []string{"Картофель", "молодой"}, segments)

	assert.Equal(t, []string{"огурцы"}, Segments("огурцы"))
	assert.Empty(t, Segments(""))
	assert.Empty(t, Segments("Прочие"))
}
