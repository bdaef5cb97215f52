package expansion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpander_Expand_SynonymSubstitution(t *testing.T) {
	e := New()

	variants := e.Expand("помидоры свежие")

	// помидоры -> томаты; the rewritten query comes first, original last.
	assert.Equal(t, []string{"томаты свежие", "помидоры свежие"}, variants)
}

func TestExpander_Expand_FocusedVariantFirst(t *testing.T) {
	e := New()

	variants := e.Expand("сертификат соответствия томаты красные свежие")

	// Boilerplate stripped, then the focused variant keeps only the product
	// noun and its descriptor, dropping "красные".
	assert.Equal(t, []string{
		"томаты свежие",
		"томаты красные свежие",
		"сертификат соответствия томаты красные свежие",
	}, variants)
}

func TestExpander_Expand_AdministrativeNoiseStripped(t *testing.T) {
	e := New()

	variants := e.Expand("импорт картошка")

	assert.Equal(t, []string{"картофель", "импорт картошка"}, variants)
}

func TestExpander_Expand_IndicatorMatchesBySubstring(t *testing.T) {
	e := New()

	variants := e.Expand("виноградный сок")

	// виноградный contains the indicator виноград, so the focused variant
	// drops the non-product token.
	assert.Equal(t, []string{"виноградный", "виноградный сок"}, variants)
}

func TestExpander_Expand_NoRewriteReturnsOriginalOnly(t *testing.T) {
	e := New()

	variants := e.Expand("стальной профиль")

	assert.Equal(t, []string{"стальной профиль"}, variants)
}

func TestExpander_Expand_OriginalAlwaysLast(t *testing.T) {
	e := New()

	for _, query := range []string{"помидоры", "огурчики свежие", "экспорт лук репчатый"} {
		variants := e.Expand(query)
		assert.NotEmpty(t, variants)
		assert.Equal(t, query, variants[len(variants)-1], "original query must be the last variant")
	}
}

func TestExpander_Expand_DeduplicatesPreservingOrder(t *testing.T) {
	e := New()

	variants := e.Expand("томаты")

	// Focused and normalized variants collapse into the original.
	assert.Equal(t, []string{"томаты"}, variants)
}

func TestExpander_Expand_ShortInputPassesThrough(t *testing.T) {
	e := New()

	assert.Equal(t, []string{"x"}, e.Expand("x"))
	assert.Equal(t, []string{""}, e.Expand(""))
}

func TestExpander_Expand_CustomTables(t *testing.T) {
	e := NewWithConfig(Config{
		Synonyms: []Synonym{{From: "ноутбук", To: "компьютер портативный"}},
	})

	variants := e.Expand("ноутбук")

	assert.Equal(t, []string{"компьютер портативный", "ноутбук"}, variants)
}
