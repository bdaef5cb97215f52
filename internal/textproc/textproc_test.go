package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_LowercasesAndCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "свежие помидоры", Normalize("  Свежие   ПОМИДОРЫ  "))
}

func TestNormalize_ReplacesSpecialCharacters(t *testing.T) {
	// @ and / are outside the allowed set and become spaces; digits survive.
	assert.Equal(t, "tomatoes 25kg box", Normalize("Tomatoes @ 25kg/box"))
}

func TestNormalize_NonBreakingSpace(t *testing.T) {
	assert.Equal(t, "свежие помидоры", Normalize("свежие помидоры"))
}

func TestNormalize_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
}

func TestTransliterate_BasicCyrillic(t *testing.T) {
	assert.Equal(t, "pomidor", Transliterate("помидор"))
	assert.Equal(t, "svezhie pomidory", Transliterate("Свежие помидоры"))
}

func TestTransliterate_DigraphsAndSigns(t *testing.T) {
	// щ -> sch, х -> h; hard and soft signs are dropped.
	assert.Equal(t, "borsch", Transliterate("борщ"))
	assert.Equal(t, "obekt", Transliterate("объект"))
	assert.Equal(t, "hleb", Transliterate("хлеб"))
}

func TestTransliterate_PassesThroughLatin(t *testing.T) {
	assert.Equal(t, "apple sok", Transliterate("Apple сок"))
	assert.Equal(t, "", Transliterate(""))
}

func TestTokens_TrimsPunctuation(t *testing.T) {
	assert.Equal(t, []string{"свежие", "помидоры", "25", "кг"}, Tokens("свежие помидоры, 25 кг."))
}

func TestLemmatize_CollapsesInflectedProductNouns(t *testing.T) {
	assert.Equal(t, "помидор", Lemmatize("помидоры", LanguageRU))
	assert.Equal(t, "огурец", Lemmatize("огурцами", LanguageRU))
	assert.Equal(t, "яблоко", Lemmatize("Яблоки", LanguageRU))
}

func TestLemmatize_ResolvesBaseFormAfterStemming(t *testing.T) {
	// помидоров is not in the variation table directly; the stemmer reduces
	// it to помидор, which is.
	assert.Equal(t, "помидор", Lemmatize("помидоров", LanguageRU))
}

func TestLemmatize_DropsStopwordsAndSingleCharacters(t *testing.T) {
	assert.Equal(t, "помидор салат", Lemmatize("помидоры для салата", LanguageRU))
}

func TestLemmatize_KeepsDigitTokensVerbatim(t *testing.T) {
	assert.Equal(t, "код 0702000000", Lemmatize("код 0702000000", LanguageRU))
}

func TestLemmatize_EnglishStemming(t *testing.T) {
	// "for" is an English stopword, "boxes" stems to "box".
	assert.Equal(t, "fresh box", Lemmatize("fresh boxes for", LanguageEN))
}

func TestLemmatize_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Lemmatize("", LanguageRU))
}

func TestPipeline_AllThreeForms(t *testing.T) {
	normalized, transliterated, lemmatized := Pipeline("Помидоры, 25 кг", LanguageRU)

	assert.Equal(t, "помидоры, 25 кг", normalized)
	assert.Equal(t, "pomidory, 25 kg", transliterated)
	assert.Equal(t, "помидор 25 кг", lemmatized)
}

func TestPipeline_EmptyInput(t *testing.T) {
	normalized, transliterated, lemmatized := Pipeline("", LanguageRU)

	assert.Equal(t, "", normalized)
	assert.Equal(t, "", transliterated)
	assert.Equal(t, "", lemmatized)
}

func TestRemoveStopwords_Russian(t *testing.T) {
	assert.Equal(t, "масло двигателя", RemoveStopwords("масло для двигателя", LanguageRU))
}

func TestRemoveStopwords_UnknownLanguageDefaultsToRussian(t *testing.T) {
	assert.Equal(t, "масло двигателя", RemoveStopwords("масло для двигателя", Language("xx")))
}

func TestCleanDescription_KeepsCasing(t *testing.T) {
	assert.Equal(t, "Томаты свежие, категория 1", CleanDescription("Томаты  свежие, (категория №1)"))
}

func TestContainsValidWord(t *testing.T) {
	assert.True(t, ContainsValidWord("помидоры"))
	assert.True(t, ContainsValidWord("сталь оцинкованная"))
	assert.False(t, ContainsValidWord("@#$%"))
	assert.False(t, ContainsValidWord(""))
}

func TestKnownProductTerm_RecognizesTableEntries(t *testing.T) {
	assert.True(t, KnownProductTerm("огурцы свежие"))
	// Genitive plural is resolved through the stemmer.
	assert.True(t, KnownProductTerm("Помидоров 10 ящиков"))
}

func TestKnownProductTerm_RejectsUnknownInput(t *testing.T) {
	assert.False(t, KnownProductTerm("асдф кйцукен"))
	assert.False(t, KnownProductTerm("строительный профиль"))
}

func TestBaseForm(t *testing.T) {
	base, ok := BaseForm("моркови")
	assert.True(t, ok)
	assert.Equal(t, "морковь", base)

	_, ok = BaseForm("трактор")
	assert.False(t, ok)
}
