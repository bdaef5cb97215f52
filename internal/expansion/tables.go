package expansion

// defaultNoisePhrases is the customs and certification boilerplate that users
// paste along with the product name. Removed by substring replacement, so the
// inflected "критерии" form precedes the singular and "ту " keeps its
// trailing space to avoid eating syllables inside real words.
var defaultNoisePhrases = []string{
	"критерий происхождения", "критерии происхождения",
	"товарное происхождение", "страна происхождения",
	"сертификат происхождения", "декларация происхождения",
	"подтверждение происхождения", "документ происхождения",
	"гост", "ту ", "тн вэд", "код тн вэд", "классификация",
	"таможенное оформление", "таможенная процедура",
	"импорт", "экспорт", "ввоз", "вывоз",
	"сертификат качества", "сертификат соответствия",
	"санитарно-эпидемиологическое заключение",
	"фитосанитарный сертификат", "ветеринарный сертификат",
}

// defaultSynonyms rewrites colloquial produce names to the wording the
// catalog uses. Applied in order; помидоры must precede помидор because
// replacement is by substring.
var defaultSynonyms = []Synonym{
	{From: "помидоры", To: "томаты"},
	{From: "помидор", To: "томаты"},
	{From: "картошка", To: "картофель"},
	{From: "капуста белокочанная", To: "капуста"},
	{From: "лук репчатый", To: "лук"},
	{From: "лук-репка", To: "лук"},
	{From: "морковка", To: "морковь"},
	{From: "свёкла", To: "свекла"},
	{From: "огурчики", To: "огурцы"},
	{From: "яблочки", To: "яблоки"},
	{From: "грушки", To: "груши"},
}

// defaultIndicators mark product nouns. A token counts as a product term when
// it contains one of these, so виноградный matches виноград.
var defaultIndicators = []string{
	"томаты", "помидоры", "картофель", "капуста", "лук", "морковь",
	"огурцы", "свекла", "яблоки", "груши", "виноград", "изюм",
	"бананы", "апельсины", "лимоны", "мандарины", "орех", "арахис",
}

// defaultDescriptors are the state modifiers kept in the focused variant.
var defaultDescriptors = []string{
	"свежий", "свежие", "сушеный", "сушеные", "охлажденный", "охлажденные",
}
