package textproc

// Stopword sets per language. The Russian set also carries legal-entity and
// paperwork noise (ооо, ип, арт, ...) that shows up constantly in customs
// declarations but never in catalog descriptions.
var (
	stopwordsRU = toSet([]string{
		"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как", "а", "то", "все",
		"она", "так", "его", "но", "да", "ты", "к", "у", "же", "вы", "за", "бы", "по",
		"только", "ее", "мне", "было", "вот", "от", "меня", "еще", "нет", "о", "из",
		"ему", "теперь", "когда", "даже", "ну", "вдруг", "ли", "если", "уже", "или",
		"ни", "быть", "был", "него", "до", "вас", "нибудь", "опять", "уж", "вам", "ведь",
		"для", "при", "без", "под", "над", "перед", "около", "через", "между",
		"ооо", "ип", "зао", "пао", "оао", "арт", "итд", "тд", "пр",
	})

	stopwordsUZ = toSet([]string{
		"va", "yoki", "lekin", "agar", "chunki", "uchun", "bilan", "da", "ham", "esa",
		"bu", "u", "shu", "ana", "mana", "ular", "biz", "siz", "men", "sen",
	})

	stopwordsEN = toSet([]string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of",
		"with", "by", "from", "up", "about", "into", "through", "during", "before",
		"after", "above", "below", "between", "under", "again", "further", "then",
	})
)

// stopwordSet returns the stopword set for a language, defaulting to Russian
// since the catalog descriptions are Russian.
func stopwordSet(lang Language) map[string]bool {
	switch lang {
	case LanguageUZ:
		return stopwordsUZ
	case LanguageEN:
		return stopwordsEN
	default:
		return stopwordsRU
	}
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
