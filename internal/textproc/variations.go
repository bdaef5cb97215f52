package textproc

// wordVariations maps base product nouns to their inflected forms. The
// Snowball stemmer handles regular Russian morphology; this table pins the
// product nouns whose stems drift away from the catalog's wording (plural and
// case variants must collapse to the exact base token the category rules and
// core-term sets key on).
var wordVariations = map[string][]string{
	// Clothing
	"майка":    {"майки", "майку", "майкой", "майке", "майками", "майкам", "майках"},
	"футболка": {"футболки", "футболку", "футболкой", "футболке", "футболками", "футболкам", "футболках"},
	"рубашка":  {"рубашки", "рубашку", "рубашкой", "рубашке", "рубашками", "рубашкам", "рубашках"},
	"брюки":    {"брюк", "брюкам", "брюками", "брюках"},
	"джинсы":   {"джинс", "джинсам", "джинсами", "джинсах"},
	"платье":   {"платья", "платью", "платьем", "платьями", "платьям", "платьях"},
	"костюм":   {"костюмы", "костюму", "костюмом", "костюмами", "костюмам", "костюмах"},
	"пиджак":   {"пиджаки", "пиджаком", "пиджаку", "пиджаками", "пиджакам", "пиджаках"},
	"куртка":   {"куртки", "куртку", "курткой", "куртками", "курткам", "куртках"},
	"пальто":   {"пальто"},
	"шорты":    {"шорт", "шортам", "шортами", "шортах"},
	"юбка":     {"юбки", "юбку", "юбкой", "юбками", "юбкам", "юбках"},
	// Fruits and vegetables
	"слива":     {"сливы", "сливу", "сливой", "сливе", "сливами", "сливам", "сливах"},
	"абрикос":   {"абрикосы", "абрикосу", "абрикосом", "абрикосами", "абрикосам", "абрикосах"},
	"вишня":     {"вишни", "вишню", "вишней", "вишне", "вишнями", "вишням", "вишнях"},
	"черешня":   {"черешни", "черешню", "черешней", "черешне", "черешнями", "черешням", "черешнях"},
	"персик":    {"персики", "персику", "персиком", "персиками", "персикам", "персиках"},
	"яблоко":    {"яблоки", "яблоку", "яблоком", "яблоками", "яблокам", "яблоках"},
	"груша":     {"груши", "грушу", "грушей", "груше", "грушами", "грушам", "грушах"},
	"апельсин":  {"апельсины", "апельсину", "апельсином", "апельсинами", "апельсинам", "апельсинах"},
	"банан":     {"бананы", "банану", "бананом", "бананами", "бананам", "бананах"},
	"лимон":     {"лимоны", "лимону", "лимоном", "лимонами", "лимонам", "лимонах"},
	"морковь":   {"моркови", "морковью", "морковями", "морковям", "морковях"},
	"картофель": {"картофеля", "картофелю", "картофелем", "картофелями", "картофелям", "картофелях"},
	"огурец":    {"огурцы", "огурцу", "огурцом", "огурцами", "огурцам", "огурцах"},
	"помидор":   {"помидоры", "помидору", "помидором", "помидорами", "помидорам", "помидорах"},
	"капуста":   {"капусты", "капусту", "капустой", "капусте", "капустами", "капустам", "капустах"},
	"лук":       {"луки", "луку", "луком", "луками", "лукам", "луках"},
	"чеснок":    {"чесноки", "чесноку", "чесноком", "чесноками", "чеснокам", "чесноках"},
	"свекла":    {"свеклы", "свеклу", "свеклой", "свекле", "свеклами", "свеклам", "свеклах"},
	"редис":     {"редисы", "редису", "редисом", "редисами", "редисам", "редисах"},
	"арбуз":     {"арбузы", "арбузу", "арбузом", "арбузами", "арбузам", "арбузах"},
	"дыня":      {"дыни", "дыню", "дыней", "дыне", "дынями", "дыням", "дынях"},
}

// variationToBase is the reverse lookup, including identity entries for the
// base forms themselves.
var variationToBase = func() map[string]string {
	m := make(map[string]string, len(wordVariations)*8)
	for base, variations := range wordVariations {
		for _, v := range variations {
			m[v] = base
		}
		m[base] = base
	}
	return m
}()
