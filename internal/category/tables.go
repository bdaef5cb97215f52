package category

// Keyword fragments shared between rules. Stem fragments (огурц, картофел)
// match all inflections by substring; where a rule deliberately keys on a
// full form only, the table says so.
var (
	vegetableKeywords = []string{"томат", "помидор", "картофел", "капуст", "лук", "морков", "огурц", "свекл", "овощ"}
	fruitKeywords     = []string{"виноград", "изюм", "яблок", "груш", "банан", "апельсин", "лимон", "мандарин", "фрукт"}
	foodKeywords      = []string{"виноград", "изюм", "орех", "арахис", "нут", "сушен", "свеж", "фрукт", "овощ", "ягод"}
	meatKeywords      = []string{"мясо", "свин", "говяд", "птиц", "жир", "сало", "бекон"}
	metalKeywords     = []string{"метал", "стал", "профил", "железо", "алюмин", "оцинков", "гипсокартон", "строительный", "конструкци", "балка", "уголок", "швеллер", "арматур"}
	buildKeywords     = []string{"гипсокартон", "строительный", "строительн", "конструкци", "каркас", "монтаж", "профиль", "профили"}
	textileKeywords   = []string{"ткан", "хлопок", "шерст", "син", "волокн", "пряж"}

	foodCodes      = []string{"08", "07", "04", "12", "15", "16", "17", "18", "19", "20", "21", "22", "23", "24"}
	vegetableCodes = []string{"07"}
	fruitCodes     = []string{"08"}
	meatCodes      = []string{"02", "03", "16"}
	metalCodes     = []string{"72", "73", "74", "75", "76", "78", "79", "80", "81"}
	buildCodes     = []string{"72", "73"}
	textileCodes   = []string{"50", "51", "52", "53", "54", "55", "56", "57", "58", "59", "60", "61", "62", "63"}
)

// DefaultTables returns the built-in category tables. The boost and penalty
// magnitudes are contracts tuned against real misclassifications (tomatoes
// drifting to cucumber or meat chapters, drywall profiles drifting to
// produce); change them only with regression queries at hand.
func DefaultTables() Tables {
	return Tables{
		Filters:  defaultFilters(),
		Generic:  defaultGenericRules(),
		Specific: defaultSpecificRules(),
	}
}

func defaultFilters() []FilterCategory {
	return []FilterCategory{
		{
			Name:          "glass",
			Keywords:      []string{"стекло", "стеклянн", "glass", "стекол", "стекла", "листовое", "полированное", "окрашенное", "толщиной"},
			Allowed:       []string{"70"},
			Excluded:      []string{"39", "72", "73", "76", "78", "79", "80", "81", "82", "83"},
			RequiredWords: []string{"стекло", "glass", "стеклянн"},
			Relaxed: []RelaxedExclusion{
				{Prefix: "39", DescAny: []string{"полимер", "пластик", "полиамид", "силикон"}},
				{Prefix: "47", DescAny: []string{"древес"}},
				{Prefix: "48", DescAny: []string{"бумаг"}},
				{Prefix: "25", DescAny: []string{"графит"}},
			},
		},
		{
			Name:          "metal",
			Keywords:      []string{"метал", "сталь", "железо", "профиль", "metal", "steel", "iron"},
			Allowed:       []string{"72", "73", "76", "78", "79", "80", "81", "82", "83"},
			Excluded:      []string{"39", "70"},
			RequiredWords: []string{"метал", "сталь", "железо", "metal", "steel", "iron"},
			Relaxed: []RelaxedExclusion{
				{Prefix: "39", DescAny: []string{"полимер", "пластик"}},
				{Prefix: "47"},
				{Prefix: "48"},
			},
		},
		{
			Name:          "plastic",
			Keywords:      []string{"пластик", "полимер", "полиэтилен", "полипропилен", "пластмасс", "полиамид", "пвх"},
			Allowed:       []string{"39"},
			Excluded:      []string{"70", "72", "73"},
			RequiredWords: []string{"пластик", "полимер", "полиэтилен", "полипропилен", "пластмасс", "полиамид", "пвх"},
		},
		{
			Name:          "textile",
			Keywords:      []string{"ткань", "текстиль", "хлопок", "шерсть", "fabric", "textile"},
			Allowed:       textileCodes,
			Excluded:      []string{"39", "70", "72", "73"},
			RequiredWords: []string{"ткань", "текстиль", "хлопок", "шерсть", "fabric", "textile"},
		},
		{
			Name:          "wood",
			Keywords:      []string{"дерев", "древес", "фанера", "wood", "timber", "lumber"},
			Allowed:       []string{"44"},
			Excluded:      []string{"39", "70", "72", "73"},
			RequiredWords: []string{"дерев", "древес", "фанера", "wood", "timber", "lumber"},
		},
		{
			Name:          "food",
			Keywords:      []string{"пищев", "продукт", "еда", "food", "edible"},
			Allowed:       []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12", "13", "14", "15", "16", "17", "18", "19", "20", "21", "22", "23", "24"},
			Excluded:      []string{"39", "70", "72", "73"},
			RequiredWords: []string{"пищев", "продукт", "еда", "food", "edible"},
		},
	}
}

// defaultGenericRules is the exclusive category chain: the first rule that
// fires wins and the rest are skipped.
func defaultGenericRules() []Rule {
	return []Rule{
		{
			Name:     "vegetable",
			Triggers: []Trigger{{vegetableKeywords}},
			Effects: []PrefixEffect{
				{Prefixes: vegetableCodes, Boost: 0.4},
				{Prefixes: fruitCodes, Penalty: 0.6},
				{Prefixes: meatCodes, Penalty: 0.7},
			},
		},
		{
			Name:     "fruit",
			Triggers: []Trigger{{fruitKeywords}},
			Effects: []PrefixEffect{
				{Prefixes: fruitCodes, Boost: 0.4},
				{Prefixes: vegetableCodes, Penalty: 0.3},
				{Prefixes: meatCodes, Penalty: 0.7},
			},
		},
		{
			Name:     "food",
			Triggers: []Trigger{{foodKeywords}},
			Suppress: meatKeywords,
			Effects: []PrefixEffect{
				{Prefixes: foodCodes, Boost: 0.3},
				{Prefixes: meatCodes, Penalty: 0.6},
			},
		},
		{
			Name:     "meat",
			Triggers: []Trigger{{meatKeywords}},
			Effects: []PrefixEffect{
				{Prefixes: meatCodes, Boost: 0.25},
				{Prefixes: foodCodes, Boost: 0.1},
			},
		},
		{
			Name:      "metal",
			Triggers:  []Trigger{{metalKeywords}},
			Effects:   []PrefixEffect{{Prefixes: metalCodes, Boost: 0.25}},
			Otherwise: &PrefixEffect{Penalty: 0.3},
		},
		{
			Name:      "construction",
			Triggers:  []Trigger{{buildKeywords}},
			Effects:   []PrefixEffect{{Prefixes: buildCodes, Boost: 0.25}},
			Otherwise: &PrefixEffect{Penalty: 0.3},
		},
		{
			Name:      "textile",
			Triggers:  []Trigger{{textileKeywords}},
			Effects:   []PrefixEffect{{Prefixes: textileCodes, Boost: 0.25}},
			Otherwise: &PrefixEffect{Penalty: 0.3},
		},
	}
}

// defaultSpecificRules are the confusable-pair overrides, applied after the
// generic chain in this exact order.
func defaultSpecificRules() []Rule {
	return []Rule{
		{
			Name: "construction-metal",
			Triggers: []Trigger{
				{buildKeywords},
				{metalKeywords, {"профил", "гипсокартон", "строительн"}},
			},
			Sticky: true,
			Effects: []PrefixEffect{
				{Prefixes: buildCodes, Boost: 0.4},
				{Prefixes: metalCodes, Boost: 0.2},
			},
			Otherwise: &PrefixEffect{Penalty: 0.5},
		},
		{
			Name:     "grape-raisin",
			Triggers: []Trigger{{{"виноград", "изюм"}}},
			Effects: []PrefixEffect{
				{Prefixes: []string{"08"}, Boost: 0.4},
				{Prefixes: []string{"02"}, Penalty: 0.8},
			},
		},
		{
			Name:     "tomato",
			Triggers: []Trigger{{{"томат", "помидор"}}},
			Effects: []PrefixEffect{
				{Prefixes: []string{"0702"}, Boost: 0.5},
				{Prefixes: []string{"0707"}, Penalty: 0.5},
				{Prefixes: []string{"07"}, Boost: 0.1},
				{Prefixes: []string{"08"}, Penalty: 0.7},
				{Prefixes: []string{"02"}, Penalty: 0.8},
			},
		},
		{
			// Keys on the full singular forms: plural огурцы is already
			// covered by the generic vegetable rule.
			Name:     "cucumber",
			Triggers: []Trigger{{{"огурец", "корнишон"}}},
			Effects: []PrefixEffect{
				{Prefixes: []string{"0707"}, Boost: 0.5},
				{Prefixes: []string{"0702"}, Penalty: 0.5},
				{Prefixes: []string{"07"}, Boost: 0.1},
			},
		},
		{
			Name: "drywall",
			Triggers: []Trigger{
				{{"гипсокартон"}},
				{{"профил"}, {"оцинков"}},
			},
			Sticky: true,
			Effects: []PrefixEffect{
				{Prefixes: buildCodes, Boost: 0.5},
				{Prefixes: []string{"07"}, Penalty: 0.8},
				{Prefixes: []string{"08"}, Penalty: 0.8},
			},
		},
		{
			Name:     "fruit-meat-guard",
			Triggers: []Trigger{{{"виноград", "изюм", "фрукт", "ягод", "орех"}}},
			Sticky:   true,
			Effects:  []PrefixEffect{{Prefixes: []string{"02"}, Penalty: 0.7}},
		},
		{
			Name:     "vegetable-guard",
			Triggers: []Trigger{{{"томат", "помидор", "картофел", "капуст", "овощ"}}},
			Sticky:   true,
			Effects: []PrefixEffect{
				{Prefixes: []string{"08"}, Penalty: 0.6},
				{Prefixes: []string{"02"}, Penalty: 0.8},
			},
		},
	}
}
