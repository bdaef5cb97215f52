package scoring

// coreProductTerms are the lemmas of produce nouns that anchor a query. When
// a query names one, candidates that never mention it score zero overlap no
// matter how many descriptor words they share; this keeps "помидоры свежие"
// away from every other "свежий" row in the catalog.
var coreProductTerms = map[string]bool{
	"томат":     true,
	"помидор":   true,
	"огурец":    true,
	"корнишон":  true,
	"картофель": true,
	"капуста":   true,
	"лук":       true,
	"морковь":   true,
	"свекла":    true,
	"арбуз":     true,
	"дыня":      true,
	"яблоко":    true,
	"груша":     true,
	"виноград":  true,
	"изюм":      true,
	"банан":     true,
	"апельсин":  true,
	"лимон":     true,
	"мандарин":  true,
	"орех":      true,
	"арахис":    true,
}

// WeightedOverlap measures how much of the query's lemma set a candidate
// description covers. Core product terms dominate at 80/20 over descriptor
// words; without any core term the score is the plain matched fraction.
func WeightedOverlap(queryLemmas, descLemmas []string) float64 {
	if len(queryLemmas) == 0 {
		return 0.0
	}

	descSet := make(map[string]bool, len(descLemmas))
	for _, lemma := range descLemmas {
		descSet[lemma] = true
	}

	seen := make(map[string]bool, len(queryLemmas))
	var core, coreHit, rest, restHit int
	for _, lemma := range queryLemmas {
		if seen[lemma] {
			continue
		}
		seen[lemma] = true
		if coreProductTerms[lemma] {
			core++
			if descSet[lemma] {
				coreHit++
			}
		} else {
			rest++
			if descSet[lemma] {
				restHit++
			}
		}
	}

	if core > 0 {
		if coreHit == 0 {
			return 0.0
		}
		score := 0.8 * float64(coreHit) / float64(core)
		if rest > 0 {
			score += 0.2 * float64(restHit) / float64(rest)
		}
		return score
	}
	return float64(restHit) / float64(rest)
}
