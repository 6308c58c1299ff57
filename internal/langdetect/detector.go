package langdetect

import (
	"fmt"
	"sort"
	"strings"

	"ContactScanner/internal/config"
	"ContactScanner/internal/domain"
)

// Detector guesses a contact's working language from weak signals: the page
// language attribute, keyword hits, and diacritics in free text. Each signal
// casts a weighted vote; the best-supported language wins.
type Detector struct {
	keywords   map[string][]string
	diacritics map[string][]rune
}

const (
	weightHTMLLang  = 3.0
	weightKeyword   = 1.0
	weightDiacritic = 0.5
)

// NewDetector compiles the configured keyword and diacritic tables.
func NewDetector(cfg config.LanguageConfig) *Detector {
	d := &Detector{
		keywords:   map[string][]string{},
		diacritics: map[string][]rune{},
	}
	for lang, words := range cfg.Keywords {
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			lowered = append(lowered, strings.ToLower(w))
		}
		d.keywords[lang] = lowered
	}
	for lang, chars := range cfg.Diacritics {
		d.diacritics[lang] = []rune(chars)
	}
	return d
}

// Detect votes over the page lang attribute and the given text fields
// (headline, about, location). An empty verdict has language "unknown".
func (d *Detector) Detect(htmlLang string, texts ...string) domain.LanguageGuess {
	votes := map[string]float64{}
	var indicators []string

	if lang := normalizeLangAttr(htmlLang); lang != "" {
		votes[lang] += weightHTMLLang
		indicators = append(indicators, "html lang="+lang)
	}

	joined := strings.ToLower(strings.Join(texts, " "))
	words := strings.FieldsFunc(joined, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '|' || r == '-' || r == '\n'
	})
	wordSet := map[string]bool{}
	for _, w := range words {
		wordSet[w] = true
	}

	for lang, keywords := range d.keywords {
		hits := 0
		for _, kw := range keywords {
			if wordSet[kw] {
				hits++
			}
		}
		if hits > 0 {
			votes[lang] += float64(hits) * weightKeyword
			indicators = append(indicators, fmt.Sprintf("%d %s keywords", hits, lang))
		}
	}

	for lang, chars := range d.diacritics {
		hits := 0
		for _, r := range chars {
			hits += strings.Count(joined, string(r))
		}
		if hits > 0 {
			votes[lang] += float64(hits) * weightDiacritic
			indicators = append(indicators, fmt.Sprintf("%d %s diacritics", hits, lang))
		}
	}

	if len(votes) == 0 {
		return domain.LanguageGuess{Detected: "unknown"}
	}

	best, bestScore, total := "", 0.0, 0.0
	langs := make([]string, 0, len(votes))
	for lang := range votes {
		langs = append(langs, lang)
	}
	sort.Strings(langs) // deterministic tie-breaking
	for _, lang := range langs {
		total += votes[lang]
		if votes[lang] > bestScore {
			best, bestScore = lang, votes[lang]
		}
	}

	return domain.LanguageGuess{
		Detected:   best,
		Confidence: bestScore / total,
		Indicators: indicators,
	}
}

func normalizeLangAttr(attr string) string {
	attr = strings.ToLower(strings.TrimSpace(attr))
	if attr == "" {
		return ""
	}
	if i := strings.IndexAny(attr, "-_"); i > 0 {
		attr = attr[:i]
	}
	if len(attr) != 2 {
		return ""
	}
	return attr
}
