package geo

import (
	"regexp"
	"strings"

	"ContactScanner/internal/config"
	"ContactScanner/internal/domain"
)

// Classifier resolves free-text location strings into a country, a coarse
// region, and a confidence value. It runs a fixed-order fallback cascade;
// the first matching strategy wins. The confidence constants are part of
// the behavioral contract and are not tuned per deployment.
type Classifier struct {
	europe    map[string]bool
	americas  map[string]bool
	aliases   map[string]string
	cities    map[string]string
	usStates  map[string]bool
	areaExprs []*regexp.Regexp

	// read-through cache for normalized city lookups
	cityCache map[string]string
}

// NewClassifier compiles the targeting tables into lookup sets.
func NewClassifier(cfg config.TargetingConfig) *Classifier {
	c := &Classifier{
		europe:    map[string]bool{},
		americas:  map[string]bool{},
		aliases:   map[string]string{},
		cities:    map[string]string{},
		usStates:  map[string]bool{},
		cityCache: map[string]string{},
	}
	for _, country := range cfg.EuropeCountries {
		c.europe[strings.ToLower(country)] = true
	}
	for _, country := range cfg.AmericasCountries {
		c.americas[strings.ToLower(country)] = true
	}
	for alias, country := range cfg.CountryAliases {
		c.aliases[strings.ToLower(alias)] = country
	}
	for city, country := range cfg.MajorCities {
		c.cities[strings.ToLower(city)] = country
	}
	for _, st := range cfg.USStates {
		c.usStates[strings.ToUpper(st)] = true
	}
	for _, pattern := range cfg.AreaPatterns {
		if expr, err := regexp.Compile(pattern); err == nil {
			c.areaExprs = append(c.areaExprs, expr)
		}
	}
	return c
}

// Classify maps a raw location string to LocationInfo. The call is pure:
// the same input always yields the same output.
func (c *Classifier) Classify(raw string) domain.LocationInfo {
	info := domain.LocationInfo{
		Raw:    raw,
		Region: domain.RegionUnknown,
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return info
	}

	// 1. "Greater X Area" style regional patterns.
	if country, city, ok := c.matchAreaPattern(trimmed); ok {
		return c.finish(info, country, city, 0.9)
	}

	// 2. A known country name appearing anywhere in the string.
	if country, ok := c.containsCountry(trimmed); ok {
		return c.finish(info, country, "", 0.95)
	}

	segments := splitSegments(trimmed)

	// 3. Right-to-left segment scan for an exact country or alias match.
	for i := len(segments) - 1; i >= 0; i-- {
		if country, ok := c.exactCountry(segments[i]); ok {
			skipped := len(segments) - 1 - i
			confidence := 0.9 - 0.1*float64(skipped)
			if confidence < 0 {
				confidence = 0
			}
			return c.finish(info, country, "", confidence)
		}
	}

	// 4. Trailing 2-letter US state abbreviation.
	if len(segments) > 0 {
		last := strings.ToUpper(strings.TrimSpace(segments[len(segments)-1]))
		if len(last) == 2 && c.usStates[last] {
			city := ""
			if len(segments) > 1 {
				city = strings.TrimSpace(segments[0])
			}
			return c.finish(info, "United States", city, 0.85)
		}
	}

	// 5. Whole string as a known city.
	if country, ok := c.lookupCity(stripAreaSuffix(trimmed)); ok {
		return c.finish(info, country, stripAreaSuffix(trimmed), 0.7)
	}

	// 6. Any single segment as a known city.
	for _, segment := range segments {
		if country, ok := c.lookupCity(segment); ok {
			return c.finish(info, country, strings.TrimSpace(segment), 0.6)
		}
	}

	// 7. Unresolved.
	return info
}

// Region maps a country name to its campaign region.
func (c *Classifier) Region(country string) domain.Region {
	key := strings.ToLower(c.normalizeCountry(country))
	switch {
	case c.europe[key]:
		return domain.RegionEurope
	case c.americas[key]:
		return domain.RegionAmericas
	case country == "":
		return domain.RegionUnknown
	}
	return domain.RegionOther
}

func (c *Classifier) finish(info domain.LocationInfo, country, city string, confidence float64) domain.LocationInfo {
	country = c.normalizeCountry(country)
	region := c.Region(country)
	info.Country = country
	info.City = city
	info.Region = region
	info.Confidence = confidence
	info.IsTargetRegion = region == domain.RegionEurope || region == domain.RegionAmericas
	return info
}

func (c *Classifier) matchAreaPattern(s string) (country, city string, ok bool) {
	for _, expr := range c.areaExprs {
		match := expr.FindStringSubmatch(s)
		if len(match) < 2 {
			continue
		}
		place := strings.TrimSpace(match[1])
		if found, hit := c.lookupCity(place); hit {
			return found, place, true
		}
		if found, hit := c.exactCountry(place); hit {
			return found, "", true
		}
	}
	return "", "", false
}

// containsCountry scans for a canonical country name anywhere in the string.
// Aliases are resolved by the segment scan, which carries positional decay.
func (c *Classifier) containsCountry(s string) (string, bool) {
	lower := strings.ToLower(s)
	for country := range c.europe {
		if containsWord(lower, country) {
			return c.normalizeCountry(country), true
		}
	}
	for country := range c.americas {
		if containsWord(lower, country) {
			return c.normalizeCountry(country), true
		}
	}
	return "", false
}

func (c *Classifier) exactCountry(segment string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(segment))
	if key == "" {
		return "", false
	}
	if country, ok := c.aliases[key]; ok {
		return country, true
	}
	if c.europe[key] || c.americas[key] {
		return c.normalizeCountry(key), true
	}
	return "", false
}

func (c *Classifier) lookupCity(segment string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(segment))
	if key == "" {
		return "", false
	}
	if country, ok := c.cityCache[key]; ok {
		return country, country != ""
	}
	country := c.cities[key]
	c.cityCache[key] = country
	return country, country != ""
}

// normalizeCountry resolves aliases and restores canonical casing so that
// "usa" and "United States of America" compare equal downstream.
func (c *Classifier) normalizeCountry(country string) string {
	key := strings.ToLower(strings.TrimSpace(country))
	if key == "" {
		return ""
	}
	if canonical, ok := c.aliases[key]; ok {
		return canonical
	}
	if c.europe[key] || c.americas[key] {
		return titleCase(key)
	}
	return strings.TrimSpace(country)
}

func splitSegments(s string) []string {
	parts := strings.Split(s, ",")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return segments
}

var areaSuffixes = []string{" area", " region", " district", " metro"}

func stripAreaSuffix(s string) string {
	lower := strings.ToLower(s)
	for _, suffix := range areaSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}
	return s
}

func containsWord(haystack, needle string) bool {
	idx := strings.Index(haystack, needle)
	for idx >= 0 {
		before := idx == 0 || !isLetter(haystack[idx-1])
		afterIdx := idx + len(needle)
		after := afterIdx >= len(haystack) || !isLetter(haystack[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(haystack[idx+1:], needle)
		if next < 0 {
			return false
		}
		idx = idx + 1 + next
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 && !smallWord(w) {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func smallWord(w string) bool {
	switch w {
	case "of", "the", "and":
		return true
	}
	return false
}
