// Package normalize turns free-text event locations into deterministic lookup keys.
package normalize

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	whitespace     = regexp.MustCompile(`\s+`)
	alphabeticRun  = regexp.MustCompile(`\pL+(?:[ \-']+\pL+)*`)
	countySuffixes = []string{"county", "zupanija"}
)

// Normalize lowercases, trims, folds diacritics and collapses internal whitespace.
// The output feeds cache keys and gazetteer lookups, so it must stay pure.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ToLower(unidecode.Unidecode(s))
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Rule derives a candidate city from a normalized location string.
// An empty return means the rule does not apply.
type Rule struct {
	Name  string
	Apply func(normalized string) string
}

// CityExtractor applies an ordered list of rules until one yields a candidate.
type CityExtractor struct {
	rules []Rule
}

// NewCityExtractor builds the default rule chain for the given country names.
// isCity reports whether a normalized segment is a known city key; it may be nil.
func NewCityExtractor(countryNames []string, isCity func(string) bool) *CityExtractor {
	countries := make([]string, 0, len(countryNames))
	for _, c := range countryNames {
		if n := Normalize(c); n != "" {
			countries = append(countries, n)
		}
	}
	return &CityExtractor{rules: []Rule{
		{Name: "comma-segment", Apply: commaSegmentRule(countries, isCity)},
		{Name: "country-suffix", Apply: countrySuffixRule(countries)},
		{Name: "alphabetic-run", Apply: firstAlphabeticRun},
	}}
}

// Rules returns the extractor's rule chain in application order.
func (e *CityExtractor) Rules() []Rule {
	return e.rules
}

// ExtractCity returns the first non-empty candidate produced by the rule chain.
func (e *CityExtractor) ExtractCity(raw string) string {
	n := Normalize(raw)
	if n == "" {
		return ""
	}
	for _, r := range e.rules {
		if c := r.Apply(n); c != "" {
			return c
		}
	}
	return ""
}

func commaSegmentRule(countries []string, isCity func(string) bool) func(string) string {
	return func(n string) string {
		if !strings.Contains(n, ",") {
			return ""
		}
		var segments []string
		for _, seg := range strings.Split(n, ",") {
			seg = strings.TrimSpace(seg)
			if seg == "" || isCountry(seg, countries) || isCountyQualifier(seg) {
				continue
			}
			segments = append(segments, seg)
		}
		if len(segments) == 0 {
			return ""
		}

		// Rightmost known city wins, addresses list the street before the town.
		if isCity != nil {
			for i := len(segments) - 1; i >= 0; i-- {
				if isCity(segments[i]) {
					return segments[i]
				}
				if run := firstAlphabeticRun(segments[i]); run != "" && isCity(run) {
					return run
				}
			}
		}
		for i := len(segments) - 1; i >= 0; i-- {
			if looksLikeCity(segments[i]) {
				return segments[i]
			}
		}
		return ""
	}
}

func countrySuffixRule(countries []string) func(string) string {
	return func(n string) string {
		for _, c := range countries {
			if strings.HasSuffix(n, " "+c) {
				return strings.TrimSpace(strings.TrimSuffix(n, c))
			}
		}
		return ""
	}
}

func firstAlphabeticRun(n string) string {
	return strings.TrimSpace(alphabeticRun.FindString(n))
}

func isCountry(seg string, countries []string) bool {
	for _, c := range countries {
		if seg == c {
			return true
		}
	}
	return false
}

func isCountyQualifier(seg string) bool {
	for _, s := range countySuffixes {
		if strings.Contains(seg, s) {
			return true
		}
	}
	return false
}

// looksLikeCity accepts short runs of letters, the shape of a Croatian town name.
func looksLikeCity(seg string) bool {
	if len(strings.Fields(seg)) > 3 {
		return false
	}
	return alphabeticRun.FindString(seg) == seg
}
