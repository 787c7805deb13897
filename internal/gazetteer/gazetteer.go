// Package gazetteer holds the static table of known venues, cities and regions.
//
// A Store is built once and never mutated afterwards, so a single instance can be
// shared by any number of goroutines.
package gazetteer

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"venue-geocoder/internal/models"
	"venue-geocoder/internal/normalize"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

//go:embed gazetteer.yaml
var embeddedData []byte

// Tier is the precision level of a gazetteer entry.
type Tier string

const (
	TierVenue  Tier = "venue"
	TierCity   Tier = "city"
	TierRegion Tier = "region"
)

const (
	// minFuzzyLen keeps short inputs away from edit-distance matching, where
	// two edits would turn almost any word into any other.
	minFuzzyLen     = 6
	maxFuzzyDist    = 2
	maxFuzzyRuneLen = 64
)

// Entry is one named point in the gazetteer.
type Entry struct {
	Key        string
	Name       string
	Coordinate models.Coordinate
	Tier       Tier
}

// Store is an immutable, read-only gazetteer.
type Store struct {
	tiers   map[Tier]map[string]Entry
	ordered map[Tier][]string // keys by length desc, then lexically
	exonyms map[string]string
}

// New builds a store from entries and an exonym table. Keys are normalized;
// a duplicate key within one tier is an error.
func New(entries []Entry, exonyms map[string]string) (*Store, error) {
	s := &Store{
		tiers: map[Tier]map[string]Entry{
			TierVenue:  {},
			TierCity:   {},
			TierRegion: {},
		},
		ordered: make(map[Tier][]string, 3),
		exonyms: make(map[string]string, len(exonyms)),
	}

	for _, e := range entries {
		key := normalize.Normalize(e.Key)
		if key == "" {
			return nil, fmt.Errorf("gazetteer: empty key for %q", e.Name)
		}
		if !e.Coordinate.Valid() {
			return nil, fmt.Errorf("gazetteer: invalid coordinate for %q: %v", key, e.Coordinate)
		}
		tier, ok := s.tiers[e.Tier]
		if !ok {
			return nil, fmt.Errorf("gazetteer: unknown tier %q for %q", e.Tier, key)
		}
		if _, dup := tier[key]; dup {
			return nil, fmt.Errorf("gazetteer: duplicate %s key %q", e.Tier, key)
		}
		e.Key = key
		tier[key] = e
	}

	for from, to := range exonyms {
		f, t := normalize.Normalize(from), normalize.Normalize(to)
		if f == "" || t == "" {
			return nil, fmt.Errorf("gazetteer: invalid exonym %q -> %q", from, to)
		}
		if _, ok := s.tiers[TierCity][t]; !ok {
			return nil, fmt.Errorf("gazetteer: exonym %q points at unknown city %q", from, to)
		}
		s.exonyms[f] = t
	}

	for tier, m := range s.tiers {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) > len(keys[j])
			}
			return keys[i] < keys[j]
		})
		s.ordered[tier] = keys
	}
	return s, nil
}

type fileEntry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Lat     float64  `yaml:"lat"`
	Lng     float64  `yaml:"lng"`
}

type file struct {
	Venues  []fileEntry       `yaml:"venues"`
	Cities  []fileEntry       `yaml:"cities"`
	Regions []fileEntry       `yaml:"regions"`
	Exonyms map[string]string `yaml:"exonyms"`
}

// Load parses a YAML gazetteer document.
func Load(r io.Reader) (*Store, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("gazetteer: failed to decode: %w", err)
	}

	var entries []Entry
	add := func(tier Tier, list []fileEntry) {
		for _, fe := range list {
			coord := models.Coordinate{Latitude: fe.Lat, Longitude: fe.Lng}
			entries = append(entries, Entry{Key: fe.Name, Name: fe.Name, Coordinate: coord, Tier: tier})
			for _, alias := range fe.Aliases {
				entries = append(entries, Entry{Key: alias, Name: fe.Name, Coordinate: coord, Tier: tier})
			}
		}
	}
	add(TierVenue, f.Venues)
	add(TierCity, f.Cities)
	add(TierRegion, f.Regions)

	return New(entries, f.Exonyms)
}

var defaultStore = sync.OnceValues(func() (*Store, error) {
	return Load(bytes.NewReader(embeddedData))
})

// Default returns the store built from the embedded data set.
func Default() (*Store, error) {
	return defaultStore()
}

// Len returns the number of entries in a tier.
func (s *Store) Len(tier Tier) int {
	return len(s.tiers[tier])
}

// LookupExact returns the entry whose normalized key equals key.
func (s *Store) LookupExact(key string, tier Tier) (Entry, bool) {
	if key == "" {
		return Entry{}, false
	}
	e, ok := s.tiers[tier][key]
	return e, ok
}

// IsCity reports whether key is a known city.
func (s *Store) IsCity(key string) bool {
	_, ok := s.tiers[TierCity][key]
	return ok
}

// LookupExonym maps a foreign or historical name to its canonical city key.
func (s *Store) LookupExonym(key string) (string, bool) {
	c, ok := s.exonyms[key]
	return c, ok
}

// LookupPartial returns the entry whose key contains key, or is contained in it,
// on word boundaries. Longer keys win ties. A bare city, region or exonym is never
// treated as a fragment of a longer name.
func (s *Store) LookupPartial(key string, tier Tier) (Entry, bool) {
	if key == "" {
		return Entry{}, false
	}
	padded := wordPadded(key)
	if padded == "  " {
		return Entry{}, false
	}
	reverse := !s.isPlaceName(key)
	for _, k := range s.ordered[tier] {
		pk := wordPadded(k)
		if strings.Contains(padded, pk) || (reverse && strings.Contains(pk, padded)) {
			return s.tiers[tier][k], true
		}
	}
	return Entry{}, false
}

// LookupFuzzy returns the entry within maxDist edits of key. The closest key wins,
// then the longer one, then the lexically smaller one. Known place names never match.
func (s *Store) LookupFuzzy(key string, tier Tier, maxDist int) (Entry, bool) {
	n := utf8.RuneCountInString(key)
	if n < minFuzzyLen || n > maxFuzzyRuneLen || maxDist <= 0 || s.isPlaceName(key) {
		return Entry{}, false
	}
	if maxDist > maxFuzzyDist {
		maxDist = maxFuzzyDist
	}

	best, bestDist := "", maxDist+1
	for _, k := range s.ordered[tier] {
		if diff := utf8.RuneCountInString(k) - n; diff > maxDist || -diff > maxDist {
			continue
		}
		// ordered is longest-first, so a strict comparison keeps the longer key on ties.
		if d := levenshtein.ComputeDistance(key, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return Entry{}, false
	}
	return s.tiers[tier][best], true
}

// wordPadded reduces s to space-separated letter/digit words wrapped in single
// spaces, so substring tests only match whole words.
func wordPadded(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(words, " ") + " "
}

func (s *Store) isPlaceName(key string) bool {
	if _, ok := s.tiers[TierCity][key]; ok {
		return true
	}
	if _, ok := s.tiers[TierRegion][key]; ok {
		return true
	}
	_, ok := s.exonyms[key]
	return ok
}
