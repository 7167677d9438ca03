package pattern

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var dictionaryYAML []byte

// Dictionary maps every category to its phrase list.
type Dictionary map[Category][]string

// ParseDictionary decodes a YAML dictionary document. Unknown categories are rejected.
func ParseDictionary(data []byte) (Dictionary, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &BuildError{Reason: fmt.Sprintf("parse dictionary: %v", err)}
	}

	d := make(Dictionary, len(raw))
	for name, phrases := range raw {
		c := Category(name)
		if !c.Valid() {
			return nil, &BuildError{Category: c, Reason: "unknown category"}
		}
		d[c] = phrases
	}
	return d, nil
}

// DefaultDictionary returns the embedded curated dictionary.
func DefaultDictionary() (Dictionary, error) {
	return ParseDictionary(dictionaryYAML)
}

// Set holds one compiled matcher per category.
type Set struct {
	matchers map[Category]*Matcher
}

// Compile builds a matcher for every category. Each category must be present and non-empty.
func Compile(d Dictionary) (*Set, error) {
	s := &Set{matchers: make(map[Category]*Matcher, len(Categories()))}
	for _, c := range Categories() {
		phrases, ok := d[c]
		if !ok {
			return nil, &BuildError{Category: c, Reason: "category missing"}
		}
		m, err := NewMatcher(c, phrases)
		if err != nil {
			return nil, err
		}
		s.matchers[c] = m
	}
	return s, nil
}

// Count returns the overlapping match count of category c in text.
// text must be normalized with Normalize.
func (s *Set) Count(c Category, text string) int {
	m, ok := s.matchers[c]
	if !ok {
		return 0
	}
	return m.Count(text)
}

// Len returns the number of distinct phrases compiled for c, or 0 for an unknown category.
func (s *Set) Len(c Category) int {
	m, ok := s.matchers[c]
	if !ok {
		return 0
	}
	return m.Len()
}

var defaultSet = sync.OnceValues(func() (*Set, error) {
	d, err := DefaultDictionary()
	if err != nil {
		return nil, err
	}
	return Compile(d)
})

// Default returns the process-wide compiled default dictionary.
// It is built once on first use and shared read-only afterwards.
func Default() (*Set, error) {
	return defaultSet()
}
