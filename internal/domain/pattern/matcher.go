package pattern

import (
	"unicode/utf8"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// Matcher counts occurrences of a fixed phrase set in a single pass over the text.
// The underlying Aho-Corasick trie works on bytes, so multibyte phrases match exactly.
// A Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	trie    *ahocorasick.Trie
	phrases int
}

// NewMatcher compiles phrases into a matcher. Duplicate phrases are collapsed.
// Phrases must be non-empty, valid UTF-8 and already normalized with Normalize.
func NewMatcher(category Category, phrases []string) (*Matcher, error) {
	unique := make([]string, 0, len(phrases))
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		switch {
		case p == "":
			return nil, &BuildError{Category: category, Reason: "empty phrase"}
		case !utf8.ValidString(p):
			return nil, &BuildError{Category: category, Phrase: p, Reason: "invalid utf-8"}
		case Normalize(p) != p:
			return nil, &BuildError{Category: category, Phrase: p, Reason: "phrase must be lowercase"}
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	if len(unique) == 0 {
		return nil, &BuildError{Category: category, Reason: "no phrases"}
	}

	trie := ahocorasick.NewTrieBuilder().AddStrings(unique).Build()
	return &Matcher{trie: trie, phrases: len(unique)}, nil
}

// Len returns the number of distinct phrases.
func (m *Matcher) Len() int { return m.phrases }

// Count returns the number of phrase occurrences in text, overlapping ones included.
func (m *Matcher) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(m.trie.MatchString(text))
}
