package style

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/sonai/internal/domain/pattern"
)

// Extractor computes TextMetrics. It holds only immutable state and is safe for concurrent use.
type Extractor struct {
	patterns *pattern.Set
	markdown *markdownCounter
}

// NewExtractor creates an extractor over a compiled phrase set.
func NewExtractor(patterns *pattern.Set) *Extractor {
	return &Extractor{
		patterns: patterns,
		markdown: newMarkdownCounter(),
	}
}

// Calculate computes the metrics of text. It never fails.
func (e *Extractor) Calculate(text string) TextMetrics {
	// Markdown is detected on the original text, everything else on the lowercased copy.
	markdown := e.markdown.Count(text)

	lower := pattern.Normalize(text)
	seg := segment(lower)
	glyphs := scanGlyphs(lower)

	buzz := e.patterns.Count(pattern.Buzzword, lower) - e.patterns.Count(pattern.NegativeBuzzword, lower)
	if buzz < 0 {
		buzz = 0
	}

	sentences := float64(seg.sentences)
	return TextMetrics{
		EmojiRate:    float64(glyphs.emoji) / sentences,
		BuzzwordRate: float64(buzz) / sentences,

		NotJustCount:       float64(e.patterns.Count(pattern.NotJust, lower)),
		HTMLEscapeCount:    float64(strings.Count(lower, "&amp;")),
		DevlogCadenceCount: float64(e.patterns.Count(pattern.DevlogCadence, lower)),

		IrregularEllipsisCount:  float64(strings.Count(lower, "…") + strings.Count(lower, "...")),
		IrregularQuotationCount: float64(glyphs.quote),
		IrregularDashCount:      float64(glyphs.dash),
		IrregularMarkdownCount:  float64(markdown),

		LabelCount:   float64(countLabels(lower)),
		HashtagCount: float64(seg.hashtags),

		BackstoryCount:            float64(e.patterns.Count(pattern.Backstory, lower)),
		IncorrectPerspectiveCount: float64(e.patterns.Count(pattern.IncorrectPerspective, lower)),
		HedgingCount:              float64(e.patterns.Count(pattern.Hedging, lower)),
	}
}

// CalculateAll computes metrics for each text, preserving order.
func (e *Extractor) CalculateAll(texts []string) []TextMetrics {
	out := make([]TextMetrics, len(texts))
	for i, t := range texts {
		out[i] = e.Calculate(t)
	}
	return out
}

// segments holds sentence and word level counts. sentences and words are always >= 1.
type segments struct {
	sentences int
	words     int
	hashtags  int
}

func segment(text string) segments {
	s := segments{}

	for _, part := range strings.FieldsFunc(text, isSentenceEnd) {
		if strings.TrimSpace(part) != "" {
			s.sentences++
		}
	}

	for _, w := range strings.Fields(text) {
		s.words++
		if len(w) > 1 && w[0] == '#' {
			s.hashtags++
		}
	}

	s.sentences = max(s.sentences, 1)
	s.words = max(s.words, 1)
	return s
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// countLabels counts lines shaped like "Field: value" where the field is letters and spaces only.
func countLabels(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		label, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		if label != "" && isLabel(label) {
			n++
		}
	}
	return n
}

func isLabel(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
