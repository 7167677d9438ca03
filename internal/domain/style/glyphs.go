package style

import (
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

type glyphCounts struct {
	emoji int
	dash  int
	quote int
}

// scanGlyphs walks text by extended grapheme cluster. A grapheme that is a
// known emoji counts once and is not inspected further.
func scanGlyphs(text string) glyphCounts {
	var c glyphCounts

	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		if isEmoji(cluster) {
			c.emoji++
			continue
		}

		start, _ := g.Positions()
		for off, r := range cluster {
			switch r {
			case '‒', '–', '—', '―':
				c.dash++
			case '“', '”', '‘', '’':
				c.quote++
			case '-':
				if hyphenAsDash(text, start+off) {
					c.dash++
				}
			}
		}
	}
	return c
}

// hyphenAsDash reports whether the ASCII hyphen at byte offset i is followed
// by a non-whitespace scalar. "end-to-end" counts, "end - x" and a trailing hyphen do not.
func hyphenAsDash(text string, i int) bool {
	next, size := utf8.DecodeRuneInString(text[i+1:])
	if size == 0 {
		return false
	}
	return !unicode.IsSpace(next)
}

func isEmoji(cluster string) bool {
	// Single-byte clusters are ASCII and never emoji.
	if len(cluster) == 1 {
		return false
	}
	_, err := gomoji.GetInfo(cluster)
	return err == nil
}
