package pattern

// Normalize lowercases ASCII letters and leaves every other byte untouched,
// so emoji and typographic glyphs keep their exact encoding.
func Normalize(s string) string {
	upper := -1
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			upper = i
			break
		}
	}
	if upper < 0 {
		return s
	}

	b := []byte(s)
	for i := upper; i < len(b); i++ {
		if c := b[i]; c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
