package pattern

// Category names a semantic group of phrases in the dictionary.
type Category string

// Dictionary categories.
const (
	Buzzword             Category = "buzzword"
	NegativeBuzzword     Category = "negative_buzzword"
	NotJust              Category = "not_just"
	DevlogCadence        Category = "devlog_cadence"
	Backstory            Category = "backstory"
	IncorrectPerspective Category = "incorrect_perspective"
	Hedging              Category = "hedging"
)

// Categories returns every known category in a stable order.
func Categories() []Category {
	return []Category{
		Buzzword,
		NegativeBuzzword,
		NotJust,
		DevlogCadence,
		Backstory,
		IncorrectPerspective,
		Hedging,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
