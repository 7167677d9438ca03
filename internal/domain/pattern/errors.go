package pattern

import (
	"fmt"

	"github.com/kailas-cloud/sonai/internal/domain"
)

// BuildError describes why a phrase set could not be compiled.
// It is a startup failure: dictionaries are never built from user input.
type BuildError struct {
	Category Category
	Phrase   string
	Reason   string
}

func (e *BuildError) Error() string {
	if e.Phrase != "" {
		return fmt.Sprintf("%s: category %q, phrase %q: %s", domain.ErrPatternBuild, e.Category, e.Phrase, e.Reason)
	}
	return fmt.Sprintf("%s: category %q: %s", domain.ErrPatternBuild, e.Category, e.Reason)
}

func (e *BuildError) Unwrap() error { return domain.ErrPatternBuild }
