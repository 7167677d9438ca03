// Package feature turns TextMetrics into weighted feature vectors.
//
// A Table is part of the model contract: centroids trained against one table
// are only comparable with vectors built by the same table.
package feature

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/style"
)

// Vector is an ordered, weighted feature vector.
type Vector []float64

// Weight scales one metric into feature space.
type Weight struct {
	Metric string  `json:"name"`
	Factor float64 `json:"weight"`
}

// Table is a named, ordered list of metric weights.
type Table struct {
	name    string
	weights []Weight
}

// Built-in table names.
const (
	V1Name         = "sonai-v1"
	V2ExtendedName = "sonai-v2-extended"
)

var v1Weights = []Weight{
	{style.EmojiRate, 1},
	{style.BuzzwordRate, 10},
	{style.IrregularDashCount, 20},
	{style.IrregularQuotationCount, 5},
	{style.LabelCount, 1},
	{style.IrregularEllipsisCount, 1},
	{style.HTMLEscapeCount, 5},
	{style.NotJustCount, 5},
	{style.DevlogCadenceCount, 1},
	{style.IrregularMarkdownCount, 1},
	{style.HashtagCount, 1},
}

var (
	// V1 is the original eleven feature table.
	V1 = mustTable(V1Name, v1Weights)
	// V2Extended appends the extended phrase categories to V1.
	V2Extended = mustTable(V2ExtendedName, append(append([]Weight(nil), v1Weights...),
		Weight{style.BackstoryCount, 5},
		Weight{style.IncorrectPerspectiveCount, 5},
		Weight{style.HedgingCount, 1},
	))
)

var tables = map[string]Table{
	V1Name:         V1,
	V2ExtendedName: V2Extended,
}

// NewTable validates weights and creates a table.
// Every metric must be known and appear once; every factor must be finite and positive.
func NewTable(name string, weights []Weight) (Table, error) {
	if name == "" {
		return Table{}, fmt.Errorf("%w: empty table name", domain.ErrUnknownFeatureTable)
	}
	if len(weights) == 0 {
		return Table{}, fmt.Errorf("%w: table %q has no weights", domain.ErrUnknownFeatureTable, name)
	}

	var zero style.TextMetrics
	seen := make(map[string]struct{}, len(weights))
	for _, w := range weights {
		if _, ok := zero.Field(w.Metric); !ok {
			return Table{}, fmt.Errorf("%w: table %q: unknown metric %q", domain.ErrUnknownFeatureTable, name, w.Metric)
		}
		if _, dup := seen[w.Metric]; dup {
			return Table{}, fmt.Errorf("%w: table %q: duplicate metric %q", domain.ErrUnknownFeatureTable, name, w.Metric)
		}
		if w.Factor <= 0 || math.IsInf(w.Factor, 0) || math.IsNaN(w.Factor) {
			return Table{}, fmt.Errorf("%w: table %q: bad weight %v for %q", domain.ErrUnknownFeatureTable, name, w.Factor, w.Metric)
		}
		seen[w.Metric] = struct{}{}
	}

	return Table{name: name, weights: append([]Weight(nil), weights...)}, nil
}

func mustTable(name string, weights []Weight) Table {
	t, err := NewTable(name, weights)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns a built-in table by name.
func Lookup(name string) (Table, error) {
	t, ok := tables[name]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", domain.ErrUnknownFeatureTable, name)
	}
	return t, nil
}

// Names returns the built-in table names.
func Names() []string {
	return []string{V1Name, V2ExtendedName}
}

// Name returns the table version name.
func (t Table) Name() string { return t.name }

// Len returns the vector dimensionality.
func (t Table) Len() int { return len(t.weights) }

// Weights returns a copy of the ordered weights.
func (t Table) Weights() []Weight {
	return append([]Weight(nil), t.weights...)
}

// Vector maps metrics into the table's feature space.
func (t Table) Vector(m style.TextMetrics) Vector {
	v := make(Vector, len(t.weights))
	for i, w := range t.weights {
		x, _ := m.Field(w.Metric)
		v[i] = x * w.Factor
	}
	return v
}
