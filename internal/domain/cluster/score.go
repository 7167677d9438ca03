package cluster

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/feature"
)

// Membership is the soft assignment of a vector to each centroid.
// Similarities sum to 1 unless both are zero.
type Membership struct {
	Distances    [K]float64
	Similarities [K]float64
}

// Score computes the Euclidean distance from v to each centroid and converts it
// to a normalized inverse-distance similarity 1/(1+d).
func Score(v feature.Vector, m *Model) (Membership, error) {
	if m == nil {
		return Membership{}, domain.ErrModelNotLoaded
	}
	if len(v) != m.Dimensions() {
		return Membership{}, fmt.Errorf("score: %w", domain.NewDimensionError(m.Dimensions(), len(v)))
	}

	var mb Membership
	var sum float64
	for i, c := range m.centroids {
		d := euclidean(v, c)
		mb.Distances[i] = d
		mb.Similarities[i] = 1 / (1 + d)
		sum += mb.Similarities[i]
	}
	if sum > 0 {
		for i := range mb.Similarities {
			mb.Similarities[i] /= sum
		}
	}
	return mb, nil
}

// Split converts membership into percentages for the AI cluster and its complement.
// Undefined membership splits evenly.
func (mb Membership) Split(aiCluster int) (ai, human float64, err error) {
	if aiCluster < 0 || aiCluster >= K {
		return 0, 0, fmt.Errorf("%w: %d", domain.ErrInvalidAICluster, aiCluster)
	}

	var sum float64
	for _, s := range mb.Similarities {
		sum += s
	}
	if sum == 0 || math.IsNaN(sum) {
		return 50, 50, nil
	}

	ai = 100 * mb.Similarities[aiCluster]
	return ai, 100 - ai, nil
}

func euclidean(a, b feature.Vector) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
