// Package cluster scores feature vectors against a two-centroid model.
package cluster

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/feature"
)

// K is the number of clusters a model carries. The human/AI complement only holds for two.
const K = 2

// Model is an immutable two-centroid model bound to the feature table it was trained with.
type Model struct {
	table       feature.Table
	centroids   [K]feature.Vector
	aiCluster   int
	fingerprint string
}

// NewModel validates and creates a model.
func NewModel(table feature.Table, centroids [][]float64, aiCluster int) (*Model, error) {
	if len(centroids) != K {
		return nil, fmt.Errorf("%w: expected %d centroids, got %d", domain.ErrInvalidModel, K, len(centroids))
	}
	if aiCluster < 0 || aiCluster >= K {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidAICluster, aiCluster)
	}

	m := &Model{table: table, aiCluster: aiCluster}
	for i, c := range centroids {
		if len(c) != table.Len() {
			return nil, fmt.Errorf("centroid %d for table %s: %w",
				i, table.Name(), domain.NewDimensionError(table.Len(), len(c)))
		}
		for j, x := range c {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("%w: centroid %d feature %d is not finite", domain.ErrInvalidModel, i, j)
			}
		}
		m.centroids[i] = append(feature.Vector(nil), c...)
	}

	sum := sha256.Sum256(append(EncodeArtifact(m), EncodeAICluster(aiCluster)...))
	m.fingerprint = hex.EncodeToString(sum[:8])
	return m, nil
}

// Table returns the feature table the model was trained with.
func (m *Model) Table() feature.Table { return m.table }

// AICluster returns the index of the AI-like centroid.
func (m *Model) AICluster() int { return m.aiCluster }

// Dimensions returns the feature space dimensionality.
func (m *Model) Dimensions() int { return m.table.Len() }

// Centroid returns a copy of centroid i.
func (m *Model) Centroid(i int) feature.Vector {
	return append(feature.Vector(nil), m.centroids[i]...)
}

// Centroids returns copies of both centroids in cluster order.
func (m *Model) Centroids() [][]float64 {
	out := make([][]float64, K)
	for i := range m.centroids {
		out[i] = m.Centroid(i)
	}
	return out
}

// Fingerprint identifies the model content: centroids, table and ai cluster.
func (m *Model) Fingerprint() string { return m.fingerprint }
