package model

import (
	"context"
	"testing"

	"github.com/kailas-cloud/sonai/internal/db"
	"github.com/kailas-cloud/sonai/internal/domain/cluster"
	"github.com/kailas-cloud/sonai/internal/domain/feature"
)

// mockHashStore implements hashStore in memory.
type mockHashStore struct {
	hashes map[string]map[string]string
	err    error
}

func newMockHashStore() *mockHashStore {
	return &mockHashStore{hashes: map[string]map[string]string{}}
}

func (m *mockHashStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.err != nil {
		return m.err
	}
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockHashStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	h, ok := m.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return h, nil
}

func testModel(t *testing.T, ai int) *cluster.Model {
	t.Helper()
	c1 := make([]float64, feature.V1.Len())
	for i := range c1 {
		c1[i] = float64(i) + 0.5
	}
	m, err := cluster.NewModel(feature.V1, [][]float64{make([]float64, feature.V1.Len()), c1}, ai)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}
