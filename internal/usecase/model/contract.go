package model

import (
	"context"

	"github.com/kailas-cloud/sonai/internal/domain/cluster"
)

// Source loads the active model.
type Source interface {
	Name() string
	Load(ctx context.Context) (*cluster.Model, error)
}

// Saver persists a replacement model under a revision id.
type Saver interface {
	Save(ctx context.Context, m *cluster.Model, revision string) error
}
