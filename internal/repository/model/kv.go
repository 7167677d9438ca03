package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/sonai/internal/db"
	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/cluster"
)

// Hash fields of the stored model.
const (
	fieldArtifact  = "artifact"
	fieldAICluster = "ai_cluster"
	fieldRevision  = "revision"
	fieldUpdatedAt = "updated_at"
)

// hashStore is the consumer interface for model storage (ISP).
type hashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVRepository keeps the active model in one hash so artifact and ai cluster change together.
type KVRepository struct {
	store hashStore
	key   string
	now   func() time.Time
}

// NewKVRepository creates a store-backed repository under keyPrefix.
func NewKVRepository(s hashStore, keyPrefix string) *KVRepository {
	return &KVRepository{store: s, key: keyPrefix + "model", now: time.Now}
}

// Name identifies the source in logs and metrics.
func (r *KVRepository) Name() string { return "store" }

// Load reads and validates the stored model.
func (r *KVRepository) Load(ctx context.Context) (*cluster.Model, error) {
	fields, err := r.store.HGetAll(ctx, r.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: no model stored at %s", domain.ErrModelNotLoaded, r.key)
		}
		return nil, fmt.Errorf("get model: %w", err)
	}

	m, err := cluster.Load([]byte(fields[fieldArtifact]), []byte(fields[fieldAICluster]))
	if err != nil {
		return nil, fmt.Errorf("load %s (revision %s): %w", r.key, fields[fieldRevision], err)
	}
	return m, nil
}

// Save stores the model with its revision id in a single HSET.
func (r *KVRepository) Save(ctx context.Context, m *cluster.Model, revision string) error {
	fields := map[string]string{
		fieldArtifact:  rueidis.BinaryString(cluster.EncodeArtifact(m)),
		fieldAICluster: rueidis.BinaryString(cluster.EncodeAICluster(m.AICluster())),
		fieldRevision:  revision,
		fieldUpdatedAt: r.now().UTC().Format(time.RFC3339),
	}
	if err := r.store.HSet(ctx, r.key, fields); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}
