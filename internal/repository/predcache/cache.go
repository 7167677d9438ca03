// Package predcache caches predictions in a key-value store.
package predcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sonai/internal/db"
	"github.com/kailas-cloud/sonai/internal/domain/prediction"
)

// store is the consumer interface for the prediction cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores predictions keyed by model fingerprint and text hash.
// Entries of a replaced model are never read again and expire by TTL.
// Store failures are logged and reported as misses.
type Cache struct {
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a prediction cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(s store, keyPrefix string, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:      s,
		prefix:     keyPrefix + "pred:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns a cached prediction.
func (c *Cache) Get(ctx context.Context, fingerprint, text string) (prediction.Prediction, bool) {
	key := c.key(fingerprint, text)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.inc("miss")
		} else {
			c.inc("error")
			c.logger.Warn("Failed to get cached prediction", zap.String("key", key), zap.Error(err))
		}
		return prediction.Prediction{}, false
	}

	var p prediction.Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		c.inc("error")
		c.logger.Warn("Failed to parse cached prediction", zap.String("key", key), zap.Error(err))
		return prediction.Prediction{}, false
	}

	c.inc("hit")
	return p, true
}

// Put stores a prediction.
func (c *Cache) Put(ctx context.Context, fingerprint, text string, p prediction.Prediction) {
	key := c.key(fingerprint, text)

	data, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("Failed to encode prediction", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache prediction", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) key(fingerprint, text string) string {
	h := sha256.Sum256([]byte(text))
	return c.prefix + fingerprint + ":" + hex.EncodeToString(h[:])
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
