package model

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/cluster"
)

// Snapshot is an immutable view of the active model.
type Snapshot struct {
	Model    *cluster.Model
	Revision string
	Source   string
}

// Registry holds the active model and swaps it atomically.
// Readers take one Snapshot per call and never observe a partial update.
type Registry struct {
	source  Source
	saver   Saver
	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
	reloads *prometheus.CounterVec
	logger  *zap.Logger
	newID   func() string
}

// NewRegistry creates a registry. saver may be nil, which makes Replace keep the model in memory only.
// reloads is a counter vec with labels "source" and "status", passed explicitly; it may be nil.
func NewRegistry(source Source, saver Saver, reloads *prometheus.CounterVec, logger *zap.Logger) *Registry {
	return &Registry{
		source:  source,
		saver:   saver,
		reloads: reloads,
		logger:  logger,
		newID:   func() string { return uuid.NewString() },
	}
}

// Current returns the active snapshot, or domain.ErrModelNotLoaded.
func (r *Registry) Current() (*Snapshot, error) {
	s := r.current.Load()
	if s == nil {
		return nil, domain.ErrModelNotLoaded
	}
	return s, nil
}

// Model returns the active model, or nil when none is loaded.
func (r *Registry) Model() *cluster.Model {
	if s := r.current.Load(); s != nil {
		return s.Model
	}
	return nil
}

// Reload loads the model from the source. On failure the previous model stays active.
func (r *Registry) Reload(ctx context.Context) (*Snapshot, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	name := r.source.Name()
	m, err := r.source.Load(ctx)
	if err != nil {
		r.inc(name, "error")
		fields := []zap.Field{zap.String("source", name), zap.Error(err)}
		if prev := r.current.Load(); prev != nil {
			fields = append(fields, zap.String("kept_fingerprint", prev.Model.Fingerprint()))
		}
		r.logger.Error("Model reload failed", fields...)
		return nil, fmt.Errorf("reload model from %s: %w", name, err)
	}

	if prev := r.current.Load(); prev != nil && prev.Model.Fingerprint() == m.Fingerprint() {
		r.inc(name, "unchanged")
		return prev, nil
	}

	s := &Snapshot{Model: m, Revision: r.newID(), Source: name}
	r.current.Store(s)
	r.inc(name, "ok")
	r.logger.Info("Model loaded",
		zap.String("source", name),
		zap.String("revision", s.Revision),
		zap.String("fingerprint", m.Fingerprint()),
		zap.String("feature_table", m.Table().Name()),
		zap.Int("ai_cluster", m.AICluster()),
	)
	return s, nil
}

// Replace persists m through the saver and makes it active.
// The active model is unchanged when persisting fails.
func (r *Registry) Replace(ctx context.Context, m *cluster.Model) (*Snapshot, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", domain.ErrInvalidModel)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	revision := r.newID()
	if r.saver != nil {
		if err := r.saver.Save(ctx, m, revision); err != nil {
			r.inc("api", "error")
			r.logger.Error("Model replace failed", zap.String("revision", revision), zap.Error(err))
			return nil, fmt.Errorf("save model: %w", err)
		}
	}

	s := &Snapshot{Model: m, Revision: revision, Source: "api"}
	r.current.Store(s)
	r.inc("api", "ok")
	r.logger.Info("Model replaced",
		zap.String("revision", revision),
		zap.String("fingerprint", m.Fingerprint()),
		zap.String("feature_table", m.Table().Name()),
		zap.Int("ai_cluster", m.AICluster()),
	)
	return s, nil
}

// Healthy reports whether a model is loaded.
func (r *Registry) Healthy(_ context.Context) error {
	_, err := r.Current()
	return err
}

func (r *Registry) inc(source, status string) {
	if r.reloads != nil {
		r.reloads.WithLabelValues(source, status).Inc()
	}
}
