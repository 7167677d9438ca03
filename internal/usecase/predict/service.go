package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/feature"
	"github.com/kailas-cloud/sonai/internal/domain/prediction"
	"github.com/kailas-cloud/sonai/internal/domain/style"
	"github.com/kailas-cloud/sonai/internal/logger"
	usemodel "github.com/kailas-cloud/sonai/internal/usecase/model"
)

// Defaults applied when the service is built without explicit limits.
const (
	DefaultMaxTextBytes     = 64 << 10
	DefaultMaxBatchSize     = 100
	DefaultBatchConcurrency = 4
)

// Result is a prediction bound to the model that produced it.
type Result struct {
	prediction.Prediction
	Fingerprint string
	Revision    string
}

// FeatureValue is one weighted feature of an analysis.
type FeatureValue struct {
	Name   string
	Weight float64
	Value  float64
}

// Analysis is extraction and vector assembly without scoring.
type Analysis struct {
	Metrics  style.TextMetrics
	Table    string
	Features []FeatureValue
}

// Metrics bundles the collectors the service reports to. Any field may be nil.
type Metrics struct {
	Predictions *prometheus.CounterVec // label "verdict"
	Duration    prometheus.Observer
}

// Service runs predictions against the active model.
type Service struct {
	extractor        *style.Extractor
	models           ModelProvider
	cache            Cache
	metrics          Metrics
	maxTextBytes     int
	maxBatchSize     int
	batchConcurrency int
}

// New creates a prediction service. cache can be nil.
func New(extractor *style.Extractor, models ModelProvider, cache Cache, m Metrics) *Service {
	return &Service{
		extractor:        extractor,
		models:           models,
		cache:            cache,
		metrics:          m,
		maxTextBytes:     DefaultMaxTextBytes,
		maxBatchSize:     DefaultMaxBatchSize,
		batchConcurrency: DefaultBatchConcurrency,
	}
}

// WithLimits configures request limits. Non-positive values keep the defaults.
func (s *Service) WithLimits(maxTextBytes, maxBatchSize, batchConcurrency int) *Service {
	if maxTextBytes > 0 {
		s.maxTextBytes = maxTextBytes
	}
	if maxBatchSize > 0 {
		s.maxBatchSize = maxBatchSize
	}
	if batchConcurrency > 0 {
		s.batchConcurrency = batchConcurrency
	}
	return s
}

// MaxTextBytes returns the per-text size limit.
func (s *Service) MaxTextBytes() int { return s.maxTextBytes }

// Predict scores one text against the active model.
func (s *Service) Predict(ctx context.Context, text string) (Result, error) {
	if err := s.checkText(text); err != nil {
		return Result{}, err
	}
	snap, err := s.models.Current()
	if err != nil {
		return Result{}, err
	}
	return s.predictWith(ctx, snap, text)
}

// PredictBatch scores texts with bounded concurrency against one model snapshot.
// Results are in input order.
func (s *Service) PredictBatch(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d texts, limit %d", domain.ErrBatchTooLarge, len(texts), s.maxBatchSize)
	}
	for i, t := range texts {
		if err := s.checkText(t); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
	}
	snap, err := s.models.Current()
	if err != nil {
		return nil, err
	}

	out := make([]Result, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, t := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.predictWith(gctx, snap, t)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Batch prediction completed",
		zap.Int("batch_size", len(texts)),
		zap.String("fingerprint", snap.Model.Fingerprint()),
	)
	return out, nil
}

// Analyze extracts metrics and weighted features using the active model's table, or V1 when none is loaded.
func (s *Service) Analyze(_ context.Context, text string) (Analysis, error) {
	if err := s.checkText(text); err != nil {
		return Analysis{}, err
	}

	table := feature.V1
	if snap, err := s.models.Current(); err == nil {
		table = snap.Model.Table()
	}

	m := s.extractor.Calculate(text)
	vec := table.Vector(m)
	weights := table.Weights()
	features := make([]FeatureValue, len(weights))
	for i, w := range weights {
		features[i] = FeatureValue{Name: w.Metric, Weight: w.Factor, Value: vec[i]}
	}
	return Analysis{Metrics: m, Table: table.Name(), Features: features}, nil
}

func (s *Service) predictWith(ctx context.Context, snap *usemodel.Snapshot, text string) (Result, error) {
	fp := snap.Model.Fingerprint()
	res := Result{Fingerprint: fp, Revision: snap.Revision}

	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, fp, text); ok {
			s.countVerdict(p.Verdict())
			res.Prediction = p
			return res, nil
		}
	}

	start := time.Now()
	p, err := prediction.Predict(s.extractor, text, snap.Model)
	if err != nil {
		s.countVerdict("error")
		return Result{}, fmt.Errorf("predict: %w", err)
	}
	if s.metrics.Duration != nil {
		s.metrics.Duration.Observe(time.Since(start).Seconds())
	}
	s.countVerdict(p.Verdict())

	if s.cache != nil {
		s.cache.Put(ctx, fp, text, p)
	}
	res.Prediction = p
	return res, nil
}

func (s *Service) checkText(text string) error {
	if len(text) > s.maxTextBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", domain.ErrTextTooLarge, len(text), s.maxTextBytes)
	}
	return nil
}

func (s *Service) countVerdict(verdict string) {
	if s.metrics.Predictions != nil {
		s.metrics.Predictions.WithLabelValues(verdict).Inc()
	}
}
