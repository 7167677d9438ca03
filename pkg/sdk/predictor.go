package sonai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sonai/internal/db"
	dbRedis "github.com/kailas-cloud/sonai/internal/db/redis"
	"github.com/kailas-cloud/sonai/internal/domain/cluster"
	"github.com/kailas-cloud/sonai/internal/domain/pattern"
	"github.com/kailas-cloud/sonai/internal/domain/style"
	modelrepo "github.com/kailas-cloud/sonai/internal/repository/model"
	"github.com/kailas-cloud/sonai/internal/repository/predcache"
	usemodel "github.com/kailas-cloud/sonai/internal/usecase/model"
	predictuc "github.com/kailas-cloud/sonai/internal/usecase/predict"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "sonai:"
)

// Внутренние интерфейсы для подмены в тестах.
type predictUseCase interface {
	Predict(ctx context.Context, text string) (predictuc.Result, error)
	PredictBatch(ctx context.Context, texts []string) ([]predictuc.Result, error)
	Analyze(ctx context.Context, text string) (predictuc.Analysis, error)
}

type modelUseCase interface {
	Current() (*usemodel.Snapshot, error)
	Reload(ctx context.Context) (*usemodel.Snapshot, error)
}

// Predictor is the sonai SDK entry point. It is safe for concurrent use.
type Predictor struct {
	store      db.Store
	models     modelUseCase
	predictSvc predictUseCase
	obs        *observer
}

// New creates a Predictor and loads the model from the configured source.
// Exactly one of WithModelFiles, WithModelBytes, WithRedis or WithValkey is required.
// The provided context is used for the initial readiness check and model load.
func New(ctx context.Context, opts ...Option) (*Predictor, error) {
	cfg := &predictorConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if err := validateSources(cfg); err != nil {
		return nil, err
	}

	set, err := compilePatterns(cfg.dictionary)
	if err != nil {
		return nil, fmt.Errorf("sonai: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if cfg.driver != "" {
		store, err = createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("sonai: database not ready: %w", err)
		}
	}

	p, err := wirePredictor(ctx, cfg, style.NewExtractor(set), store, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return p, nil
}

func validateSources(cfg *predictorConfig) error {
	n := 0
	if cfg.artifactPath != "" || cfg.aiClusterPath != "" {
		if cfg.artifactPath == "" || cfg.aiClusterPath == "" {
			return errors.New("sonai: WithModelFiles requires both the artifact and the ai cluster path")
		}
		n++
	}
	if cfg.artifact != nil || cfg.aiCluster != nil {
		n++
	}
	if cfg.driver != "" {
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return errors.New("sonai: database address required")
		}
		n++
	}
	switch n {
	case 0:
		return errors.New("sonai: model source required (use WithModelFiles, WithModelBytes, WithRedis or WithValkey)")
	case 1:
		return nil
	default:
		return errors.New("sonai: exactly one model source may be configured")
	}
}

func compilePatterns(dictionary []byte) (*pattern.Set, error) {
	if dictionary == nil {
		return pattern.Default()
	}
	d, err := pattern.ParseDictionary(dictionary)
	if err != nil {
		return nil, err
	}
	return pattern.Compile(d)
}

func createStore(cfg *predictorConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("sonai: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("sonai: unknown driver %q", cfg.driver)
	}
}

func wirePredictor(
	ctx context.Context, cfg *predictorConfig, extractor *style.Extractor, store db.Store, obs *observer,
) (*Predictor, error) {
	nop := zap.NewNop()

	var source usemodel.Source
	switch {
	case store != nil:
		source = modelrepo.NewKVRepository(store, cfg.keyPrefix)
	case cfg.artifactPath != "":
		source = modelrepo.NewFileRepository(cfg.artifactPath, cfg.aiClusterPath, nop)
	default:
		source = bytesSource{artifact: cfg.artifact, aiCluster: cfg.aiCluster}
	}

	registry := usemodel.NewRegistry(source, nil, nil, nop)
	if _, err := registry.Reload(ctx); err != nil {
		return nil, fmt.Errorf("sonai: %w", err)
	}

	// Pass nil interface (not typed nil pointer!) when caching is off.
	var cache predictuc.Cache
	if store != nil && cfg.cacheTTL > 0 {
		cache = predcache.New(store, cfg.keyPrefix, cfg.cacheTTL, nil, nop)
	}

	svc := predictuc.New(extractor, registry, cache, predictuc.Metrics{}).
		WithLimits(cfg.maxTextBytes, cfg.maxBatchSize, cfg.batchConcurrency)

	return &Predictor{store: store, models: registry, predictSvc: svc, obs: obs}, nil
}

// Close releases all resources.
func (p *Predictor) Close() {
	if p.store != nil {
		p.store.Close()
	}
}

// Predict scores one text.
func (p *Predictor) Predict(ctx context.Context, text string) (res Result, err error) {
	start := time.Now()
	defer func() { p.obs.observe("predict", start, err, "model", res.Fingerprint) }()

	r, err := p.predictSvc.Predict(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}
	res = resultFromUseCase(r)
	p.obs.verdicts(res)
	return res, nil
}

// PredictBatch scores texts against one model. Results are in input order.
func (p *Predictor) PredictBatch(ctx context.Context, texts []string) (out []Result, err error) {
	start := time.Now()
	defer func() { p.obs.observe("predict_batch", start, err, "texts", len(texts)) }()

	rs, err := p.predictSvc.PredictBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("predict batch: %w", err)
	}
	out = make([]Result, len(rs))
	for i, r := range rs {
		out[i] = resultFromUseCase(r)
	}
	p.obs.verdicts(out...)
	return out, nil
}

// Analyze extracts metrics and weighted features without scoring.
func (p *Predictor) Analyze(ctx context.Context, text string) (a Analysis, err error) {
	start := time.Now()
	defer func() { p.obs.observe("analyze", start, err) }()

	an, err := p.predictSvc.Analyze(ctx, text)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	features := make([]Feature, len(an.Features))
	for i, f := range an.Features {
		features[i] = Feature{Name: f.Name, Weight: f.Weight, Value: f.Value}
	}
	return Analysis{Metrics: an.Metrics, FeatureTable: an.Table, Features: features}, nil
}

// Model describes the loaded model.
func (p *Predictor) Model() (ModelInfo, error) {
	snap, err := p.models.Current()
	if err != nil {
		return ModelInfo{}, err
	}
	m := snap.Model
	return ModelInfo{
		Fingerprint:  m.Fingerprint(),
		FeatureTable: m.Table().Name(),
		Dimensions:   m.Dimensions(),
		AICluster:    m.AICluster(),
		Centroids:    m.Centroids(),
	}, nil
}

// Reload re-reads the model from its source. The previous model stays active on failure.
func (p *Predictor) Reload(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { p.obs.observe("reload", start, err) }()

	if _, err = p.models.Reload(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func resultFromUseCase(r predictuc.Result) Result {
	return Result{
		ChanceAI:    r.ChanceAI,
		ChanceHuman: r.ChanceHuman,
		LikelyAI:    r.LikelyAI(),
		Metrics:     r.Metrics,
		Fingerprint: r.Fingerprint,
	}
}

// bytesSource serves a model held in memory.
type bytesSource struct {
	artifact  []byte
	aiCluster []byte
}

func (bytesSource) Name() string { return "bytes" }

func (s bytesSource) Load(context.Context) (*cluster.Model, error) {
	return cluster.Load(s.artifact, s.aiCluster)
}
