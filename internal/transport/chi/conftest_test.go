package chi

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/cluster"
	"github.com/kailas-cloud/sonai/internal/domain/feature"
	"github.com/kailas-cloud/sonai/internal/domain/prediction"
	"github.com/kailas-cloud/sonai/internal/domain/style"
	healthuc "github.com/kailas-cloud/sonai/internal/usecase/health"
	usemodel "github.com/kailas-cloud/sonai/internal/usecase/model"
	predictuc "github.com/kailas-cloud/sonai/internal/usecase/predict"
)

// --- Mocks ---

type mockPredictor struct {
	predictFn func(ctx context.Context, text string) (predictuc.Result, error)
	batchFn   func(ctx context.Context, texts []string) ([]predictuc.Result, error)
	analyzeFn func(ctx context.Context, text string) (predictuc.Analysis, error)
}

func (m *mockPredictor) Predict(ctx context.Context, text string) (predictuc.Result, error) {
	if m.predictFn != nil {
		return m.predictFn(ctx, text)
	}
	return predictuc.Result{}, domain.ErrModelNotLoaded
}

func (m *mockPredictor) PredictBatch(ctx context.Context, texts []string) ([]predictuc.Result, error) {
	if m.batchFn != nil {
		return m.batchFn(ctx, texts)
	}
	return nil, domain.ErrModelNotLoaded
}

func (m *mockPredictor) Analyze(ctx context.Context, text string) (predictuc.Analysis, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, text)
	}
	return predictuc.Analysis{}, nil
}

type mockModels struct {
	current  *usemodel.Snapshot
	replaced *cluster.Model
	err      error
}

func (m *mockModels) Current() (*usemodel.Snapshot, error) {
	if m.current == nil {
		return nil, domain.ErrModelNotLoaded
	}
	return m.current, nil
}

func (m *mockModels) Replace(_ context.Context, model *cluster.Model) (*usemodel.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.replaced = model
	m.current = &usemodel.Snapshot{Model: model, Revision: "rev-1", Source: "api"}
	return m.current, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func testModel(t *testing.T) *cluster.Model {
	t.Helper()
	n := feature.V1.Len()
	human := make([]float64, n)
	ai := make([]float64, n)
	for i := range ai {
		ai[i] = 2
	}
	m, err := cluster.NewModel(feature.V1, [][]float64{human, ai}, 1)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func fixedResult(ai float64) predictuc.Result {
	return predictuc.Result{
		Prediction: prediction.Prediction{
			ChanceAI:    ai,
			ChanceHuman: 100 - ai,
			Metrics:     style.TextMetrics{BuzzwordRate: 1},
		},
		Fingerprint: "abcd",
		Revision:    "rev-0",
	}
}

func newTestServer(p Predictor, m ModelManager, h HealthChecker) *Server {
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}}
	}
	return NewServer(p, m, h, zap.NewNop())
}
