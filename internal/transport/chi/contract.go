package chi

import (
	"context"

	"github.com/kailas-cloud/sonai/internal/domain/cluster"
	healthuc "github.com/kailas-cloud/sonai/internal/usecase/health"
	usemodel "github.com/kailas-cloud/sonai/internal/usecase/model"
	predictuc "github.com/kailas-cloud/sonai/internal/usecase/predict"
)

// Predictor serves prediction and analysis requests.
type Predictor interface {
	Predict(ctx context.Context, text string) (predictuc.Result, error)
	PredictBatch(ctx context.Context, texts []string) ([]predictuc.Result, error)
	Analyze(ctx context.Context, text string) (predictuc.Analysis, error)
}

// ModelManager exposes the active model and replaces it.
type ModelManager interface {
	Current() (*usemodel.Snapshot, error)
	Replace(ctx context.Context, m *cluster.Model) (*usemodel.Snapshot, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
