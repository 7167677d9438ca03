package predict

import (
	"context"

	"github.com/kailas-cloud/sonai/internal/domain/prediction"
	usemodel "github.com/kailas-cloud/sonai/internal/usecase/model"
)

// ModelProvider returns the active model snapshot.
type ModelProvider interface {
	Current() (*usemodel.Snapshot, error)
}

// Cache stores predictions per model fingerprint. Implementations swallow their own failures.
type Cache interface {
	Get(ctx context.Context, fingerprint, text string) (prediction.Prediction, bool)
	Put(ctx context.Context, fingerprint, text string, p prediction.Prediction)
}
