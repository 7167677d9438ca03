package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prediction Prometheus metrics.
var (
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sonai",
			Name:      "predictions_total",
			Help:      "Total number of predictions by verdict",
		},
		[]string{"verdict"}, // "ai" / "human" / "error"
	)

	PredictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sonai",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent extracting and scoring a single text",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	PredictionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sonai",
			Name:      "prediction_cache_total",
			Help:      "Prediction cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	ModelReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sonai",
			Name:      "model_reloads_total",
			Help:      "Model load attempts by source and outcome",
		},
		[]string{"source", "status"},
	)
)

var predMetricsRegistered bool

// RegisterPredictionMetrics registers Prometheus prediction metrics. Must be called once from main.
func RegisterPredictionMetrics() {
	if predMetricsRegistered {
		return
	}
	prometheus.MustRegister(PredictionsTotal)
	prometheus.MustRegister(PredictionDuration)
	prometheus.MustRegister(PredictionCacheTotal)
	prometheus.MustRegister(ModelReloadsTotal)
	predMetricsRegistered = true
}
