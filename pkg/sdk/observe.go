package sonai

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/sonai/internal/domain"
)

// Operation outcome labels.
const (
	statusOK       = "ok"
	statusRejected = "rejected"
	statusNoModel  = "no_model"
	statusError    = "error"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	verdicts   *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonai",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by type and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sonai",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation latency in seconds.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"operation"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonai",
			Subsystem: "sdk",
			Name:      "verdicts_total",
			Help:      "Scored texts by verdict.",
		}, []string{"verdict"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.verdicts); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or points c at an identical collector already in reg.
// Several predictors can share one registry this way.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("sonai: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("sonai: metric registered with incompatible type %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// statusOf classifies an operation error for the status label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, domain.ErrModelNotLoaded):
		return statusNoModel
	case errors.Is(err, domain.ErrTextTooLarge),
		errors.Is(err, domain.ErrBatchTooLarge),
		errors.Is(err, domain.ErrInvalidRequest):
		return statusRejected
	default:
		return statusError
	}
}

// observer logs and counts SDK operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records one operation. attrs are extra slog key/value pairs.
func (o *observer) observe(op string, start time.Time, err error, attrs ...any) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := statusOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	args := append([]any{"op", op, "status", status, "duration", dur}, attrs...)
	switch status {
	case statusOK:
		o.logger.Debug("sonai operation", args...)
	case statusError:
		o.logger.Error("sonai operation failed", append(args, "error", err)...)
	default:
		o.logger.Warn("sonai operation failed", append(args, "error", err)...)
	}
}

// verdicts counts scored results by verdict.
func (o *observer) verdicts(results ...Result) {
	if o == nil || o.metrics == nil {
		return
	}
	for _, r := range results {
		v := "human"
		if r.LikelyAI {
			v = "ai"
		}
		o.metrics.verdicts.WithLabelValues(v).Inc()
	}
}
