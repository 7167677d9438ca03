package sonai

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Predictor.
type Option interface {
	apply(*predictorConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*predictorConfig)

func (f optionFunc) apply(c *predictorConfig) { f(c) }

type predictorConfig struct {
	artifactPath  string
	aiClusterPath string

	artifact  []byte
	aiCluster []byte

	driver    string // "valkey" or "redis"
	addrs     []string
	password  string
	keyPrefix string
	cacheTTL  time.Duration

	dictionary []byte

	maxTextBytes     int
	maxBatchSize     int
	batchConcurrency int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithModelFiles loads the model from an artifact file and its ai cluster file.
func WithModelFiles(artifactPath, aiClusterPath string) Option {
	return optionFunc(func(c *predictorConfig) {
		c.artifactPath = artifactPath
		c.aiClusterPath = aiClusterPath
	})
}

// WithModelBytes loads the model from an in-memory artifact and ai cluster record.
func WithModelBytes(artifact, aiCluster []byte) Option {
	return optionFunc(func(c *predictorConfig) {
		c.artifact = artifact
		c.aiCluster = aiCluster
	})
}

// WithRedis reads the model from a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *predictorConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey reads the model from a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *predictorConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the key prefix used in Redis/Valkey. Default: "sonai:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *predictorConfig) {
		c.keyPrefix = prefix
	})
}

// WithCache caches predictions in Redis/Valkey for ttl. Ignored without a store.
func WithCache(ttl time.Duration) Option {
	return optionFunc(func(c *predictorConfig) {
		c.cacheTTL = ttl
	})
}

// WithDictionary replaces the built-in phrase dictionary with a YAML document
// of the same shape.
func WithDictionary(yaml []byte) Option {
	return optionFunc(func(c *predictorConfig) {
		c.dictionary = yaml
	})
}

// WithLimits bounds text size, batch length and batch concurrency.
// Zero keeps the default for that limit.
func WithLimits(maxTextBytes, maxBatchSize, batchConcurrency int) Option {
	return optionFunc(func(c *predictorConfig) {
		c.maxTextBytes = maxTextBytes
		c.maxBatchSize = maxBatchSize
		c.batchConcurrency = batchConcurrency
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *predictorConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *predictorConfig) {
		c.metricsReg = reg
	})
}
