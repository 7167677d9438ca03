package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the sonai service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Model   ModelConfig   `yaml:"model"`
	Cache   CacheConfig   `yaml:"cache"`
	Predict PredictConfig `yaml:"predict"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	Corpus  CorpusConfig  `yaml:"corpus"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Storage drivers.
const (
	DriverNone   = "none"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// StorageConfig holds key-value store connection settings.
type StorageConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, valkey (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// Enabled reports whether a store is configured.
func (s StorageConfig) Enabled() bool { return s.Driver != DriverNone }

// Model sources.
const (
	SourceFile  = "file"
	SourceStore = "store"
)

// ModelConfig selects where the cluster model is loaded from.
type ModelConfig struct {
	Source        string `yaml:"source"` // file, store (default: file)
	ArtifactPath  string `yaml:"artifact_path"`
	AIClusterPath string `yaml:"ai_cluster_path"`
	Watch         bool   `yaml:"watch"` // reload on file change, file source only
}

// CacheConfig holds prediction cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// PredictConfig bounds request sizes and batch fan-out.
type PredictConfig struct {
	MaxTextBytes     int `yaml:"max_text_bytes"`
	MaxBatchSize     int `yaml:"max_batch_size"`
	BatchConcurrency int `yaml:"batch_concurrency"`
}

// CorpusConfig configures the devlog corpus fetcher.
type CorpusConfig struct {
	BaseURL     string `yaml:"base_url"`
	Session     string `yaml:"session"`
	Concurrency int    `yaml:"concurrency"`
	MaxRetries  int    `yaml:"max_retries"`
	BackoffMS   int    `yaml:"backoff_ms"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverNone
	}
	if c.Storage.ReadinessTimeout <= 0 {
		c.Storage.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "sonai:"
	}

	if c.Model.Source == "" {
		c.Model.Source = SourceFile
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}

	if c.Predict.MaxTextBytes <= 0 {
		c.Predict.MaxTextBytes = 64 << 10
	}
	if c.Predict.MaxBatchSize <= 0 {
		c.Predict.MaxBatchSize = 100
	}
	if c.Predict.BatchConcurrency <= 0 {
		c.Predict.BatchConcurrency = runtime.GOMAXPROCS(0)
	}

	if c.Corpus.BaseURL == "" {
		c.Corpus.BaseURL = "https://summer.hackclub.com/api/v1"
	}
	if c.Corpus.Concurrency <= 0 {
		c.Corpus.Concurrency = 20
	}
	if c.Corpus.MaxRetries <= 0 {
		c.Corpus.MaxRetries = 3
	}
	if c.Corpus.BackoffMS <= 0 {
		c.Corpus.BackoffMS = 500
	}
	if c.Corpus.TimeoutSec <= 0 {
		c.Corpus.TimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Storage.Driver {
	case DriverNone:
	case DriverRedis, DriverValkey:
		if len(c.Storage.Addrs) == 0 {
			return errors.New("storage.addrs is required")
		}
	default:
		return fmt.Errorf("storage.driver must be one of none, redis, valkey, got %q", c.Storage.Driver)
	}

	switch c.Model.Source {
	case SourceFile:
		if c.Model.ArtifactPath == "" || c.Model.AIClusterPath == "" {
			return errors.New("model.artifact_path and model.ai_cluster_path are required for file source")
		}
	case SourceStore:
		if !c.Storage.Enabled() {
			return errors.New("model.source=store requires a storage driver")
		}
		if c.Model.Watch {
			return errors.New("model.watch is only supported for file source")
		}
	default:
		return fmt.Errorf("model.source must be \"file\" or \"store\", got %q", c.Model.Source)
	}

	if c.Cache.Enabled && !c.Storage.Enabled() {
		return errors.New("cache.enabled requires a storage driver")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file: internal/config -> project root.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, fallback, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = fallback
		}
		return []byte(val)
	})
}
