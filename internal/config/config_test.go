package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Model: ModelConfig{
			ArtifactPath:  "model.bin",
			AIClusterPath: "model.ai.cluster",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "etcd" }, "storage.driver"},
		{"redis without addrs", func(c *Config) { c.Storage.Driver = DriverRedis }, "storage.addrs"},
		{"file without paths", func(c *Config) { c.Model.ArtifactPath = "" }, "model.artifact_path"},
		{"store without storage", func(c *Config) { c.Model.Source = SourceStore }, "requires a storage driver"},
		{"unknown source", func(c *Config) { c.Model.Source = "s3" }, "model.source"},
		{"cache without storage", func(c *Config) { c.Cache.Enabled = true }, "cache.enabled"},
		{"watch with store", func(c *Config) {
			c.Storage.Driver = DriverValkey
			c.Storage.Addrs = []string{"localhost:6379"}
			c.Model.Source = SourceStore
			c.Model.Watch = true
		}, "model.watch"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidate_StoreSource(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Storage: StorageConfig{Driver: DriverRedis, Addrs: []string{"localhost:6379"}},
		Model:   ModelConfig{Source: SourceStore},
		Cache:   CacheConfig{Enabled: true},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.WriteTimeoutSec != 10 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("unexpected http timeouts: %+v", cfg.HTTP)
	}
	if cfg.Storage.Driver != DriverNone {
		t.Errorf("expected driver %q, got %q", DriverNone, cfg.Storage.Driver)
	}
	if cfg.Storage.KeyPrefix != "sonai:" {
		t.Errorf("expected key prefix sonai:, got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Model.Source != SourceFile {
		t.Errorf("expected source %q, got %q", SourceFile, cfg.Model.Source)
	}
	if cfg.Cache.TTL() != time.Hour {
		t.Errorf("expected 1h ttl, got %v", cfg.Cache.TTL())
	}
	if cfg.Predict.MaxTextBytes != 65536 || cfg.Predict.MaxBatchSize != 100 || cfg.Predict.BatchConcurrency <= 0 {
		t.Errorf("unexpected predict defaults: %+v", cfg.Predict)
	}
	if cfg.Corpus.Concurrency != 20 || cfg.Corpus.MaxRetries != 3 || cfg.Corpus.BackoffMS != 500 {
		t.Errorf("unexpected corpus defaults: %+v", cfg.Corpus)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Storage: StorageConfig{Driver: DriverRedis, KeyPrefix: "x:"},
		Predict: PredictConfig{MaxBatchSize: 7, BatchConcurrency: 3},
		Corpus:  CorpusConfig{Concurrency: 4},
	}
	cfg.ApplyDefaults()

	if cfg.Storage.Driver != DriverRedis || cfg.Storage.KeyPrefix != "x:" {
		t.Errorf("storage overridden: %+v", cfg.Storage)
	}
	if cfg.Predict.MaxBatchSize != 7 || cfg.Predict.BatchConcurrency != 3 {
		t.Errorf("predict overridden: %+v", cfg.Predict)
	}
	if cfg.Corpus.Concurrency != 4 {
		t.Errorf("corpus overridden: %+v", cfg.Corpus)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SONAI_TEST_PORT", "9191")
	data := []byte(`
http:
  port: ${SONAI_TEST_PORT}
model:
  artifact_path: ${SONAI_TEST_ARTIFACT:-/data/model.bin}
  ai_cluster_path: /data/model.ai.cluster
auth:
  api_keys: ["${SONAI_TEST_KEY:-dev-key}"]
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9191 {
		t.Errorf("port = %d, want 9191", cfg.HTTP.Port)
	}
	if cfg.Model.ArtifactPath != "/data/model.bin" {
		t.Errorf("artifact_path = %q", cfg.Model.ArtifactPath)
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0] != "dev-key" {
		t.Errorf("api_keys = %v", cfg.Auth.APIKeys)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	body := "http:\n  port: 8080\nmodel:\n  artifact_path: a\n  ai_cluster_path: b\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_RepoConfigs(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("SONAI_API_KEY", "k")
			if _, err := Load(env); err != nil {
				t.Fatalf("Load(%q): %v", env, err)
			}
		})
	}
}
