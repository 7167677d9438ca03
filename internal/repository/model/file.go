// Package model stores cluster model artifacts on disk or in a key-value store.
package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sonai/internal/domain/cluster"
)

const watchDebounce = 100 * time.Millisecond

// FileRepository keeps the binary artifact and the one-byte ai cluster record as two files.
type FileRepository struct {
	artifactPath  string
	aiClusterPath string
	logger        *zap.Logger
}

// NewFileRepository creates a file-backed repository.
func NewFileRepository(artifactPath, aiClusterPath string, logger *zap.Logger) *FileRepository {
	return &FileRepository{
		artifactPath:  artifactPath,
		aiClusterPath: aiClusterPath,
		logger:        logger,
	}
}

// Name identifies the source in logs and metrics.
func (r *FileRepository) Name() string { return "file" }

// Load reads and validates both files.
func (r *FileRepository) Load(_ context.Context) (*cluster.Model, error) {
	artifact, err := os.ReadFile(filepath.Clean(r.artifactPath))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	ai, err := os.ReadFile(filepath.Clean(r.aiClusterPath))
	if err != nil {
		return nil, fmt.Errorf("read ai cluster: %w", err)
	}

	m, err := cluster.Load(artifact, ai)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", r.artifactPath, err)
	}
	return m, nil
}

// Save writes both files, each through a temp file and rename.
func (r *FileRepository) Save(_ context.Context, m *cluster.Model, _ string) error {
	if err := writeFileAtomic(r.artifactPath, cluster.EncodeArtifact(m)); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := writeFileAtomic(r.aiClusterPath, cluster.EncodeAICluster(m.AICluster())); err != nil {
		return fmt.Errorf("write ai cluster: %w", err)
	}
	return nil
}

// Watch calls onChange after either file is written or replaced, debounced.
// It blocks until ctx is done.
func (r *FileRepository) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	targets := map[string]struct{}{
		filepath.Clean(r.artifactPath):  {},
		filepath.Clean(r.aiClusterPath): {},
	}
	dirs := map[string]struct{}{}
	for p := range targets {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch directory %s: %w", d, err)
		}
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, ours := targets[filepath.Clean(event.Name)]; !ours {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("Model watcher error", zap.Error(err))
		}
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
