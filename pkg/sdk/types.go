package sonai

import "github.com/kailas-cloud/sonai/internal/domain/style"

// Metrics is the stylistic fingerprint of one text.
type Metrics = style.TextMetrics

// Result is the AI/human split of one text. ChanceAI + ChanceHuman == 100.
type Result struct {
	ChanceAI    float64
	ChanceHuman float64
	LikelyAI    bool
	Metrics     Metrics
	// Fingerprint identifies the model that produced the result.
	Fingerprint string
}

// Feature is one weighted coordinate of a feature vector.
type Feature struct {
	Name   string
	Weight float64
	Value  float64
}

// Analysis is metric extraction and vector assembly without scoring.
type Analysis struct {
	Metrics      Metrics
	FeatureTable string
	Features     []Feature
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	Fingerprint  string
	FeatureTable string
	Dimensions   int
	AICluster    int
	Centroids    [][]float64
}
