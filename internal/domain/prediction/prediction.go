// Package prediction composes extraction, vector assembly and centroid scoring.
package prediction

import (
	"fmt"

	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/cluster"
	"github.com/kailas-cloud/sonai/internal/domain/style"
)

// Prediction is the human/AI split of one text. ChanceAI + ChanceHuman == 100.
type Prediction struct {
	ChanceAI    float64           `json:"chance_ai"`
	ChanceHuman float64           `json:"chance_human"`
	Metrics     style.TextMetrics `json:"metrics"`
}

// LikelyAI reports whether the AI share is at least the human share.
func (p Prediction) LikelyAI() bool {
	return p.ChanceAI >= p.ChanceHuman
}

// Verdict returns "ai" or "human".
func (p Prediction) Verdict() string {
	if p.LikelyAI() {
		return "ai"
	}
	return "human"
}

// Predict scores text against model. The model is read once and never mutated.
func Predict(e *style.Extractor, text string, model *cluster.Model) (Prediction, error) {
	if model == nil {
		return Prediction{}, domain.ErrModelNotLoaded
	}
	return Score(e.Calculate(text), model)
}

// Score turns precomputed metrics into a prediction.
func Score(metrics style.TextMetrics, model *cluster.Model) (Prediction, error) {
	if model == nil {
		return Prediction{}, domain.ErrModelNotLoaded
	}

	mb, err := cluster.Score(model.Table().Vector(metrics), model)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	ai, human, err := mb.Split(model.AICluster())
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}

	return Prediction{ChanceAI: ai, ChanceHuman: human, Metrics: metrics}, nil
}
