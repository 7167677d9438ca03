package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sonai/internal/domain/cluster"
	"github.com/kailas-cloud/sonai/internal/domain/style"
	"github.com/kailas-cloud/sonai/internal/logger"
	healthuc "github.com/kailas-cloud/sonai/internal/usecase/health"
	usemodel "github.com/kailas-cloud/sonai/internal/usecase/model"
	predictuc "github.com/kailas-cloud/sonai/internal/usecase/predict"
)

const (
	defaultBodyLimit = 8 << 20
	// maxModelBytes bounds PUT /v1/model bodies; artifacts are a few hundred bytes.
	maxModelBytes = 1 << 20
)

// Server serves the sonai HTTP API.
type Server struct {
	predictor Predictor
	models    ModelManager
	health    HealthChecker
	logger    *zap.Logger
	bodyLimit int64
}

// NewServer creates an HTTP API server.
func NewServer(predictor Predictor, models ModelManager, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		predictor: predictor,
		models:    models,
		health:    health,
		logger:    logger,
		bodyLimit: defaultBodyLimit,
	}
}

// WithBodyLimit caps JSON request bodies at n bytes. Non-positive values keep the default.
func (s *Server) WithBodyLimit(n int64) *Server {
	if n > 0 {
		s.bodyLimit = n
	}
	return s
}

// PredictRequest is the body of POST /v1/predict and POST /v1/analyze.
type PredictRequest struct {
	Text *string `json:"text"`
}

// BatchRequest is the body of POST /v1/predict/batch.
type BatchRequest struct {
	Texts []string `json:"texts"`
}

// ModelRef identifies the model that produced a prediction.
type ModelRef struct {
	Fingerprint string `json:"fingerprint"`
	Revision    string `json:"revision,omitempty"`
}

// PredictResponse is one scored text.
type PredictResponse struct {
	ChanceAI    float64           `json:"chance_ai"`
	ChanceHuman float64           `json:"chance_human"`
	Metrics     style.TextMetrics `json:"metrics"`
	LikelyAI    bool              `json:"likely_ai"`
	Model       ModelRef          `json:"model"`
}

// BatchResponse holds results in request order.
type BatchResponse struct {
	Items []PredictResponse `json:"items"`
}

// FeatureWeight is one entry of a feature table.
type FeatureWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// FeatureResponse is one weighted feature of an analyzed text. Value is always present, zero included.
type FeatureResponse struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// AnalyzeResponse is extraction and vector assembly without scoring.
type AnalyzeResponse struct {
	Metrics      style.TextMetrics `json:"metrics"`
	FeatureTable string            `json:"feature_table"`
	Features     []FeatureResponse `json:"features"`
}

// ModelResponse describes the active model.
type ModelResponse struct {
	Fingerprint  string            `json:"fingerprint"`
	Revision     string            `json:"revision,omitempty"`
	Source       string            `json:"source"`
	FeatureTable string            `json:"feature_table"`
	Dimensions   int               `json:"dimensions"`
	AICluster    int               `json:"ai_cluster"`
	Features     []FeatureWeight   `json:"features"`
	Centroids    [][]float64       `json:"centroids"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Predict handles POST /v1/predict.
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "text is required")
		return
	}

	res, err := s.predictor.Predict(r.Context(), *req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, predictionToResponse(res))
}

// PredictBatch handles POST /v1/predict/batch.
func (s *Server) PredictBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Texts == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "texts is required")
		return
	}

	results, err := s.predictor.PredictBatch(r.Context(), req.Texts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]PredictResponse, len(results))
	for i, res := range results {
		items[i] = predictionToResponse(res)
	}
	writeJSON(w, http.StatusOK, BatchResponse{Items: items})
}

// Analyze handles POST /v1/analyze.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "text is required")
		return
	}

	a, err := s.predictor.Analyze(r.Context(), *req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	features := make([]FeatureResponse, len(a.Features))
	for i, f := range a.Features {
		features[i] = FeatureResponse{Name: f.Name, Weight: f.Weight, Value: f.Value}
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Metrics:      a.Metrics,
		FeatureTable: a.Table,
		Features:     features,
	})
}

// GetModel handles GET /v1/model.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	snap, err := s.models.Current()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modelToResponse(snap))
}

// PutModel handles PUT /v1/model?ai_cluster=0|1 with a binary artifact body.
func (s *Server) PutModel(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ai_cluster")
	ai, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidAICluster, "ai_cluster query parameter must be 0 or 1")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxModelBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeInvalidArtifact, "artifact too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read request body")
		return
	}

	art, err := cluster.DecodeArtifact(body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	m, err := art.Model(ai)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	snap, err := s.models.Replace(r.Context(), m)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modelToResponse(snap))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// decode reads a JSON body into v. It writes the error response and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.bodyLimit))
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeTextTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", mbe.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func predictionToResponse(res predictuc.Result) PredictResponse {
	return PredictResponse{
		ChanceAI:    res.ChanceAI,
		ChanceHuman: res.ChanceHuman,
		Metrics:     res.Metrics,
		LikelyAI:    res.LikelyAI(),
		Model:       ModelRef{Fingerprint: res.Fingerprint, Revision: res.Revision},
	}
}

func modelToResponse(snap *usemodel.Snapshot) ModelResponse {
	m := snap.Model
	weights := m.Table().Weights()
	features := make([]FeatureWeight, len(weights))
	for i, w := range weights {
		features[i] = FeatureWeight{Name: w.Metric, Weight: w.Factor}
	}
	return ModelResponse{
		Fingerprint:  m.Fingerprint(),
		Revision:     snap.Revision,
		Source:       snap.Source,
		FeatureTable: m.Table().Name(),
		Dimensions:   m.Dimensions(),
		AICluster:    m.AICluster(),
		Features:     features,
		Centroids:    m.Centroids(),
	}
}

