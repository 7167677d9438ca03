package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/cluster"
	healthuc "github.com/kailas-cloud/sonai/internal/usecase/health"
	usemodel "github.com/kailas-cloud/sonai/internal/usecase/model"
	predictuc "github.com/kailas-cloud/sonai/internal/usecase/predict"
)

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return e
}

// --- Tests ---

func TestPredict_OK(t *testing.T) {
	var got string
	p := &mockPredictor{predictFn: func(_ context.Context, text string) (predictuc.Result, error) {
		got = text
		return fixedResult(70), nil
	}}
	h := newTestServer(p, &mockModels{}, nil).Router(nil)

	rr := do(t, h, http.MethodPost, "/v1/predict", []byte(`{"text":"hello world"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if got != "hello world" {
		t.Errorf("text passed to predictor: %q", got)
	}

	var resp PredictResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ChanceAI != 70 || resp.ChanceHuman != 30 || !resp.LikelyAI {
		t.Errorf("unexpected prediction: %+v", resp)
	}
	if resp.Model.Fingerprint != "abcd" || resp.Model.Revision != "rev-0" {
		t.Errorf("unexpected model ref: %+v", resp.Model)
	}
	if resp.Metrics.BuzzwordRate != 1 {
		t.Errorf("metrics not propagated: %+v", resp.Metrics)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header is missing")
	}
}

func TestPredict_EmptyTextIsValid(t *testing.T) {
	p := &mockPredictor{predictFn: func(context.Context, string) (predictuc.Result, error) {
		return fixedResult(50), nil
	}}
	h := newTestServer(p, &mockModels{}, nil).Router(nil)

	rr := do(t, h, http.MethodPost, "/v1/predict", []byte(`{"text":""}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestPredict_BadRequests(t *testing.T) {
	h := newTestServer(&mockPredictor{}, &mockModels{}, nil).Router(nil)

	for _, body := range []string{`not json`, `{}`, `{"text": 5}`} {
		rr := do(t, h, http.MethodPost, "/v1/predict", []byte(body))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: got %d, want 400", body, rr.Code)
			continue
		}
		if e := decodeError(t, rr); e.Code != CodeBadRequest {
			t.Errorf("body %q: code %s", body, e.Code)
		}
	}
}

func TestPredict_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"not loaded", domain.ErrModelNotLoaded, http.StatusServiceUnavailable, CodeModelNotLoaded},
		{"too large", fmt.Errorf("check: %w", domain.ErrTextTooLarge), http.StatusRequestEntityTooLarge, CodeTextTooLarge},
		{"dim mismatch", domain.NewDimensionError(11, 14), http.StatusBadRequest, CodeVectorDimMismatch},
		{"internal", errors.New("boom: secret detail"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockPredictor{predictFn: func(context.Context, string) (predictuc.Result, error) {
				return predictuc.Result{}, tt.err
			}}
			h := newTestServer(p, &mockModels{}, nil).Router(nil)

			rr := do(t, h, http.MethodPost, "/v1/predict", []byte(`{"text":"x"}`))
			if rr.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.status)
			}
			e := decodeError(t, rr)
			if e.Code != tt.code {
				t.Errorf("code: got %s, want %s", e.Code, tt.code)
			}
			if strings.Contains(e.Message, "secret") {
				t.Errorf("internal details leaked: %q", e.Message)
			}
		})
	}
}

func TestPredict_BodyLimit(t *testing.T) {
	h := newTestServer(&mockPredictor{}, &mockModels{}, nil).WithBodyLimit(16).Router(nil)

	rr := do(t, h, http.MethodPost, "/v1/predict", []byte(`{"text":"`+strings.Repeat("a", 64)+`"}`))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413", rr.Code)
	}
	if e := decodeError(t, rr); e.Code != CodeTextTooLarge {
		t.Errorf("code: got %s", e.Code)
	}
}

func TestPredictBatch_PreservesOrder(t *testing.T) {
	p := &mockPredictor{batchFn: func(_ context.Context, texts []string) ([]predictuc.Result, error) {
		out := make([]predictuc.Result, len(texts))
		for i := range texts {
			out[i] = fixedResult(float64(10 * (i + 1)))
		}
		return out, nil
	}}
	h := newTestServer(p, &mockModels{}, nil).Router(nil)

	rr := do(t, h, http.MethodPost, "/v1/predict/batch", []byte(`{"texts":["a","b","c"]}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp BatchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("items: got %d, want 3", len(resp.Items))
	}
	for i, it := range resp.Items {
		if want := float64(10 * (i + 1)); it.ChanceAI != want {
			t.Errorf("item %d: chance_ai %v, want %v", i, it.ChanceAI, want)
		}
	}
}

func TestPredictBatch_Errors(t *testing.T) {
	p := &mockPredictor{batchFn: func(context.Context, []string) ([]predictuc.Result, error) {
		return nil, fmt.Errorf("%w: 101 texts", domain.ErrBatchTooLarge)
	}}
	h := newTestServer(p, &mockModels{}, nil).Router(nil)

	rr := do(t, h, http.MethodPost, "/v1/predict/batch", []byte(`{"texts":["a"]}`))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413", rr.Code)
	}
	if e := decodeError(t, rr); e.Code != CodeBatchTooLarge {
		t.Errorf("code: got %s", e.Code)
	}

	rr = do(t, h, http.MethodPost, "/v1/predict/batch", []byte(`{}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing texts: got %d, want 400", rr.Code)
	}
}

func TestAnalyze(t *testing.T) {
	p := &mockPredictor{analyzeFn: func(context.Context, string) (predictuc.Analysis, error) {
		return predictuc.Analysis{
			Table:    "sonai-v1",
			Features: []predictuc.FeatureValue{{Name: "buzzword_rate", Weight: 10, Value: 20}},
		}, nil
	}}
	h := newTestServer(p, &mockModels{}, nil).Router(nil)

	rr := do(t, h, http.MethodPost, "/v1/analyze", []byte(`{"text":"x"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp AnalyzeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.FeatureTable != "sonai-v1" || len(resp.Features) != 1 || resp.Features[0].Value != 20 {
		t.Errorf("unexpected analysis: %+v", resp)
	}
}

func TestAnalyze_ZeroValueKept(t *testing.T) {
	p := &mockPredictor{analyzeFn: func(context.Context, string) (predictuc.Analysis, error) {
		return predictuc.Analysis{
			Table:    "sonai-v1",
			Features: []predictuc.FeatureValue{{Name: "hashtag_count", Weight: 1, Value: 0}},
		}, nil
	}}
	h := newTestServer(p, &mockModels{}, nil).Router(nil)

	rr := do(t, h, http.MethodPost, "/v1/analyze", []byte(`{"text":"x"}`))
	var raw struct {
		Features []map[string]any `json:"features"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(raw.Features))
	}
	if v, ok := raw.Features[0]["value"]; !ok || v != 0.0 {
		t.Errorf("zero value must be encoded, got %v", raw.Features[0])
	}
}

func TestGetModel(t *testing.T) {
	m := testModel(t)
	models := &mockModels{current: &usemodel.Snapshot{Model: m, Revision: "r", Source: "file"}}
	h := newTestServer(&mockPredictor{}, models, nil).Router(nil)

	rr := do(t, h, http.MethodGet, "/v1/model", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp ModelResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Fingerprint != m.Fingerprint() || resp.Dimensions != 11 || resp.AICluster != 1 {
		t.Errorf("unexpected model: %+v", resp)
	}
	if len(resp.Centroids) != 2 || len(resp.Features) != 11 || resp.Source != "file" {
		t.Errorf("unexpected model detail: %+v", resp)
	}
}

func TestGetModel_NotLoaded(t *testing.T) {
	h := newTestServer(&mockPredictor{}, &mockModels{}, nil).Router(nil)

	rr := do(t, h, http.MethodGet, "/v1/model", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
}

func TestPutModel(t *testing.T) {
	m := testModel(t)
	models := &mockModels{}
	h := newTestServer(&mockPredictor{}, models, nil).Router(nil)

	rr := do(t, h, http.MethodPut, "/v1/model?ai_cluster=0", cluster.EncodeArtifact(m))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if models.replaced == nil || models.replaced.AICluster() != 0 {
		t.Fatalf("model not replaced with requested ai cluster: %+v", models.replaced)
	}
	var resp ModelResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Revision != "rev-1" || resp.AICluster != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestPutModel_Rejects(t *testing.T) {
	valid := cluster.EncodeArtifact(testModel(t))
	tests := []struct {
		name   string
		target string
		body   []byte
		code   ErrorCode
	}{
		{"missing ai cluster", "/v1/model", valid, CodeInvalidAICluster},
		{"ai cluster two", "/v1/model?ai_cluster=2", valid, CodeInvalidAICluster},
		{"garbage", "/v1/model?ai_cluster=1", []byte("nope"), CodeInvalidArtifact},
		{"truncated", "/v1/model?ai_cluster=1", valid[:len(valid)-3], CodeInvalidArtifact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := &mockModels{}
			h := newTestServer(&mockPredictor{}, models, nil).Router(nil)

			rr := do(t, h, http.MethodPut, tt.target, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rr.Code)
			}
			if e := decodeError(t, rr); e.Code != tt.code {
				t.Errorf("code: got %s, want %s", e.Code, tt.code)
			}
			if models.replaced != nil {
				t.Error("rejected artifact must not replace the model")
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		hc := &mockHealth{report: healthuc.Report{
			Status: tt.status,
			Checks: map[string]healthuc.CheckResult{"model": healthuc.CheckOK},
		}}
		h := newTestServer(&mockPredictor{}, &mockModels{}, hc).Router([]string{"secret"})

		rr := do(t, h, http.MethodGet, "/health", nil)
		if rr.Code != tt.want {
			t.Errorf("%s: got %d, want %d", tt.status, rr.Code, tt.want)
		}
		var resp HealthResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != string(tt.status) || resp.Checks["model"] != "ok" {
			t.Errorf("unexpected health: %+v", resp)
		}
	}
}

func TestRouter_AuthAppliesToAPI(t *testing.T) {
	h := newTestServer(&mockPredictor{}, &mockModels{}, nil).Router([]string{"secret"})

	rr := do(t, h, http.MethodGet, "/v1/model", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("metrics: got %d, want 200", rr.Code)
	}
}

func TestRouter_PanicRecovered(t *testing.T) {
	p := &mockPredictor{predictFn: func(context.Context, string) (predictuc.Result, error) {
		panic("kaboom")
	}}
	h := newTestServer(p, &mockModels{}, nil).Router(nil)

	rr := do(t, h, http.MethodPost, "/v1/predict", []byte(`{"text":"x"}`))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	if e := decodeError(t, rr); e.Code != CodeInternalError {
		t.Errorf("code: got %s", e.Code)
	}
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestServer(&mockPredictor{}, &mockModels{}, nil).Router(nil)

	rr := do(t, h, http.MethodGet, "/v1/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404", rr.Code)
	}
}
