package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/sonai/internal/domain"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeTextTooLarge        ErrorCode = "text_too_large"
	CodeBatchTooLarge       ErrorCode = "batch_too_large"
	CodeInvalidArtifact     ErrorCode = "invalid_artifact"
	CodeInvalidModel        ErrorCode = "invalid_model"
	CodeVectorDimMismatch   ErrorCode = "vector_dim_mismatch"
	CodeInvalidAICluster    ErrorCode = "invalid_ai_cluster"
	CodeUnknownFeatureTable ErrorCode = "unknown_feature_table"
	CodeModelNotLoaded      ErrorCode = "model_not_loaded"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// errorHandlers are tried in order; the first match writes the response.
var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrTextTooLarge, http.StatusRequestEntityTooLarge, CodeTextTooLarge),
	sentinelHandler(domain.ErrBatchTooLarge, http.StatusRequestEntityTooLarge, CodeBatchTooLarge),
	sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest),
	sentinelHandler(domain.ErrInvalidArtifact, http.StatusBadRequest, CodeInvalidArtifact),
	sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeVectorDimMismatch),
	sentinelHandler(domain.ErrInvalidAICluster, http.StatusBadRequest, CodeInvalidAICluster),
	sentinelHandler(domain.ErrUnknownFeatureTable, http.StatusBadRequest, CodeUnknownFeatureTable),
	sentinelHandler(domain.ErrInvalidModel, http.StatusBadRequest, CodeInvalidModel),
	sentinelHandler(domain.ErrModelNotLoaded, http.StatusServiceUnavailable, CodeModelNotLoaded),
}

// clientSentinels are the errors whose text may be shown to clients.
var clientSentinels = []error{
	domain.ErrTextTooLarge,
	domain.ErrBatchTooLarge,
	domain.ErrInvalidRequest,
	domain.ErrInvalidArtifact,
	domain.ErrVectorDimMismatch,
	domain.ErrInvalidAICluster,
	domain.ErrUnknownFeatureTable,
	domain.ErrInvalidModel,
	domain.ErrModelNotLoaded,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Dimension errors keep their detail since both sides come from the request.
func safeDomainMessage(err error) string {
	var de *domain.DimensionError
	if errors.As(err, &de) {
		return de.Error()
	}
	for _, s := range clientSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
