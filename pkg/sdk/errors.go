package sonai

import "github.com/kailas-cloud/sonai/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrModelNotLoaded      = domain.ErrModelNotLoaded
	ErrInvalidModel        = domain.ErrInvalidModel
	ErrInvalidArtifact     = domain.ErrInvalidArtifact
	ErrInvalidAICluster    = domain.ErrInvalidAICluster
	ErrUnknownFeatureTable = domain.ErrUnknownFeatureTable
	ErrVectorDimMismatch   = domain.ErrVectorDimMismatch
	ErrPatternBuild        = domain.ErrPatternBuild
	ErrTextTooLarge        = domain.ErrTextTooLarge
	ErrBatchTooLarge       = domain.ErrBatchTooLarge
)
