package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPatternBuild signals a malformed or empty phrase dictionary.
	ErrPatternBuild = errors.New("pattern build failed")
	// ErrInvalidModel signals a cluster model that violates the two-centroid contract.
	ErrInvalidModel = errors.New("invalid cluster model")
	// ErrVectorDimMismatch signals a feature vector / centroid dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidAICluster signals an ai cluster index outside {0,1}.
	ErrInvalidAICluster = errors.New("invalid ai cluster index")
	// ErrUnknownFeatureTable signals a model trained with an unregistered feature table.
	ErrUnknownFeatureTable = errors.New("unknown feature table")
	// ErrInvalidArtifact signals an undecodable model artifact.
	ErrInvalidArtifact = errors.New("invalid model artifact")
	// ErrModelNotLoaded signals that no cluster model is available yet.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrTextTooLarge signals a text above the configured size limit.
	ErrTextTooLarge = errors.New("text too large")
	// ErrBatchTooLarge signals a batch above the configured item limit.
	ErrBatchTooLarge = errors.New("batch too large")
	// ErrInvalidRequest signals a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
)

// DimensionError wraps ErrVectorDimMismatch with both sides of the comparison.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: want %d, got %d", ErrVectorDimMismatch.Error(), e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimensionError creates a dimension mismatch error.
func NewDimensionError(want, got int) error {
	return &DimensionError{Want: want, Got: got}
}
