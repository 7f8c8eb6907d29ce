package port

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/obesitrack/obesitrack/internal/domain/model"
)

// PredictionRepository defines the persistence port for prediction records.
// Save is transactional: the record and the outbox entries for its domain
// events are written together or not at all.
type PredictionRepository interface {
	// Save persists a prediction record along with its collected domain events.
	Save(ctx context.Context, prediction *model.Prediction) error

	// FindByID retrieves a prediction by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Prediction, error)

	// FindBySubject retrieves the latest predictions for a subject, newest first.
	FindBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]*model.Prediction, error)

	// CountByClass returns per-class prediction counts across all subjects.
	CountByClass(ctx context.Context) ([]ClassCount, error)
}

// ClassCount is one row of the class distribution aggregate.
type ClassCount struct {
	Class string
	Count int64
}

// ErrModelUnavailable is returned by Classify when no model artifact is
// loaded. The transport layer maps it to 503 / Unavailable.
var ErrModelUnavailable = errors.New("classification model is not available")

// PredictionError wraps an unexpected inference failure.
type PredictionError struct {
	Cause error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Cause)
}

func (e *PredictionError) Unwrap() error {
	return e.Cause
}

// Classification is a single classifier verdict. HasProbability is false when
// the model cannot produce class probabilities (majority-vote ensembles); the
// orchestrator then applies the configured fallback confidence.
type Classification struct {
	Label          string
	Probability    float64
	HasProbability bool
}

// Classifier defines the inference port over an encoded feature vector.
type Classifier interface {
	// Classify runs inference and returns the decoded class label.
	Classify(ctx context.Context, vector []float64) (Classification, error)

	// Ready reports whether the classifier can serve predictions.
	Ready() bool
}

// FeatureScaler transforms the scaled-numerical tuple with fitted parameters.
// The encoder treats a nil scaler as raw passthrough (degraded mode).
type FeatureScaler interface {
	// Transform returns the scaled copy of values; the input is not modified.
	Transform(values []float64) []float64
}

// ModelInfo describes the loaded classifier for the operational surface.
type ModelInfo struct {
	Mode         string // "artifact" or "demo"
	Ready        bool
	ScalerLoaded bool
	LabelsLoaded bool
	FeatureCount int
	ClassCount   int
	ModelID      string
	Version      string
}

// ModelInspector exposes classifier metadata and feature importances.
type ModelInspector interface {
	// Info returns static metadata about the loaded model.
	Info() ModelInfo

	// FeatureImportances returns per-column importances in vector order.
	// The second return is false when the artifact does not carry them.
	FeatureImportances() ([]float64, bool)
}
