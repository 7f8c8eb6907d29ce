package ml

import (
	"context"

	"github.com/obesitrack/obesitrack/internal/domain/port"
)

var (
	_ port.Classifier     = (*UnavailableClassifier)(nil)
	_ port.ModelInspector = (*UnavailableClassifier)(nil)
)

// UnavailableClassifier serves when no model artifact could be loaded. Every
// Classify reports port.ErrModelUnavailable; readiness stays false until the
// process restarts with assets in place.
type UnavailableClassifier struct{}

func NewUnavailableClassifier() *UnavailableClassifier {
	return &UnavailableClassifier{}
}

func (UnavailableClassifier) Classify(_ context.Context, _ []float64) (port.Classification, error) {
	return port.Classification{}, port.ErrModelUnavailable
}

func (UnavailableClassifier) Ready() bool {
	return false
}

func (UnavailableClassifier) Info() port.ModelInfo {
	return port.ModelInfo{Mode: "artifact", Ready: false}
}

func (UnavailableClassifier) FeatureImportances() ([]float64, bool) {
	return nil, false
}
