package ml

import (
	"context"
	"fmt"

	"github.com/obesitrack/obesitrack/internal/domain/port"
)

var (
	_ port.Classifier     = (*DemoClassifier)(nil)
	_ port.ModelInspector = (*DemoClassifier)(nil)
)

// DemoClassifier predicts from BMI bands instead of a trained artifact. It
// is an explicit opt-in for environments without model assets and is never
// substituted silently. Demo mode runs without a scaler, so columns 1 and 2
// of the vector still hold raw height (cm) and weight (kg).
type DemoClassifier struct {
	featureCount int
}

func NewDemoClassifier(featureCount int) *DemoClassifier {
	return &DemoClassifier{featureCount: featureCount}
}

func (c *DemoClassifier) Classify(ctx context.Context, vector []float64) (port.Classification, error) {
	if err := ctx.Err(); err != nil {
		return port.Classification{}, &port.PredictionError{Cause: err}
	}
	if len(vector) < 3 {
		return port.Classification{}, &port.PredictionError{
			Cause: fmt.Errorf("vector width %d is too short for demo inference", len(vector)),
		}
	}
	heightMeters := vector[1] / 100
	weight := vector[2]
	if heightMeters <= 0 {
		return port.Classification{}, &port.PredictionError{
			Cause: fmt.Errorf("demo inference needs a positive height, got %v", vector[1]),
		}
	}
	bmi := weight / (heightMeters * heightMeters)

	var label string
	var probability float64
	switch {
	case bmi < 18.5:
		label, probability = "Insufficient_Weight", 0.1
	case bmi < 25:
		label, probability = "Normal_Weight", 0.2
	case bmi < 30:
		label, probability = "Overweight_Level_I", 0.5
	case bmi < 35:
		label, probability = "Overweight_Level_II", 0.65
	case bmi < 40:
		label, probability = "Obesity_Type_I", 0.75
	case bmi < 45:
		label, probability = "Obesity_Type_II", 0.85
	default:
		label, probability = "Obesity_Type_III", 0.95
	}
	return port.Classification{Label: label, Probability: probability, HasProbability: true}, nil
}

func (c *DemoClassifier) Ready() bool {
	return true
}

func (c *DemoClassifier) Info() port.ModelInfo {
	return port.ModelInfo{
		Mode:         "demo",
		Ready:        true,
		LabelsLoaded: true,
		FeatureCount: c.featureCount,
		ClassCount:   7,
		ModelID:      "demo",
	}
}

func (c *DemoClassifier) FeatureImportances() ([]float64, bool) {
	return nil, false
}
