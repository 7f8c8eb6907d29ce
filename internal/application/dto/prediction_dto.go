package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/obesitrack/obesitrack/internal/domain/model"
)

// PredictRequest is the input DTO for the Predict use case. Features holds
// the raw field map exactly as the caller sent it; normalization happens in
// the domain layer.
type PredictRequest struct {
	Features  map[string]any `json:"features"`
	SubjectID uuid.UUID      `json:"subject_id"`
}

// HistoryRequest is the input DTO for retrieving a subject's recent
// predictions. A zero Limit means the default page size.
type HistoryRequest struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Limit     int       `json:"limit"`
}

// PredictionResponse is the output DTO returned after a prediction.
type PredictionResponse struct {
	CreatedAt       time.Time `json:"created_at"`
	Recommendations []string  `json:"recommendations"`
	ID              uuid.UUID `json:"id"`
	SubjectID       uuid.UUID `json:"subject_id"`
	PredictedClass  string    `json:"predicted_class"`
	RiskLevel       string    `json:"risk_level"`
	Probability     float64   `json:"probability"`
	Confidence      float64   `json:"confidence"`
	BMI             float64   `json:"bmi"`
}

// PredictionHistoryResponse lists a subject's latest predictions.
type PredictionHistoryResponse struct {
	Predictions []PredictionResponse `json:"predictions"`
	SubjectID   uuid.UUID            `json:"subject_id"`
	Count       int                  `json:"count"`
}

// ClassDistributionEntry is one class share of the persisted predictions.
type ClassDistributionEntry struct {
	Class      string  `json:"class"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DistributionResponse aggregates prediction counts per class.
type DistributionResponse struct {
	Distribution []ClassDistributionEntry `json:"distribution"`
	Total        int64                    `json:"total"`
}

// ModelStatusResponse reports the loaded classifier and its degraded flags.
type ModelStatusResponse struct {
	Mode               string   `json:"mode"`
	ModelID            string   `json:"model_id,omitempty"`
	Version            string   `json:"version,omitempty"`
	Columns            []string `json:"columns"`
	Ready              bool     `json:"ready"`
	ScalerLoaded       bool     `json:"scaler_loaded"`
	LabelsLoaded       bool     `json:"labels_loaded"`
	FeatureCount       int      `json:"feature_count"`
	ClassCount         int      `json:"class_count"`
	FallbackConfidence float64  `json:"fallback_confidence"`
}

// FeatureImportanceEntry is one column's importance weight.
type FeatureImportanceEntry struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FeatureImportanceResponse lists column importances, highest first.
type FeatureImportanceResponse struct {
	Importances []FeatureImportanceEntry `json:"importances"`
	Top3        []string                 `json:"top_3"`
}

// FromModel maps a domain prediction to the response DTO.
func FromModel(p *model.Prediction) PredictionResponse {
	return PredictionResponse{
		ID:              p.ID(),
		SubjectID:       p.SubjectID(),
		PredictedClass:  p.PredictedClass(),
		RiskLevel:       p.RiskLevel().String(),
		Probability:     p.Probability(),
		Confidence:      p.Confidence(),
		BMI:             p.BMI(),
		Recommendations: p.Recommendations(),
		CreatedAt:       p.CreatedAt(),
	}
}
