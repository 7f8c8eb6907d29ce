package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/obesitrack/obesitrack/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	// EventTypePredictionCompleted is emitted when a prediction finishes.
	EventTypePredictionCompleted = "prediction.completed"

	// EventTypeHighRiskDetected is emitted when a prediction lands in the
	// Very High or Extreme risk tier.
	EventTypeHighRiskDetected = "prediction.high_risk_detected"
)

// PredictionCompleted is published on every successfully persisted prediction.
type PredictionCompleted struct {
	events.BaseEvent
	PredictionID   uuid.UUID `json:"prediction_id"`
	SubjectID      uuid.UUID `json:"subject_id"`
	PredictedClass string    `json:"predicted_class"`
	Probability    float64   `json:"probability"`
	Confidence     float64   `json:"confidence"`
	BMI            float64   `json:"bmi"`
	RiskLevel      string    `json:"risk_level"`
	PredictedAt    time.Time `json:"predicted_at"`
}

func NewPredictionCompleted(predictionID, subjectID uuid.UUID, predictedClass string, probability, confidence, bmi float64, riskLevel string, predictedAt time.Time) PredictionCompleted {
	return PredictionCompleted{
		BaseEvent:      events.NewBaseEvent(EventTypePredictionCompleted, predictionID, "Prediction"),
		PredictionID:   predictionID,
		SubjectID:      subjectID,
		PredictedClass: predictedClass,
		Probability:    probability,
		Confidence:     confidence,
		BMI:            bmi,
		RiskLevel:      riskLevel,
		PredictedAt:    predictedAt,
	}
}

// HighRiskDetected is published when a subject's predicted class maps to a
// high-risk tier, so downstream consumers can trigger follow-up care flows.
type HighRiskDetected struct {
	events.BaseEvent
	PredictionID   uuid.UUID `json:"prediction_id"`
	SubjectID      uuid.UUID `json:"subject_id"`
	PredictedClass string    `json:"predicted_class"`
	RiskLevel      string    `json:"risk_level"`
	BMI            float64   `json:"bmi"`
	DetectedAt     time.Time `json:"detected_at"`
}

func NewHighRiskDetected(predictionID, subjectID uuid.UUID, predictedClass, riskLevel string, bmi float64, detectedAt time.Time) HighRiskDetected {
	return HighRiskDetected{
		BaseEvent:      events.NewBaseEvent(EventTypeHighRiskDetected, predictionID, "Prediction"),
		PredictionID:   predictionID,
		SubjectID:      subjectID,
		PredictedClass: predictedClass,
		RiskLevel:      riskLevel,
		BMI:            bmi,
		DetectedAt:     detectedAt,
	}
}
