package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/obesitrack/obesitrack/internal/domain/event"
	"github.com/obesitrack/obesitrack/internal/domain/valueobject"
	"github.com/obesitrack/obesitrack/pkg/events"
)

// Prediction is the aggregate root for obesity-category predictions. It holds
// the normalized input snapshot alongside the classifier outcome so a stored
// record can always be traced back to what the model actually saw.
type Prediction struct {
	collector       events.EventCollector
	createdAt       time.Time
	predictedClass  string
	riskLevel       valueobject.RiskLevel
	input           map[string]any
	recommendations []string
	probability     float64
	confidence      float64
	bmi             float64
	subjectID       uuid.UUID
	id              uuid.UUID
}

// NewPrediction creates a prediction for a subject from its normalized input.
// The prediction starts without an outcome; call Complete() once the
// classifier has produced one.
func NewPrediction(subjectID uuid.UUID, input map[string]any, bmi float64) (*Prediction, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject ID is required")
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("input snapshot is required")
	}
	if bmi <= 0 {
		return nil, fmt.Errorf("bmi must be positive, got %v", bmi)
	}

	return &Prediction{
		id:              uuid.New(),
		subjectID:       subjectID,
		input:           input,
		bmi:             bmi,
		recommendations: make([]string, 0),
		createdAt:       time.Now().UTC(),
	}, nil
}

// Complete applies the classifier outcome to the prediction, derives the risk
// tier and records the domain events. This is the core domain operation.
func (p *Prediction) Complete(predictedClass string, probability, confidence float64, recommendations []string) error {
	if predictedClass == "" {
		return fmt.Errorf("predicted class is required")
	}
	if probability < 0 || probability > 1 {
		return fmt.Errorf("probability must be between 0 and 1, got %v", probability)
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %v", confidence)
	}

	p.predictedClass = predictedClass
	p.probability = probability
	p.confidence = confidence
	p.recommendations = recommendations
	p.riskLevel = valueobject.RiskLevelForLabel(predictedClass)

	p.collector.Record(event.NewPredictionCompleted(
		p.id, p.subjectID, p.predictedClass,
		p.probability, p.confidence, p.bmi,
		p.riskLevel.String(), p.createdAt,
	))

	if p.riskLevel.IsHighRisk() {
		p.collector.Record(event.NewHighRiskDetected(
			p.id, p.subjectID, p.predictedClass,
			p.riskLevel.String(), p.bmi, p.createdAt,
		))
	}

	return nil
}

// Reconstruct rebuilds a Prediction from persisted data (no validation, no events).
func Reconstruct(
	id, subjectID uuid.UUID,
	input map[string]any,
	predictedClass string,
	probability, confidence, bmi float64,
	riskLevel valueobject.RiskLevel,
	recommendations []string,
	createdAt time.Time,
) *Prediction {
	return &Prediction{
		id:              id,
		subjectID:       subjectID,
		input:           input,
		predictedClass:  predictedClass,
		probability:     probability,
		confidence:      confidence,
		bmi:             bmi,
		riskLevel:       riskLevel,
		recommendations: recommendations,
		createdAt:       createdAt,
	}
}

// --- Accessors ---

func (p *Prediction) ID() uuid.UUID                    { return p.id }
func (p *Prediction) SubjectID() uuid.UUID             { return p.subjectID }
func (p *Prediction) Input() map[string]any            { return p.input }
func (p *Prediction) PredictedClass() string           { return p.predictedClass }
func (p *Prediction) Probability() float64             { return p.probability }
func (p *Prediction) Confidence() float64              { return p.confidence }
func (p *Prediction) BMI() float64                     { return p.bmi }
func (p *Prediction) RiskLevel() valueobject.RiskLevel { return p.riskLevel }
func (p *Prediction) Recommendations() []string        { return p.recommendations }
func (p *Prediction) CreatedAt() time.Time             { return p.createdAt }

// DomainEvents returns all accumulated domain events and clears them.
func (p *Prediction) DomainEvents() []events.DomainEvent {
	return p.collector.ClearEvents()
}
