package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/obesitrack/obesitrack/internal/application/dto"
	"github.com/obesitrack/obesitrack/internal/domain/model"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
)

// Predict is the use case running the full prediction pipeline: normalize the
// raw input, encode the feature vector, classify, derive risk and
// recommendations, and persist the resulting prediction record.
type Predict struct {
	contract           *service.FeatureContract
	encoder            *service.FeatureEncoder
	recommender        *service.Recommender
	classifier         port.Classifier
	repo               port.PredictionRepository
	predictTimeout     time.Duration
	fallbackConfidence float64
}

// NewPredict creates a new Predict use case. predictTimeout bounds a single
// classifier call; fallbackConfidence is reported when the model cannot
// produce class probabilities.
func NewPredict(
	contract *service.FeatureContract,
	encoder *service.FeatureEncoder,
	recommender *service.Recommender,
	classifier port.Classifier,
	repo port.PredictionRepository,
	predictTimeout time.Duration,
	fallbackConfidence float64,
) *Predict {
	return &Predict{
		contract:           contract,
		encoder:            encoder,
		recommender:        recommender,
		classifier:         classifier,
		repo:               repo,
		predictTimeout:     predictTimeout,
		fallbackConfidence: fallbackConfidence,
	}
}

// Execute runs one prediction end to end. Input validation failures come back
// as the service error types unwrapped, so the transport layer can map them to
// client errors; everything past encoding is a server fault.
func (uc *Predict) Execute(ctx context.Context, req dto.PredictRequest) (dto.PredictionResponse, error) {
	if req.SubjectID == uuid.Nil {
		return dto.PredictionResponse{}, &service.MissingFeatureError{Field: "subject_id"}
	}

	// 1. Normalize the raw field map against the feature contract.
	normalized, err := uc.contract.Normalize(req.Features)
	if err != nil {
		return dto.PredictionResponse{}, err
	}

	// 2. Encode the fixed-width vector (computes BMI from raw height/weight).
	encoded, err := uc.encoder.Encode(normalized)
	if err != nil {
		return dto.PredictionResponse{}, err
	}

	// 3. Classify under the configured inference timeout.
	classifyCtx, cancel := context.WithTimeout(ctx, uc.predictTimeout)
	defer cancel()

	classification, err := uc.classifier.Classify(classifyCtx, encoded.Vector)
	if err != nil {
		return dto.PredictionResponse{}, err
	}

	probability := classification.Probability
	confidence := classification.Probability
	if !classification.HasProbability {
		probability = uc.fallbackConfidence
		confidence = uc.fallbackConfidence
	}

	// 4. Build the aggregate from the normalized snapshot and apply the outcome.
	prediction, err := model.NewPrediction(req.SubjectID, map[string]any(normalized), encoded.BMI)
	if err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("failed to create prediction: %w", err)
	}

	recommendations := uc.recommender.Recommend(normalized, encoded.BMI)
	if err := prediction.Complete(classification.Label, probability, confidence, recommendations); err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("failed to complete prediction: %w", err)
	}

	// 5. Persist the record and its domain events in one transaction. Delivery
	// to the broker is the outbox relay's job, not ours.
	if err := uc.repo.Save(ctx, prediction); err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("failed to save prediction: %w", err)
	}

	return dto.FromModel(prediction), nil
}
