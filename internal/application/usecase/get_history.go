package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/obesitrack/obesitrack/internal/application/dto"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

// GetHistory is the use case for retrieving a subject's latest predictions,
// newest first.
type GetHistory struct {
	repo port.PredictionRepository
}

// NewGetHistory creates a new GetHistory use case.
func NewGetHistory(repo port.PredictionRepository) *GetHistory {
	return &GetHistory{repo: repo}
}

// Execute retrieves up to req.Limit predictions for the subject. A zero limit
// falls back to the default page size; anything outside [1, 50] is rejected.
func (uc *GetHistory) Execute(ctx context.Context, req dto.HistoryRequest) (dto.PredictionHistoryResponse, error) {
	if req.SubjectID == uuid.Nil {
		return dto.PredictionHistoryResponse{}, &service.MissingFeatureError{Field: "subject_id"}
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if limit < 1 || limit > maxHistoryLimit {
		return dto.PredictionHistoryResponse{}, &service.InvalidRangeError{Field: "limit", Value: req.Limit}
	}

	predictions, err := uc.repo.FindBySubject(ctx, req.SubjectID, limit)
	if err != nil {
		return dto.PredictionHistoryResponse{}, fmt.Errorf("failed to load prediction history: %w", err)
	}

	items := make([]dto.PredictionResponse, 0, len(predictions))
	for _, p := range predictions {
		items = append(items, dto.FromModel(p))
	}

	return dto.PredictionHistoryResponse{
		SubjectID:   req.SubjectID,
		Predictions: items,
		Count:       len(items),
	}, nil
}
