package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/obesitrack/obesitrack/internal/application/dto"
	"github.com/obesitrack/obesitrack/internal/application/usecase"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
)

// Compile-time assertion that PredictionServiceHandler implements PredictionServiceServer.
var _ PredictionServiceServer = (*PredictionServiceHandler)(nil)

// PredictionServiceHandler implements the gRPC PredictionServiceServer interface.
type PredictionServiceHandler struct {
	UnimplementedPredictionServiceServer
	predict        *usecase.Predict
	getModelStatus *usecase.GetModelStatus
	logger         *slog.Logger
}

// NewPredictionServiceHandler creates a new gRPC handler.
func NewPredictionServiceHandler(
	predict *usecase.Predict,
	getModelStatus *usecase.GetModelStatus,
	logger *slog.Logger,
) *PredictionServiceHandler {
	return &PredictionServiceHandler{
		predict:        predict,
		getModelStatus: getModelStatus,
		logger:         logger,
	}
}

// Proto-aligned request/response message types.

// PredictRequest represents the proto PredictRequest message.
type PredictRequest struct {
	Features  map[string]any `json:"features"`
	SubjectID string         `json:"subject_id"`
}

// PredictionMsg represents the proto Prediction message.
type PredictionMsg struct {
	ID              string   `json:"id"`
	SubjectID       string   `json:"subject_id"`
	PredictedClass  string   `json:"predicted_class"`
	RiskLevel       string   `json:"risk_level"`
	Recommendations []string `json:"recommendations"`
	CreatedAt       string   `json:"created_at"`
	Probability     float64  `json:"probability"`
	Confidence      float64  `json:"confidence"`
	BMI             float64  `json:"bmi"`
}

// PredictResponse represents the proto PredictResponse message.
type PredictResponse struct {
	Prediction *PredictionMsg `json:"prediction"`
}

// GetModelStatusRequest represents the proto GetModelStatusRequest message.
type GetModelStatusRequest struct{}

// GetModelStatusResponse represents the proto GetModelStatusResponse message.
type GetModelStatusResponse struct {
	Mode               string   `json:"mode"`
	ModelID            string   `json:"model_id"`
	Version            string   `json:"version"`
	Columns            []string `json:"columns"`
	FeatureCount       int      `json:"feature_count"`
	ClassCount         int      `json:"class_count"`
	FallbackConfidence float64  `json:"fallback_confidence"`
	Ready              bool     `json:"ready"`
	ScalerLoaded       bool     `json:"scaler_loaded"`
	LabelsLoaded       bool     `json:"labels_loaded"`
}

// Predict handles a prediction request.
func (h *PredictionServiceHandler) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid subject_id: %v", err)
	}

	result, err := h.predict.Execute(ctx, dto.PredictRequest{
		SubjectID: subjectID,
		Features:  req.Features,
	})
	if err != nil {
		return nil, h.mapDomainError(ctx, err)
	}

	return &PredictResponse{
		Prediction: &PredictionMsg{
			ID:              result.ID.String(),
			SubjectID:       result.SubjectID.String(),
			PredictedClass:  result.PredictedClass,
			RiskLevel:       result.RiskLevel,
			Recommendations: result.Recommendations,
			CreatedAt:       result.CreatedAt.Format(time.RFC3339Nano),
			Probability:     result.Probability,
			Confidence:      result.Confidence,
			BMI:             result.BMI,
		},
	}, nil
}

// GetModelStatus handles a model status request.
func (h *PredictionServiceHandler) GetModelStatus(ctx context.Context, req *GetModelStatusRequest) (*GetModelStatusResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result := h.getModelStatus.Execute(ctx)

	return &GetModelStatusResponse{
		Mode:               result.Mode,
		ModelID:            result.ModelID,
		Version:            result.Version,
		Columns:            result.Columns,
		FeatureCount:       result.FeatureCount,
		ClassCount:         result.ClassCount,
		FallbackConfidence: result.FallbackConfidence,
		Ready:              result.Ready,
		ScalerLoaded:       result.ScalerLoaded,
		LabelsLoaded:       result.LabelsLoaded,
	}, nil
}

// mapDomainError translates the domain error taxonomy into gRPC status codes:
// input validation failures are InvalidArgument, a missing model is
// Unavailable, everything else is Internal.
func (h *PredictionServiceHandler) mapDomainError(ctx context.Context, err error) error {
	if service.IsClientError(err) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if errors.Is(err, port.ErrModelUnavailable) {
		return status.Error(codes.Unavailable, err.Error())
	}

	h.logger.ErrorContext(ctx, "prediction request failed",
		slog.String("error", err.Error()),
	)
	return status.Error(codes.Internal, "internal error")
}
