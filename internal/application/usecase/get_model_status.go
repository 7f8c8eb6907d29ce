package usecase

import (
	"context"

	"github.com/obesitrack/obesitrack/internal/application/dto"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
)

// GetModelStatus is the use case for the operational model surface: which
// classifier is loaded, whether it can serve, and the column layout it expects.
type GetModelStatus struct {
	spec               *service.FeatureSpec
	inspector          port.ModelInspector
	fallbackConfidence float64
}

// NewGetModelStatus creates a new GetModelStatus use case.
func NewGetModelStatus(spec *service.FeatureSpec, inspector port.ModelInspector, fallbackConfidence float64) *GetModelStatus {
	return &GetModelStatus{
		spec:               spec,
		inspector:          inspector,
		fallbackConfidence: fallbackConfidence,
	}
}

// Execute reports the model status. FeatureCount and Columns come from the
// feature spec, not the artifact, so the expected layout is visible even when
// no model is loaded.
func (uc *GetModelStatus) Execute(_ context.Context) dto.ModelStatusResponse {
	info := uc.inspector.Info()

	return dto.ModelStatusResponse{
		Mode:               info.Mode,
		ModelID:            info.ModelID,
		Version:            info.Version,
		Ready:              info.Ready,
		ScalerLoaded:       info.ScalerLoaded,
		LabelsLoaded:       info.LabelsLoaded,
		FeatureCount:       uc.spec.Width(),
		ClassCount:         info.ClassCount,
		Columns:            uc.spec.ColumnNames(),
		FallbackConfidence: uc.fallbackConfidence,
	}
}
