package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/obesitrack/obesitrack/internal/application/dto"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/service"
)

const topFeatureCount = 3

// GetFeatureImportance is the use case exposing per-column importances of the
// loaded forest, sorted most influential first.
type GetFeatureImportance struct {
	spec      *service.FeatureSpec
	inspector port.ModelInspector
}

// NewGetFeatureImportance creates a new GetFeatureImportance use case.
func NewGetFeatureImportance(spec *service.FeatureSpec, inspector port.ModelInspector) *GetFeatureImportance {
	return &GetFeatureImportance{spec: spec, inspector: inspector}
}

// Execute returns column importances paired with their column names. When no
// artifact is loaded, or the artifact does not carry importances, the model is
// reported unavailable.
func (uc *GetFeatureImportance) Execute(_ context.Context) (dto.FeatureImportanceResponse, error) {
	importances, ok := uc.inspector.FeatureImportances()
	if !ok {
		return dto.FeatureImportanceResponse{}, port.ErrModelUnavailable
	}

	columns := uc.spec.ColumnNames()
	if len(importances) != len(columns) {
		return dto.FeatureImportanceResponse{}, fmt.Errorf("model carries %d importances for %d columns", len(importances), len(columns))
	}

	entries := make([]dto.FeatureImportanceEntry, 0, len(columns))
	for i, column := range columns {
		entries = append(entries, dto.FeatureImportanceEntry{Feature: column, Importance: importances[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Importance > entries[j].Importance
	})

	top := make([]string, 0, topFeatureCount)
	for i := 0; i < len(entries) && i < topFeatureCount; i++ {
		top = append(top, entries[i].Feature)
	}

	return dto.FeatureImportanceResponse{
		Importances: entries,
		Top3:        top,
	}, nil
}
