package usecase

import (
	"context"
	"fmt"

	"github.com/obesitrack/obesitrack/internal/application/dto"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/valueobject"
)

// GetDistribution is the use case for the per-class prediction counts across
// all subjects.
type GetDistribution struct {
	repo port.PredictionRepository
}

// NewGetDistribution creates a new GetDistribution use case.
func NewGetDistribution(repo port.PredictionRepository) *GetDistribution {
	return &GetDistribution{repo: repo}
}

// Execute aggregates stored predictions by class. Every known class appears in
// the result even with a zero count, ordered by severity; labels the decoder
// never mapped (raw class indices) are appended after the known ones.
func (uc *GetDistribution) Execute(ctx context.Context) (dto.DistributionResponse, error) {
	counts, err := uc.repo.CountByClass(ctx)
	if err != nil {
		return dto.DistributionResponse{}, fmt.Errorf("failed to count predictions by class: %w", err)
	}

	var total int64
	byClass := make(map[string]int64, len(counts))
	for _, c := range counts {
		total += c.Count
		byClass[c.Class] = c.Count
	}

	known := valueobject.AllObesityClasses()
	entries := make([]dto.ClassDistributionEntry, 0, len(known))
	for _, class := range known {
		label := class.String()
		entries = append(entries, distributionEntry(label, byClass[label], total))
		delete(byClass, label)
	}
	for _, c := range counts {
		if _, leftover := byClass[c.Class]; leftover {
			entries = append(entries, distributionEntry(c.Class, c.Count, total))
		}
	}

	return dto.DistributionResponse{
		Distribution: entries,
		Total:        total,
	}, nil
}

func distributionEntry(class string, count, total int64) dto.ClassDistributionEntry {
	var pct float64
	if total > 0 {
		pct = float64(count) / float64(total) * 100
	}
	return dto.ClassDistributionEntry{Class: class, Count: count, Percentage: pct}
}
