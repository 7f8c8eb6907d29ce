package ml

import (
	"fmt"

	"github.com/obesitrack/obesitrack/internal/domain/port"
)

var _ port.FeatureScaler = (*StandardScaler)(nil)

// StandardScaler standardizes the scaled-numerical tuple with fitted
// parameters: (x - mean) / scale per column.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// NewStandardScaler builds a scaler from fitted parameters. Mean and scale
// must have the same length and every scale entry must be non-zero.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler mean/scale length mismatch: %d vs %d", len(mean), len(scale))
	}
	for i, s := range scale {
		if s == 0 {
			return nil, fmt.Errorf("scaler scale[%d] is zero", i)
		}
	}
	return &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}, nil
}

// Transform returns the standardized copy of values. Columns beyond the
// fitted width pass through unchanged; the input slice is not modified.
func (s *StandardScaler) Transform(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i < len(s.mean) {
			out[i] = (v - s.mean[i]) / s.scale[i]
		} else {
			out[i] = v
		}
	}
	return out
}
