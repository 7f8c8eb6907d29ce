package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obesitrack/obesitrack/internal/domain/valueobject"
)

// TestReconstructPrediction tests the reconstructPrediction helper that maps
// raw database values back into the Prediction aggregate.
func TestReconstructPrediction(t *testing.T) {
	t.Run("successfully reconstructs prediction", func(t *testing.T) {
		id := uuid.New()
		subjectID := uuid.New()
		now := time.Now().UTC().Truncate(time.Microsecond)
		inputJSON := []byte(`{"gender":"Male","age":31,"height":175,"weight":118}`)
		recsJSON := []byte(`["Consult a healthcare professional for a structured weight management plan."]`)

		prediction, err := reconstructPrediction(
			id, subjectID,
			"Obesity_Type_II", 0.91, 0.88, 38.53,
			"Very High", inputJSON, recsJSON, now,
		)

		require.NoError(t, err)
		assert.Equal(t, id, prediction.ID())
		assert.Equal(t, subjectID, prediction.SubjectID())
		assert.Equal(t, "Obesity_Type_II", prediction.PredictedClass())
		assert.InDelta(t, 0.91, prediction.Probability(), 1e-9)
		assert.InDelta(t, 0.88, prediction.Confidence(), 1e-9)
		assert.InDelta(t, 38.53, prediction.BMI(), 1e-9)
		assert.Equal(t, valueobject.RiskLevelVeryHigh, prediction.RiskLevel())
		assert.Equal(t, "Male", prediction.Input()["gender"])
		assert.Equal(t, float64(31), prediction.Input()["age"])
		assert.Len(t, prediction.Recommendations(), 1)
		assert.Equal(t, now, prediction.CreatedAt())
	})

	t.Run("reconstructed prediction carries no domain events", func(t *testing.T) {
		prediction, err := reconstructPrediction(
			uuid.New(), uuid.New(),
			"Normal_Weight", 0.75, 0.75, 22.1,
			"Low", []byte(`{"age":25}`), []byte(`[]`), time.Now().UTC(),
		)

		require.NoError(t, err)
		assert.Empty(t, prediction.DomainEvents())
	})

	t.Run("returns error for invalid stored risk level", func(t *testing.T) {
		_, err := reconstructPrediction(
			uuid.New(), uuid.New(),
			"Normal_Weight", 0.75, 0.75, 22.1,
			"CRITICAL", []byte(`{"age":25}`), []byte(`[]`), time.Now().UTC(),
		)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse risk level")
	})

	t.Run("returns error for malformed input payload", func(t *testing.T) {
		_, err := reconstructPrediction(
			uuid.New(), uuid.New(),
			"Normal_Weight", 0.75, 0.75, 22.1,
			"Low", []byte(`{not json`), []byte(`[]`), time.Now().UTC(),
		)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal prediction input")
	})

	t.Run("returns error for malformed recommendations payload", func(t *testing.T) {
		_, err := reconstructPrediction(
			uuid.New(), uuid.New(),
			"Normal_Weight", 0.75, 0.75, 22.1,
			"Low", []byte(`{"age":25}`), []byte(`{not json`), time.Now().UTC(),
		)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal recommendations")
	})

	t.Run("reconstructs all supported risk levels", func(t *testing.T) {
		levels := []struct {
			input    string
			expected valueobject.RiskLevel
		}{
			{"Low", valueobject.RiskLevelLow},
			{"Moderate", valueobject.RiskLevelModerate},
			{"High", valueobject.RiskLevelHigh},
			{"Very High", valueobject.RiskLevelVeryHigh},
			{"Extreme", valueobject.RiskLevelExtreme},
			{"Unknown", valueobject.RiskLevelUnknown},
		}

		for _, tc := range levels {
			t.Run(tc.input, func(t *testing.T) {
				prediction, err := reconstructPrediction(
					uuid.New(), uuid.New(),
					"Normal_Weight", 0.75, 0.75, 22.1,
					tc.input, []byte(`{"age":25}`), []byte(`[]`), time.Now().UTC(),
				)

				require.NoError(t, err)
				assert.Equal(t, tc.expected, prediction.RiskLevel())
			})
		}
	})
}

// TestNewPredictionRepository tests the constructor.
func TestNewPredictionRepository(t *testing.T) {
	t.Run("creates repository with nil pool", func(t *testing.T) {
		repo := NewPredictionRepository(nil)
		assert.NotNil(t, repo)
		assert.Nil(t, repo.pool)
	})
}

// TestNewOutboxRepository tests the constructor.
func TestNewOutboxRepository(t *testing.T) {
	t.Run("creates repository with nil pool", func(t *testing.T) {
		repo := NewOutboxRepository(nil)
		assert.NotNil(t, repo)
		assert.Nil(t, repo.pool)
	})
}
