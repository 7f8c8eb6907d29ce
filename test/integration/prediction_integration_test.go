//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obesitrack/obesitrack/internal/domain/event"
	"github.com/obesitrack/obesitrack/internal/domain/model"
	"github.com/obesitrack/obesitrack/internal/infrastructure/postgres"
	"github.com/obesitrack/obesitrack/pkg/testutil"
)

func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "internal", "infrastructure", "postgres", "migrations")
}

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pg := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pg.Cleanup(t) })

	pg.RunMigrations(t, migrationsDir())

	return pg.Pool
}

func newCompletedPrediction(t *testing.T, subjectID uuid.UUID, class string) *model.Prediction {
	t.Helper()

	input := map[string]any{
		"gender": "Male",
		"age":    float64(31),
		"height": float64(175),
		"weight": float64(118),
	}
	prediction, err := model.NewPrediction(subjectID, input, 38.53)
	require.NoError(t, err)

	// Domain events stay on the aggregate so Save writes them to the outbox.
	err = prediction.Complete(class, 0.91, 0.91, []string{
		"Consult a healthcare professional for a structured weight management plan.",
	})
	require.NoError(t, err)

	return prediction
}

func TestPredictionRepository_SaveAndFind(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewPredictionRepository(pool)
	ctx := context.Background()

	subjectID := uuid.New()
	prediction := newCompletedPrediction(t, subjectID, "Obesity_Type_II")

	// Save the prediction.
	err := repo.Save(ctx, prediction)
	require.NoError(t, err)

	// Retrieve the prediction.
	retrieved, err := repo.FindByID(ctx, prediction.ID())
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	// Verify all fields.
	assert.Equal(t, prediction.ID(), retrieved.ID())
	assert.Equal(t, subjectID, retrieved.SubjectID())
	assert.Equal(t, "Obesity_Type_II", retrieved.PredictedClass())
	assert.Equal(t, "Very High", retrieved.RiskLevel().String())
	assert.InDelta(t, 0.91, retrieved.Probability(), 1e-9)
	assert.InDelta(t, 0.91, retrieved.Confidence(), 1e-9)
	assert.InDelta(t, 38.53, retrieved.BMI(), 1e-9)
	assert.Equal(t, prediction.Input(), retrieved.Input())
	assert.Equal(t, prediction.Recommendations(), retrieved.Recommendations())
	assert.WithinDuration(t, prediction.CreatedAt(), retrieved.CreatedAt(), time.Millisecond)

	// A Very High risk prediction writes both domain events to the outbox
	// inside the save transaction.
	var outboxCount int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1`, prediction.ID()).Scan(&outboxCount)
	require.NoError(t, err)
	assert.Equal(t, 2, outboxCount)
}

func TestPredictionRepository_FindByID_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewPredictionRepository(pool)
	ctx := context.Background()

	retrieved, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestPredictionRepository_FindBySubject(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewPredictionRepository(pool)
	ctx := context.Background()

	subjectA := uuid.New()
	subjectB := uuid.New()

	// Save 3 predictions for subject A in a known order. The sleep keeps
	// their created_at values apart at the microsecond resolution the
	// timestamptz column stores.
	classes := []string{"Normal_Weight", "Overweight_Level_I", "Obesity_Type_I"}
	for _, class := range classes {
		prediction := newCompletedPrediction(t, subjectA, class)
		require.NoError(t, repo.Save(ctx, prediction))
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, repo.Save(ctx, newCompletedPrediction(t, subjectB, "Normal_Weight")))

	// Newest first, scoped to the subject.
	predictions, err := repo.FindBySubject(ctx, subjectA, 10)
	require.NoError(t, err)
	require.Len(t, predictions, 3)
	assert.Equal(t, "Obesity_Type_I", predictions[0].PredictedClass())
	assert.Equal(t, "Overweight_Level_I", predictions[1].PredictedClass())
	assert.Equal(t, "Normal_Weight", predictions[2].PredictedClass())
	for _, p := range predictions {
		assert.Equal(t, subjectA, p.SubjectID())
	}

	// The limit caps the page size without changing the order.
	limited, err := repo.FindBySubject(ctx, subjectA, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "Obesity_Type_I", limited[0].PredictedClass())
	assert.Equal(t, "Overweight_Level_I", limited[1].PredictedClass())
}

func TestPredictionRepository_CountByClass(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewPredictionRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newCompletedPrediction(t, uuid.New(), "Normal_Weight")))
	require.NoError(t, repo.Save(ctx, newCompletedPrediction(t, uuid.New(), "Normal_Weight")))
	require.NoError(t, repo.Save(ctx, newCompletedPrediction(t, uuid.New(), "Obesity_Type_III")))

	counts, err := repo.CountByClass(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	byClass := make(map[string]int64, len(counts))
	for _, count := range counts {
		byClass[count.Class] = count.Count
	}
	assert.Equal(t, int64(2), byClass["Normal_Weight"])
	assert.Equal(t, int64(1), byClass["Obesity_Type_III"])
}

func TestOutboxRepository_FetchAndMarkPublished(t *testing.T) {
	pool := setupTestDB(t)
	predictionRepo := postgres.NewPredictionRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	ctx := context.Background()

	subjectID := uuid.New()
	prediction := newCompletedPrediction(t, subjectID, "Obesity_Type_III")
	require.NoError(t, predictionRepo.Save(ctx, prediction))

	entries, err := outboxRepo.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	eventTypes := make(map[string]int, len(entries))
	for _, entry := range entries {
		eventTypes[entry.EventType]++
		assert.Equal(t, prediction.ID(), entry.AggregateID)
		assert.Equal(t, "Prediction", entry.AggregateType)
		assert.Nil(t, entry.PublishedAt)
	}
	assert.Equal(t, 1, eventTypes[event.EventTypePredictionCompleted])
	assert.Equal(t, 1, eventTypes[event.EventTypeHighRiskDetected])

	// The payload carries the event fields, not the envelope.
	for _, entry := range entries {
		if entry.EventType != event.EventTypePredictionCompleted {
			continue
		}
		var payload map[string]any
		require.NoError(t, json.Unmarshal(entry.Payload, &payload))
		assert.Equal(t, prediction.ID().String(), payload["prediction_id"])
		assert.Equal(t, subjectID.String(), payload["subject_id"])
		assert.Equal(t, "Obesity_Type_III", payload["predicted_class"])
		assert.Equal(t, "Extreme", payload["risk_level"])
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	require.NoError(t, outboxRepo.MarkPublished(ctx, ids))

	// Marked entries stop appearing in subsequent fetches.
	remaining, err := outboxRepo.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	var published int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published)
	require.NoError(t, err)
	assert.Equal(t, 2, published)
}
