package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obesitrack/obesitrack/internal/domain/model"
	"github.com/obesitrack/obesitrack/internal/domain/port"
	"github.com/obesitrack/obesitrack/internal/domain/valueobject"
	"github.com/obesitrack/obesitrack/pkg/events"
	pkgpostgres "github.com/obesitrack/obesitrack/pkg/postgres"
)

var _ port.PredictionRepository = (*PredictionRepository)(nil)

// PredictionRepository implements port.PredictionRepository using PostgreSQL.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository creates a new PostgreSQL-backed prediction repository.
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// Save persists a prediction record and writes its domain events to the
// outbox table within the same transaction. Records are insert-only.
func (r *PredictionRepository) Save(ctx context.Context, prediction *model.Prediction) error {
	inputJSON, err := json.Marshal(prediction.Input())
	if err != nil {
		return fmt.Errorf("failed to marshal prediction input: %w", err)
	}

	recommendations := prediction.Recommendations()
	if recommendations == nil {
		recommendations = []string{}
	}
	recommendationsJSON, err := json.Marshal(recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	domainEvents := prediction.DomainEvents()
	entries := make([]events.OutboxEntry, 0, len(domainEvents))
	for _, evt := range domainEvents {
		entries = append(entries, events.NewOutboxEntry(evt))
	}

	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		const insertPredictionSQL = `
			INSERT INTO predictions (
				id, subject_id, predicted_class, probability, confidence,
				bmi, risk_level, input, recommendations, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`

		_, err := tx.Exec(ctx, insertPredictionSQL,
			prediction.ID(),
			prediction.SubjectID(),
			prediction.PredictedClass(),
			prediction.Probability(),
			prediction.Confidence(),
			prediction.BMI(),
			prediction.RiskLevel().String(),
			inputJSON,
			recommendationsJSON,
			prediction.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}

		return insertOutboxEntries(ctx, tx, entries)
	})
}

// FindByID retrieves a prediction by its unique identifier. Returns nil
// without error when no record exists.
func (r *PredictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Prediction, error) {
	const query = `
		SELECT id, subject_id, predicted_class, probability, confidence,
			bmi, risk_level, input, recommendations, created_at
		FROM predictions
		WHERE id = $1
	`

	return r.scanPrediction(r.pool.QueryRow(ctx, query, id))
}

// FindBySubject retrieves the latest predictions for a subject, newest first.
func (r *PredictionRepository) FindBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]*model.Prediction, error) {
	const query = `
		SELECT id, subject_id, predicted_class, probability, confidence,
			bmi, risk_level, input, recommendations, created_at
		FROM predictions
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*model.Prediction
	for rows.Next() {
		prediction, err := r.scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, prediction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction rows: %w", err)
	}

	return predictions, nil
}

// CountByClass returns per-class prediction counts across all subjects.
func (r *PredictionRepository) CountByClass(ctx context.Context) ([]port.ClassCount, error) {
	const query = `
		SELECT predicted_class, COUNT(*)
		FROM predictions
		GROUP BY predicted_class
		ORDER BY predicted_class
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}
	defer rows.Close()

	var counts []port.ClassCount
	for rows.Next() {
		var count port.ClassCount
		if err := rows.Scan(&count.Class, &count.Count); err != nil {
			return nil, fmt.Errorf("failed to scan class count: %w", err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class counts: %w", err)
	}

	return counts, nil
}

func (r *PredictionRepository) scanPrediction(row pgx.Row) (*model.Prediction, error) {
	var (
		id                  uuid.UUID
		subjectID           uuid.UUID
		predictedClass      string
		probability         float64
		confidence          float64
		bmi                 float64
		riskLevelStr        string
		inputJSON           []byte
		recommendationsJSON []byte
		createdAt           time.Time
	)

	err := row.Scan(
		&id, &subjectID, &predictedClass, &probability, &confidence,
		&bmi, &riskLevelStr, &inputJSON, &recommendationsJSON, &createdAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}

	return reconstructPrediction(
		id, subjectID, predictedClass, probability, confidence,
		bmi, riskLevelStr, inputJSON, recommendationsJSON, createdAt,
	)
}

// reconstructPrediction maps raw column values back into the Prediction
// aggregate.
func reconstructPrediction(
	id, subjectID uuid.UUID,
	predictedClass string,
	probability, confidence, bmi float64,
	riskLevelStr string,
	inputJSON, recommendationsJSON []byte,
	createdAt time.Time,
) (*model.Prediction, error) {
	riskLevel, err := valueobject.RiskLevelFromString(riskLevelStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse risk level: %w", err)
	}

	var input map[string]any
	if err := json.Unmarshal(inputJSON, &input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction input: %w", err)
	}

	var recommendations []string
	if err := json.Unmarshal(recommendationsJSON, &recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}

	return model.Reconstruct(
		id, subjectID, input,
		predictedClass, probability, confidence, bmi,
		riskLevel, recommendations, createdAt,
	), nil
}
