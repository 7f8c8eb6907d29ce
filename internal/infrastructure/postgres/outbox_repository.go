package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obesitrack/obesitrack/pkg/events"
	pkgpostgres "github.com/obesitrack/obesitrack/pkg/postgres"
)

var _ events.OutboxRepository = (*OutboxRepository)(nil)

// OutboxRepository implements events.OutboxRepository using PostgreSQL. The
// prediction repository writes entries inside its own save transaction; this
// repository serves the relay side (fetch and mark) plus standalone stores.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a new PostgreSQL-backed outbox repository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Store persists entries outside an aggregate transaction.
func (r *OutboxRepository) Store(ctx context.Context, entries []events.OutboxEntry) error {
	return insertOutboxEntries(ctx, r.pool, entries)
}

// insertOutboxEntries writes entries through q, which may be a pool or an
// open transaction. The prediction repository calls it with the tx of its
// save operation.
func insertOutboxEntries(ctx context.Context, q pkgpostgres.Querier, entries []events.OutboxEntry) error {
	const query = `
		INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, entry := range entries {
		_, err := q.Exec(ctx, query,
			entry.ID,
			entry.AggregateID,
			entry.AggregateType,
			entry.EventType,
			entry.Payload,
			entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to store outbox entry: %w", err)
		}
	}

	return nil
}

// FetchUnpublished returns up to batchSize entries that have not been
// published yet, oldest first.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	const query = `
		SELECT id, aggregate_id, aggregate_type, event_type, payload, created_at, published_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpublished outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []events.OutboxEntry
	for rows.Next() {
		var entry events.OutboxEntry
		err := rows.Scan(
			&entry.ID,
			&entry.AggregateID,
			&entry.AggregateType,
			&entry.EventType,
			&entry.Payload,
			&entry.CreatedAt,
			&entry.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox entries: %w", err)
	}

	return entries, nil
}

// MarkPublished stamps the given entries as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	const query = `UPDATE outbox SET published_at = now() WHERE id = ANY($1)`

	if _, err := r.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to mark outbox entries published: %w", err)
	}

	return nil
}
