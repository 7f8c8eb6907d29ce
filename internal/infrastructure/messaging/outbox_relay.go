package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/obesitrack/obesitrack/pkg/events"
)

const (
	defaultRelayInterval  = time.Second
	defaultRelayBatchSize = 100
)

// OutboxRelay drains the outbox table and forwards entries to the broker.
// Delivery is at-least-once: entries are marked published only after the
// broker accepted them, so a crash between publish and mark replays the
// batch on the next tick. Consumers must deduplicate on event ID.
type OutboxRelay struct {
	repo      events.OutboxRepository
	publisher events.EntryPublisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxRelay creates a relay polling the outbox at the given interval.
// Non-positive interval or batch size fall back to defaults.
func NewOutboxRelay(
	repo events.OutboxRepository,
	publisher events.EntryPublisher,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *OutboxRelay {
	if interval <= 0 {
		interval = defaultRelayInterval
	}
	if batchSize <= 0 {
		batchSize = defaultRelayBatchSize
	}
	return &OutboxRelay{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start blocks until ctx is cancelled, draining the outbox on every tick.
// Drain errors are logged and retried on the next tick; they never stop
// the relay.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("outbox relay started",
		slog.Duration("interval", r.interval),
		slog.Int("batch_size", r.batchSize),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.logger.Error("outbox drain failed", slog.String("error", err.Error()))
			}
		}
	}
}

// drain publishes one batch of unpublished entries and marks them.
func (r *OutboxRelay) drain(ctx context.Context) error {
	entries, err := r.repo.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("fetching unpublished entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	if err := r.publisher.PublishEntries(ctx, entries...); err != nil {
		return fmt.Errorf("publishing %d entries: %w", len(entries), err)
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	if err := r.repo.MarkPublished(ctx, ids); err != nil {
		return fmt.Errorf("marking %d entries published: %w", len(ids), err)
	}

	r.logger.Debug("outbox batch relayed", slog.Int("entries", len(entries)))
	return nil
}
