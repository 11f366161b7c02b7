package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker relays unpublished outbox rows to the bus. It polls rather than
// listens; the poll interval bounds relay latency, not correctness.
type Worker struct {
	repo      *Repository
	publisher Publisher
	interval  time.Duration
	batchSize int
}

func NewWorker(repo *Repository, publisher Publisher, interval time.Duration, batchSize int) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Worker{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run polls for pending events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", w.interval).Int("batch_size", w.batchSize).Msg("outbox worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox worker shutting down")
			return nil
		case <-ticker.C:
			if err := w.relayBatch(ctx); err != nil {
				log.Error().Err(err).Msg("outbox relay batch failed")
			}
		}
	}
}

func (w *Worker) relayBatch(ctx context.Context) error {
	pending, err := w.repo.ClaimPending(ctx, w.batchSize)
	if err != nil {
		return err
	}

	for _, ev := range pending {
		if err := w.publisher.Publish(ctx, ev); err != nil {
			// Leave the row pending; the next tick retries it. JetStream
			// MsgID dedupe absorbs any double-publish.
			log.Error().Err(err).
				Str("event_id", ev.ID.String()).
				Str("event_type", ev.EventType).
				Msg("failed to relay outbox event")
			continue
		}
		if err := w.repo.MarkPublished(ctx, ev.ID, time.Now().UTC()); err != nil {
			log.Error().Err(err).
				Str("event_id", ev.ID.String()).
				Msg("failed to mark outbox event published")
		}
	}
	return nil
}
