package outbox

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
)

// Recorder implements the engine's Publisher by buffering events onto a
// channel and writing them to the outbox table from its own goroutine. The
// engine publishes while holding per-auction locks, so Publish never blocks;
// if the buffer is full the event is dropped from the outbox (the gateway
// fan-out still delivered it live) and a warning is logged.
type Recorder struct {
	repo *Repository
	ch   chan events.Envelope
}

func NewRecorder(repo *Repository, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Recorder{
		repo: repo,
		ch:   make(chan events.Envelope, buffer),
	}
}

// Publish enqueues an event for durable recording. Non-blocking.
func (r *Recorder) Publish(e events.Envelope) {
	select {
	case r.ch <- e:
	default:
		log.Warn().
			Str("event_id", e.ID.String()).
			Str("event_type", string(e.Type)).
			Msg("outbox buffer full, event not recorded")
	}
}

// Run drains the buffer until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-r.ch:
			if err := r.repo.InsertEvent(ctx, e); err != nil {
				log.Error().Err(err).
					Str("event_id", e.ID.String()).
					Str("event_type", string(e.Type)).
					Msg("failed to record outbox event")
			}
		}
	}
}
