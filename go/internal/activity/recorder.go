package activity

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
)

// Recorder implements the engine's Publisher and persists Activity events to
// the feed table. Other event types pass through untouched. Like every
// engine publisher it must not block, so entries go through a buffered
// channel and are written from Run.
type Recorder struct {
	repo *Repository
	ch   chan events.Envelope
}

func NewRecorder(repo *Repository, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		repo: repo,
		ch:   make(chan events.Envelope, buffer),
	}
}

// Publish enqueues an activity event for persistence. Non-blocking.
func (r *Recorder) Publish(e events.Envelope) {
	if e.Type != events.EventTypeActivity {
		return
	}
	select {
	case r.ch <- e:
	default:
		log.Warn().Str("event_id", e.ID.String()).Msg("activity buffer full, entry not recorded")
	}
}

// Run drains the buffer until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-r.ch:
			var payload events.ActivityPayload
			if err := json.Unmarshal(e.Data, &payload); err != nil {
				log.Error().Err(err).Str("event_id", e.ID.String()).Msg("malformed activity payload")
				continue
			}
			if err := r.repo.Insert(ctx, payload.Message, payload.Timestamp); err != nil {
				log.Error().Err(err).Str("event_id", e.ID.String()).Msg("failed to record activity entry")
			}
		}
	}
}
