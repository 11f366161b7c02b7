package auction

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Scheduler owns one cancellable one-shot timer per live auction. Arming an
// auction that already has a timer replaces it, so at most one unfired timer
// exists per auction at any instant.
//
// Cancellation is best-effort: a timer can fire concurrently with Cancel, and
// correctness relies on the settlement status guard, not on Stop succeeding.
type Scheduler struct {
	clock Clock
	fire  func(auctionID uuid.UUID)

	mu        sync.Mutex
	timers    map[uuid.UUID]clockwork.Timer
	deadlines map[uuid.UUID]time.Time
}

// NewScheduler creates a scheduler that invokes fire on its own goroutine
// each time an auction's timer expires.
func NewScheduler(clock Clock, fire func(auctionID uuid.UUID)) *Scheduler {
	return &Scheduler{
		clock:     clock,
		fire:      fire,
		timers:    make(map[uuid.UUID]clockwork.Timer),
		deadlines: make(map[uuid.UUID]time.Time),
	}
}

// Arm schedules (or reschedules) the expiry timer for an auction.
func (s *Scheduler) Arm(ctx context.Context, auctionID uuid.UUID, d time.Duration) {
	timer := s.clock.NewTimer(d)
	deadline := s.clock.Now().Add(d)

	s.mu.Lock()
	if existing, ok := s.timers[auctionID]; ok {
		stopAndDrainTimer(existing)
		log.Debug().Str("auction_id", auctionID.String()).Msg("replaced existing timer")
	}
	s.timers[auctionID] = timer
	s.deadlines[auctionID] = deadline
	s.mu.Unlock()

	go func(id uuid.UUID, t clockwork.Timer) {
		select {
		case <-t.Chan():
			// Only fire if we are still the active timer; a rearm may have
			// replaced this one between expiry and now.
			s.mu.Lock()
			current := s.timers[id] == t
			if current {
				delete(s.timers, id)
				delete(s.deadlines, id)
			}
			s.mu.Unlock()
			if !current {
				return
			}
			log.Debug().Str("auction_id", id.String()).Msg("timer fired")
			s.fire(id)
		case <-ctx.Done():
			stopAndDrainTimer(t)
			s.mu.Lock()
			if s.timers[id] == t {
				delete(s.timers, id)
				delete(s.deadlines, id)
			}
			s.mu.Unlock()
			log.Debug().Str("auction_id", id.String()).Msg("timer cancelled due to context cancellation")
		}
	}(auctionID, timer)

	log.Debug().
		Str("auction_id", auctionID.String()).
		Time("deadline", deadline).
		Dur("duration", d).
		Msg("scheduled one-shot timer")
}

// Cancel stops and removes the active timer for an auction, if any.
func (s *Scheduler) Cancel(auctionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[auctionID]; ok {
		stopAndDrainTimer(timer)
		delete(s.timers, auctionID)
		delete(s.deadlines, auctionID)
		log.Debug().Str("auction_id", auctionID.String()).Msg("cancelled timer")
	}
}

// Remaining returns the time left before the auction's timer fires, or zero
// if no timer is armed.
func (s *Scheduler) Remaining(auctionID uuid.UUID) time.Duration {
	s.mu.Lock()
	deadline, ok := s.deadlines[auctionID]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	remaining := deadline.Sub(s.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Deadlines returns remaining seconds for every armed timer, keyed by
// auction id. Feeds the gateway's timer-sync reply.
func (s *Scheduler) Deadlines() map[uuid.UUID]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	out := make(map[uuid.UUID]int, len(s.deadlines))
	for id, deadline := range s.deadlines {
		left := int(deadline.Sub(now) / time.Second)
		if left < 0 {
			left = 0
		}
		out[id] = left
	}
	return out
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent
// goroutine leaks. This follows the pattern recommended in the
// time.Timer.Stop() documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
