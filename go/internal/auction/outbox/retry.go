package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Retrier re-executes failed store writes until they succeed. Settlement
// hands it the writes it could not land; the in-memory engine state is
// already committed by then, so the only job here is to make the store
// catch up eventually.
type Retrier struct {
	ch          chan retryOp
	maxBackoff  time.Duration
	baseBackoff time.Duration
}

type retryOp struct {
	op       string
	fn       func(ctx context.Context) error
	attempts int
}

func NewRetrier(buffer int) *Retrier {
	if buffer <= 0 {
		buffer = 256
	}
	return &Retrier{
		ch:          make(chan retryOp, buffer),
		baseBackoff: time.Second,
		maxBackoff:  30 * time.Second,
	}
}

// Enqueue registers a failed write for retry. Non-blocking; if the queue is
// full the failure is logged loudly and dropped, leaving the store to be
// reconciled by the operator.
func (r *Retrier) Enqueue(op string, fn func(ctx context.Context) error) {
	select {
	case r.ch <- retryOp{op: op, fn: fn}:
	default:
		log.Error().Str("op", op).Msg("retry queue full, dropping persistence retry")
	}
}

// Run executes queued retries with capped exponential backoff until ctx is
// cancelled.
func (r *Retrier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-r.ch:
			r.execute(ctx, op)
		}
	}
}

func (r *Retrier) execute(ctx context.Context, op retryOp) {
	shift := op.attempts
	if shift > 5 {
		shift = 5
	}
	backoff := r.baseBackoff << shift
	if backoff > r.maxBackoff {
		backoff = r.maxBackoff
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(backoff):
	}

	if err := op.fn(ctx); err != nil {
		op.attempts++
		log.Warn().Err(err).
			Str("op", op.op).
			Int("attempts", op.attempts).
			Msg("persistence retry failed, requeueing")
		select {
		case r.ch <- op:
		default:
			log.Error().Str("op", op.op).Msg("retry queue full, dropping persistence retry")
		}
		return
	}
	log.Info().Str("op", op.op).Int("attempts", op.attempts+1).Msg("persistence retry succeeded")
}
