package auction

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFiresAfterDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	s := NewScheduler(clock, func(uuid.UUID) { fired.Add(1) })

	id := uuid.New()
	s.Arm(context.Background(), id, 10*time.Second)

	clock.Advance(9 * time.Second)
	assert.Equal(t, int32(0), fired.Load())

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Fired timers are removed; no deadline lingers.
	assert.Empty(t, s.Deadlines())
}

func TestSchedulerRearmReplacesTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	s := NewScheduler(clock, func(uuid.UUID) { fired.Add(1) })

	id := uuid.New()
	s.Arm(context.Background(), id, 10*time.Second)
	clock.Advance(5 * time.Second)
	s.Arm(context.Background(), id, 10*time.Second)

	// The original deadline passes without a fire.
	clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	s := NewScheduler(clock, func(uuid.UUID) { fired.Add(1) })

	id := uuid.New()
	s.Arm(context.Background(), id, 10*time.Second)
	s.Cancel(id)

	clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Zero(t, s.Remaining(id))
}

func TestSchedulerRemainingAndDeadlines(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock, func(uuid.UUID) {})

	id1 := uuid.New()
	id2 := uuid.New()
	s.Arm(context.Background(), id1, 120*time.Second)
	s.Arm(context.Background(), id2, 15*time.Second)

	clock.Advance(5 * time.Second)

	assert.Equal(t, 115*time.Second, s.Remaining(id1))
	assert.Equal(t, 10*time.Second, s.Remaining(id2))
	assert.Zero(t, s.Remaining(uuid.New()))

	deadlines := s.Deadlines()
	assert.Equal(t, map[uuid.UUID]int{id1: 115, id2: 10}, deadlines)
}

func TestSchedulerIndependentTimers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	firedCh := make(chan uuid.UUID, 2)
	s := NewScheduler(clock, func(id uuid.UUID) { firedCh <- id })

	id1 := uuid.New()
	id2 := uuid.New()
	s.Arm(context.Background(), id1, 10*time.Second)
	s.Arm(context.Background(), id2, 20*time.Second)

	clock.Advance(10 * time.Second)
	select {
	case got := <-firedCh:
		assert.Equal(t, id1, got)
	case <-time.After(time.Second):
		t.Fatal("first timer never fired")
	}

	clock.Advance(10 * time.Second)
	select {
	case got := <-firedCh:
		assert.Equal(t, id2, got)
	case <-time.After(time.Second):
		t.Fatal("second timer never fired")
	}
}
