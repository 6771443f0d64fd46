package viewfsm

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
	quiet   = 50 * time.Millisecond
)

func TestScheduleFires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(WithClock(clock))
	var count atomic.Int32

	s.Schedule(500*time.Millisecond, func() { count.Add(1) })
	assert.True(t, s.Pending())

	clock.Advance(499 * time.Millisecond)
	assert.Never(t, func() bool { return count.Load() > 0 }, quiet, tick)

	clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return count.Load() == 1 }, waitFor, tick)
	assert.False(t, s.Pending())
}

func TestScheduleTwiceFiresOnlySecond(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(WithClock(clock))
	var first, second atomic.Int32

	s.Schedule(100*time.Millisecond, func() { first.Add(1) })
	s.Schedule(100*time.Millisecond, func() { second.Add(1) })

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return second.Load() == 1 }, waitFor, tick)
	assert.Never(t, func() bool { return first.Load() > 0 || second.Load() > 1 }, quiet, tick)
}

func TestCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &countingRecorder{}
	s := NewScheduler(WithClock(clock), WithSchedulerRecorder(rec))
	var count atomic.Int32

	s.Schedule(100*time.Millisecond, func() { count.Add(1) })
	s.Cancel()
	assert.False(t, s.Pending())

	clock.Advance(time.Second)
	assert.Never(t, func() bool { return count.Load() > 0 }, quiet, tick)
	assert.Equal(t, 1, rec.armed)
	assert.Equal(t, 1, rec.cancelled)
	assert.Zero(t, rec.fired)
}

func TestCancelWithNothingPending(t *testing.T) {
	s := NewScheduler(WithClock(clockwork.NewFakeClock()))

	assert.NotPanics(t, func() {
		s.Cancel()
		s.Cancel()
	})
	assert.False(t, s.Pending())
}

func TestScheduleFromCallback(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(WithClock(clock))
	var count atomic.Int32

	s.Schedule(100*time.Millisecond, func() {
		count.Add(1)
		s.Schedule(100*time.Millisecond, func() { count.Add(1) })
	})

	clock.Advance(100 * time.Millisecond)
	assert.Eventually(t, func() bool { return count.Load() == 1 && s.Pending() }, waitFor, tick)

	clock.Advance(100 * time.Millisecond)
	assert.Eventually(t, func() bool { return count.Load() == 2 }, waitFor, tick)
}

func TestSchedulerRealClock(t *testing.T) {
	s := NewScheduler()
	var count atomic.Int32

	s.Schedule(10*time.Millisecond, func() { count.Add(1) })
	assert.Eventually(t, func() bool { return count.Load() == 1 }, waitFor, tick)
}
