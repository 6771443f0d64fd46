package presets

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librescoot/viewfsm"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
	quiet   = 50 * time.Millisecond
)

type reversibleFixture struct {
	clock     clockwork.FakeClock
	ctrl      *viewfsm.Controller
	entered   map[viewfsm.StateID]*atomic.Int32
	completes atomic.Int32
}

// newReversibleFixture wires the handlers the transition scenarios rely on:
// transitioning_to_b arms a 500ms completion, transitioning_to_a cancels it.
func newReversibleFixture(t *testing.T) *reversibleFixture {
	t.Helper()

	f := &reversibleFixture{
		clock:   clockwork.NewFakeClock(),
		entered: make(map[viewfsm.StateID]*atomic.Int32),
	}
	ctrl, err := viewfsm.NewController(NewReversible(), viewfsm.WithControllerClock(f.clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })
	f.ctrl = ctrl

	for _, s := range ctrl.Machine().Definition().States() {
		counter := &atomic.Int32{}
		f.entered[s.ID] = counter
		state := s.ID
		require.NoError(t, ctrl.OnEnterState(state, func(c *viewfsm.Context) error {
			counter.Add(1)
			switch state {
			case TransitioningToB:
				c.Schedule(500*time.Millisecond, func() {
					f.completes.Add(1)
					_, _ = ctrl.ProcessEvent(Complete, nil)
				})
			case TransitioningToA:
				c.CancelTimer()
			}
			return nil
		}))
	}
	return f
}

func (f *reversibleFixture) process(t *testing.T, ev viewfsm.EventID) *viewfsm.Change {
	t.Helper()
	ch, err := f.ctrl.ProcessEvent(ev, nil)
	require.NoError(t, err)
	return ch
}

func TestReversibleInit(t *testing.T) {
	f := newReversibleFixture(t)
	assert.Equal(t, Uninitialized, f.ctrl.CurrentState())

	ch := f.process(t, Init)
	require.NotNil(t, ch)
	assert.Equal(t, StableA, f.ctrl.CurrentState())
	assert.Equal(t, int32(1), f.entered[StableA].Load())
}

func TestReversibleTimedCompletion(t *testing.T) {
	f := newReversibleFixture(t)
	f.process(t, Init)

	f.process(t, RequestB)
	assert.Equal(t, TransitioningToB, f.ctrl.CurrentState())
	assert.True(t, f.ctrl.Scheduler().Pending())

	f.clock.Advance(499 * time.Millisecond)
	assert.Never(t, func() bool { return f.completes.Load() > 0 }, quiet, tick)

	f.clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return f.ctrl.CurrentState() == StableB }, waitFor, tick)
	assert.Equal(t, int32(1), f.completes.Load())
	assert.Equal(t, int32(1), f.entered[StableB].Load())
}

func TestReversibleAbortCancelsCompletion(t *testing.T) {
	f := newReversibleFixture(t)
	f.process(t, Init)
	f.process(t, RequestB)
	require.True(t, f.ctrl.Scheduler().Pending())

	f.clock.Advance(200 * time.Millisecond)
	ch := f.process(t, Abort)
	require.NotNil(t, ch)
	assert.Equal(t, TransitioningToA, f.ctrl.CurrentState())
	assert.False(t, f.ctrl.Scheduler().Pending())

	f.clock.Advance(time.Second)
	assert.Never(t, func() bool { return f.completes.Load() > 0 }, quiet, tick)
	assert.Equal(t, TransitioningToA, f.ctrl.CurrentState())

	f.process(t, Complete)
	assert.Equal(t, StableA, f.ctrl.CurrentState())
}

func TestReversibleFailAndRecover(t *testing.T) {
	for _, from := range []viewfsm.StateID{TransitioningToB, TransitioningToA} {
		t.Run(string(from), func(t *testing.T) {
			f := newReversibleFixture(t)
			f.process(t, Init)
			f.process(t, RequestB)
			if from == TransitioningToA {
				f.process(t, Abort)
			}
			require.Equal(t, from, f.ctrl.CurrentState())

			f.process(t, Fail)
			assert.Equal(t, Error, f.ctrl.CurrentState())

			assert.Nil(t, f.process(t, RequestB))
			assert.Equal(t, Error, f.ctrl.CurrentState())

			f.process(t, Recover)
			assert.Equal(t, StableA, f.ctrl.CurrentState())
		})
	}
}

func TestReversibleFailIgnoredInStableStates(t *testing.T) {
	f := newReversibleFixture(t)
	f.process(t, Init)

	assert.Nil(t, f.process(t, Fail))
	assert.Nil(t, f.process(t, Recover))
	assert.Equal(t, StableA, f.ctrl.CurrentState())
}

func TestReversibleStateOptions(t *testing.T) {
	var entered int
	def := NewReversible(WithStateOptions(StableA, viewfsm.WithOnEnter(func(*viewfsm.Context) error {
		entered++
		return nil
	})))
	m, err := def.Build()
	require.NoError(t, err)

	_, err = m.ProcessEvent(Init, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, entered)
}
