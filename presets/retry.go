package presets

import (
	"sync"

	"github.com/cenkalti/backoff/v4"

	"github.com/librescoot/viewfsm"
)

// Retrier re-issues a recovery event whenever its controller lands in an
// error state, waiting out a backoff interval first. The retry is an
// ordinary transition; the machine itself never retries.
type Retrier struct {
	ctrl    *viewfsm.Controller
	errored viewfsm.StateID
	retry   viewfsm.EventID
	healthy viewfsm.StateID

	mu       sync.Mutex
	backoff  backoff.BackOff
	attempts int
	stopped  bool
}

// RetryOnError attaches a Retrier to ctrl. Entering errored schedules retry
// after b's next interval on the controller's scheduler; entering healthy
// resets b. When b returns backoff.Stop the machine is left in errored.
func RetryOnError(ctrl *viewfsm.Controller, errored viewfsm.StateID, retry viewfsm.EventID, healthy viewfsm.StateID, b backoff.BackOff) *Retrier {
	r := &Retrier{
		ctrl:    ctrl,
		errored: errored,
		retry:   retry,
		healthy: healthy,
		backoff: b,
	}
	ctrl.Machine().Observe(r.observe)
	return r
}

// Attempts returns how many retries have been scheduled since the last reset
func (r *Retrier) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Stop disables further retries. A retry already scheduled is cancelled if
// the controller is still in the error state.
func (r *Retrier) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	if r.ctrl.CurrentState() == r.errored {
		r.ctrl.Cancel()
	}
}

func (r *Retrier) observe(ch viewfsm.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}

	switch ch.To {
	case r.healthy:
		r.backoff.Reset()
		r.attempts = 0
	case r.errored:
		delay := r.backoff.NextBackOff()
		if delay == backoff.Stop {
			viewfsm.Logger.Warn("giving up retries", "controller", r.ctrl.ID(), "attempts", r.attempts)
			return
		}
		if r.ctrl.ScheduleEventIn(r.errored, delay, r.retry) {
			r.attempts++
		}
	}
}
