package viewfsm

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler owns at most one pending delayed callback. Arming a new callback
// always cancels the previous one first. A superseded or cancelled callback
// does not run if its timer fires later; one that has already started is
// past the scheduler's reach, so machine timers also carry the entry that
// armed them and are dropped under the machine lock once it is left.
type Scheduler struct {
	clock    clockwork.Clock
	logger   *slog.Logger
	recorder Recorder

	mu    sync.Mutex
	timer clockwork.Timer
	gen   uint64
}

// SchedulerOption is a functional option for configuring a Scheduler
type SchedulerOption func(*Scheduler)

// WithClock sets the time source. Tests pass a clockwork fake clock.
func WithClock(c clockwork.Clock) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSchedulerLogger sets the scheduler's logger
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchedulerRecorder sets the recorder counting armed, fired and cancelled timers
func WithSchedulerRecorder(r Recorder) SchedulerOption {
	return func(s *Scheduler) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewScheduler creates a Scheduler on the real clock unless WithClock is given
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:    clockwork.NewRealClock(),
		logger:   Logger,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule cancels any pending callback, then arms fn to run after delay.
// fn runs on the clock's goroutine.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen

	s.timer = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.gen != gen || s.timer == nil {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()

		s.logger.Debug("timer fired", "delay", delay)
		s.recorder.TimerFired()
		fn()
	})

	s.recorder.TimerArmed()
	s.logger.Debug("timer started", "delay", delay)
}

// Cancel cancels the pending callback. Safe to call with nothing pending.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Pending reports whether a callback is armed
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) stopLocked() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.gen++
	s.recorder.TimerCancelled()
	s.logger.Debug("timer stopped")
}
