// Package metrics exports machine and scheduler activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/librescoot/viewfsm"
)

// Recorder implements viewfsm.Recorder with Prometheus counters
type Recorder struct {
	transitions   *prometheus.CounterVec
	ignored       *prometheus.CounterVec
	handlerErrors *prometheus.CounterVec
	timers        *prometheus.CounterVec
}

var _ viewfsm.Recorder = (*Recorder)(nil)

// New creates a Recorder and registers its collectors with reg. machine is
// attached as a constant label so several machines can share a registry.
func New(reg prometheus.Registerer, machine string) (*Recorder, error) {
	constLabels := prometheus.Labels{"machine": machine}

	r := &Recorder{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "viewfsm_transitions_total",
				Help:        "Total number of landed transitions",
				ConstLabels: constLabels,
			},
			[]string{"from", "to", "event"},
		),
		ignored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "viewfsm_ignored_events_total",
				Help:        "Events with no transition from the current state",
				ConstLabels: constLabels,
			},
			[]string{"state", "event"},
		),
		handlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "viewfsm_handler_errors_total",
				Help:        "Enter handlers that returned an error",
				ConstLabels: constLabels,
			},
			[]string{"state"},
		),
		timers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "viewfsm_timer_operations_total",
				Help:        "Scheduler timers by outcome",
				ConstLabels: constLabels,
			},
			[]string{"op"},
		),
	}

	for _, c := range []prometheus.Collector{r.transitions, r.ignored, r.handlerErrors, r.timers} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Transition counts a landed transition
func (r *Recorder) Transition(from, to viewfsm.StateID, event viewfsm.EventID) {
	r.transitions.WithLabelValues(string(from), string(to), string(event)).Inc()
}

// Ignored counts an event that had no transition from state
func (r *Recorder) Ignored(state viewfsm.StateID, event viewfsm.EventID) {
	r.ignored.WithLabelValues(string(state), string(event)).Inc()
}

// HandlerError counts an enter handler that returned an error
func (r *Recorder) HandlerError(state viewfsm.StateID) {
	r.handlerErrors.WithLabelValues(string(state)).Inc()
}

// TimerArmed counts a scheduled timer
func (r *Recorder) TimerArmed() { r.timers.WithLabelValues("armed").Inc() }

// TimerFired counts a timer whose callback ran
func (r *Recorder) TimerFired() { r.timers.WithLabelValues("fired").Inc() }

// TimerCancelled counts a timer stopped before it fired
func (r *Recorder) TimerCancelled() { r.timers.WithLabelValues("cancelled").Inc() }
