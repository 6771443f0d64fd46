// Package presets holds ready-made definitions for the visibility machines
// a system UI needs: the generic two-sided reversible transition, the
// attention toaster and the sync indicator.
package presets

import "github.com/librescoot/viewfsm"

// States of the generic reversible machine
const (
	Uninitialized    viewfsm.StateID = "uninitialized"
	StableA          viewfsm.StateID = "stable_a"
	TransitioningToB viewfsm.StateID = "transitioning_to_b"
	StableB          viewfsm.StateID = "stable_b"
	TransitioningToA viewfsm.StateID = "transitioning_to_a"
	Error            viewfsm.StateID = "error"
)

// Events of the generic reversible machine
const (
	Init     viewfsm.EventID = "init"
	RequestB viewfsm.EventID = "request_b"
	RequestA viewfsm.EventID = "request_a"
	Complete viewfsm.EventID = "complete"
	Abort    viewfsm.EventID = "abort"
	Fail     viewfsm.EventID = "fail"
	Recover  viewfsm.EventID = "recover"
)

// NewReversible returns the definition of the generic machine: two stable
// sides, a transitioning state towards each, interrupt-and-reverse on abort,
// and a recoverable error state.
func NewReversible(opts ...ReversibleOption) *viewfsm.Definition {
	cfg := reversibleConfig{states: map[viewfsm.StateID][]viewfsm.StateOption{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	def := viewfsm.NewDefinition()
	for _, id := range []viewfsm.StateID{Uninitialized, StableA, TransitioningToB, StableB, TransitioningToA, Error} {
		def.State(id, cfg.states[id]...)
	}

	return def.
		Transition(Uninitialized, Init, StableA).
		Transition(StableA, RequestB, TransitioningToB).
		Transition(TransitioningToB, Complete, StableB).
		Transition(StableB, RequestA, TransitioningToA).
		Transition(TransitioningToA, Complete, StableA).
		Transition(TransitioningToB, Abort, TransitioningToA).
		TransitionFrom([]viewfsm.StateID{TransitioningToB, TransitioningToA}, Fail, Error).
		Transition(Error, Recover, StableA).
		Initial(Uninitialized)
}

type reversibleConfig struct {
	states map[viewfsm.StateID][]viewfsm.StateOption
}

// ReversibleOption customises a state of the reversible machine
type ReversibleOption func(*reversibleConfig)

// WithStateOptions applies opts to state id
func WithStateOptions(id viewfsm.StateID, opts ...viewfsm.StateOption) ReversibleOption {
	return func(c *reversibleConfig) {
		c.states[id] = append(c.states[id], opts...)
	}
}
