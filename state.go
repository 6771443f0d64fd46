package viewfsm

import "time"

// State defines a state in the machine
type State struct {
	ID StateID

	OnEnter Handler

	// Declarative timeout: scheduled on entry by a Controller, cancelled on exit
	Timeout      time.Duration
	TimeoutEvent EventID
}

// StateOption is a functional option for configuring a State
type StateOption func(*State)

// WithOnEnter sets the entry handler for the state
func WithOnEnter(fn Handler) StateOption {
	return func(s *State) {
		s.OnEnter = fn
	}
}

// WithTimeout sets a declarative timeout. When the state is entered through a
// Controller, event is processed after duration unless the state was left
// first.
func WithTimeout(duration time.Duration, event EventID) StateOption {
	return func(s *State) {
		s.Timeout = duration
		s.TimeoutEvent = event
	}
}
