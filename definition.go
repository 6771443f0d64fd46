package viewfsm

import (
	"fmt"
)

// Definition holds the FSM structure before building a Machine
type Definition struct {
	states      map[StateID]*State
	order       []StateID
	transitions []Transition
	initial     StateID
}

// NewDefinition creates a new FSM definition builder
func NewDefinition() *Definition {
	return &Definition{
		states:      make(map[StateID]*State),
		transitions: make([]Transition, 0),
	}
}

// State adds a state to the definition. Declaring the same ID twice replaces
// the earlier declaration.
func (d *Definition) State(id StateID, opts ...StateOption) *Definition {
	s := &State{ID: id}
	for _, opt := range opts {
		opt(s)
	}
	if _, ok := d.states[id]; !ok {
		d.order = append(d.order, id)
	}
	d.states[id] = s
	return d
}

// Transition adds a transition rule
func (d *Definition) Transition(from StateID, event EventID, to StateID) *Definition {
	d.transitions = append(d.transitions, Transition{
		From:  from,
		Event: event,
		To:    to,
	})
	return d
}

// TransitionFrom adds the same event/target rule for several source states
func (d *Definition) TransitionFrom(froms []StateID, event EventID, to StateID) *Definition {
	for _, from := range froms {
		d.Transition(from, event, to)
	}
	return d
}

// AnyStateTransition adds a transition that can fire from any state.
// A rule for the exact current state takes precedence.
func (d *Definition) AnyStateTransition(event EventID, to StateID) *Definition {
	return d.Transition(WildcardState, event, to)
}

// Initial sets the initial state
func (d *Definition) Initial(id StateID) *Definition {
	d.initial = id
	return d
}

// InitialState returns the configured initial state
func (d *Definition) InitialState() StateID {
	return d.initial
}

// States returns the declared states in declaration order
func (d *Definition) States() []State {
	out := make([]State, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *d.states[id])
	}
	return out
}

// Transitions returns a copy of the declared transition rules
func (d *Definition) Transitions() []Transition {
	out := make([]Transition, len(d.transitions))
	copy(out, d.transitions)
	return out
}

// HasState reports whether id was declared
func (d *Definition) HasState(id StateID) bool {
	_, ok := d.states[id]
	return ok
}

// Validate checks the definition for errors
func (d *Definition) Validate() error {
	if d.initial == "" {
		return ErrNoInitialState
	}

	if _, ok := d.states[d.initial]; !ok {
		return fmt.Errorf("%w: initial state %q", ErrUndefinedState, d.initial)
	}

	seen := make(map[tableKey]StateID, len(d.transitions))
	for _, t := range d.transitions {
		if t.From != WildcardState {
			if _, ok := d.states[t.From]; !ok {
				return fmt.Errorf("%w: transition from %q on %q", ErrUndefinedState, t.From, t.Event)
			}
		}
		if _, ok := d.states[t.To]; !ok {
			return fmt.Errorf("%w: transition to %q on %q", ErrUndefinedState, t.To, t.Event)
		}
		key := tableKey{t.From, t.Event}
		if prev, ok := seen[key]; ok && prev != t.To {
			return fmt.Errorf("%w: %q on %q targets both %q and %q", ErrConflictingTransition, t.From, t.Event, prev, t.To)
		}
		seen[key] = t.To
	}

	for _, id := range d.order {
		s := d.states[id]
		switch {
		case s.Timeout > 0 && s.TimeoutEvent == "":
			return fmt.Errorf("%w: state %q declares a timeout without an event", ErrInvalidTimeout, id)
		case s.Timeout < 0:
			return fmt.Errorf("%w: state %q declares a negative timeout", ErrInvalidTimeout, id)
		case s.Timeout == 0 && s.TimeoutEvent != "":
			return fmt.Errorf("%w: state %q declares timeout event %q without a positive timeout", ErrInvalidTimeout, id, s.TimeoutEvent)
		}
	}

	return nil
}

// Build creates a Machine from the definition. The machine starts in the
// initial state; its enter handler is not run (use an explicit event such as
// "init" out of an uninitialized state when entry work is needed).
func (d *Definition) Build(opts ...MachineOption) (*Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	// The machine keeps its own copy so later builder calls cannot reach it.
	snap := d.clone()

	t := make(table, len(snap.transitions))
	for _, tr := range snap.transitions {
		t[tableKey{tr.From, tr.Event}] = tr.To
	}

	handlers := make(map[StateID]Handler, len(snap.states))
	for id, s := range snap.states {
		if s.OnEnter != nil {
			handlers[id] = s.OnEnter
		}
	}

	m := &Machine{
		definition:   snap,
		table:        t,
		handlers:     handlers,
		currentState: snap.initial,
		logger:       Logger,
		recorder:     nopRecorder{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (d *Definition) clone() *Definition {
	c := &Definition{
		states:      make(map[StateID]*State, len(d.states)),
		order:       append([]StateID(nil), d.order...),
		transitions: append([]Transition(nil), d.transitions...),
		initial:     d.initial,
	}
	for id, s := range d.states {
		cp := *s
		c.states[id] = &cp
	}
	return c
}
