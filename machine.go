package viewfsm

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Machine is the runtime FSM instance. It is pure transition logic: it owns
// no timers and subscribes to nothing.
//
// Every landed transition starts a new entry, numbered under the machine
// lock. Timers armed through a Context or a Controller belong to the entry
// that armed them and are dropped once the machine has left it.
type Machine struct {
	definition   *Definition
	table        table
	currentState StateID
	entry        uint64
	handlers     map[StateID]Handler
	observers    []Observer
	enterHooks   []enterHook
	mu           sync.RWMutex

	data      any
	logger    *slog.Logger
	recorder  Recorder
	scheduler *Scheduler
	publisher Publisher
}

// enterHook runs under the machine lock right after a transition lands
type enterHook func(ch Change, entry uint64)

// Publisher is the outward surface enter handlers publish events on
type Publisher interface {
	DispatchEvent(name string, detail any) int
}

// MachineOption is a functional option for configuring a Machine
type MachineOption func(*Machine)

// WithLogger sets the logger for the machine
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithData sets the application data accessible via Context
func WithData(data any) MachineOption {
	return func(m *Machine) {
		m.data = data
	}
}

// WithRecorder sets the recorder that counts transitions and ignored events
func WithRecorder(r Recorder) MachineOption {
	return func(m *Machine) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithScheduler makes Context.Schedule and Context.CancelTimer use s
func WithScheduler(s *Scheduler) MachineOption {
	return func(m *Machine) {
		m.scheduler = s
	}
}

// WithPublisher makes Context.Publish dispatch on p
func WithPublisher(p Publisher) MachineOption {
	return func(m *Machine) {
		m.publisher = p
	}
}

// WithStateChangeCallback adds an observer invoked after each landed transition
func WithStateChangeCallback(fn Observer) MachineOption {
	return func(m *Machine) {
		m.observers = append(m.observers, fn)
	}
}

// Observe adds an observer. Observers run in registration order after the
// state mutation and before the enter handler.
func (m *Machine) Observe(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Machine) addEnterHook(fn enterHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enterHooks = append(m.enterHooks, fn)
}

// OnEnterState registers the enter handler for a state, replacing any
// previously registered handler. A nil handler removes it.
func (m *Machine) OnEnterState(state StateID, handler Handler) error {
	if _, ok := m.state(state); !ok {
		return fmt.Errorf("%w: %q", ErrUndefinedState, state)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if handler == nil {
		delete(m.handlers, state)
		return nil
	}
	m.handlers[state] = handler
	return nil
}

// CurrentState returns the current state
func (m *Machine) CurrentState() StateID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

// Is checks if the given state is the current state
func (m *Machine) Is(id StateID) bool {
	return m.CurrentState() == id
}

// Definition returns a copy of the definition the machine was built from.
// Changing the copy does not affect the machine.
func (m *Machine) Definition() *Definition {
	return m.definition.clone()
}

// state returns the declaration of id as it was at Build
func (m *Machine) state(id StateID) (State, bool) {
	s, ok := m.definition.states[id]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// Can reports whether event would move the machine out of its current state
func (m *Machine) Can(event EventID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	to, ok := m.table.lookup(m.currentState, event)
	return ok && to != m.currentState
}

// ProcessEvent looks up (current state, event) in the transition table.
//
// An absent entry or a self transition returns a nil Change and no error.
// Otherwise the state is updated, observers run, and the target state's
// enter handler runs before ProcessEvent returns. A handler error is
// returned together with the Change; the machine stays in the new state.
func (m *Machine) ProcessEvent(id EventID, payload any) (*Change, error) {
	return m.process(id, payload, nil)
}

// processInEntry processes id only while the machine is still in the given
// entry. The check and the transition happen under one lock acquisition.
func (m *Machine) processInEntry(entry uint64, id EventID, payload any) (*Change, error) {
	return m.process(id, payload, &entry)
}

func (m *Machine) process(id EventID, payload any, expect *uint64) (*Change, error) {
	m.mu.Lock()
	from := m.currentState
	if expect != nil && *expect != m.entry {
		m.mu.Unlock()
		m.logger.Debug("stale timer event dropped", "event", id, "state", from)
		return nil, nil
	}

	to, ok := m.table.lookup(from, id)
	if !ok || to == from {
		m.mu.Unlock()
		m.logger.Debug("no transition", "event", id, "state", from)
		m.recorder.Ignored(from, id)
		return nil, nil
	}

	change := &Change{From: from, To: to, Event: id}
	m.currentState = to
	m.entry++
	entry := m.entry
	for _, hook := range m.enterHooks {
		hook(*change, entry)
	}
	handler := m.handlers[to]
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	m.logger.Debug("transition", "from", from, "to", to, "event", id)
	m.recorder.Transition(from, to, id)

	for _, fn := range observers {
		fn(*change)
	}

	if handler == nil {
		return change, nil
	}

	ctx := m.makeContext(&Event{ID: id, Payload: payload})
	ctx.FromState = from
	ctx.ToState = to
	ctx.entry = entry
	if err := handler(ctx); err != nil {
		m.recorder.HandlerError(to)
		m.logger.Debug("enter handler failed", "state", to, "event", id, "error", err)
		return change, fmt.Errorf("%w for %q: %w", ErrHandlerFailed, to, err)
	}

	return change, nil
}

// inEntry reports whether the machine is still in the given entry
func (m *Machine) inEntry(entry uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entry == entry
}

// whileInEntry runs fn under the machine lock if the machine is still in the
// given entry. fn must not call back into the machine.
func (m *Machine) whileInEntry(entry uint64, fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entry != entry {
		return false
	}
	fn()
	return true
}

// whileInState is whileInEntry for whatever entry the machine is in, provided
// its current state is state.
func (m *Machine) whileInState(state StateID, fn func(entry uint64)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentState != state {
		return false
	}
	fn(m.entry)
	return true
}

// abandonEntry starts a new entry in the same state, so every timer armed
// for the current entry is dropped when it fires
func (m *Machine) abandonEntry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry++
}

// scheduleEventLocked arms event on the scheduler for entry. The caller
// holds m.mu.
func (m *Machine) scheduleEventLocked(entry uint64, delay time.Duration, event EventID) {
	m.scheduler.Schedule(delay, func() {
		if _, err := m.processInEntry(entry, event, nil); err != nil {
			m.logger.Error("scheduled event failed", "event", event, "error", err)
		}
	})
}

// makeContext creates a context for callbacks
func (m *Machine) makeContext(event *Event) *Context {
	return &Context{
		FSM:    m,
		Event:  event,
		Data:   m.data,
		Logger: m.logger,
	}
}
