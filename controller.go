package viewfsm

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Controller owns a Machine, a Scheduler and an EventRouter for one visual
// element, and tears all three down on Close.
type Controller struct {
	id        string
	machine   *Machine
	scheduler *Scheduler
	router    *EventRouter
	element   *Element
	logger    *slog.Logger
	closed    atomic.Bool
}

type controllerConfig struct {
	logger   *slog.Logger
	clock    clockwork.Clock
	recorder Recorder
	element  *Element
	data     any
	onError  func(name string, event EventID, err error)
	id       string
}

// ControllerOption is a functional option for configuring a Controller
type ControllerOption func(*controllerConfig)

// WithControllerLogger sets the logger shared by the machine, scheduler and router
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *controllerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithControllerClock sets the scheduler's time source
func WithControllerClock(clock clockwork.Clock) ControllerOption {
	return func(c *controllerConfig) {
		c.clock = clock
	}
}

// WithControllerRecorder sets the recorder for the machine and scheduler
func WithControllerRecorder(r Recorder) ControllerOption {
	return func(c *controllerConfig) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithElement attaches the owning element. Every landed transition is
// published on it as an EventStateChanged event, and Context.Publish
// dispatches on it.
func WithElement(el *Element) ControllerOption {
	return func(c *controllerConfig) {
		c.element = el
	}
}

// WithControllerData sets the application data accessible via Context
func WithControllerData(data any) ControllerOption {
	return func(c *controllerConfig) {
		c.data = data
	}
}

// WithRouteErrorHandler is passed through to the router, see WithErrorHandler
func WithRouteErrorHandler(fn func(name string, event EventID, err error)) ControllerOption {
	return func(c *controllerConfig) {
		c.onError = fn
	}
}

// WithControllerID overrides the generated controller ID
func WithControllerID(id string) ControllerOption {
	return func(c *controllerConfig) {
		c.id = id
	}
}

// NewController builds a machine from def and wires it to a fresh scheduler
// and router. Configuration errors in def are returned here.
func NewController(def *Definition, opts ...ControllerOption) (*Controller, error) {
	cfg := &controllerConfig{
		logger:   Logger,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	logger := cfg.logger.With("controller", cfg.id)

	scheduler := NewScheduler(
		WithClock(cfg.clock),
		WithSchedulerLogger(logger),
		WithSchedulerRecorder(cfg.recorder),
	)

	machineOpts := []MachineOption{
		WithLogger(logger),
		WithRecorder(cfg.recorder),
		WithScheduler(scheduler),
		WithData(cfg.data),
	}
	if cfg.element != nil {
		machineOpts = append(machineOpts, WithPublisher(cfg.element))
	}

	m, err := def.Build(machineOpts...)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		id:        cfg.id,
		machine:   m,
		scheduler: scheduler,
		element:   cfg.element,
		logger:    logger,
	}
	c.router = NewEventRouter(c,
		WithRouterLogger(logger),
		WithErrorHandler(cfg.onError),
	)
	m.addEnterHook(c.armTimeouts)
	m.Observe(c.publish)

	return c, nil
}

// ID returns the controller's unique ID
func (c *Controller) ID() string {
	return c.id
}

// Machine returns the underlying state machine
func (c *Controller) Machine() *Machine {
	return c.machine
}

// Scheduler returns the controller's scheduler
func (c *Controller) Scheduler() *Scheduler {
	return c.scheduler
}

// Element returns the owning element, or nil
func (c *Controller) Element() *Element {
	return c.element
}

// CurrentState returns the machine's current state
func (c *Controller) CurrentState() StateID {
	return c.machine.CurrentState()
}

// ProcessEvent feeds an event to the machine. After Close it returns ErrClosed.
func (c *Controller) ProcessEvent(id EventID, payload any) (*Change, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("%w: event %q", ErrClosed, id)
	}
	return c.machine.ProcessEvent(id, payload)
}

// OnEnterState registers or replaces the enter handler for state
func (c *Controller) OnEnterState(state StateID, handler Handler) error {
	return c.machine.OnEnterState(state, handler)
}

// Schedule arms the controller's scheduler, replacing any pending callback.
// fn runs whatever state the machine is in by then; see ScheduleEventIn for
// a timer tied to one visit of a state.
func (c *Controller) Schedule(delay time.Duration, fn func()) {
	if c.closed.Load() {
		return
	}
	c.scheduler.Schedule(delay, fn)
}

// ScheduleEventIn arms event for the machine's current visit to state,
// replacing any pending callback. Nothing is armed if the machine is not in
// state, and the event is dropped if the machine has left that visit by the
// time the timer fires. It reports whether a timer was armed.
func (c *Controller) ScheduleEventIn(state StateID, delay time.Duration, event EventID) bool {
	if c.closed.Load() {
		return false
	}
	return c.machine.whileInState(state, func(entry uint64) {
		c.machine.scheduleEventLocked(entry, delay, event)
	})
}

// Cancel cancels the pending scheduler callback
func (c *Controller) Cancel() {
	c.scheduler.Cancel()
}

// Bind routes element events on target to machine events
func (c *Controller) Bind(target Target, mapping Bindings) {
	if c.closed.Load() {
		return
	}
	c.router.Bind(target, mapping)
}

// Unbind removes every listener added by Bind
func (c *Controller) Unbind() {
	c.router.Unbind()
}

// Close cancels the pending timer and removes all listeners. It is idempotent.
func (c *Controller) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.machine.abandonEntry()
	c.scheduler.Cancel()
	c.router.Unbind()
	c.logger.Debug("controller closed", "state", c.machine.CurrentState())
	return nil
}

// armTimeouts runs under the machine lock as each transition lands: it drops
// the old state's declarative timeout and arms the new one for this entry.
func (c *Controller) armTimeouts(ch Change, entry uint64) {
	if from, ok := c.machine.state(ch.From); ok && from.Timeout > 0 {
		c.scheduler.Cancel()
	}
	if to, ok := c.machine.state(ch.To); ok && to.Timeout > 0 {
		c.machine.scheduleEventLocked(entry, to.Timeout, to.TimeoutEvent)
	}
}

// publish dispatches the change on the owning element
func (c *Controller) publish(ch Change) {
	if c.element != nil {
		c.element.DispatchEvent(EventStateChanged, StateChanged{Controller: c.id, Change: ch})
	}
}
