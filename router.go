package viewfsm

import (
	"log/slog"
	"sync"
)

// Dispatcher is what the EventRouter feeds translated events into.
// Both Machine and Controller implement it.
type Dispatcher interface {
	ProcessEvent(id EventID, payload any) (*Change, error)
}

// Bindings maps element event names to abstract machine events
type Bindings map[string]EventID

// EventRouter bridges element events to a Dispatcher. Every listener added by
// Bind is removed by a single Unbind.
type EventRouter struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	onError    func(name string, event EventID, err error)

	mu      sync.Mutex
	removes []func()
}

// RouterOption is a functional option for configuring an EventRouter
type RouterOption func(*EventRouter)

// WithRouterLogger sets the router's logger
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *EventRouter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithErrorHandler sets a callback for handler errors raised while
// dispatching a bound event. Errors are always logged.
func WithErrorHandler(fn func(name string, event EventID, err error)) RouterOption {
	return func(r *EventRouter) {
		r.onError = fn
	}
}

// NewEventRouter creates a router feeding d
func NewEventRouter(d Dispatcher, opts ...RouterOption) *EventRouter {
	r := &EventRouter{
		dispatcher: d,
		logger:     Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind registers one listener on target per mapping key. Each listener
// translates the element event into ProcessEvent(mapping[key], detail),
// synchronously. Bind may be called several times; registrations accumulate.
func (r *EventRouter) Bind(target Target, mapping Bindings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, event := range mapping {
		name, event := name, event
		remove := target.AddEventListener(name, func(detail any) {
			r.route(name, event, detail)
		})
		r.removes = append(r.removes, remove)
		r.logger.Debug("bound event", "name", name, "event", event)
	}
}

// Unbind removes every listener added by Bind. Safe to call when nothing is
// bound, and more than once.
func (r *EventRouter) Unbind() {
	r.mu.Lock()
	removes := r.removes
	r.removes = nil
	r.mu.Unlock()

	for _, remove := range removes {
		remove()
	}
	if len(removes) > 0 {
		r.logger.Debug("unbound events", "count", len(removes))
	}
}

// Bound returns the number of live listener registrations
func (r *EventRouter) Bound() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.removes)
}

func (r *EventRouter) route(name string, event EventID, detail any) {
	if _, err := r.dispatcher.ProcessEvent(event, detail); err != nil {
		r.logger.Error("routed event failed", "name", name, "event", event, "error", err)
		if r.onError != nil {
			r.onError(name, event, err)
		}
	}
}
