package viewfsm

import "log/slog"

// StateID is a unique identifier for a state
type StateID string

// EventID is a unique identifier for an event type
type EventID string

// Change describes a transition that landed on a new state
type Change struct {
	From  StateID
	To    StateID
	Event EventID
}

// Handler is an enter-state callback. It runs synchronously on the goroutine
// that delivered the triggering event, after the state has been updated.
type Handler func(ctx *Context) error

// Observer is notified of every landed transition before the enter handler runs
type Observer func(Change)

// Logger is the default logger used when none is provided
var Logger = slog.Default()
