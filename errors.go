package viewfsm

import "errors"

// Configuration errors, surfaced by Definition.Validate and Build
var (
	ErrInvalidDefinition     = errors.New("invalid definition")
	ErrNoInitialState        = errors.New("no initial state defined")
	ErrUndefinedState        = errors.New("undefined state")
	ErrConflictingTransition = errors.New("conflicting transition")
	ErrInvalidTimeout        = errors.New("invalid state timeout")
)

// Runtime errors
var (
	ErrHandlerFailed = errors.New("enter handler failed")
	ErrClosed        = errors.New("controller closed")
)
