package presets

import (
	"time"

	"github.com/librescoot/viewfsm"
)

// Attention toaster states
const (
	ToastUninit  viewfsm.StateID = "uninit"
	ToastClosed  viewfsm.StateID = "closed"
	ToastOpening viewfsm.StateID = "opening"
	ToastOpened  viewfsm.StateID = "opened"
	ToastClosing viewfsm.StateID = "closing"
)

// Attention toaster events
const (
	ToastInit     viewfsm.EventID = "init"
	ToastOpen     viewfsm.EventID = "open"
	ToastClose    viewfsm.EventID = "close"
	ToastComplete viewfsm.EventID = "complete"
	ToastDismiss  viewfsm.EventID = "dismiss"
)

// ToasterTimings configures the toaster's timers
type ToasterTimings struct {
	// Transition completes opening/closing if no transitionend arrives first
	Transition time.Duration
	// Display closes an opened toaster automatically; zero keeps it open
	Display time.Duration
}

// DefaultToasterTimings match a 300ms CSS transition and a 5s display
var DefaultToasterTimings = ToasterTimings{
	Transition: 300 * time.Millisecond,
	Display:    5 * time.Second,
}

// ToasterBindings maps the toaster element's events to machine events
var ToasterBindings = viewfsm.Bindings{
	"transitionend":  ToastComplete,
	"attention-show": ToastOpen,
	"attention-hide": ToastClose,
	"click":          ToastClose,
}

// NewToaster returns the attention toaster definition. A close request while
// opening reverses into closing, and an open request while closing reverses
// into opening.
func NewToaster(timings ToasterTimings) *viewfsm.Definition {
	var transitionOpts, openedOpts []viewfsm.StateOption
	if timings.Transition > 0 {
		transitionOpts = append(transitionOpts, viewfsm.WithTimeout(timings.Transition, ToastComplete))
	}
	if timings.Display > 0 {
		openedOpts = append(openedOpts, viewfsm.WithTimeout(timings.Display, ToastDismiss))
	}

	return viewfsm.NewDefinition().
		State(ToastUninit).
		State(ToastClosed).
		State(ToastOpening, transitionOpts...).
		State(ToastOpened, openedOpts...).
		State(ToastClosing, transitionOpts...).
		Transition(ToastUninit, ToastInit, ToastClosed).
		Transition(ToastClosed, ToastOpen, ToastOpening).
		Transition(ToastOpening, ToastComplete, ToastOpened).
		Transition(ToastOpening, ToastClose, ToastClosing).
		Transition(ToastOpened, ToastClose, ToastClosing).
		Transition(ToastOpened, ToastDismiss, ToastClosing).
		Transition(ToastClosing, ToastComplete, ToastClosed).
		Transition(ToastClosing, ToastOpen, ToastOpening).
		Initial(ToastUninit)
}
