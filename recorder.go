package viewfsm

// Recorder receives counters about machine and scheduler activity.
// The metrics package provides a Prometheus implementation.
type Recorder interface {
	Transition(from, to StateID, event EventID)
	Ignored(state StateID, event EventID)
	HandlerError(state StateID)
	TimerArmed()
	TimerFired()
	TimerCancelled()
}

type nopRecorder struct{}

func (nopRecorder) Transition(StateID, StateID, EventID) {}
func (nopRecorder) Ignored(StateID, EventID) {}
func (nopRecorder) HandlerError(StateID) {}
func (nopRecorder) TimerArmed() {}
func (nopRecorder) TimerFired() {}
func (nopRecorder) TimerCancelled() {}
