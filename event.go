package viewfsm

// Event carries data through the state machine
type Event struct {
	ID      EventID
	Payload any // Optional payload, e.g. a height for resize or a reason for close
}

// EventStateChanged is the element event dispatched by a Controller after
// every landed transition
const EventStateChanged = "statechanged"

// StateChanged is the detail of an EventStateChanged element event
type StateChanged struct {
	Controller string
	Change
}
