package presets

import "github.com/librescoot/viewfsm"

// Sync indicator states
const (
	SyncDisabled  viewfsm.StateID = "disabled"
	SyncEnabling  viewfsm.StateID = "enabling"
	SyncEnabled   viewfsm.StateID = "enabled"
	SyncSyncing   viewfsm.StateID = "syncing"
	SyncErrored   viewfsm.StateID = "errored"
	SyncDisabling viewfsm.StateID = "disabling"
)

// Sync indicator events
const (
	SyncEnable  viewfsm.EventID = "enable"
	SyncDisable viewfsm.EventID = "disable"
	SyncStart   viewfsm.EventID = "sync"
	SyncSuccess viewfsm.EventID = "success"
	SyncError   viewfsm.EventID = "error"
)

// NewSync returns the sync indicator definition. Several events land on
// enabled and errored from different states; handlers tell them apart
// through Context.FromState and Context.Event.
func NewSync() *viewfsm.Definition {
	pending := []viewfsm.StateID{SyncEnabling, SyncSyncing}

	return viewfsm.NewDefinition().
		State(SyncDisabled).
		State(SyncEnabling).
		State(SyncEnabled).
		State(SyncSyncing).
		State(SyncErrored).
		State(SyncDisabling).
		Transition(SyncDisabled, SyncEnable, SyncEnabling).
		Transition(SyncErrored, SyncEnable, SyncEnabling).
		TransitionFrom(pending, SyncSuccess, SyncEnabled).
		TransitionFrom(pending, SyncError, SyncErrored).
		Transition(SyncEnabled, SyncStart, SyncSyncing).
		TransitionFrom([]viewfsm.StateID{SyncEnabling, SyncEnabled, SyncSyncing, SyncErrored}, SyncDisable, SyncDisabling).
		Transition(SyncDisabling, SyncSuccess, SyncDisabled).
		Initial(SyncDisabled)
}
