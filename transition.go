package viewfsm

// Transition defines a state change rule
type Transition struct {
	From  StateID // Source state (or "*" for any-state)
	Event EventID // Triggering event
	To    StateID // Target state
}

// WildcardState matches any state in transition rules
const WildcardState StateID = "*"

type tableKey struct {
	from  StateID
	event EventID
}

// table is the immutable lookup structure built from a Definition
type table map[tableKey]StateID

func (t table) lookup(from StateID, event EventID) (StateID, bool) {
	if to, ok := t[tableKey{from, event}]; ok {
		return to, true
	}
	to, ok := t[tableKey{WildcardState, event}]
	return to, ok
}
