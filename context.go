package viewfsm

import (
	"log/slog"
	"time"
)

// Context is passed to enter handlers and provides access to FSM operations
type Context struct {
	FSM       *Machine
	Event     *Event  // Event that triggered the transition
	FromState StateID // State we're transitioning from
	ToState   StateID // State we're transitioning to
	Data      any     // User-provided application data
	Logger    *slog.Logger

	entry uint64
}

// CurrentState returns the current state
func (c *Context) CurrentState() StateID {
	return c.FSM.CurrentState()
}

// Payload returns the triggering event's payload, or nil
func (c *Context) Payload() any {
	if c.Event == nil {
		return nil
	}
	return c.Event.Payload
}

// Schedule arms the machine's scheduler, replacing any pending callback.
// Nothing is armed if the machine has already left the state this handler
// entered, and fn is skipped if it has left by the time the timer fires.
// Use ScheduleEvent when the callback only processes an event: its check
// and the transition are atomic.
// No-op when the machine has no scheduler.
func (c *Context) Schedule(delay time.Duration, fn func()) {
	m := c.FSM
	if m.scheduler == nil {
		c.Logger.Warn("schedule without a scheduler", "state", c.ToState)
		return
	}
	entry := c.entry
	m.whileInEntry(entry, func() {
		m.scheduler.Schedule(delay, func() {
			if m.inEntry(entry) {
				fn()
			}
		})
	})
}

// ScheduleEvent arms the scheduler to process event after delay. The event
// is dropped if the machine has left the state this handler entered.
func (c *Context) ScheduleEvent(delay time.Duration, event EventID) {
	m := c.FSM
	if m.scheduler == nil {
		c.Logger.Warn("schedule without a scheduler", "state", c.ToState)
		return
	}
	m.whileInEntry(c.entry, func() {
		m.scheduleEventLocked(c.entry, delay, event)
	})
}

// CancelTimer cancels the pending scheduler callback, if any. A handler whose
// state has already been left cancels nothing.
func (c *Context) CancelTimer() {
	m := c.FSM
	if m.scheduler != nil {
		m.whileInEntry(c.entry, m.scheduler.Cancel)
	}
}

// Process dispatches a nested event synchronously
func (c *Context) Process(id EventID, payload any) (*Change, error) {
	return c.FSM.ProcessEvent(id, payload)
}

// Publish dispatches an event on the owning element, if one is attached
func (c *Context) Publish(name string, detail any) {
	if c.FSM.publisher != nil {
		c.FSM.publisher.DispatchEvent(name, detail)
	}
}
