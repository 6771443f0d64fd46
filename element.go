package viewfsm

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Target is an event surface the EventRouter can bind to
type Target interface {
	// AddEventListener registers fn for events named name and returns a
	// function that removes that registration.
	AddEventListener(name string, fn func(detail any)) (remove func())
}

// Element is an in-process event target standing in for a visual element.
// Listeners run synchronously, in registration order, on the goroutine that
// dispatched the event.
type Element struct {
	name string

	mu        sync.RWMutex
	listeners map[string]map[uint64]*listener
	nextID    uint64
}

type listener struct {
	fn      func(detail any)
	removed atomic.Bool
}

// NewElement creates an element with the given name
func NewElement(name string) *Element {
	return &Element{
		name:      name,
		listeners: make(map[string]map[uint64]*listener),
	}
}

// Name returns the element's name
func (e *Element) Name() string {
	return e.name
}

// AddEventListener implements Target
func (e *Element) AddEventListener(name string, fn func(detail any)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	if e.listeners[name] == nil {
		e.listeners[name] = make(map[uint64]*listener)
	}
	l := &listener{fn: fn}
	e.listeners[name][id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			l.removed.Store(true)
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.listeners[name], id)
			if len(e.listeners[name]) == 0 {
				delete(e.listeners, name)
			}
		})
	}
}

// DispatchEvent invokes every listener registered for name and returns how
// many ran. Listeners added during dispatch wait for the next dispatch;
// listeners removed during dispatch are skipped if they have not run yet.
func (e *Element) DispatchEvent(name string, detail any) int {
	e.mu.RLock()
	ids := make([]uint64, 0, len(e.listeners[name]))
	for id := range e.listeners[name] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ls := make([]*listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, e.listeners[name][id])
	}
	e.mu.RUnlock()

	ran := 0
	for _, l := range ls {
		if l.removed.Load() {
			continue
		}
		l.fn(detail)
		ran++
	}
	return ran
}

// ListenerCount returns the number of listeners registered for name
func (e *Element) ListenerCount(name string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[name])
}
