package viewfsm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementDispatch(t *testing.T) {
	el := NewElement("toaster")
	var got []any

	remove := el.AddEventListener("resize", func(detail any) { got = append(got, detail) })
	el.AddEventListener("resize", func(detail any) { got = append(got, "second") })

	assert.Equal(t, 2, el.DispatchEvent("resize", 42))
	assert.Equal(t, []any{42, "second"}, got)
	assert.Equal(t, 0, el.DispatchEvent("other", nil))

	remove()
	remove()
	assert.Equal(t, 1, el.ListenerCount("resize"))
	assert.Equal(t, "toaster", el.Name())
}

func TestElementRemoveDuringDispatch(t *testing.T) {
	el := NewElement("el")
	calls := 0
	var removeSecond func()

	el.AddEventListener("tap", func(any) {
		calls++
		removeSecond()
	})
	removeSecond = el.AddEventListener("tap", func(any) { calls++ })

	assert.Equal(t, 1, el.DispatchEvent("tap", nil))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, el.DispatchEvent("tap", nil))
	assert.Equal(t, 2, calls)
}

func TestRouterUnbindDuringDispatch(t *testing.T) {
	m, err := basicDefinition().Build()
	require.NoError(t, err)
	entered := 0
	require.NoError(t, m.OnEnterState(stateB, func(*Context) error {
		entered++
		return nil
	}))

	el := NewElement("el")
	r := NewEventRouter(m)
	el.AddEventListener("open", func(any) { r.Unbind() })
	r.Bind(el, Bindings{"open": evGo})

	assert.Equal(t, 1, el.DispatchEvent("open", nil))
	assert.Zero(t, entered)
	assert.Equal(t, stateA, m.CurrentState())
}

func TestRouterBindTranslatesEvents(t *testing.T) {
	m, err := basicDefinition().Build()
	require.NoError(t, err)

	var payload any
	require.NoError(t, m.OnEnterState(stateB, func(c *Context) error {
		payload = c.Payload()
		return nil
	}))

	el := NewElement("el")
	r := NewEventRouter(m)
	r.Bind(el, Bindings{
		"transitionend": evGo,
		"keyboardhide":  evBack,
	})
	assert.Equal(t, 2, r.Bound())

	el.DispatchEvent("transitionend", map[string]string{"reason": "tap"})
	assert.Equal(t, stateB, m.CurrentState())
	assert.Equal(t, map[string]string{"reason": "tap"}, payload)

	el.DispatchEvent("keyboardhide", nil)
	assert.Equal(t, stateA, m.CurrentState())
}

func TestRouterUnbindRemovesAllListeners(t *testing.T) {
	m, err := basicDefinition().Build()
	require.NoError(t, err)
	entered := 0
	require.NoError(t, m.OnEnterState(stateB, func(*Context) error {
		entered++
		return nil
	}))

	el := NewElement("el")
	other := NewElement("other")
	r := NewEventRouter(m)
	r.Bind(el, Bindings{"open": evGo, "close": evBack})
	r.Bind(other, Bindings{"open": evGo})

	r.Unbind()
	assert.Zero(t, r.Bound())
	assert.Zero(t, el.ListenerCount("open"))
	assert.Zero(t, el.ListenerCount("close"))
	assert.Zero(t, other.ListenerCount("open"))

	assert.Zero(t, el.DispatchEvent("open", nil))
	other.DispatchEvent("open", nil)
	assert.Zero(t, entered)
	assert.Equal(t, stateA, m.CurrentState())
}

func TestRouterUnbindWithoutBind(t *testing.T) {
	m, err := basicDefinition().Build()
	require.NoError(t, err)
	r := NewEventRouter(m)

	assert.NotPanics(t, func() {
		r.Unbind()
		r.Unbind()
	})
}

func TestRouterReportsHandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	def := basicDefinition()
	def.State(stateB, WithOnEnter(func(*Context) error { return boom }))
	m, err := def.Build()
	require.NoError(t, err)

	var gotName string
	var gotErr error
	el := NewElement("el")
	r := NewEventRouter(m, WithErrorHandler(func(name string, _ EventID, err error) {
		gotName = name
		gotErr = err
	}))
	r.Bind(el, Bindings{"open": evGo})

	el.DispatchEvent("open", nil)
	assert.Equal(t, "open", gotName)
	assert.ErrorIs(t, gotErr, boom)
	assert.Equal(t, stateB, m.CurrentState())
}
