package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librescoot/viewfsm"
)

func TestLoadYAML(t *testing.T) {
	f, err := Load("testdata/reversible.yaml")
	require.NoError(t, err)

	assert.Equal(t, "reversible", f.Name)
	assert.Equal(t, "uninitialized", f.Initial)
	require.Len(t, f.States, 6)
	assert.Equal(t, StateSpec{ID: "uninitialized"}, f.States[0])
	assert.Equal(t, StateSpec{ID: "transitioning_to_b", Timeout: 500 * time.Millisecond, TimeoutEvent: "complete"}, f.States[2])
	assert.Equal(t, []string{"uninitialized"}, f.Transitions[0].From)
	assert.Equal(t, []string{"transitioning_to_b", "transitioning_to_a"}, f.Transitions[6].From)

	def, err := f.Definition()
	require.NoError(t, err)

	m, err := def.Build()
	require.NoError(t, err)
	for _, ev := range []viewfsm.EventID{"init", "request_b", "fail", "request_b", "recover"} {
		_, err := m.ProcessEvent(ev, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, viewfsm.StateID("stable_a"), m.CurrentState())

	b, err := f.EventBindings()
	require.NoError(t, err)
	assert.Equal(t, viewfsm.Bindings{
		"transitionend": "complete",
		"show":          "request_b",
		"hide":          "request_a",
	}, b)
}

func TestLoadTOML(t *testing.T) {
	f, err := Load("testdata/toaster.toml")
	require.NoError(t, err)

	assert.Equal(t, "toaster", f.Name)
	require.Len(t, f.States, 4)
	assert.Equal(t, StateSpec{ID: "opened", Timeout: 5 * time.Second, TimeoutEvent: "dismiss"}, f.States[3])
	assert.Equal(t, []string{"opening", "opened"}, f.Transitions[3].From)

	def, err := f.Definition()
	require.NoError(t, err)
	states := def.States()
	assert.Equal(t, 5*time.Second, states[3].Timeout)

	b, err := f.EventBindings()
	require.NoError(t, err)
	assert.Equal(t, viewfsm.EventID("close"), b["click"])
}

func TestLoadInvalidDefinition(t *testing.T) {
	f, err := Load("testdata/broken.yaml")
	require.NoError(t, err)
	assert.Equal(t, "broken", f.Name)

	_, err = f.Definition()
	assert.ErrorIs(t, err, viewfsm.ErrInvalidDefinition)
	assert.ErrorIs(t, err, viewfsm.ErrUndefinedState)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	assert.ErrorIs(t, err, ErrFailedToLoad)

	_, err = Load("testdata/reversible.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Parse([]byte("initial: [unclosed"), FormatYAML)
	assert.ErrorIs(t, err, ErrFailedToDecode)

	_, err = Parse([]byte("initial: a\nunknown_key: 1\n"), FormatYAML)
	assert.ErrorIs(t, err, ErrFailedToDecode)

	_, err = Parse([]byte("{}"), Format("json"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestBindingToUnknownEvent(t *testing.T) {
	f, err := Parse([]byte(`
initial: a
states: [a, b]
transitions:
  - {from: a, event: go, to: b}
bindings:
  click: stop
`), FormatYAML)
	require.NoError(t, err)

	_, err = f.EventBindings()
	assert.ErrorIs(t, err, viewfsm.ErrInvalidDefinition)
}

func TestIncompleteTransition(t *testing.T) {
	f, err := Parse([]byte(`
initial: a
states: [a]
transitions:
  - {from: a, event: go}
`), FormatYAML)
	require.NoError(t, err)

	_, err = f.Definition()
	assert.ErrorIs(t, err, viewfsm.ErrInvalidDefinition)
}

func TestTimeoutEventWithoutTimeout(t *testing.T) {
	f, err := Parse([]byte(`
initial: a
states:
  - a
  - {id: b, timeout_event: back}
transitions:
  - {from: a, event: go, to: b}
  - {from: b, event: back, to: a}
`), FormatYAML)
	require.NoError(t, err)

	_, err = f.Definition()
	assert.ErrorIs(t, err, viewfsm.ErrInvalidDefinition)
	assert.ErrorIs(t, err, viewfsm.ErrInvalidTimeout)
}
