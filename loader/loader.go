// Package loader reads machine definitions from YAML or TOML files.
//
// A file declares the states, the transition table and the element bindings:
//
//	name: toaster
//	initial: closed
//	states:
//	  - closed
//	  - id: opened
//	    timeout: 5s
//	    timeout_event: dismiss
//	transitions:
//	  - {from: closed, event: open, to: opened}
//	  - {from: [opened], event: dismiss, to: closed}
//	bindings:
//	  click: dismiss
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/librescoot/viewfsm"
)

// Errors returned by Load and Parse. Definition errors wrap
// viewfsm.ErrInvalidDefinition instead.
var (
	ErrFailedToLoad      = errors.New("failed to load definition")
	ErrFailedToDecode    = errors.New("failed to decode definition")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Format is a definition file encoding
type Format string

// Supported formats, matched against the file extension by FormatFromPath
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// File is a decoded definition file
type File struct {
	Name        string            `mapstructure:"name"`
	Initial     string            `mapstructure:"initial"`
	States      []StateSpec       `mapstructure:"states"`
	Transitions []TransitionSpec  `mapstructure:"transitions"`
	Bindings    map[string]string `mapstructure:"bindings"`
}

// StateSpec declares one state. In a file it may also be written as a bare
// state name.
type StateSpec struct {
	ID           string        `mapstructure:"id"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TimeoutEvent string        `mapstructure:"timeout_event"`
}

// TransitionSpec declares one rule. From may list several states, or "*".
type TransitionSpec struct {
	From  []string `mapstructure:"from"`
	Event string   `mapstructure:"event"`
	To    string   `mapstructure:"to"`
}

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and decodes the definition file at path
func Load(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoad, err)
	}

	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Parse decodes a definition from data
func Parse(data []byte, format Format) (*File, error) {
	raw := make(map[string]any)

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToDecode, err)
		}
	case FormatTOML:
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToDecode, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	var f File
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stateShorthandHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &f,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToDecode, err)
	}

	return &f, nil
}

var stateSpecType = reflect.TypeOf(StateSpec{})

// stateShorthandHook turns a bare state name into a StateSpec
func stateShorthandHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == stateSpecType {
		return map[string]any{"id": data}, nil
	}
	return data, nil
}

// Definition builds and validates a viewfsm definition from the file
func (f *File) Definition() (*viewfsm.Definition, error) {
	def := viewfsm.NewDefinition()

	for _, s := range f.States {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: state with empty id", viewfsm.ErrInvalidDefinition)
		}
		var opts []viewfsm.StateOption
		if s.Timeout != 0 || s.TimeoutEvent != "" {
			opts = append(opts, viewfsm.WithTimeout(s.Timeout, viewfsm.EventID(s.TimeoutEvent)))
		}
		def.State(viewfsm.StateID(s.ID), opts...)
	}

	for _, t := range f.Transitions {
		if len(t.From) == 0 || t.Event == "" || t.To == "" {
			return nil, fmt.Errorf("%w: transition needs from, event and to", viewfsm.ErrInvalidDefinition)
		}
		for _, from := range t.From {
			def.Transition(viewfsm.StateID(from), viewfsm.EventID(t.Event), viewfsm.StateID(t.To))
		}
	}

	def.Initial(viewfsm.StateID(f.Initial))

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", viewfsm.ErrInvalidDefinition, err)
	}
	return def, nil
}

// EventBindings returns the element bindings, checked against the
// transition table: every bound event must appear in some transition.
func (f *File) EventBindings() (viewfsm.Bindings, error) {
	known := make(map[string]bool, len(f.Transitions))
	for _, t := range f.Transitions {
		known[t.Event] = true
	}

	out := make(viewfsm.Bindings, len(f.Bindings))
	for name, event := range f.Bindings {
		if !known[event] {
			return nil, fmt.Errorf("%w: binding %q targets unknown event %q", viewfsm.ErrInvalidDefinition, name, event)
		}
		out[name] = viewfsm.EventID(event)
	}
	return out, nil
}
