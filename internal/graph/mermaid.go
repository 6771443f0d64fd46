package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/librescoot/viewfsm"
)

// Overlay marks the live state of a machine on the rendered diagram
type Overlay struct {
	CurrentState viewfsm.StateID
}

// GenerateMermaid renders a definition as a Mermaid stateDiagram-v2.
// Declarative timeouts are noted on their state, wildcard transitions are
// expanded to every state without an exact rule for the same event.
func GenerateMermaid(def *viewfsm.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	states := def.States()
	fmt.Fprintf(&sb, "    [*] --> %s\n", sanitizeMermaidID(string(def.InitialState())))

	for _, s := range states {
		if s.Timeout > 0 {
			fmt.Fprintf(&sb, "    %s : %s (⏱️ %s → %s)\n",
				sanitizeMermaidID(string(s.ID)), s.ID, s.Timeout, s.TimeoutEvent)
		}
	}

	exact := make(map[string]bool)
	var wildcards []viewfsm.Transition
	for _, t := range def.Transitions() {
		if t.From == viewfsm.WildcardState {
			wildcards = append(wildcards, t)
			continue
		}
		exact[string(t.From)+"\x00"+string(t.Event)] = true
	}

	seen := make(map[string]bool)
	emit := func(from, to viewfsm.StateID, event viewfsm.EventID) {
		line := fmt.Sprintf("    %s --> %s : %s\n",
			sanitizeMermaidID(string(from)), sanitizeMermaidID(string(to)), event)
		if seen[line] {
			return
		}
		seen[line] = true
		sb.WriteString(line)
	}

	for _, t := range def.Transitions() {
		if t.From != viewfsm.WildcardState {
			emit(t.From, t.To, t.Event)
		}
	}

	sort.Slice(wildcards, func(i, j int) bool { return wildcards[i].Event < wildcards[j].Event })
	for _, w := range wildcards {
		for _, s := range states {
			if s.ID == w.To || exact[string(s.ID)+"\x00"+string(w.Event)] {
				continue
			}
			emit(s.ID, w.To, w.Event)
		}
	}

	if overlay != nil && overlay.CurrentState != "" {
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#333,stroke-width:2px\n")
		fmt.Fprintf(&sb, "    class %s current\n", sanitizeMermaidID(string(overlay.CurrentState)))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	replacer := strings.NewReplacer("-", "_", ".", "_", " ", "_", "/", "_", ":", "_")
	return replacer.Replace(id)
}
