// Package script holds the scripted action model and the line based
// parser for .clk files.
package script

import (
	"fmt"
	"strings"
)

// Script is an ordered, read-only sequence of runnable actions
type Script struct {
	name    string
	actions []Action
}

// New builds a script from already validated actions.
// Invalid actions are dropped.
func New(actions ...Action) *Script {
	s := &Script{}
	for _, a := range actions {
		if a.Kind != Invalid {
			s.actions = append(s.actions, a)
		}
	}
	return s
}

// Name is the file the script was loaded from, if any
func (s *Script) Name() string {
	return s.name
}

// Len returns the number of actions
func (s *Script) Len() int {
	if s == nil {
		return 0
	}
	return len(s.actions)
}

// At returns the i-th action
func (s *Script) At(i int) Action {
	return s.actions[i]
}

// Actions returns a copy of the action list
func (s *Script) Actions() []Action {
	if s == nil {
		return nil
	}
	out := make([]Action, len(s.actions))
	copy(out, s.actions)
	return out
}

// String renders the script back to its source form
func (s *Script) String() string {
	var b strings.Builder
	b.WriteString(StartMarker + "\n")
	for _, a := range s.actions {
		b.WriteString(a.Source())
		b.WriteString("\n")
	}
	b.WriteString(EndMarker + "\n")
	return b.String()
}

// Format renders the checklist shown to the operator before a run
func Format(s *Script, loops int) string {
	var b strings.Builder
	b.WriteString("--- ClickScript Checklist ---\n")
	fmt.Fprintf(&b, "Loops: %d\n", loops)
	for i, a := range s.Actions() {
		switch a.Kind {
		case MoveClick:
			fmt.Fprintf(&b, "  [%d] %s → (%d, %d)\n", i+1, strings.ToUpper(a.Button.String()), a.Point.X, a.Point.Y)
		case Delay:
			fmt.Fprintf(&b, "  [%d] DELAY → %dms\n", i+1, a.DurationMs)
		case KeyPress:
			fmt.Fprintf(&b, "  [%d] Press %s\n", i+1, a.Key)
		}
	}
	b.WriteString("-----------------------------\n")
	return b.String()
}
