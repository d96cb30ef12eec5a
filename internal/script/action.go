package script

import "fmt"

// Kind tags the variant held by an Action
type Kind int

const (
	Invalid Kind = iota
	MoveClick
	KeyPress
	Delay
)

func (k Kind) String() string {
	switch k {
	case MoveClick:
		return "move_click"
	case KeyPress:
		return "key_press"
	case Delay:
		return "delay"
	default:
		return "invalid"
	}
}

// Button is the mouse button used by a MoveClick action
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

func (b Button) String() string {
	if b == ButtonRight {
		return "right"
	}
	return "left"
}

// Key identifies a key for a KeyPress action. Only Enter is scriptable today.
type Key int

const (
	KeyEnter Key = iota
)

func (k Key) String() string {
	return "enter"
}

// Point is a screen coordinate
type Point struct {
	X int
	Y int
}

// Action represents a single scripted input step
type Action struct {
	Kind       Kind
	Point      Point  // Target for MoveClick
	Button     Button // Button for MoveClick
	Key        Key    // Key for KeyPress
	DurationMs int    // Sleep length for Delay
}

// Click builds a MoveClick action
func Click(x, y int, b Button) Action {
	return Action{Kind: MoveClick, Point: Point{X: x, Y: y}, Button: b}
}

// Press builds a KeyPress action
func Press(k Key) Action {
	return Action{Kind: KeyPress, Key: k}
}

// Wait builds a Delay action
func Wait(ms int) Action {
	return Action{Kind: Delay, DurationMs: ms}
}

// Source renders the action as a script line
func (a Action) Source() string {
	switch a.Kind {
	case MoveClick:
		if a.Button == ButtonRight {
			return fmt.Sprintf("RIGHT %d %d", a.Point.X, a.Point.Y)
		}
		return fmt.Sprintf("LEFT %d %d", a.Point.X, a.Point.Y)
	case KeyPress:
		return "ENTER"
	case Delay:
		return fmt.Sprintf("DELAY %d", a.DurationMs)
	default:
		return "INVALID"
	}
}

// Describe returns a short human readable summary, used in verbose output
func (a Action) Describe() string {
	switch a.Kind {
	case MoveClick:
		return fmt.Sprintf("%s click → (%d, %d)", a.Button, a.Point.X, a.Point.Y)
	case KeyPress:
		return fmt.Sprintf("press %s", a.Key)
	case Delay:
		return fmt.Sprintf("wait → %dms", a.DurationMs)
	default:
		return "invalid action"
	}
}
