package progress

import (
	"fmt"
	"io"
	"sync"
)

const readyTitle = "ClickScript - Ready"

// Title shows progress in the terminal window title using the OSC 0
// escape sequence. It is the portable counterpart of the taskbar display.
type Title struct {
	w       io.Writer
	mu      sync.Mutex
	state   State
	current int
	total   int
	last    string
}

// NewTitle writes title updates to w, normally os.Stdout
func NewTitle(w io.Writer) *Title {
	return &Title{w: w}
}

// Update sets the title to the current progress. Repeated identical
// titles are not rewritten.
func (t *Title) Update(current, total int) {
	if total <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current, t.total = current, total
	t.redraw()
}

// SetState redraws the last progress with the state suffix, so a terminal
// state is visible even when no further update arrives
func (t *Title) SetState(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	if t.total > 0 {
		t.redraw()
	}
}

func (t *Title) redraw() {
	snap := Snapshot{Current: t.current, Total: t.total}
	title := fmt.Sprintf("ClickScript - Progress: %d/%d (%.1f%%)", t.current, t.total, snap.Percent())
	switch t.state {
	case StateError:
		title += " [STOPPED]"
	case StatePaused:
		title += " [PAUSED]"
	}
	t.write(title)
}

// Close restores the idle title
func (t *Title) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateNone
	t.write(readyTitle)
	return nil
}

func (t *Title) write(title string) {
	if title == t.last {
		return
	}
	t.last = title
	fmt.Fprintf(t.w, "\033]0;%s\007", title)
}

// Line prints one line per round and per state change
type Line struct {
	w       io.Writer
	mu      sync.Mutex
	current int
}

// NewLine writes round banners to w
func NewLine(w io.Writer) *Line {
	return &Line{w: w}
}

func (l *Line) Update(current, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if current == l.current {
		return
	}
	l.current = current
	fmt.Fprintf(l.w, "=== Executing ClickScript round %d of %d ===\n", current, total)
}

func (l *Line) SetState(state State) {
	switch state {
	case StateError:
		fmt.Fprintln(l.w, "!!! EMERGENCY STOP TRIGGERED !!!")
	case StatePaused:
		fmt.Fprintln(l.w, "ClickScript procedure interrupted!")
	}
}
