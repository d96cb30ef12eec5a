package progress

import "fmt"

// consoleTitle is the Win32 console title for a progress value
func consoleTitle(current, total int, state State) string {
	switch state {
	case StateError:
		return fmt.Sprintf("ClickScript - Stopped at %d/%d", current, total)
	case StatePaused:
		return fmt.Sprintf("ClickScript - Paused at %d/%d", current, total)
	}
	return fmt.Sprintf("ClickScript - Progress: %d/%d (%.1f%%) (Press ESC to stop)",
		current, total, Snapshot{Current: current, Total: total}.Percent())
}
