//go:build !windows

package abort

// Hotkey returns the platform emergency stop key source. Global key
// state is only readable on Windows; elsewhere Ctrl+C through Signal
// is the stop key.
func Hotkey() Source {
	return Never
}
