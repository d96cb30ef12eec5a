//go:build windows

package abort

import "golang.org/x/sys/windows"

const vkEscape = 0x1B

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

// EscapeKey fires while the ESC key is held down, from any window
type EscapeKey struct{}

func (EscapeKey) Triggered() bool {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vkEscape))
	return state&0x8000 != 0
}

// Hotkey returns the platform emergency stop key source
func Hotkey() Source {
	return EscapeKey{}
}
