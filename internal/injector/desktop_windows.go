//go:build windows

package injector

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/v0xg/clickreplay/internal/script"
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfLeftDown  = 0x0002
	mouseeventfLeftUp    = 0x0004
	mouseeventfRightDown = 0x0008
	mouseeventfRightUp   = 0x0010

	keyeventfKeyUp = 0x0002

	vkReturn = 0x0D
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procSendInput    = user32.NewProc("SendInput")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procGetCursorPos = user32.NewProc("GetCursorPos")
)

type point struct {
	X, Y int32
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// The INPUT union is as large as its biggest member, MOUSEINPUT
type mouseEvent struct {
	Type uint32
	Mi   mouseInput
}

type keyEvent struct {
	Type    uint32
	Ki      keybdInput
	padding [8]byte
}

// Desktop injects real mouse and keyboard input
type Desktop struct {
	// Settle is the pause between move, press and release
	Settle time.Duration
}

// NewDesktop returns the platform desktop injector
func NewDesktop() (*Desktop, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("SendInput unavailable: %w", err)
	}
	return &Desktop{Settle: 10 * time.Millisecond}, nil
}

func (d *Desktop) MoveClick(x, y int, button script.Button) error {
	ret, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos failed: %v", err)
	}
	time.Sleep(d.Settle)

	down, up := uint32(mouseeventfLeftDown), uint32(mouseeventfLeftUp)
	if button == script.ButtonRight {
		down, up = mouseeventfRightDown, mouseeventfRightUp
	}

	ev := mouseEvent{Type: inputMouse, Mi: mouseInput{DwFlags: down}}
	if err := sendInput(unsafe.Pointer(&ev), unsafe.Sizeof(ev)); err != nil {
		return fmt.Errorf("SendInput (mouse down) failed: %w", err)
	}
	time.Sleep(d.Settle)

	ev.Mi.DwFlags = up
	if err := sendInput(unsafe.Pointer(&ev), unsafe.Sizeof(ev)); err != nil {
		return fmt.Errorf("SendInput (mouse up) failed: %w", err)
	}
	return nil
}

func (d *Desktop) KeyPress(key script.Key) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	ev := keyEvent{Type: inputKeyboard, Ki: keybdInput{WVk: vkReturn}}
	if err := sendInput(unsafe.Pointer(&ev), unsafe.Sizeof(ev)); err != nil {
		return fmt.Errorf("SendInput (key down) failed: %w", err)
	}
	time.Sleep(d.Settle)

	ev.Ki.DwFlags = keyeventfKeyUp
	if err := sendInput(unsafe.Pointer(&ev), unsafe.Sizeof(ev)); err != nil {
		return fmt.Errorf("SendInput (key up) failed: %w", err)
	}
	return nil
}

func (d *Desktop) Sleep(dur time.Duration) {
	time.Sleep(dur)
}

func sendInput(ev unsafe.Pointer, size uintptr) error {
	ret, _, err := procSendInput.Call(1, uintptr(ev), size)
	if ret == 0 {
		return err
	}
	return nil
}

// CursorPosition reads the current desktop cursor position
func CursorPosition() (int, int, error) {
	var p point
	ret, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if ret == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos failed: %v", err)
	}
	return int(p.X), int(p.Y), nil
}
