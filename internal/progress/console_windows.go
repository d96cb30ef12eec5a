//go:build windows

package progress

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procSetConsoleTitleW = kernel32.NewProc("SetConsoleTitleW")
	procGetConsoleWindow = kernel32.NewProc("GetConsoleWindow")
)

// ConsoleTitle sets the Win32 console title directly, for consoles that
// ignore escape sequences
type ConsoleTitle struct {
	mu      sync.Mutex
	state   State
	current int
	total   int
}

// Open fails when the process has no console window
func (c *ConsoleTitle) Open() error {
	if err := procSetConsoleTitleW.Find(); err != nil {
		return fmt.Errorf("SetConsoleTitleW unavailable: %w", err)
	}
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return fmt.Errorf("failed to get console window handle")
	}
	return nil
}

func (c *ConsoleTitle) Update(current, total int) {
	if total <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current, c.total = current, total
	setConsoleTitle(consoleTitle(c.current, c.total, c.state))
}

// SetState redraws the last progress in the new state
func (c *ConsoleTitle) SetState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	if c.total > 0 {
		setConsoleTitle(consoleTitle(c.current, c.total, c.state))
	}
}

func (c *ConsoleTitle) Close() error {
	setConsoleTitle(readyTitle)
	return nil
}

func setConsoleTitle(title string) {
	ptr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return
	}
	procSetConsoleTitleW.Call(uintptr(unsafe.Pointer(ptr)))
}
