//go:build windows

package util

import (
	"log/slog"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetConsoleWindow = kernel32.NewProc("GetConsoleWindow")
	procShowWindow       = user32.NewProc("ShowWindow")
	procFreeConsole      = kernel32.NewProc("FreeConsole")
)

// shellNames are parents that mean the user typed a command. Any other owner
// of our console (explorer, a double-clicked shortcut) counts as a GUI launch.
var shellNames = map[string]bool{
	"cmd.exe":             true,
	"powershell.exe":      true,
	"pwsh.exe":            true,
	"wt.exe":              true,
	"conhost.exe":         true,
	"windowsterminal.exe": true,
}

// IsRunFromGUI reports whether the daemon was started by double-click rather
// than from a shell. serve uses it to decide whether to respawn detached and
// hide the console.
func IsRunFromGUI() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		// No console at all: launched as a GUI-subsystem child.
		return true
	}

	parent := parentProcessName()
	slog.Debug("resolved launching process", "parent", parent)
	if shellNames[strings.ToLower(parent)] {
		return false
	}
	return strings.EqualFold(parent, "explorer.exe")
}

// HideConsoleWindow hides and detaches the console window Windows opens for a
// double-clicked binary.
func HideConsoleWindow() {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return
	}
	_, _, _ = procShowWindow.Call(hwnd, windows.SW_HIDE)
	_, _, _ = procFreeConsole.Call()
}

// parentProcessName walks the process snapshot twice, first to find our
// parent PID and then to resolve its image name. Empty on any failure.
func parentProcessName() string {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(snapshot)

	self := uint32(os.Getpid())
	entry := findProcess(snapshot, func(pe *windows.ProcessEntry32) bool {
		return pe.ProcessID == self
	})
	if entry == nil || entry.ParentProcessID == 0 {
		return ""
	}

	ppid := entry.ParentProcessID
	entry = findProcess(snapshot, func(pe *windows.ProcessEntry32) bool {
		return pe.ProcessID == ppid
	})
	if entry == nil {
		return ""
	}
	return windows.UTF16ToString(entry.ExeFile[:])
}

// findProcess rewinds the snapshot and returns a copy of the first entry the
// predicate accepts.
func findProcess(snapshot windows.Handle, match func(*windows.ProcessEntry32) bool) *windows.ProcessEntry32 {
	var pe windows.ProcessEntry32
	pe.Size = uint32(unsafe.Sizeof(pe))
	if err := windows.Process32First(snapshot, &pe); err != nil {
		return nil
	}
	for {
		if match(&pe) {
			out := pe
			return &out
		}
		if err := windows.Process32Next(snapshot, &pe); err != nil {
			return nil
		}
	}
}
