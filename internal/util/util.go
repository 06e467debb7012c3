//go:build !windows

// Package util holds the platform launch-context helpers serve relies on.
package util

// IsRunFromGUI reports whether the process was started by double-click
// instead of a shell. That distinction only exists on Windows; elsewhere the
// daemon runs from a terminal or a service manager.
func IsRunFromGUI() bool { return false }

// HideConsoleWindow is a no-op off Windows.
func HideConsoleWindow() {}
