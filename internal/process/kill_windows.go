//go:build windows

// Package process terminates browser process trees left behind by captures.
package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills pid and its children with taskkill (/T tree kill).
// Non-positive pids are ignored.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort: the launcher kills the leader as a fallback
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
