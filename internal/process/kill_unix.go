//go:build !windows

// Package process terminates browser process trees left behind by captures.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking
// Chrome's renderer and GPU children with it. Non-positive pids are ignored.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort: the launcher kills the leader as a fallback
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
