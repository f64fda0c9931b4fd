//go:build darwin

package wakelock

import (
	"os"
	"strconv"
)

// DefaultBackend runs caffeinate, preventing display, idle and system sleep.
// The -w flag makes caffeinate exit on its own once this process is gone,
// whatever the reason.
func DefaultBackend() Backend {
	return &ProcessBackend{
		Path: "/usr/bin/caffeinate",
		Args: []string{"-dis", "-w", strconv.Itoa(os.Getpid())},
	}
}
