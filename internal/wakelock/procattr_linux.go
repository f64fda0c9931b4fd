//go:build linux

package wakelock

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// The helper dies with us even if we are SIGKILLed.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: unix.SIGKILL}
}
