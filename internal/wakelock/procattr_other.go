//go:build !linux

package wakelock

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
