//go:build linux

package wakelock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"
)

const (
	login1Dest    = "org.freedesktop.login1"
	login1Path    = dbus.ObjectPath("/org/freedesktop/login1")
	login1Inhibit = "org.freedesktop.login1.Manager.Inhibit"
)

// LogindBackend takes a systemd-logind inhibitor lock over the system bus.
// The lock lives as long as the returned file descriptor stays open.
type LogindBackend struct {
	What string
	Who  string
	Why  string
	Mode string
}

// DefaultBackend blocks idle and sleep through logind.
func DefaultBackend() Backend {
	return &LogindBackend{
		What: "idle:sleep",
		Who:  "vegitate",
		Why:  "Input locked",
		Mode: "block",
	}
}

// Name implements Backend.
func (b *LogindBackend) Name() string { return "logind" }

// Probe asks the bus whether logind is running.
func (b *LogindBackend) Probe(ctx context.Context) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	var has bool
	call := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, login1Dest)
	if err := call.Store(&has); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	if !has {
		return fmt.Errorf("%w: %s is not running", ErrNotAvailable, login1Dest)
	}
	return nil
}

// Acquire implements Backend.
func (b *LogindBackend) Acquire(ctx context.Context) (Handle, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	var fd dbus.UnixFD
	obj := conn.Object(login1Dest, login1Path)
	call := obj.CallWithContext(ctx, login1Inhibit, 0, b.What, b.Who, b.Why, b.Mode)
	if err := call.Store(&fd); err != nil {
		return nil, fmt.Errorf("inhibit %s: %w", b.What, err)
	}
	return &inhibitHandle{fd: int(fd)}, nil
}

type inhibitHandle struct {
	once sync.Once
	fd   int
	err  error
}

// Release closes the inhibitor fd; logind drops the lock immediately.
func (h *inhibitHandle) Release(time.Duration) error {
	h.once.Do(func() {
		h.err = unix.Close(h.fd)
	})
	return h.err
}
