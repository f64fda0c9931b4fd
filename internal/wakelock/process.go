package wakelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ProcessBackend holds a wake lock by keeping a helper process alive.
type ProcessBackend struct {
	Path string
	Args []string
}

// Name returns the helper's base name.
func (b *ProcessBackend) Name() string {
	return filepath.Base(b.Path)
}

// Probe reports whether the helper binary can be found.
func (b *ProcessBackend) Probe(context.Context) error {
	if _, err := exec.LookPath(b.Path); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	return nil
}

// Acquire starts the helper process. Its output is discarded.
func (b *ProcessBackend) Acquire(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(b.Path, b.Args...)
	cmd.SysProcAttr = sysProcAttr()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", b.Name(), err)
	}

	h := &processHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type processHandle struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// Release terminates the process, escalating to kill after timeout.
func (h *processHandle) Release(timeout time.Duration) error {
	select {
	case <-h.done:
		return nil
	default:
	}

	if err := terminate(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("terminate pid %d: %w", h.cmd.Process.Pid, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return nil
	case <-timer.C:
		_ = h.cmd.Process.Kill()
		<-h.done
		return fmt.Errorf("%w: pid %d killed after %s", ErrSubprocessTimeout, h.cmd.Process.Pid, timeout)
	}
}

// Pid returns the helper's process id.
func (h *processHandle) Pid() int {
	return h.cmd.Process.Pid
}
