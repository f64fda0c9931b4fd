//go:build !windows

package wakelock

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func lookPath(t *testing.T, name string) string {
	t.Helper()
	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not found: %v", name, err)
	}
	return p
}

func alive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}

func TestProcessBackendGracefulStop(t *testing.T) {
	b := &ProcessBackend{Path: lookPath(t, "sleep"), Args: []string{"60"}}
	c := New(b)

	require.NoError(t, c.Start(context.Background()))
	pid := c.handle.(*processHandle).Pid()
	assert.True(t, alive(pid))

	start := time.Now()
	require.NoError(t, c.Stop())
	assert.Less(t, time.Since(start), DefaultStopTimeout)
	assert.False(t, alive(pid))

	assert.NoError(t, c.Stop())
}

func TestProcessBackendKillsStubbornChild(t *testing.T) {
	b := &ProcessBackend{
		Path: lookPath(t, "sh"),
		Args: []string{"-c", `trap "" TERM; exec sleep 60`},
	}
	c := New(b, WithStopTimeout(200*time.Millisecond))

	require.NoError(t, c.Start(context.Background()))
	pid := c.handle.(*processHandle).Pid()

	// Give the shell time to install the trap before signalling.
	time.Sleep(100 * time.Millisecond)

	err := c.Stop()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubprocessTimeout)
	assert.False(t, alive(pid))
	assert.False(t, c.Running())

	assert.NoError(t, c.Stop())
}

func TestProcessBackendAlreadyExited(t *testing.T) {
	b := &ProcessBackend{Path: lookPath(t, "true")}
	c := New(b)

	require.NoError(t, c.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	assert.NoError(t, c.Stop())
}

func TestProcessBackendMissingBinary(t *testing.T) {
	c := New(&ProcessBackend{Path: "/nonexistent/keep-awake"})
	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keep-awake")
	assert.False(t, c.Running())
}

func TestProcessBackendCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(&ProcessBackend{Path: lookPath(t, "sleep"), Args: []string{"60"}})
	assert.ErrorIs(t, c.Start(ctx), context.Canceled)
}

func TestProcessBackendProbe(t *testing.T) {
	b := &ProcessBackend{Path: lookPath(t, "sleep")}
	assert.NoError(t, Probe(context.Background(), b))

	missing := &ProcessBackend{Path: "/nonexistent/vegitate-helper"}
	assert.ErrorIs(t, Probe(context.Background(), missing), ErrNotAvailable)
}
