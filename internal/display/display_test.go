package display

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegitate/internal/eventtap"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeStatus struct {
	calls atomic.Int64
	snap  eventtap.Snapshot
}

func (f *fakeStatus) Snapshot() eventtap.Snapshot {
	f.calls.Add(1)
	return f.snap
}

func lockedInfo(status eventtap.StatusSource) eventtap.LockedInfo {
	return eventtap.LockedInfo{
		SessionID:   "s-1",
		Combo:       "ctrl + cmd + u",
		PanicKey:    "escape",
		PanicTaps:   5,
		PanicWindow: 2 * time.Second,
		WakeLock:    true,
		Status:      status,
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{999 * time.Millisecond, "00:00"},
		{65 * time.Second, "01:05"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour, "01:00:00"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "26:03:04"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d), "FormatDuration(%v)", tt.d)
	}
}

func TestPlainOutput(t *testing.T) {
	var buf syncBuffer
	d := New(&buf, WithTTY(false))

	d.Banner("0.1.1")
	d.Step("Combo validated")
	d.Locked(lockedInfo(nil))
	d.Unlocked(eventtap.ReasonCombo, 83*time.Second)
	d.Killed(5 * time.Second)
	d.Error("bad combo")
	d.PermissionError()

	out := buf.String()
	assert.Contains(t, out, "vegitate v0.1.1")
	assert.Contains(t, out, "ok: Combo validated")
	assert.Contains(t, out, "unlock with ctrl + cmd + u, or tap escape 5× within 2s")
	assert.Contains(t, out, "unlocked (combo) after 01:23")
	assert.Contains(t, out, "interrupted after 00:05")
	assert.Contains(t, out, "error: bad combo")
	assert.Contains(t, out, "Accessibility")
	assert.NotContains(t, out, "\x1b[", "plain output must not contain escape sequences")
}

func TestPanicHintDisabled(t *testing.T) {
	info := lockedInfo(nil)
	info.PanicTaps = 0
	assert.Equal(t, "panic unlock disabled", panicHint(info))
}

func TestRenderLocked(t *testing.T) {
	st := newStyles(lipgloss.NewRenderer(&bytes.Buffer{}))
	info := lockedInfo(nil)

	out := renderLocked(st, info, eventtap.Snapshot{
		Elapsed:   3723 * time.Second,
		Swallowed: 42,
		WakeLock:  true,
	})
	assert.Contains(t, out, "INPUT LOCKED")
	assert.Contains(t, out, "LOCKED")
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "ctrl + cmd + u")
	assert.Contains(t, out, "escape ×5 within 2s")
	assert.Contains(t, out, "01:02:03")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "Display stays on")

	info.PanicTaps = 0
	info.AllowMouseMove = true
	out = renderLocked(st, info, eventtap.Snapshot{})
	assert.Contains(t, out, "off")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "movement allowed")
	assert.NotContains(t, out, "Display stays on")
}

func TestRenderUnlocked(t *testing.T) {
	st := newStyles(lipgloss.NewRenderer(&bytes.Buffer{}))

	out := renderUnlocked(st, lockedInfo(nil), eventtap.ReasonPanic, 90*time.Second)
	assert.Contains(t, out, "INPUT UNLOCKED")
	assert.Contains(t, out, "Caffeinate stopped")
	assert.Contains(t, out, "Unlocked via panic")
	assert.Contains(t, out, "Session duration: 01:30")

	info := lockedInfo(nil)
	info.WakeLock = false
	out = renderUnlocked(st, info, eventtap.ReasonCombo, 0)
	assert.NotContains(t, out, "Caffeinate")
}

func TestLivePanelRedraws(t *testing.T) {
	var buf syncBuffer
	status := &fakeStatus{snap: eventtap.Snapshot{Swallowed: 7, WakeLock: true}}
	d := New(&buf, WithTTY(true), WithInterval(5*time.Millisecond))

	d.Locked(lockedInfo(status))
	require.Eventually(t, func() bool {
		return status.calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	d.Unlocked(eventtap.ReasonCombo, time.Minute)
	calls := status.calls.Load()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, status.calls.Load(), "ticker kept running after unlock")

	out := buf.String()
	assert.Contains(t, out, "INPUT LOCKED")
	assert.Contains(t, out, "INPUT UNLOCKED")
	assert.Greater(t, strings.Count(out, "INPUT LOCKED"), 1)
}

func TestStopIsIdempotent(t *testing.T) {
	var buf syncBuffer
	d := New(&buf, WithTTY(true), WithInterval(5*time.Millisecond))

	d.Close()
	d.Locked(lockedInfo(&fakeStatus{}))
	d.Killed(time.Second)
	d.Close()
	d.Unlocked(eventtap.ReasonSignal, time.Second)

	assert.Contains(t, buf.String(), "Interrupted · Session: 00:01")
}

func TestNonFileWriterIsNotTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
