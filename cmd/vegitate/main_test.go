package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegitate/internal/combo"
	"vegitate/internal/config"
	"vegitate/internal/eventtap"
	"vegitate/internal/logging"
	"vegitate/internal/notify"
	"vegitate/internal/wakelock"
)

// scriptedFilter delivers a fixed list of events once Run starts, then
// blocks until stopped.
type scriptedFilter struct {
	openErr error
	events  []eventtap.Event

	mu       sync.Mutex
	handler  eventtap.Handler
	actions  []eventtap.Action
	stopOnce sync.Once
	stopCh   chan struct{}
}

func newScriptedFilter(events ...eventtap.Event) *scriptedFilter {
	return &scriptedFilter{events: events, stopCh: make(chan struct{})}
}

func (f *scriptedFilter) Open(_ eventtap.Mask, h eventtap.Handler) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
	return nil
}

func (f *scriptedFilter) Run() {
	for _, ev := range f.events {
		ev.Time = time.Now()
		a := f.handler(ev)
		f.mu.Lock()
		f.actions = append(f.actions, a)
		f.mu.Unlock()
	}
	<-f.stopCh
}

func (f *scriptedFilter) Disable()     {}
func (f *scriptedFilter) Close() error { return nil }

func (f *scriptedFilter) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
}

type nopHandle struct{}

func (nopHandle) Release(time.Duration) error { return nil }

type fakeWake struct{ acquired int }

func (b *fakeWake) Name() string { return "fake" }

func (b *fakeWake) Acquire(context.Context) (wakelock.Handle, error) {
	b.acquired++
	return nopHandle{}, nil
}

type testEnv struct {
	app    *app
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("VEGITATE_COMBO", "")

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.newFilter = func() eventtap.Filter { return newScriptedFilter() }
	a.newWakeBackend = func() wakelock.Backend { return &fakeWake{} }
	a.newNotifier = func(opts ...notify.Option) *notify.Desktop {
		return notify.New(append(opts, notify.WithCommand(nil))...)
	}
	a.promptAccessibility = func() bool { return false }
	return &testEnv{app: a, stdout: &stdout, stderr: &stderr, dir: dir}
}

func (e *testEnv) run(args ...string) int {
	return e.app.run(context.Background(), append(args, "--log-file", filepath.Join(e.dir, "vegitate.log")))
}

func comboEvent(t *testing.T, s string) eventtap.Event {
	t.Helper()
	spec := combo.MustParse(s)
	return eventtap.Event{Type: eventtap.KeyDown, KeyCode: uint16(spec.Key), Flags: uint64(spec.Mods)}
}

func TestVersion(t *testing.T) {
	for _, flag := range []string{"--version", "-V"} {
		env := newTestEnv(t)
		assert.Equal(t, exitOK, env.app.run(context.Background(), []string{flag}))
		assert.Equal(t, "vegitate "+version+"\n", env.stdout.String())
	}
}

func TestHelp(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, exitOK, env.app.run(context.Background(), []string{"-h"}))
}

func TestUnknownFlag(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, exitFailure, env.app.run(context.Background(), []string{"--bogus"}))
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, exitOK, env.app.run(context.Background(), []string{"init"}))
	assert.Contains(t, env.stdout.String(), config.Path())

	data, err := os.ReadFile(config.Path())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFileContents, string(data))

	assert.Equal(t, exitFailure, env.app.run(context.Background(), []string{"init"}))
	assert.Contains(t, env.stderr.String(), "Config already exists")
}

func TestInitCustomPath(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "custom.toml")

	require.Equal(t, exitOK, env.app.run(context.Background(), []string{"init", "--config", path}))
	assert.FileExists(t, path)
}

func TestConfigCommand(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, exitOK, env.app.run(context.Background(), []string{"config", "--combo", "alt+shift+q"}))
	out := env.stdout.String()
	assert.Contains(t, out, "# source: defaults")
	assert.Contains(t, out, `combo = "alt + shift + q"`)
	assert.Contains(t, out, "panic_taps = 5")
}

func TestInvalidComboExitsBeforeLocking(t *testing.T) {
	env := newTestEnv(t)
	opened := false
	env.app.newFilter = func() eventtap.Filter {
		opened = true
		return newScriptedFilter()
	}

	assert.Equal(t, exitFailure, env.run("-c", "ctrl+cmd"))
	assert.False(t, opened, "filter built for an invalid combo")
	assert.Contains(t, env.stdout.String(), "error:")
}

func TestInvalidComboFromEnvironment(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("VEGITATE_COMBO", "u")
	assert.Equal(t, exitFailure, env.run())
}

func TestInvalidConfigFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(config.Dir(), 0o755))
	require.NoError(t, os.WriteFile(config.Path(), []byte("panic_taps = -3\n"), 0o644))

	assert.Equal(t, exitFailure, env.run())
	assert.Contains(t, env.stdout.String(), "panic_taps")
}

func TestLockUnlockWithCombo(t *testing.T) {
	env := newTestEnv(t)
	wake := &fakeWake{}
	filter := newScriptedFilter(
		comboEvent(t, "ctrl+u"),
		comboEvent(t, "ctrl+shift+q"),
	)
	env.app.newFilter = func() eventtap.Filter { return filter }
	env.app.newWakeBackend = func() wakelock.Backend { return wake }

	require.Equal(t, exitOK, env.run("--combo", "ctrl+shift+q"))

	out := env.stdout.String()
	assert.Contains(t, out, "Combo validated: ctrl + shift + q")
	assert.Contains(t, out, "Caffeinate started")
	assert.Contains(t, out, "unlocked (combo)")
	assert.Equal(t, 1, wake.acquired)
	assert.Equal(t, []eventtap.Action{eventtap.Swallow, eventtap.Swallow}, filter.actions)

	journal, err := os.ReadFile(filepath.Join(env.dir, "state", "vegitate", "journal.jsonl"))
	if err == nil {
		assert.Contains(t, string(journal), `"type":"unlocked"`)
	}
}

func TestUnlockNotificationDeliveredBeforeExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	env := newTestEnv(t)
	sent := filepath.Join(env.dir, "notifications")
	env.app.newFilter = func() eventtap.Filter { return newScriptedFilter(comboEvent(t, "ctrl+cmd+u")) }
	env.app.newNotifier = func(opts ...notify.Option) *notify.Desktop {
		helper := func(ctx context.Context, _, message string) *exec.Cmd {
			return exec.CommandContext(ctx, "sh", "-c", `sleep 0.2; printf '%s\n' "$1" >> "$2"`, "sh", message, sent)
		}
		return notify.New(append(opts, notify.WithCommand(helper))...)
	}

	require.Equal(t, exitOK, env.run())

	data, err := os.ReadFile(sent)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Input locked\n")
	assert.Contains(t, string(data), "Input unlocked\n")
}

func TestLockWithoutCaffeinate(t *testing.T) {
	env := newTestEnv(t)
	wake := &fakeWake{}
	env.app.newFilter = func() eventtap.Filter { return newScriptedFilter(comboEvent(t, "ctrl+cmd+u")) }
	env.app.newWakeBackend = func() wakelock.Backend { return wake }

	require.Equal(t, exitOK, env.run("--no-caffeinate"))
	assert.Contains(t, env.stdout.String(), "Caffeinate (skipped)")
	assert.Zero(t, wake.acquired)
}

func TestPermissionDenied(t *testing.T) {
	env := newTestEnv(t)
	prompted := false
	env.app.promptAccessibility = func() bool { prompted = true; return false }
	env.app.newFilter = func() eventtap.Filter {
		return &scriptedFilter{openErr: eventtap.ErrPermissionDenied, stopCh: make(chan struct{})}
	}

	assert.Equal(t, exitFailure, env.run())
	assert.True(t, prompted)
	assert.Contains(t, env.stdout.String(), "Accessibility")
}

func TestSignalEndsSessionCleanly(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan int, 1)
	go func() {
		done <- env.app.run(ctx, []string{"--log-file", filepath.Join(env.dir, "vegitate.log")})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, exitOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end after cancel")
	}
	assert.Contains(t, env.stdout.String(), "interrupted after")
}

func TestUnexpectedArgument(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, exitFailure, env.run("lock"))
	assert.True(t, strings.Contains(env.stderr.String(), "unexpected argument"))
}

func TestDoctor(t *testing.T) {
	env := newTestEnv(t)
	env.app.checkAccessibility = func() bool { return true }

	code := env.app.run(context.Background(), []string{"doctor", "--json"})

	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &report))
	require.Len(t, report.Checks, 5)
	assert.Equal(t, "config", report.Checks[0].Name)
	assert.Equal(t, "healthy", report.Checks[0].Status)
	assert.Equal(t, "wake lock", report.Checks[2].Name)
	assert.Equal(t, "healthy", report.Checks[2].Status)
	assert.Equal(t, "crashes", report.Checks[4].Name)
	assert.Equal(t, "healthy", report.Checks[4].Status)

	if runtime.GOOS == "darwin" {
		assert.Equal(t, exitOK, code)
		assert.Equal(t, "healthy", report.Status)
	} else {
		assert.Equal(t, exitFailure, code)
		assert.Equal(t, "unhealthy", report.Status)
	}
}

func TestDoctorReportsEarlierCrash(t *testing.T) {
	env := newTestEnv(t)
	env.app.checkAccessibility = func() bool { return true }

	crash := logging.NewCrashHandler(logging.CrashHandlerConfig{Version: version, Stderr: &bytes.Buffer{}})
	crash.SetSessionID("sess-1")
	require.NotEmpty(t, crash.HandlePanic("tap callback exploded", nil))

	env.app.run(context.Background(), []string{"doctor"})
	out := env.stdout.String()
	assert.Contains(t, out, "1 crash report(s)")
	assert.Contains(t, out, "tap callback exploded")
}

func TestDoctorBadConfig(t *testing.T) {
	env := newTestEnv(t)
	env.app.checkAccessibility = func() bool { return true }
	path := filepath.Join(env.dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("combo = \"ctrl\"\n"), 0o644))

	assert.Equal(t, exitFailure, env.app.run(context.Background(), []string{"doctor", "--config", path}))
	assert.Contains(t, env.stdout.String(), "invalid configuration")
	assert.Contains(t, env.stdout.String(), "overall: unhealthy")
}
