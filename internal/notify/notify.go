// Package notify posts best-effort desktop notifications.
//
// Notify never blocks the caller: the helper process runs on its own
// goroutine with a timeout, and failures are only logged.
package notify

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds how long a notification helper may run.
const DefaultTimeout = 5 * time.Second

// CommandFunc builds the helper command for one notification. A nil
// return means notifications are unsupported.
type CommandFunc func(ctx context.Context, title, message string) *exec.Cmd

// Desktop implements eventtap.Notifier.
type Desktop struct {
	command   CommandFunc
	timeout   time.Duration
	logger    *slog.Logger
	recoverFn func()

	wg sync.WaitGroup
}

// Option configures a Desktop notifier.
type Option func(*Desktop)

// WithCommand replaces the platform helper.
func WithCommand(fn CommandFunc) Option {
	return func(d *Desktop) { d.command = fn }
}

// WithTimeout sets the helper timeout.
func WithTimeout(t time.Duration) Option {
	return func(d *Desktop) { d.timeout = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Desktop) { d.logger = l }
}

// WithRecover sets a function deferred at the top of each helper
// goroutine. It must call recover itself.
func WithRecover(fn func()) Option {
	return func(d *Desktop) { d.recoverFn = fn }
}

// New returns a notifier using the platform helper.
func New(opts ...Option) *Desktop {
	d := &Desktop{
		command: platformCommand(),
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enabled reports whether a helper is available.
func (d *Desktop) Enabled() bool { return d.command != nil }

// Notify posts a notification asynchronously.
func (d *Desktop) Notify(title, message string) {
	if d.command == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if d.recoverFn != nil {
			defer d.recoverFn()
		}

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		cmd := d.command(ctx, title, message)
		if cmd == nil {
			return
		}
		if out, err := cmd.CombinedOutput(); err != nil {
			d.logger.Debug("notification failed",
				"helper", cmd.Path,
				"error", err,
				"output", strings.TrimSpace(string(out)),
			)
		}
	}()
}

// Wait blocks until in-flight notifications finish. Each helper is bounded
// by the notifier timeout.
func (d *Desktop) Wait() {
	d.wg.Wait()
}

// appleScript quotes s as an AppleScript string literal.
func appleScript(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// osascriptCommand builds `osascript -e 'display notification ...'`.
func osascriptCommand(ctx context.Context, title, message string) *exec.Cmd {
	script := "display notification " + appleScript(message) + " with title " + appleScript(title)
	return exec.CommandContext(ctx, "osascript", "-e", script)
}

// notifySendCommand builds a freedesktop notify-send invocation.
func notifySendCommand(ctx context.Context, title, message string) *exec.Cmd {
	return exec.CommandContext(ctx, "notify-send", "--app-name=vegitate", title, message)
}
