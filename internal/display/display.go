// Package display renders vegitate's lifecycle to the terminal.
//
// On a TTY the locked state is a panel redrawn in place on a fixed tick.
// The ticker only reads eventtap.StatusSource snapshots and never touches
// anything the event callback can block on. When stdout is not a terminal
// every event becomes a single plain line.
package display

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"vegitate/internal/eventtap"
)

// DefaultInterval is how often the locked panel is redrawn.
const DefaultInterval = 500 * time.Millisecond

// Option configures a Terminal.
type Option func(*Terminal)

// WithInterval sets the redraw interval.
func WithInterval(d time.Duration) Option {
	return func(t *Terminal) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithTTY overrides terminal detection.
func WithTTY(tty bool) Option {
	return func(t *Terminal) { t.tty = tty }
}

// Terminal implements eventtap.Reporter.
type Terminal struct {
	mu       sync.Mutex
	w        io.Writer
	out      *termenv.Output
	st       styles
	tty      bool
	interval time.Duration

	live *liveView
	info eventtap.LockedInfo
}

var _ eventtap.Reporter = (*Terminal)(nil)

// New returns a Terminal writing to w.
func New(w io.Writer, opts ...Option) *Terminal {
	t := &Terminal{
		w:        w,
		out:      termenv.NewOutput(w),
		st:       newStyles(lipgloss.NewRenderer(w)),
		tty:      IsTerminal(w),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	io.WriteString(t.w, s+"\n")
}

// Banner prints the logo and version line.
func (t *Terminal) Banner(version string) {
	if !t.tty {
		t.println(fmt.Sprintf("vegitate v%s", version))
		return
	}
	t.println(t.st.logo.Render(Logo))
	t.println(t.st.dim.Render(fmt.Sprintf("  v%s · %s", version, ProjectURL)))
	t.println("")
}

// Step prints a completed startup step.
func (t *Terminal) Step(msg string) {
	if !t.tty {
		t.println("ok: " + msg)
		return
	}
	t.println(fmt.Sprintf("  %s  %s", t.st.check.Render("✓"), msg))
}

// Error prints msg in an error panel.
func (t *Terminal) Error(msg string) {
	if !t.tty {
		t.println("error: " + msg)
		return
	}
	body := lipgloss.JoinVertical(lipgloss.Center,
		t.st.errTitle.Render("Error"),
		"",
		t.st.errBody.Render(msg),
	)
	t.println("")
	t.println(t.st.errPanel.Render(body))
	t.println("")
}

// PermissionError explains how to grant Accessibility access.
func (t *Terminal) PermissionError() {
	if !t.tty {
		t.println("error: could not create event tap: grant Accessibility permission to your terminal " +
			"(System Settings → Privacy & Security → Accessibility) and re-run vegitate")
		return
	}
	t.println("")
	t.println(t.st.errPanel.Render(renderPermission(t.st)))
	t.println("")
}

func renderPermission(st styles) string {
	steps := strings.Join([]string{
		"1. Open  System Settings → Privacy & Security → Accessibility",
		"2. Toggle ON for your terminal (Terminal, iTerm2, Warp, etc.)",
		"3. Re-run vegitate",
	}, "\n")
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.PlaceHorizontal(64, lipgloss.Center, st.errTitle.Render("Permission Required")),
		"",
		lipgloss.PlaceHorizontal(64, lipgloss.Center, st.errTitle.Render("Could not create event tap!")),
		"",
		st.errBody.Render("You need to grant Accessibility permission to your terminal app."),
		"",
		st.dim.Render(steps),
	)
}

// Locked starts the live panel, or prints a summary line off a TTY.
func (t *Terminal) Locked(info eventtap.LockedInfo) {
	t.mu.Lock()
	t.info = info
	t.mu.Unlock()

	if !t.tty {
		t.println(fmt.Sprintf("locked: unlock with %s, %s", info.Combo, panicHint(info)))
		return
	}

	t.stopLive()
	lv := newLiveView(t, info)
	t.mu.Lock()
	t.live = lv
	t.mu.Unlock()
	lv.start()
}

// Unlocked stops the live panel and prints the unlock summary.
func (t *Terminal) Unlocked(reason eventtap.Reason, d time.Duration) {
	t.stopLive()

	t.mu.Lock()
	info := t.info
	t.mu.Unlock()

	if !t.tty {
		t.println(fmt.Sprintf("unlocked (%s) after %s", reason, FormatDuration(d)))
		return
	}

	t.mu.Lock()
	t.out.ClearScreen()
	t.mu.Unlock()
	t.println(renderUnlocked(t.st, info, reason, d))
	t.println("")
}

// Killed stops the live panel and prints a one-line interruption notice.
func (t *Terminal) Killed(d time.Duration) {
	t.stopLive()
	if !t.tty {
		t.println(fmt.Sprintf("interrupted after %s", FormatDuration(d)))
		return
	}
	t.println("")
	t.println(fmt.Sprintf("  %s  Interrupted · Session: %s", t.st.warn.Render("⚡"), FormatDuration(d)))
	t.println("")
}

// Close stops any live rendering and restores the cursor. It is safe to
// call more than once and from a crash path.
func (t *Terminal) Close() {
	t.stopLive()
}

func (t *Terminal) stopLive() {
	t.mu.Lock()
	lv := t.live
	t.live = nil
	t.mu.Unlock()

	if lv != nil {
		lv.stop()
	}
}

// write emits a pre-rendered frame at the top-left of the screen.
func (t *Terminal) write(frame string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.MoveCursor(1, 1)
	for _, line := range strings.Split(frame, "\n") {
		io.WriteString(t.w, line)
		t.out.ClearLineRight()
		io.WriteString(t.w, "\n")
	}
}

func renderUnlocked(st styles, info eventtap.LockedInfo, reason eventtap.Reason, d time.Duration) string {
	restored := "Input restored"
	if info.WakeLock {
		restored += " · Caffeinate stopped"
	}
	body := lipgloss.JoinVertical(lipgloss.Center,
		st.logo.Render(Logo),
		"",
		st.unlocked.Render("INPUT UNLOCKED"),
		"",
		st.value.Render(restored),
		st.dim.Render(fmt.Sprintf("Unlocked via %s", reason)),
		st.dim.Render(fmt.Sprintf("Session duration: %s", FormatDuration(d))),
	)
	return st.panel.Render(body)
}

// FormatDuration renders d as MM:SS, or HH:MM:SS from one hour up.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h, rem := secs/3600, secs%3600
	m, s := rem/60, rem%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func panicHint(info eventtap.LockedInfo) string {
	if info.PanicTaps <= 0 {
		return "panic unlock disabled"
	}
	secs := strconv.FormatFloat(info.PanicWindow.Seconds(), 'f', -1, 64)
	return fmt.Sprintf("or tap %s %d× within %ss", info.PanicKey, info.PanicTaps, secs)
}
