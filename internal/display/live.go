package display

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"vegitate/internal/eventtap"
)

// liveView redraws the locked panel until stopped.
type liveView struct {
	t    *Terminal
	info eventtap.LockedInfo

	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func newLiveView(t *Terminal, info eventtap.LockedInfo) *liveView {
	return &liveView{
		t:      t,
		info:   info,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

func (lv *liveView) start() {
	lv.t.mu.Lock()
	lv.t.out.ClearScreen()
	lv.t.out.HideCursor()
	lv.t.mu.Unlock()

	go lv.loop()
}

func (lv *liveView) loop() {
	defer close(lv.exited)
	// Rendering problems must never take the lock down with them.
	defer func() { recover() }()

	ticker := time.NewTicker(lv.t.interval)
	defer ticker.Stop()

	for {
		lv.draw()
		select {
		case <-lv.done:
			return
		case <-ticker.C:
		}
	}
}

func (lv *liveView) draw() {
	snap := eventtap.Snapshot{WakeLock: lv.info.WakeLock}
	if lv.info.Status != nil {
		snap = lv.info.Status.Snapshot()
	}
	lv.t.write(renderLocked(lv.t.st, lv.info, snap))
}

// stop is idempotent and waits for the loop to exit.
func (lv *liveView) stop() {
	lv.stopOnce.Do(func() {
		close(lv.done)
		<-lv.exited

		lv.t.mu.Lock()
		lv.t.out.ShowCursor()
		lv.t.mu.Unlock()
	})
}

func renderLocked(st styles, info eventtap.LockedInfo, snap eventtap.Snapshot) string {
	caffeinate := "off"
	if snap.WakeLock {
		caffeinate = "active"
	}

	panicRow := "disabled"
	if info.PanicTaps > 0 {
		secs := strconv.FormatFloat(info.PanicWindow.Seconds(), 'f', -1, 64)
		panicRow = fmt.Sprintf("%s ×%d within %ss", info.PanicKey, info.PanicTaps, secs)
	}

	mouse := "blocked"
	if info.AllowMouseMove {
		mouse = "movement allowed"
	}

	rows := [][2]string{
		{"Status", st.statusRed.Render("LOCKED")},
		{"Caffeinate", st.value.Render(caffeinate)},
		{"Unlock", st.value.Render(info.Combo)},
		{"Panic", st.value.Render(panicRow)},
		{"Mouse", st.value.Render(mouse)},
		{"Locked for", st.timer.Render(FormatDuration(snap.Elapsed))},
		{"Events blocked", st.value.Render(strconv.FormatUint(snap.Swallowed, 10))},
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, st.label.Render(r[0]), r[1]))
	}
	table := lipgloss.JoinVertical(lipgloss.Left, lines...)

	footer := "All input suppressed"
	if caffeinate == "active" {
		footer = "Display stays on · " + footer
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		st.logo.Render(Logo),
		"",
		st.locked.Render("INPUT LOCKED"),
		"",
		table,
		"",
		st.dim.Render(footer),
	)
	return st.panel.Render(body)
}
