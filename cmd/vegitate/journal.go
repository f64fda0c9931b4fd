package main

import (
	"time"

	"vegitate/internal/display"
	"vegitate/internal/eventtap"
	"vegitate/internal/logging"
)

// journalReporter forwards to the terminal and appends lifecycle events to
// the session journal.
type journalReporter struct {
	eventtap.Reporter
	journal *logging.Journal
	locker  *eventtap.Locker
}

func (r *journalReporter) sessionID() string {
	if r.locker == nil {
		return ""
	}
	return r.locker.ID()
}

func (r *journalReporter) swallowed() uint64 {
	if r.locker == nil {
		return 0
	}
	return r.locker.Metrics().EventsSwallowed.Value()
}

func (r *journalReporter) PermissionError() {
	r.Reporter.PermissionError()
	r.journal.Record(logging.JournalEvent{
		Type:      logging.JournalPermissionDenied,
		SessionID: r.sessionID(),
	})
}

func (r *journalReporter) Locked(info eventtap.LockedInfo) {
	r.Reporter.Locked(info)
	r.journal.Record(logging.JournalEvent{
		Type:      logging.JournalLocked,
		SessionID: info.SessionID,
		Details: map[string]any{
			"combo":            info.Combo,
			"panic_taps":       info.PanicTaps,
			"allow_mouse_move": info.AllowMouseMove,
			"wake_lock":        info.WakeLock,
		},
	})
}

func (r *journalReporter) Unlocked(reason eventtap.Reason, d time.Duration) {
	r.Reporter.Unlocked(reason, d)
	r.journal.Record(logging.JournalEvent{
		Type:      logging.JournalUnlocked,
		SessionID: r.sessionID(),
		Reason:    reason.String(),
		Duration:  display.FormatDuration(d),
		Swallowed: r.swallowed(),
	})
}

func (r *journalReporter) Killed(d time.Duration) {
	r.Reporter.Killed(d)
	r.journal.Record(logging.JournalEvent{
		Type:      logging.JournalKilled,
		SessionID: r.sessionID(),
		Duration:  display.FormatDuration(d),
		Swallowed: r.swallowed(),
	})
}
