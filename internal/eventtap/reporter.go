package eventtap

import "time"

// Reason records why a session ended.
type Reason int32

const (
	ReasonNone Reason = iota
	ReasonCombo
	ReasonPanic
	ReasonSignal
	ReasonFatal
)

func (r Reason) String() string {
	switch r {
	case ReasonCombo:
		return "combo"
	case ReasonPanic:
		return "panic"
	case ReasonSignal:
		return "signal"
	case ReasonFatal:
		return "fatal"
	default:
		return "none"
	}
}

// Clean reports whether the user unlocked deliberately.
func (r Reason) Clean() bool {
	return r == ReasonCombo || r == ReasonPanic
}

func reasonFor(t Trigger) Reason {
	switch t {
	case TriggerCombo:
		return ReasonCombo
	case TriggerPanic:
		return ReasonPanic
	default:
		return ReasonNone
	}
}

// StatusSource exposes live session state to renderers.
type StatusSource interface {
	Snapshot() Snapshot
}

// LockedInfo describes an engaged session.
type LockedInfo struct {
	SessionID      string
	Combo          string
	PanicKey       string
	PanicTaps      int
	PanicWindow    time.Duration
	AllowMouseMove bool
	WakeLock       bool
	Status         StatusSource
}

// Reporter is told about every user-visible lifecycle step.
type Reporter interface {
	Banner(version string)
	Step(msg string)
	PermissionError()
	Locked(info LockedInfo)
	Unlocked(reason Reason, d time.Duration)
	Killed(d time.Duration)
	Error(msg string)
}

// Notifier posts desktop notifications. Implementations must not block.
type Notifier interface {
	Notify(title, message string)
}

type nopReporter struct{}

func (nopReporter) Banner(string)                  {}
func (nopReporter) Step(string)                    {}
func (nopReporter) PermissionError()               {}
func (nopReporter) Locked(LockedInfo)              {}
func (nopReporter) Unlocked(Reason, time.Duration) {}
func (nopReporter) Killed(time.Duration)           {}
func (nopReporter) Error(string)                   {}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}
