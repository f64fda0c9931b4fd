package eventtap

import (
	"time"

	"vegitate/internal/combo"
	"vegitate/internal/panicreset"
)

// ClassifierConfig configures a Classifier.
type ClassifierConfig struct {
	Combo          combo.Spec
	PanicKey       combo.Key
	PanicTaps      int
	PanicWindow    time.Duration
	AllowMouseMove bool
}

// Classifier decides the fate of each intercepted event. The only state it
// keeps is the panic detector; every other event is judged on its own.
type Classifier struct {
	combo          combo.Spec
	panicKey       combo.Key
	panic          *panicreset.Detector
	allowMouseMove bool
}

// NewClassifier builds a classifier from cfg.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{
		combo:          cfg.Combo,
		panicKey:       cfg.PanicKey,
		panic:          panicreset.New(cfg.PanicTaps, cfg.PanicWindow),
		allowMouseMove: cfg.AllowMouseMove,
	}
}

// Classify returns the verdict for ev. A zero ev.Time is replaced with the
// current time for panic-tap bookkeeping.
func (c *Classifier) Classify(ev Event) Verdict {
	if ev.Type.IsTapDisabled() {
		return Verdict{Action: ReenablePass}
	}

	if ev.Type == KeyDown {
		code := combo.Key(ev.KeyCode)
		if c.combo.Matches(code, ev.Flags) {
			return Verdict{Action: Swallow, Trigger: TriggerCombo}
		}
		if c.panic.Enabled() && code == c.panicKey {
			now := ev.Time
			if now.IsZero() {
				now = time.Now()
			}
			if c.panic.RecordTap(now) {
				return Verdict{Action: Swallow, Trigger: TriggerPanic}
			}
		}
		return Verdict{Action: Swallow}
	}

	if ev.Type == MouseMoved && c.allowMouseMove {
		return Verdict{Action: Pass}
	}
	return Verdict{Action: Swallow}
}

// Reset clears panic-tap history.
func (c *Classifier) Reset() {
	c.panic.Reset()
}

// PanicEnabled reports whether the panic sequence can unlock.
func (c *Classifier) PanicEnabled() bool {
	return c.panic.Enabled()
}
