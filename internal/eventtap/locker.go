package eventtap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"vegitate/internal/combo"
	"vegitate/internal/metrics"
	"vegitate/internal/wakelock"
)

// State of a lock session.
type State int32

const (
	StateUnlocked State = iota
	StateEngaging
	StateLocked
	StateDisengaging
)

func (s State) String() string {
	switch s {
	case StateUnlocked:
		return "unlocked"
	case StateEngaging:
		return "engaging"
	case StateLocked:
		return "locked"
	case StateDisengaging:
		return "disengaging"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Errors
var (
	ErrSessionUsed = errors.New("lock session already used")
	ErrAborted     = errors.New("lock session aborted")
)

// LockerConfig configures a Locker.
type LockerConfig struct {
	Classifier ClassifierConfig
	// WakeLock keeps the machine awake while locked.
	WakeLock bool
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	SessionID string
	State     State
	LockedAt  time.Time
	Elapsed   time.Duration
	Swallowed uint64
	Reenabled uint64
	WakeLock  bool
}

// LockerOption configures optional Locker collaborators.
type LockerOption func(*Locker)

// WithNotifier sets the desktop notifier.
func WithNotifier(n Notifier) LockerOption {
	return func(l *Locker) { l.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(lg *slog.Logger) LockerOption {
	return func(l *Locker) { l.logger = lg }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.LockMetrics) LockerOption {
	return func(l *Locker) { l.metrics = m }
}

// WithRecover sets a function deferred at the top of every goroutine the
// Locker starts. It must call recover itself.
func WithRecover(fn func()) LockerOption {
	return func(l *Locker) { l.recoverFn = fn }
}

// Locker runs one lock session: engage, block until unlocked, tear down.
//
// Disengage only flips state and stops the run loop, so it is safe to call
// from the event handler itself. All slow cleanup happens on the Run
// goroutine once the loop has returned, and runs at most once.
type Locker struct {
	cfg        LockerConfig
	filter     Filter
	wake       *wakelock.Controller
	reporter   Reporter
	notifier   Notifier
	logger     *slog.Logger
	metrics    *metrics.LockMetrics
	classifier *Classifier
	recoverFn  func()
	id         string

	state      atomic.Int32
	reason     atomic.Int32
	used       atomic.Bool
	looping    atomic.Bool
	closed     atomic.Bool
	wakeActive atomic.Bool
	wasLocked  atomic.Bool

	// Unix nanoseconds; zero means unset.
	lockedAt atomic.Int64
	endedAt  atomic.Int64

	cleanupOnce sync.Once
}

// NewLocker creates a session. wake may be nil when no wake lock is wanted.
func NewLocker(cfg LockerConfig, filter Filter, wake *wakelock.Controller, reporter Reporter, opts ...LockerOption) *Locker {
	if reporter == nil {
		reporter = nopReporter{}
	}
	l := &Locker{
		cfg:        cfg,
		filter:     filter,
		wake:       wake,
		reporter:   reporter,
		notifier:   nopNotifier{},
		logger:     slog.Default(),
		classifier: NewClassifier(cfg.Classifier),
		id:         uuid.NewString(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = metrics.NewLockMetrics(nil)
	}
	l.logger = l.logger.With("session", l.id)
	return l
}

// ID returns the session identifier.
func (l *Locker) ID() string { return l.id }

// State returns the current state.
func (l *Locker) State() State { return State(l.state.Load()) }

// Metrics returns the session metrics.
func (l *Locker) Metrics() *metrics.LockMetrics { return l.metrics }

// Run engages the lock and blocks until the session ends. Cancelling ctx
// ends the session as if the process had been signalled.
//
// Run returns nil after a combo, panic or signal unlock, ErrPermissionDenied
// when the OS refuses the filter, and ErrAborted after a recovered panic in
// the event handler or a Teardown.
func (l *Locker) Run(ctx context.Context) error {
	if l.used.Swap(true) {
		return ErrSessionUsed
	}

	// The filter is bound to the run loop of the thread that opens it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.state.Store(int32(StateEngaging))
	if err := l.engage(ctx); err != nil {
		l.state.Store(int32(StateUnlocked))
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		if l.recoverFn != nil {
			defer l.recoverFn()
		}
		l.Disengage(ReasonSignal)
	})
	defer stop()

	l.looping.Store(true)
	l.filter.Run()
	l.looping.Store(false)

	l.cleanup()
	// A Teardown during the loop could not close the filter.
	l.closeFilter()

	if Reason(l.reason.Load()) == ReasonFatal {
		return ErrAborted
	}
	return nil
}

func (l *Locker) engage(ctx context.Context) error {
	l.classifier.Reset()

	switch {
	case !l.cfg.WakeLock || l.wake == nil:
		l.reporter.Step("Caffeinate (skipped)")
	default:
		if err := l.wake.Start(ctx); err != nil {
			l.logger.Warn("wake lock unavailable", "error", err)
			l.reporter.Step("Caffeinate unavailable, continuing without it")
		} else {
			l.wakeActive.Store(true)
			l.reporter.Step("Caffeinate started")
		}
	}

	mask := BuildMask(l.cfg.Classifier.AllowMouseMove)
	if err := l.filter.Open(mask, l.handle); err != nil {
		l.stopWake()
		if errors.Is(err, ErrPermissionDenied) {
			l.logger.Error("event filter refused", "error", err)
			l.reporter.PermissionError()
			return ErrPermissionDenied
		}
		return fmt.Errorf("open event filter: %w", err)
	}

	l.endedAt.Store(0)
	l.lockedAt.Store(time.Now().UnixNano())

	l.wasLocked.Store(true)
	l.metrics.Locked.Set(1)
	l.state.Store(int32(StateLocked))

	l.logger.Info("input locked",
		"combo", combo.Format(l.cfg.Classifier.Combo),
		"panic_taps", l.cfg.Classifier.PanicTaps,
		"allow_mouse_move", l.cfg.Classifier.AllowMouseMove,
		"wake_lock", l.wakeActive.Load(),
	)
	l.reporter.Step("Event tap created, input locked")
	l.notifier.Notify("vegitate", "Input locked")
	l.reporter.Locked(LockedInfo{
		SessionID:      l.id,
		Combo:          combo.Format(l.cfg.Classifier.Combo),
		PanicKey:       combo.KeyName(l.cfg.Classifier.PanicKey),
		PanicTaps:      l.cfg.Classifier.PanicTaps,
		PanicWindow:    l.cfg.Classifier.PanicWindow,
		AllowMouseMove: l.cfg.Classifier.AllowMouseMove,
		WakeLock:       l.wakeActive.Load(),
		Status:         l,
	})
	return nil
}

// handle is the filter callback. It never blocks and never lets a panic
// escape into the OS callback.
func (l *Locker) handle(ev Event) (action Action) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			l.metrics.HandlerPanics.Inc()
			l.logger.Error("panic in event handler",
				"panic", r,
				"event", ev.Type.String(),
				"stack", string(debug.Stack()),
			)
			l.Disengage(ReasonFatal)
			action = Swallow
		}
		l.metrics.CallbackLatency.Since(start)
	}()

	l.metrics.EventsSeen.Inc()

	// Once disengaging, everything flows normally again.
	if l.State() != StateLocked {
		return Pass
	}

	v := l.classifier.Classify(ev)
	switch v.Action {
	case Swallow:
		l.metrics.EventsSwallowed.Inc()
	case Pass:
		l.metrics.EventsPassed.Inc()
	case ReenablePass:
		l.metrics.FilterReenabled.Inc()
		l.logger.Warn("event filter disabled by the OS, re-enabling", "event", ev.Type.String())
	}

	switch v.Trigger {
	case TriggerCombo:
		l.metrics.ComboUnlocks.Inc()
	case TriggerPanic:
		l.metrics.PanicUnlocks.Inc()
	}
	if v.Trigger != TriggerNone {
		l.Disengage(reasonFor(v.Trigger))
	}
	return v.Action
}

// Disengage ends a locked session. Only the first call while locked has any
// effect; it reports whether this call was that one. It does no blocking
// work and may be called from the event handler or any goroutine.
func (l *Locker) Disengage(reason Reason) bool {
	if !l.state.CompareAndSwap(int32(StateLocked), int32(StateDisengaging)) {
		return false
	}
	l.reason.Store(int32(reason))

	l.endedAt.Store(time.Now().UnixNano())

	l.filter.Disable()
	l.filter.Stop()
	return true
}

// Teardown is the forced-exit path: it disengages with ReasonFatal if still
// locked and runs cleanup if Run has not already done so.
func (l *Locker) Teardown() {
	l.Disengage(ReasonFatal)
	l.cleanup()
}

func (l *Locker) cleanup() {
	l.cleanupOnce.Do(func() {
		l.filter.Disable()
		if l.looping.Load() {
			l.filter.Stop()
		} else {
			l.closeFilter()
		}
		l.stopWake()
		l.metrics.Locked.Set(0)

		if !l.wasLocked.Load() {
			l.state.Store(int32(StateUnlocked))
			return
		}

		reason := Reason(l.reason.Load())
		d := l.elapsed()
		l.state.Store(int32(StateUnlocked))

		l.logger.Info("input unlocked",
			"reason", reason.String(),
			"duration", d.Round(time.Second).String(),
			"metrics", l.metrics.Registry().String(),
		)
		l.notifier.Notify("vegitate", "Input unlocked")
		if reason.Clean() {
			l.reporter.Unlocked(reason, d)
		} else {
			l.reporter.Killed(d)
		}
	})
}

func (l *Locker) closeFilter() {
	if l.closed.Swap(true) {
		return
	}
	if err := l.filter.Close(); err != nil {
		l.logger.Warn("close event filter", "error", err)
	}
}

func (l *Locker) stopWake() {
	if l.wake == nil || !l.wakeActive.Swap(false) {
		return
	}
	if err := l.wake.Stop(); err != nil {
		l.logger.Warn("stop wake lock", "error", err)
	}
}

func (l *Locker) elapsed() time.Duration {
	start := l.lockedAt.Load()
	if start == 0 {
		return 0
	}
	end := l.endedAt.Load()
	if end == 0 {
		end = time.Now().UnixNano()
	}
	return time.Duration(end - start)
}

// Snapshot implements StatusSource. It only reads atomics, so a renderer
// may call it at any rate without contending with the event callback.
func (l *Locker) Snapshot() Snapshot {
	var lockedAt time.Time
	if ns := l.lockedAt.Load(); ns != 0 {
		lockedAt = time.Unix(0, ns)
	}

	return Snapshot{
		SessionID: l.id,
		State:     l.State(),
		LockedAt:  lockedAt,
		Elapsed:   l.elapsed(),
		Swallowed: l.metrics.EventsSwallowed.Value(),
		Reenabled: l.metrics.FilterReenabled.Value(),
		WakeLock:  l.wakeActive.Load(),
	}
}
