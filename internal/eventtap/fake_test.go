package eventtap

import (
	"sync"
	"time"
)

// fakeFilter stands in for the OS binding. Run blocks until Stop.
type fakeFilter struct {
	mu       sync.Mutex
	openErr  error
	mask     Mask
	handler  Handler
	opened   bool
	closed   int
	disabled int
	stopOnce sync.Once
	stopCh   chan struct{}

	// failDisable makes the next Disable panic.
	failDisable bool
}

func newFakeFilter() *fakeFilter {
	return &fakeFilter{stopCh: make(chan struct{})}
}

func (f *fakeFilter) Open(mask Mask, h Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	if f.opened {
		return ErrAlreadyOpen
	}
	f.opened = true
	f.mask = mask
	f.handler = h
	return nil
}

func (f *fakeFilter) Run() { <-f.stopCh }

func (f *fakeFilter) Disable() {
	f.mu.Lock()
	fail := f.failDisable
	f.failDisable = false
	f.disabled++
	f.mu.Unlock()
	if fail {
		panic("disable failed")
	}
}

func (f *fakeFilter) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
}

func (f *fakeFilter) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

// Inject delivers ev as the OS would and returns the handler's action.
func (f *fakeFilter) Inject(ev Event) Action {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h == nil {
		return Pass
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	return h(ev)
}

func (f *fakeFilter) counts() (disabled, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disabled, f.closed
}

// recorder is a Reporter that remembers what it was told.
type recorder struct {
	mu         sync.Mutex
	steps      []string
	permission int
	locked     []LockedInfo
	unlocked   []Reason
	killed     int
	errors     []string
}

func (r *recorder) Banner(string) {}

func (r *recorder) Step(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, msg)
}

func (r *recorder) PermissionError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permission++
}

func (r *recorder) Locked(info LockedInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = append(r.locked, info)
}

func (r *recorder) lockedInfos() []LockedInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LockedInfo(nil), r.locked...)
}

func (r *recorder) Unlocked(reason Reason, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlocked = append(r.unlocked, reason)
}

func (r *recorder) Killed(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.killed++
}

func (r *recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

type countingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *countingNotifier) Notify(_, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}
