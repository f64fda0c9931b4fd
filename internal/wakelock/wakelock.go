// Package wakelock keeps the machine awake while input is locked.
//
// A Controller owns at most one active Handle obtained from a Backend. The
// platform default backend runs caffeinate on macOS and takes a
// systemd-logind inhibitor lock on Linux.
package wakelock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Errors
var (
	ErrNotAvailable      = errors.New("wake lock not available on this platform")
	ErrSubprocessTimeout = errors.New("keep-awake process did not exit in time")
)

// DefaultStopTimeout bounds how long Stop waits for a graceful release.
const DefaultStopTimeout = 3 * time.Second

// Backend acquires platform wake locks.
type Backend interface {
	// Acquire takes a new wake lock. The lock is held until the returned
	// handle is released.
	Acquire(ctx context.Context) (Handle, error)

	// Name identifies the backend in logs and status output.
	Name() string
}

// Prober is implemented by backends that can report availability without
// taking a lock.
type Prober interface {
	Probe(ctx context.Context) error
}

// Probe checks whether b can be used. Backends without a probe are assumed
// available.
func Probe(ctx context.Context, b Backend) error {
	if p, ok := b.(Prober); ok {
		return p.Probe(ctx)
	}
	return nil
}

// Handle is an acquired wake lock.
type Handle interface {
	// Release drops the lock, waiting at most timeout for a graceful
	// shutdown before forcing it.
	Release(timeout time.Duration) error
}

// Controller starts and stops a single wake lock.
type Controller struct {
	mu          sync.Mutex
	backend     Backend
	handle      Handle
	stopTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for release failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithStopTimeout overrides DefaultStopTimeout.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Controller) { c.stopTimeout = d }
}

// New creates a controller for backend. A nil backend selects the platform
// default.
func New(backend Backend, opts ...Option) *Controller {
	if backend == nil {
		backend = DefaultBackend()
	}
	c := &Controller{
		backend:     backend,
		stopTimeout: DefaultStopTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the backend in use.
func (c *Controller) Backend() Backend {
	return c.backend
}

// Start acquires the wake lock. It is a no-op if a lock is already held.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		return nil
	}

	h, err := c.backend.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire %s: %w", c.backend.Name(), err)
	}
	c.handle = h
	c.logger.Debug("wake lock acquired", "backend", c.backend.Name())
	return nil
}

// Stop releases the wake lock if held. The handle is forgotten even when
// release fails, so a second Stop is always a no-op returning nil.
func (c *Controller) Stop() error {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.mu.Unlock()

	if h == nil {
		return nil
	}

	if err := h.Release(c.stopTimeout); err != nil {
		c.logger.Warn("wake lock release", "backend", c.backend.Name(), "error", err)
		return err
	}
	c.logger.Debug("wake lock released", "backend", c.backend.Name())
	return nil
}

// Running reports whether a lock is currently held.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != nil
}

type unavailableBackend struct{}

func (unavailableBackend) Acquire(context.Context) (Handle, error) { return nil, ErrNotAvailable }
func (unavailableBackend) Probe(context.Context) error             { return ErrNotAvailable }
func (unavailableBackend) Name() string                            { return "none" }
