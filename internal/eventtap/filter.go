package eventtap

import "errors"

// Errors
var (
	ErrPermissionDenied = errors.New("accessibility permission required to intercept input")
	ErrNotAvailable     = errors.New("input interception not available on this platform")
	ErrAlreadyOpen      = errors.New("event filter already open")
	ErrNotOpen          = errors.New("event filter not open")
)

// Handler receives every intercepted event on the filter's run loop thread
// and returns what to do with it. It must not block.
type Handler func(Event) Action

// Filter is the OS binding for a system-wide input filter. When the OS
// disables the filter, the handler sees the notice and answers ReenablePass;
// the binding turns the filter back on itself.
//
// Open and Run must be called from the same locked OS thread: Open attaches
// the filter to that thread's run loop and Run drives it. Disable and Stop
// may be called from any goroutine, including from inside the handler.
type Filter interface {
	// Open creates the filter for the event types in mask, attaches it to
	// the calling thread's run loop and enables it. It returns
	// ErrPermissionDenied when the OS refuses.
	Open(mask Mask, h Handler) error

	// Run blocks servicing events until Stop is called.
	Run()

	// Disable stops interception without tearing anything down. Idempotent.
	Disable()

	// Stop makes Run return. Idempotent.
	Stop()

	// Close releases OS resources. Call only after Run has returned.
	Close() error
}
