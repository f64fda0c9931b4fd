//go:build darwin

package eventtap

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation

#include "tap_darwin.h"
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"sync"
	"sync/atomic"
	"time"
)

// runSlice bounds each run loop pass so a Stop that lands before Run starts
// is still noticed.
const runSlice = 0.25

// darwinFilter is a CGEventTap at the session level, inserted at the head
// so nothing downstream sees a swallowed event.
type darwinFilter struct {
	mu      sync.Mutex
	tap     *C.vgTap
	handle  cgo.Handle
	handler Handler
	stopped atomic.Bool
}

// NewFilter returns the CGEventTap filter.
func NewFilter() Filter {
	return &darwinFilter{}
}

// CheckAccessibility reports whether this process may install event taps.
func CheckAccessibility() bool {
	return C.vgTrusted(0) == 1
}

// PromptAccessibility is like CheckAccessibility but also asks macOS to show
// its permission prompt.
func PromptAccessibility() bool {
	return C.vgTrusted(1) == 1
}

func (f *darwinFilter) Open(mask Mask, h Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tap != nil {
		return ErrAlreadyOpen
	}

	f.handler = h
	f.handle = cgo.NewHandle(f)
	tap := C.vgNew(C.uintptr_t(f.handle))
	if tap == nil {
		f.handle.Delete()
		return fmt.Errorf("allocate event tap")
	}

	switch C.vgOpen(tap, C.uint64_t(mask)) {
	case C.VG_OK:
	case C.VG_ERR_TAP:
		C.vgClose(tap)
		f.handle.Delete()
		return ErrPermissionDenied
	default:
		C.vgClose(tap)
		f.handle.Delete()
		return fmt.Errorf("failed to create run loop source")
	}

	f.tap = tap
	f.stopped.Store(false)
	return nil
}

func (f *darwinFilter) Run() {
	for !f.stopped.Load() {
		C.vgRunFor(C.double(runSlice))
	}
}

func (f *darwinFilter) Disable() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tap != nil {
		C.vgEnable(f.tap, 0)
	}
}

func (f *darwinFilter) Stop() {
	if f.stopped.Swap(true) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tap != nil {
		C.vgStop(f.tap)
	}
}

func (f *darwinFilter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tap == nil {
		return nil
	}
	C.vgClose(f.tap)
	f.tap = nil
	f.handle.Delete()
	return nil
}

//export vegitateTapEvent
func vegitateTapEvent(h C.uintptr_t, typ C.uint32_t, code C.int64_t, flags C.uint64_t) C.int {
	f, ok := cgo.Handle(h).Value().(*darwinFilter)
	if !ok || f.handler == nil {
		return C.VG_PASS
	}

	ev := Event{
		Type:    EventType(typ),
		KeyCode: uint16(code),
		Flags:   uint64(flags),
		Time:    time.Now(),
	}
	switch f.handler(ev) {
	case Swallow:
		return C.VG_SWALLOW
	case ReenablePass:
		return C.VG_REENABLE
	default:
		return C.VG_PASS
	}
}
