// Package eventtap locks keyboard and mouse input behind a system-wide event
// filter until an unlock combo or panic sequence is seen.
//
// The package is split into a pure part (event model, Classifier, Locker)
// that runs everywhere and a Filter binding that talks to the OS. Only macOS
// has a real Filter; other platforms report ErrNotAvailable.
package eventtap

import (
	"fmt"
	"time"
)

// EventType mirrors CGEventType.
type EventType uint32

// Event types the filter subscribes to.
const (
	LeftMouseDown     EventType = 1
	LeftMouseUp       EventType = 2
	RightMouseDown    EventType = 3
	RightMouseUp      EventType = 4
	MouseMoved        EventType = 5
	LeftMouseDragged  EventType = 6
	RightMouseDragged EventType = 7
	KeyDown           EventType = 10
	KeyUp             EventType = 11
	FlagsChanged      EventType = 12
	ScrollWheel       EventType = 22
	OtherMouseDown    EventType = 25
	OtherMouseUp      EventType = 26
	OtherMouseDragged EventType = 27

	// Sentinels the OS delivers when it turns the filter off.
	TapDisabledByTimeout   EventType = 0xFFFFFFFE
	TapDisabledByUserInput EventType = 0xFFFFFFFF
)

var eventTypeNames = map[EventType]string{
	LeftMouseDown:          "left-mouse-down",
	LeftMouseUp:            "left-mouse-up",
	RightMouseDown:         "right-mouse-down",
	RightMouseUp:           "right-mouse-up",
	MouseMoved:             "mouse-moved",
	LeftMouseDragged:       "left-mouse-dragged",
	RightMouseDragged:      "right-mouse-dragged",
	KeyDown:                "key-down",
	KeyUp:                  "key-up",
	FlagsChanged:           "flags-changed",
	ScrollWheel:            "scroll-wheel",
	OtherMouseDown:         "other-mouse-down",
	OtherMouseUp:           "other-mouse-up",
	OtherMouseDragged:      "other-mouse-dragged",
	TapDisabledByTimeout:   "tap-disabled-by-timeout",
	TapDisabledByUserInput: "tap-disabled-by-user-input",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", uint32(t))
}

// IsTapDisabled reports whether t is one of the OS auto-disable notices.
func (t EventType) IsTapDisabled() bool {
	return t == TapDisabledByTimeout || t == TapDisabledByUserInput
}

// Event is the subset of a CGEvent the classifier needs.
type Event struct {
	Type    EventType
	KeyCode uint16
	Flags   uint64
	Time    time.Time
}

// Mask is a CGEventMask: bit n set subscribes to event type n.
type Mask uint64

// MaskBit returns the mask for a single event type.
func MaskBit(t EventType) Mask {
	if t >= 64 {
		return 0
	}
	return 1 << t
}

// Has reports whether t is in the mask.
func (m Mask) Has(t EventType) bool {
	return m&MaskBit(t) != 0
}

var lockedTypes = []EventType{
	KeyDown, KeyUp, FlagsChanged,
	LeftMouseDown, LeftMouseUp,
	RightMouseDown, RightMouseUp,
	OtherMouseDown, OtherMouseUp,
	LeftMouseDragged, RightMouseDragged, OtherMouseDragged,
	ScrollWheel,
}

// BuildMask returns the set of event types to intercept. Pointer motion is
// left out when allowMouseMove is set so the OS never routes it through us.
func BuildMask(allowMouseMove bool) Mask {
	var m Mask
	for _, t := range lockedTypes {
		m |= MaskBit(t)
	}
	if !allowMouseMove {
		m |= MaskBit(MouseMoved)
	}
	return m
}

// Action tells the filter what to do with an event.
type Action int

const (
	// Pass delivers the event unchanged.
	Pass Action = iota
	// Swallow drops the event.
	Swallow
	// ReenablePass turns the filter back on and passes the notice through.
	ReenablePass
)

func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case Swallow:
		return "swallow"
	case ReenablePass:
		return "reenable"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Trigger identifies what requested an unlock.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerCombo
	TriggerPanic
)

func (t Trigger) String() string {
	switch t {
	case TriggerCombo:
		return "combo"
	case TriggerPanic:
		return "panic"
	default:
		return "none"
	}
}

// Verdict is the classifier's decision for one event.
type Verdict struct {
	Action  Action
	Trigger Trigger
}
