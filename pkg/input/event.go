package input

import "errors"

// EventType identifies the kind of input event delivered to listeners
type EventType int

const (
	// EventClick is a primary button click on a surface
	EventClick EventType = iota
	// EventPointerMove carries relative pointer motion
	EventPointerMove
	// EventKeyDown is a key press (and key repeat)
	EventKeyDown
	// EventKeyUp is a key release
	EventKeyUp
)

func (t EventType) String() string {
	switch t {
	case EventClick:
		return "click"
	case EventPointerMove:
		return "pointermove"
	case EventKeyDown:
		return "keydown"
	case EventKeyUp:
		return "keyup"
	}
	return "unknown"
}

// Event is a single input event.
// MovementX/MovementY are only set for EventPointerMove, Key only for key events.
type Event struct {
	Type      EventType
	MovementX float32
	MovementY float32
	Key       string
}

// Listener handles a dispatched event
type Listener func(Event)

// ListenerID identifies a registered listener so it can be removed later
type ListenerID uint64

// ErrPointerLockUnavailable is returned by surfaces that cannot capture the pointer
var ErrPointerLockUnavailable = errors.New("pointer lock unavailable")

// Source delivers input events to registered listeners
type Source interface {
	// AddListener registers l for events of type t
	AddListener(t EventType, l Listener) ListenerID
	// RemoveListener detaches a listener. Unknown ids are ignored.
	RemoveListener(id ListenerID)
}

// Surface is a Source that can also capture the pointer, typically a window
type Surface interface {
	Source

	// RequestPointerLock hides the cursor and switches to relative motion
	RequestPointerLock() error
	// ExitPointerLock releases a previous capture
	ExitPointerLock()
	// PointerLocked reports whether the pointer is currently captured
	PointerLocked() bool
}
