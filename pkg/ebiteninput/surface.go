// Package ebiteninput adapts ebiten's polled input state to the event
// based input.Surface used by the controls.
package ebiteninput

import (
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/leterax/flycontrols/pkg/input"
)

// Backend is the slice of ebiten's global input API the surface reads
type Backend interface {
	AppendPressedKeys(keys []ebiten.Key) []ebiten.Key
	CursorPosition() (x, y int)
	IsMouseButtonJustReleased(button ebiten.MouseButton) bool
	CursorMode() ebiten.CursorModeType
	SetCursorMode(mode ebiten.CursorModeType)
}

type ebitenBackend struct{}

func (ebitenBackend) AppendPressedKeys(keys []ebiten.Key) []ebiten.Key {
	return inpututil.AppendPressedKeys(keys)
}

func (ebitenBackend) CursorPosition() (int, int) {
	return ebiten.CursorPosition()
}

func (ebitenBackend) IsMouseButtonJustReleased(button ebiten.MouseButton) bool {
	return inpututil.IsMouseButtonJustReleased(button)
}

func (ebitenBackend) CursorMode() ebiten.CursorModeType {
	return ebiten.CursorMode()
}

func (ebitenBackend) SetCursorMode(mode ebiten.CursorModeType) {
	ebiten.SetCursorMode(mode)
}

// Surface turns frame-by-frame input state into input events. Call Poll
// once from the game's Update.
type Surface struct {
	input.Dispatcher

	backend Backend

	down    []ebiten.Key
	pressed []ebiten.Key

	lastX, lastY int
	hasLast      bool
}

var _ input.Surface = (*Surface)(nil)

// New returns a surface reading ebiten's global input state
func New() *Surface {
	return NewWithBackend(ebitenBackend{})
}

// NewWithBackend returns a surface reading from b
func NewWithBackend(b Backend) *Surface {
	return &Surface{backend: b}
}

// Poll compares the current input state against the previous frame and
// dispatches the difference. Releases go out before presses.
func (s *Surface) Poll() {
	s.pressed = s.backend.AppendPressedKeys(s.pressed[:0])

	for _, k := range s.down {
		if !slices.Contains(s.pressed, k) {
			s.Dispatch(input.Event{Type: input.EventKeyUp, Key: k.String()})
		}
	}
	for _, k := range s.pressed {
		if !slices.Contains(s.down, k) {
			s.Dispatch(input.Event{Type: input.EventKeyDown, Key: k.String()})
		}
	}
	s.down, s.pressed = s.pressed, s.down

	x, y := s.backend.CursorPosition()
	if s.hasLast && (x != s.lastX || y != s.lastY) {
		s.Dispatch(input.Event{
			Type:      input.EventPointerMove,
			MovementX: float32(x - s.lastX),
			MovementY: float32(y - s.lastY),
		})
	}
	s.lastX, s.lastY = x, y
	s.hasLast = true

	if s.backend.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		s.Dispatch(input.Event{Type: input.EventClick})
	}
}

// RequestPointerLock captures the cursor
func (s *Surface) RequestPointerLock() error {
	s.backend.SetCursorMode(ebiten.CursorModeCaptured)
	if s.backend.CursorMode() != ebiten.CursorModeCaptured {
		return input.ErrPointerLockUnavailable
	}
	// the cursor jumps when captured
	s.hasLast = false
	return nil
}

// ExitPointerLock makes the cursor visible again
func (s *Surface) ExitPointerLock() {
	s.backend.SetCursorMode(ebiten.CursorModeVisible)
	s.hasLast = false
}

// PointerLocked reports whether the cursor is captured
func (s *Surface) PointerLocked() bool {
	return s.backend.CursorMode() == ebiten.CursorModeCaptured
}
