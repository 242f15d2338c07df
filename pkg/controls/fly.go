// Package controls turns pointer and keyboard input into first-person
// "fly" movement of a scene object, usually a camera.
package controls

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/leterax/flycontrols/pkg/input"
	"github.com/leterax/flycontrols/pkg/scene"
)

const (
	DefaultMovementSpeed = 1.0
	DefaultLookSpeed     = 1.0

	// lookScale converts pointer pixels times LookSpeed into radians
	lookScale = 0.001

	maxPitch = math.Pi / 2
	minPitch = -math.Pi / 2
)

// FlyControls moves and turns a target from pointer and keyboard input.
//
// Input handlers only record state (pointer deltas are applied immediately,
// held keys are remembered); translation happens when the host calls Update
// once per frame. FlyControls is not safe for concurrent use: it expects all
// events and Update calls to come from the same goroutine, as they do with
// GLFW and ebiten.
type FlyControls struct {
	// MovementSpeed is in scene units per second. Changes apply on the next Update.
	MovementSpeed float32
	// LookSpeed scales pointer motion. Changes apply on the next pointer event.
	LookSpeed float32

	target  scene.Transformable
	surface input.Surface
	keys    input.Source
	logger  *zap.Logger

	active [len(directions)]bool

	clickID   input.ListenerID
	pointerID input.ListenerID
	keyDownID input.ListenerID
	keyUpID   input.ListenerID
	disposed  bool
}

// Bind creates controls for target and registers its listeners: click and
// pointer motion on surface, key down and key up on keys. The keyboard
// source is usually the same window as surface but may be any Source.
// Call Dispose to detach the listeners again.
func Bind(target scene.Transformable, surface input.Surface, keys input.Source, options ...Option) *FlyControls {
	fc := &FlyControls{
		MovementSpeed: DefaultMovementSpeed,
		LookSpeed:     DefaultLookSpeed,
		target:        target,
		surface:       surface,
		keys:          keys,
		logger:        zap.NewNop(),
	}

	for _, option := range options {
		option(fc)
	}

	fc.clickID = surface.AddListener(input.EventClick, fc.requestPointerLock)
	fc.pointerID = surface.AddListener(input.EventPointerMove, fc.look)
	fc.keyDownID = keys.AddListener(input.EventKeyDown, fc.move)
	fc.keyUpID = keys.AddListener(input.EventKeyUp, fc.stop)

	return fc
}

// Dispose removes every listener registered by Bind and drops the
// controls' references to the target and input sources. It may be called
// more than once and from inside one of the controls' own handlers. Update
// is a no-op afterwards.
func (fc *FlyControls) Dispose() {
	if fc.disposed {
		return
	}

	fc.surface.RemoveListener(fc.clickID)
	fc.surface.RemoveListener(fc.pointerID)
	fc.keys.RemoveListener(fc.keyDownID)
	fc.keys.RemoveListener(fc.keyUpID)

	fc.disposed = true
	fc.target = nil
	fc.surface = nil
	fc.keys = nil
	fc.active = [len(directions)]bool{}

	fc.logger.Debug("fly controls disposed")
}

// Target returns the controlled object, or nil after Dispose
func (fc *FlyControls) Target() scene.Transformable {
	return fc.target
}

// Active reports whether movement in direction d is currently held
func (fc *FlyControls) Active(d Direction) bool {
	if d < 0 || int(d) >= len(fc.active) {
		return false
	}
	return fc.active[d]
}

// Reset releases every held direction, e.g. after the window lost focus
// and key-up events will never arrive.
func (fc *FlyControls) Reset() {
	fc.active = [len(directions)]bool{}
}

// Update moves the target along its local axes for every held direction,
// in Forward, Left, Backward, Right order. onPositionChanged, if not nil,
// is called after each individual translation with the target's new
// position, so it runs once per held direction rather than once per call.
func (fc *FlyControls) Update(deltaTime float32, onPositionChanged func(position mgl32.Vec3)) {
	if fc.disposed {
		return
	}
	distance := fc.MovementSpeed * deltaTime

	for _, d := range directions {
		if !fc.active[d] {
			continue
		}

		fc.translate(d, distance)

		if onPositionChanged != nil {
			onPositionChanged(fc.target.Position())
		}
	}
}

func (fc *FlyControls) translate(d Direction, distance float32) {
	switch d {
	case Forward:
		fc.target.TranslateZ(-distance)
	case Left:
		fc.target.TranslateX(-distance)
	case Backward:
		fc.target.TranslateZ(distance)
	case Right:
		fc.target.TranslateX(distance)
	}
}

func (fc *FlyControls) requestPointerLock(input.Event) {
	if err := fc.surface.RequestPointerLock(); err != nil {
		fc.logger.Debug("pointer lock request denied", zap.Error(err))
	}
}

// look applies relative pointer motion to the target's orientation. All
// three angles are re-derived from the target on every event.
func (fc *FlyControls) look(ev input.Event) {
	e := scene.EulerFromQuat(fc.target.Quaternion())
	e = turn(e, ev.MovementX, ev.MovementY, fc.LookSpeed)
	fc.target.SetQuaternion(e.Quat())
}

// turn yaws and pitches e by a pointer delta. Pitch is clamped to
// [-pi/2, pi/2] and roll is always cleared.
func turn(e scene.Euler, dx, dy, lookSpeed float32) scene.Euler {
	multiplier := lookSpeed * lookScale

	e.Y -= dx * multiplier
	e.X -= dy * multiplier
	e.X = mgl32.Clamp(e.X, minPitch, maxPitch)
	e.Z = 0

	return e
}

func (fc *FlyControls) move(ev input.Event) {
	if d, ok := DirectionForKey(ev.Key); ok {
		fc.active[d] = true
	}
}

func (fc *FlyControls) stop(ev input.Event) {
	if d, ok := DirectionForKey(ev.Key); ok {
		fc.active[d] = false
	}
}
