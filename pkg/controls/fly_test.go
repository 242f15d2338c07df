package controls

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/leterax/flycontrols/pkg/input"
	"github.com/leterax/flycontrols/pkg/scene"
)

const float32EqualityThreshold = 1e-4

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) <= float32EqualityThreshold
}

// vecWithin compares component-wise with an absolute tolerance
func vecWithin(a, b mgl32.Vec3, threshold float64) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > threshold {
			return false
		}
	}
	return true
}

// fakeSurface is an input.Surface backed by a plain dispatcher
type fakeSurface struct {
	input.Dispatcher
	lockRequests int
	lockErr      error
	locked       bool
}

func (s *fakeSurface) RequestPointerLock() error {
	s.lockRequests++
	if s.lockErr != nil {
		return s.lockErr
	}
	s.locked = true
	return nil
}

func (s *fakeSurface) ExitPointerLock()    { s.locked = false }
func (s *fakeSurface) PointerLocked() bool { return s.locked }

type harness struct {
	target  *scene.Object3D
	surface *fakeSurface
	keys    *input.Dispatcher
	fc      *FlyControls
}

func newHarness(options ...Option) *harness {
	h := &harness{
		target:  scene.NewObject3D(),
		surface: &fakeSurface{},
		keys:    &input.Dispatcher{},
	}
	h.fc = Bind(h.target, h.surface, h.keys, options...)
	return h
}

func (h *harness) keyDown(key string) {
	h.keys.Dispatch(input.Event{Type: input.EventKeyDown, Key: key})
}

func (h *harness) keyUp(key string) {
	h.keys.Dispatch(input.Event{Type: input.EventKeyUp, Key: key})
}

func (h *harness) pointerMove(dx, dy float32) {
	h.surface.Dispatch(input.Event{Type: input.EventPointerMove, MovementX: dx, MovementY: dy})
}

type positionRecorder struct {
	positions []mgl32.Vec3
}

func (r *positionRecorder) record(p mgl32.Vec3) {
	r.positions = append(r.positions, p)
}

func TestBindDefaults(t *testing.T) {
	h := newHarness()

	if h.fc.MovementSpeed != 1.0 {
		t.Errorf("expected movement speed 1.0, got %f", h.fc.MovementSpeed)
	}
	if h.fc.LookSpeed != 1.0 {
		t.Errorf("expected look speed 1.0, got %f", h.fc.LookSpeed)
	}
	if h.surface.Len() != 2 {
		t.Errorf("expected 2 surface listeners, got %d", h.surface.Len())
	}
	if h.keys.Len() != 2 {
		t.Errorf("expected 2 key listeners, got %d", h.keys.Len())
	}
	if h.fc.Target() != scene.Transformable(h.target) {
		t.Errorf("Target returned a different object")
	}
	for _, d := range directions {
		if h.fc.Active(d) {
			t.Errorf("%v active before any input", d)
		}
	}
}

func TestOptions(t *testing.T) {
	h := newHarness(WithMovementSpeed(5), WithLookSpeed(0.25), WithLogger(nil))

	if h.fc.MovementSpeed != 5 {
		t.Errorf("expected movement speed 5, got %f", h.fc.MovementSpeed)
	}
	if h.fc.LookSpeed != 0.25 {
		t.Errorf("expected look speed 0.25, got %f", h.fc.LookSpeed)
	}
	if h.fc.logger == nil {
		t.Errorf("nil logger option replaced the default logger")
	}
}

func TestClickRequestsPointerLock(t *testing.T) {
	h := newHarness()
	h.surface.Dispatch(input.Event{Type: input.EventClick})

	if h.surface.lockRequests != 1 {
		t.Fatalf("expected 1 lock request, got %d", h.surface.lockRequests)
	}
	if !h.surface.PointerLocked() {
		t.Errorf("expected surface to be locked")
	}
}

func TestPointerLockDenialIsIgnored(t *testing.T) {
	h := newHarness()
	h.surface.lockErr = input.ErrPointerLockUnavailable

	h.surface.Dispatch(input.Event{Type: input.EventClick})

	if h.surface.lockRequests != 1 {
		t.Errorf("expected 1 lock request, got %d", h.surface.lockRequests)
	}
	if !errors.Is(h.surface.lockErr, input.ErrPointerLockUnavailable) {
		t.Errorf("unexpected error %v", h.surface.lockErr)
	}
	if h.target.Quaternion() != mgl32.QuatIdent() || h.target.Position() != (mgl32.Vec3{}) {
		t.Errorf("denied lock changed the target")
	}
}

func TestTurn(t *testing.T) {
	testCases := []struct {
		name      string
		start     scene.Euler
		dx, dy    float32
		lookSpeed float32
		want      scene.Euler
	}{
		{"yaw by one radian", scene.Euler{}, 1000, 0, 1, scene.Euler{Y: -1}},
		{"look speed scales", scene.Euler{}, 1000, 0, 2, scene.Euler{Y: -2}},
		{"pitch up", scene.Euler{}, 0, -500, 1, scene.Euler{X: 0.5}},
		{"pitch clamps low", scene.Euler{}, 0, 1e6, 1, scene.Euler{X: -math.Pi / 2}},
		{"pitch clamps high", scene.Euler{}, 0, -1e6, 1, scene.Euler{X: math.Pi / 2}},
		{"exact boundary", scene.Euler{X: -1}, 0, 570.7963, 1, scene.Euler{X: -math.Pi / 2}},
		{"roll cleared", scene.Euler{Z: 0.3}, 0, 0, 1, scene.Euler{}},
		{"accumulates", scene.Euler{X: 0.2, Y: 0.5}, 100, 100, 1, scene.Euler{X: 0.1, Y: 0.4}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := turn(tc.start, tc.dx, tc.dy, tc.lookSpeed)
			if !almostEqual(got.X, tc.want.X) || !almostEqual(got.Y, tc.want.Y) || got.Z != tc.want.Z {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestTurnPitchAlwaysClamped(t *testing.T) {
	deltas := []float32{-1e9, -1e4, -1571, -1, 0, 1, 1571, 1e4, 1e9}
	for _, start := range []float32{-math.Pi / 2, -0.3, 0, 0.3, math.Pi / 2} {
		for _, dy := range deltas {
			got := turn(scene.Euler{X: start}, 0, dy, 1)
			if got.X < -math.Pi/2 || got.X > math.Pi/2 {
				t.Errorf("start %f dy %f: pitch %f out of range", start, dy, got.X)
			}
		}
	}

	if got := turn(scene.Euler{}, 0, 1e6, 1); got.X != float32(-math.Pi/2) {
		t.Errorf("expected pitch exactly -pi/2, got %v", got.X)
	}
}

func TestPointerMoveYaw(t *testing.T) {
	h := newHarness()
	h.pointerMove(1000, 0)

	rot := h.target.Rotation()
	if !almostEqual(rot.Y, -1) {
		t.Errorf("expected yaw -1, got %f", rot.Y)
	}
	if !almostEqual(rot.X, 0) {
		t.Errorf("expected pitch 0, got %f", rot.X)
	}
}

func TestPointerMoveClampsPitchOnTarget(t *testing.T) {
	h := newHarness()
	h.pointerMove(0, 1e5)

	pitch := h.target.Rotation().X
	if math.Abs(float64(pitch)+math.Pi/2) > 3e-3 {
		t.Errorf("expected pitch close to -pi/2, got %f", pitch)
	}

	// Moving further down must not flip the camera over.
	h.pointerMove(0, 1e5)
	forward := h.target.Forward()
	if !vecWithin(forward, mgl32.Vec3{0, -1, 0}, 1e-3) {
		t.Errorf("expected camera to look straight down, forward %v", forward)
	}
}

func TestPointerMoveDropsRoll(t *testing.T) {
	h := newHarness()
	h.target.SetRotation(scene.Euler{X: 0.2, Y: 0.4, Z: 0.5})

	h.pointerMove(0, 0)

	rot := h.target.Rotation()
	if !almostEqual(rot.Z, 0) {
		t.Errorf("expected roll 0, got %f", rot.Z)
	}
	if !almostEqual(rot.X, 0.2) || !almostEqual(rot.Y, 0.4) {
		t.Errorf("yaw/pitch changed: %+v", rot)
	}
}

func TestPointerMoveRespectsLookSpeedChanges(t *testing.T) {
	h := newHarness()
	h.pointerMove(500, 0)
	h.fc.LookSpeed = 3
	h.pointerMove(100, 0)

	if rot := h.target.Rotation(); !almostEqual(rot.Y, -0.8) {
		t.Errorf("expected yaw -0.8, got %f", rot.Y)
	}
}

func TestForwardMovement(t *testing.T) {
	h := newHarness(WithMovementSpeed(2))
	rec := &positionRecorder{}

	h.keyDown("w")
	h.fc.Update(1.0, rec.record)

	if len(rec.positions) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(rec.positions))
	}
	want := mgl32.Vec3{0, 0, -2}
	if !vecWithin(rec.positions[0], want, float32EqualityThreshold) {
		t.Errorf("expected %v, got %v", want, rec.positions[0])
	}
	if !vecWithin(h.target.Position(), want, float32EqualityThreshold) {
		t.Errorf("target at %v, expected %v", h.target.Position(), want)
	}
}

func TestDiagonalMovementFiresPerDirection(t *testing.T) {
	h := newHarness()
	rec := &positionRecorder{}

	// Key order must not matter, application order is Forward then Right.
	h.keyDown("d")
	h.keyDown("w")
	h.fc.Update(1.0, rec.record)

	want := []mgl32.Vec3{{0, 0, -1}, {1, 0, -1}}
	if len(rec.positions) != len(want) {
		t.Fatalf("expected %d callbacks, got %d", len(want), len(rec.positions))
	}
	for i := range want {
		if !vecWithin(rec.positions[i], want[i], float32EqualityThreshold) {
			t.Errorf("callback %d: expected %v, got %v", i, want[i], rec.positions[i])
		}
	}
}

func TestAllDirections(t *testing.T) {
	testCases := []struct {
		key  string
		want mgl32.Vec3
	}{
		{"w", mgl32.Vec3{0, 0, -0.5}},
		{"a", mgl32.Vec3{-0.5, 0, 0}},
		{"s", mgl32.Vec3{0, 0, 0.5}},
		{"d", mgl32.Vec3{0.5, 0, 0}},
		{"W", mgl32.Vec3{0, 0, -0.5}},
		{"D", mgl32.Vec3{0.5, 0, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			h := newHarness()
			h.keyDown(tc.key)
			h.fc.Update(0.5, nil)

			if !vecWithin(h.target.Position(), tc.want, float32EqualityThreshold) {
				t.Errorf("expected %v, got %v", tc.want, h.target.Position())
			}
		})
	}
}

func TestMovementFollowsOrientation(t *testing.T) {
	h := newHarness()
	// Moving the pointer 1000*pi/2 pixels left yaws a quarter turn left,
	// so forward becomes world -X.
	h.pointerMove(-1000*math.Pi/2, 0)

	h.keyDown("w")
	h.fc.Update(1, nil)

	want := mgl32.Vec3{-1, 0, 0}
	if !vecWithin(h.target.Position(), want, 1e-3) {
		t.Errorf("expected %v, got %v", want, h.target.Position())
	}
}

func TestKeyUpStopsMovement(t *testing.T) {
	h := newHarness()
	rec := &positionRecorder{}

	h.keyDown("s")
	if !h.fc.Active(Backward) {
		t.Fatalf("expected Backward to be active")
	}
	h.keyUp("S")
	if h.fc.Active(Backward) {
		t.Fatalf("expected Backward to be released")
	}

	h.fc.Update(1, rec.record)
	if len(rec.positions) != 0 {
		t.Errorf("expected no callbacks, got %d", len(rec.positions))
	}
}

func TestUnmappedKeyIsIgnored(t *testing.T) {
	h := newHarness()
	rec := &positionRecorder{}

	h.keyDown("q")
	h.keyDown("")
	h.keyDown("Escape")

	for _, d := range directions {
		if h.fc.Active(d) {
			t.Errorf("%v became active from an unmapped key", d)
		}
	}

	h.fc.Update(1, rec.record)
	if len(rec.positions) != 0 {
		t.Errorf("expected no callbacks, got %d", len(rec.positions))
	}
	if h.target.Position() != (mgl32.Vec3{}) {
		t.Errorf("target moved to %v", h.target.Position())
	}
}

func TestUpdateWithNilCallback(t *testing.T) {
	h := newHarness()
	h.keyDown("w")
	h.keyDown("a")

	h.fc.Update(1, nil)

	want := mgl32.Vec3{-1, 0, -1}
	if !vecWithin(h.target.Position(), want, float32EqualityThreshold) {
		t.Errorf("expected %v, got %v", want, h.target.Position())
	}
}

func TestOpposingKeysCancel(t *testing.T) {
	h := newHarness()
	rec := &positionRecorder{}
	h.keyDown("w")
	h.keyDown("s")

	h.fc.Update(1, rec.record)

	if len(rec.positions) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(rec.positions))
	}
	if !vecWithin(h.target.Position(), mgl32.Vec3{}, float32EqualityThreshold) {
		t.Errorf("expected no net movement, got %v", h.target.Position())
	}
}

func TestReset(t *testing.T) {
	h := newHarness()
	h.keyDown("w")
	h.keyDown("d")

	h.fc.Reset()

	for _, d := range directions {
		if h.fc.Active(d) {
			t.Errorf("%v still active after Reset", d)
		}
	}
	if h.fc.Active(Direction(-1)) || h.fc.Active(Direction(10)) {
		t.Errorf("out of range direction reported active")
	}
}

func TestDisposeDetachesListeners(t *testing.T) {
	h := newHarness()
	h.fc.Dispose()

	if h.surface.Len() != 0 || h.keys.Len() != 0 {
		t.Fatalf("listeners left after Dispose: surface %d, keys %d", h.surface.Len(), h.keys.Len())
	}

	h.surface.Dispatch(input.Event{Type: input.EventClick})
	h.pointerMove(1000, 1000)
	h.keyDown("w")

	if h.surface.lockRequests != 0 {
		t.Errorf("click after Dispose requested pointer lock")
	}
	if h.target.Quaternion() != mgl32.QuatIdent() {
		t.Errorf("pointer move after Dispose rotated the target")
	}
	if h.fc.Active(Forward) {
		t.Errorf("key down after Dispose set a direction")
	}

	// Disposing twice is harmless.
	h.fc.Dispose()
}

func TestDisposeDropsReferences(t *testing.T) {
	h := newHarness()
	h.keyDown("w")

	h.fc.Dispose()

	if h.fc.Target() != nil || h.fc.surface != nil || h.fc.keys != nil {
		t.Fatal("expected target and input sources to be released")
	}
	if h.fc.Active(Forward) {
		t.Error("held directions should be cleared by Dispose")
	}

	calls := 0
	h.fc.Update(1, func(mgl32.Vec3) { calls++ })
	if calls != 0 {
		t.Errorf("Update after Dispose fired %d callbacks", calls)
	}
	if h.target.Position() != (mgl32.Vec3{}) {
		t.Errorf("Update after Dispose moved the target to %v", h.target.Position())
	}

	h.fc.Dispose()
}

func TestDisposeKeepsOtherListeners(t *testing.T) {
	h := newHarness()
	other := 0
	h.keys.AddListener(input.EventKeyDown, func(input.Event) { other++ })

	h.fc.Dispose()
	h.keyDown("w")

	if other != 1 {
		t.Errorf("expected unrelated listener to keep running, ran %d times", other)
	}
}

func TestDisposeFromHandler(t *testing.T) {
	target := scene.NewObject3D()
	surface := &fakeSurface{}
	keys := &input.Dispatcher{}

	var fc *FlyControls
	keys.AddListener(input.EventKeyDown, func(ev input.Event) {
		if ev.Key == "Escape" {
			fc.Dispose()
		}
	})
	fc = Bind(target, surface, keys)

	keys.Dispatch(input.Event{Type: input.EventKeyDown, Key: "Escape"})
	keys.Dispatch(input.Event{Type: input.EventKeyDown, Key: "w"})

	if fc.Active(Forward) {
		t.Errorf("controls reacted after disposing from a handler")
	}
}

func TestMultipleInstancesAreIndependent(t *testing.T) {
	surface := &fakeSurface{}
	keysA := &input.Dispatcher{}
	keysB := &input.Dispatcher{}
	a := Bind(scene.NewObject3D(), surface, keysA)
	b := Bind(scene.NewObject3D(), surface, keysB)

	keysA.Dispatch(input.Event{Type: input.EventKeyDown, Key: "w"})

	if !a.Active(Forward) {
		t.Errorf("expected first instance to move forward")
	}
	if b.Active(Forward) {
		t.Errorf("second instance picked up keys from the first source")
	}
}

func TestDirectionForKey(t *testing.T) {
	testCases := []struct {
		key  string
		want Direction
		ok   bool
	}{
		{"w", Forward, true},
		{"A", Left, true},
		{"s", Backward, true},
		{"D", Right, true},
		{"q", 0, false},
		{"", 0, false},
		{"ww", 0, false},
		{"ArrowUp", 0, false},
	}

	for _, tc := range testCases {
		got, ok := DirectionForKey(tc.key)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("DirectionForKey(%q) = %v, %v; want %v, %v", tc.key, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDirectionString(t *testing.T) {
	want := []string{"Forward", "Left", "Backward", "Right"}
	for i, d := range directions {
		if d.String() != want[i] {
			t.Errorf("expected %q, got %q", want[i], d.String())
		}
	}
	if Direction(99).String() != "Unknown" {
		t.Errorf("expected Unknown for out of range direction")
	}
}
