package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Euler holds rotation angles in radians, applied in Y (yaw), X (pitch),
// Z (roll) order. This is the usual order for first-person cameras: yaw about
// the world up axis, then pitch about the already yawed right axis.
type Euler struct {
	X float32 // pitch
	Y float32 // yaw
	Z float32 // roll
}

var (
	axisX = mgl32.Vec3{1, 0, 0}
	axisY = mgl32.Vec3{0, 1, 0}
	axisZ = mgl32.Vec3{0, 0, 1}
)

// EulerFromQuat decomposes a unit quaternion into YXZ Euler angles
func EulerFromQuat(q mgl32.Quat) Euler {
	m := q.Normalize().Mat4()

	m11, m13 := float64(m.At(0, 0)), float64(m.At(0, 2))
	m21, m22, m23 := float64(m.At(1, 0)), float64(m.At(1, 1)), float64(m.At(1, 2))
	m31, m33 := float64(m.At(2, 0)), float64(m.At(2, 2))

	var e Euler
	e.X = float32(math.Asin(-clamp64(m23, -1, 1)))

	// Near +-90 degrees of pitch yaw and roll describe the same rotation,
	// so roll is folded into yaw.
	if math.Abs(m23) < 0.9999999 {
		e.Y = float32(math.Atan2(m13, m33))
		e.Z = float32(math.Atan2(m21, m22))
	} else {
		e.Y = float32(math.Atan2(-m31, m11))
		e.Z = 0
	}
	return e
}

// Quat composes the angles back into a quaternion (Ry * Rx * Rz)
func (e Euler) Quat() mgl32.Quat {
	yaw := mgl32.QuatRotate(e.Y, axisY)
	pitch := mgl32.QuatRotate(e.X, axisX)
	roll := mgl32.QuatRotate(e.Z, axisZ)
	return yaw.Mul(pitch).Mul(roll).Normalize()
}

func clamp64(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
