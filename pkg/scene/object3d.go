package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transformable is the part of a scene object a controller is allowed to touch
type Transformable interface {
	Quaternion() mgl32.Quat
	SetQuaternion(q mgl32.Quat)
	Position() mgl32.Vec3
	TranslateX(distance float32)
	TranslateZ(distance float32)
}

// Object3D is a node transform: position, orientation and scale.
// Local axes follow OpenGL conventions: +X right, +Y up, -Z forward.
type Object3D struct {
	position   mgl32.Vec3
	quaternion mgl32.Quat
	scale      mgl32.Vec3
}

var _ Transformable = (*Object3D)(nil)

// NewObject3D creates an object at the origin with no rotation
func NewObject3D() *Object3D {
	return &Object3D{
		quaternion: mgl32.QuatIdent(),
		scale:      mgl32.Vec3{1, 1, 1},
	}
}

// Position returns the object's position
func (o *Object3D) Position() mgl32.Vec3 {
	return o.position
}

// SetPosition sets the object's position
func (o *Object3D) SetPosition(pos mgl32.Vec3) {
	o.position = pos
}

// Quaternion returns the object's orientation
func (o *Object3D) Quaternion() mgl32.Quat {
	return o.quaternion
}

// SetQuaternion replaces the object's orientation
func (o *Object3D) SetQuaternion(q mgl32.Quat) {
	o.quaternion = q.Normalize()
}

// Rotation returns the orientation as YXZ Euler angles
func (o *Object3D) Rotation() Euler {
	return EulerFromQuat(o.quaternion)
}

// SetRotation sets the orientation from YXZ Euler angles
func (o *Object3D) SetRotation(e Euler) {
	o.quaternion = e.Quat()
}

// Scale returns the object's scale
func (o *Object3D) Scale() mgl32.Vec3 {
	return o.scale
}

// SetScale sets the object's scale
func (o *Object3D) SetScale(s mgl32.Vec3) {
	o.scale = s
}

// TranslateOnAxis moves the object by distance along a local axis.
// The axis is expected to be normalized.
func (o *Object3D) TranslateOnAxis(axis mgl32.Vec3, distance float32) {
	o.position = o.position.Add(o.quaternion.Rotate(axis).Mul(distance))
}

// TranslateX moves the object along its local X axis
func (o *Object3D) TranslateX(distance float32) {
	o.TranslateOnAxis(axisX, distance)
}

// TranslateY moves the object along its local Y axis
func (o *Object3D) TranslateY(distance float32) {
	o.TranslateOnAxis(axisY, distance)
}

// TranslateZ moves the object along its local Z axis
func (o *Object3D) TranslateZ(distance float32) {
	o.TranslateOnAxis(axisZ, distance)
}

// Forward returns the world-space direction the object faces (local -Z)
func (o *Object3D) Forward() mgl32.Vec3 {
	return o.quaternion.Rotate(mgl32.Vec3{0, 0, -1})
}

// LookAt orients the object so its forward axis points at target.
// The result never has roll, so it can be driven by a first-person controller.
func (o *Object3D) LookAt(target mgl32.Vec3) {
	dir := target.Sub(o.position)
	if dir.Len() < 1e-6 {
		return
	}
	dir = dir.Normalize()

	o.quaternion = Euler{
		X: float32(math.Asin(clamp64(float64(dir.Y()), -1, 1))),
		Y: float32(math.Atan2(float64(-dir.X()), float64(-dir.Z()))),
	}.Quat()
}

// Matrix returns the local-to-world transform (T * R * S)
func (o *Object3D) Matrix() mgl32.Mat4 {
	t := mgl32.Translate3D(o.position[0], o.position[1], o.position[2])
	r := o.quaternion.Mat4()
	s := mgl32.Scale3D(o.scale[0], o.scale[1], o.scale[2])
	return t.Mul4(r).Mul4(s)
}

// ViewMatrix returns the world-to-local transform, ignoring scale.
// This is what a camera node feeds to the shader.
func (o *Object3D) ViewMatrix() mgl32.Mat4 {
	inv := o.quaternion.Inverse().Mat4()
	t := mgl32.Translate3D(-o.position[0], -o.position[1], -o.position[2])
	return inv.Mul4(t)
}
