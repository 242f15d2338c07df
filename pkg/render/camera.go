package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/leterax/flycontrols/pkg/scene"
)

// Camera is a scene object with a perspective projection. Controls move
// the embedded Object3D; the renderer reads the view from it every frame.
type Camera struct {
	*scene.Object3D

	fov    float32 // vertical, degrees
	near   float32
	far    float32
	width  int
	height int

	projection mgl32.Mat4
}

// NewCamera creates a camera at position looking down -Z
func NewCamera(position mgl32.Vec3, width, height int) *Camera {
	c := &Camera{
		Object3D: scene.NewObject3D(),
		fov:      DefaultFOV,
		near:     DefaultNear,
		far:      DefaultFar,
		width:    width,
		height:   height,
	}
	c.SetPosition(position)
	c.updateProjectionMatrix()
	return c
}

// SetPerspective changes the field of view (degrees) and clip planes
func (c *Camera) SetPerspective(fov, near, far float32) {
	c.fov = mgl32.Clamp(fov, MinFOV, MaxFOV)
	c.near = near
	c.far = far
	c.updateProjectionMatrix()
}

// FOV returns the vertical field of view in degrees
func (c *Camera) FOV() float32 {
	return c.fov
}

// Resize updates the aspect ratio for new framebuffer dimensions
func (c *Camera) Resize(width, height int) {
	c.width = width
	c.height = height
	c.updateProjectionMatrix()
}

func (c *Camera) updateProjectionMatrix() {
	aspect := float32(1)
	if c.width > 0 && c.height > 0 {
		aspect = float32(c.width) / float32(c.height)
	}
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.fov), aspect, c.near, c.far)
}

// ProjectionMatrix returns the current projection matrix
func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return c.projection
}
