package render

import "github.com/go-gl/mathgl/mgl32"

// Camera defaults
const (
	DefaultFOV  = 45.0
	DefaultNear = 0.1
	DefaultFar  = 1000.0

	MinFOV = 1.0
	MaxFOV = 120.0
)

// Scene constants
const (
	// gridRadius is the half width, in cubes, of the marker field
	gridRadius = 12
	// gridSpacing is the distance between neighbouring markers
	gridSpacing = 4.0
)

var (
	clearColor = mgl32.Vec4{0.05, 0.05, 0.1, 1.0}
	lightPos   = mgl32.Vec3{30.0, 60.0, 30.0}
	lightColor = mgl32.Vec3{1.0, 1.0, 1.0}
)
