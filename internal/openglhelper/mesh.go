package openglhelper

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Instance is the per-copy data of an instanced mesh
type Instance struct {
	Offset mgl32.Vec3
	Color  mgl32.Vec3
}

// InstancedMesh draws many copies of one indexed mesh in a single call.
// Vertex layout is position (3) and normal (3); each instance adds an
// offset (3) and a color (3) at attribute locations 2 and 3.
type InstancedMesh struct {
	vao       *VertexArrayObject
	vbo       *BufferObject
	ebo       *BufferObject
	instances *BufferObject
	count     int32
	numInst   int32
}

// NewInstancedMesh uploads vertices, indices and the initial instances
func NewInstancedMesh(vertices []float32, indices []uint32, instances []Instance) *InstancedMesh {
	m := &InstancedMesh{
		vao:   NewVAO(),
		count: int32(len(indices)),
	}
	m.vao.Bind()

	m.vbo = NewVBO(vertices, StaticDraw)
	m.vao.SetVertexAttribPointer(0, 3, 6*4, 0)
	m.vao.SetVertexAttribPointer(1, 3, 6*4, 3*4)

	m.ebo = NewEBO(indices, StaticDraw)

	m.instances = NewVBO(flattenInstances(instances), DynamicDraw)
	m.vao.SetVertexAttribPointer(2, 3, 6*4, 0)
	m.vao.SetVertexAttribPointer(3, 3, 6*4, 3*4)
	m.vao.SetInstanced(2)
	m.vao.SetInstanced(3)
	m.numInst = int32(len(instances))

	m.vao.Unbind()
	return m
}

// SetInstances replaces the instance data
func (m *InstancedMesh) SetInstances(instances []Instance) {
	m.instances.Update(flattenInstances(instances))
	m.numInst = int32(len(instances))
}

// Draw renders every instance with the currently bound shader
func (m *InstancedMesh) Draw() {
	if m.numInst == 0 {
		return
	}
	m.vao.Bind()
	gl.DrawElementsInstanced(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil, m.numInst)
	m.vao.Unbind()
}

// Delete releases all GL objects
func (m *InstancedMesh) Delete() {
	m.instances.Delete()
	m.ebo.Delete()
	m.vbo.Delete()
	m.vao.Delete()
}

func flattenInstances(instances []Instance) []float32 {
	data := make([]float32, 0, len(instances)*6)
	for _, inst := range instances {
		data = append(data, inst.Offset[0], inst.Offset[1], inst.Offset[2])
		data = append(data, inst.Color[0], inst.Color[1], inst.Color[2])
	}
	return data
}

// CubeGeometry returns a unit cube centered on the origin with per-face
// normals, in the layout InstancedMesh expects.
func CubeGeometry() (vertices []float32, indices []uint32) {
	faces := []struct {
		normal mgl32.Vec3
		u, v   mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	for i, f := range faces {
		center := f.normal.Mul(0.5)
		for _, c := range corners {
			p := center.Add(f.u.Mul(c[0] * 0.5)).Add(f.v.Mul(c[1] * 0.5))
			vertices = append(vertices, p[0], p[1], p[2], f.normal[0], f.normal[1], f.normal[2])
		}
		base := uint32(i * 4)
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return vertices, indices
}
