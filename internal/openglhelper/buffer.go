// Package openglhelper wraps the GLFW window and the handful of OpenGL
// objects the demo renderer needs in a more Go-friendly API.
package openglhelper

import (
	"github.com/go-gl/gl/v4.6-core/gl"
)

// BufferUsage represents the expected update pattern of a buffer
type BufferUsage uint32

const (
	// StaticDraw is for data uploaded once and drawn many times
	StaticDraw BufferUsage = gl.STATIC_DRAW
	// DynamicDraw is for data rewritten often and drawn many times
	DynamicDraw BufferUsage = gl.DYNAMIC_DRAW
)

// BufferObject is an OpenGL buffer (VBO or EBO)
type BufferObject struct {
	ID   uint32
	Type uint32 // GL_ARRAY_BUFFER or GL_ELEMENT_ARRAY_BUFFER
	Size int    // size in bytes
}

// NewVBO creates a vertex buffer holding data
func NewVBO(data []float32, usage BufferUsage) *BufferObject {
	return newBuffer(gl.ARRAY_BUFFER, len(data)*4, data, usage)
}

// NewEBO creates an element buffer holding indices
func NewEBO(indices []uint32, usage BufferUsage) *BufferObject {
	return newBuffer(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, indices, usage)
}

func newBuffer(bufferType uint32, sizeInBytes int, data any, usage BufferUsage) *BufferObject {
	bo := &BufferObject{Type: bufferType, Size: sizeInBytes}
	gl.GenBuffers(1, &bo.ID)
	gl.BindBuffer(bufferType, bo.ID)
	if sizeInBytes == 0 {
		gl.BufferData(bufferType, 0, nil, uint32(usage))
		return bo
	}
	gl.BufferData(bufferType, sizeInBytes, gl.Ptr(data), uint32(usage))
	return bo
}

// Update replaces the buffer contents, reallocating when the size changes
func (bo *BufferObject) Update(data []float32) {
	bo.Bind()
	size := len(data) * 4
	if size == 0 {
		return
	}
	if size != bo.Size {
		bo.Size = size
		gl.BufferData(bo.Type, size, gl.Ptr(data), gl.DYNAMIC_DRAW)
		return
	}
	gl.BufferSubData(bo.Type, 0, size, gl.Ptr(data))
}

// Bind binds the buffer to its target
func (bo *BufferObject) Bind() {
	gl.BindBuffer(bo.Type, bo.ID)
}

// Unbind clears the binding for the buffer's target
func (bo *BufferObject) Unbind() {
	gl.BindBuffer(bo.Type, 0)
}

// Delete releases the buffer
func (bo *BufferObject) Delete() {
	gl.DeleteBuffers(1, &bo.ID)
}

// VertexArrayObject stores vertex attribute configuration
type VertexArrayObject struct {
	ID uint32
}

// NewVAO creates a new vertex array object
func NewVAO() *VertexArrayObject {
	vao := &VertexArrayObject{}
	gl.GenVertexArrays(1, &vao.ID)
	return vao
}

// Bind binds the vertex array object
func (vao *VertexArrayObject) Bind() {
	gl.BindVertexArray(vao.ID)
}

// Unbind unbinds any vertex array object
func (vao *VertexArrayObject) Unbind() {
	gl.BindVertexArray(0)
}

// Delete releases the vertex array object
func (vao *VertexArrayObject) Delete() {
	gl.DeleteVertexArrays(1, &vao.ID)
}

// SetVertexAttribPointer describes a float attribute of the bound buffer
// and enables it. offset and stride are in bytes.
func (vao *VertexArrayObject) SetVertexAttribPointer(index uint32, size int32, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, gl.FLOAT, false, stride, gl.PtrOffset(offset))
	gl.EnableVertexAttribArray(index)
}

// SetInstanced makes attribute index advance once per instance
func (vao *VertexArrayObject) SetInstanced(index uint32) {
	gl.VertexAttribDivisor(index, 1)
}
