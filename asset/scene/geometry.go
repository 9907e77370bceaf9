package scene

import (
	"fmt"

	"github.com/achilleasa/prism/types"
)

// A mesh vertex. Vertex colors modulate the material base color.
type Vertex struct {
	Position types.Vec3
	Normal   types.Vec3
	Color    types.Vec3
}

// A triangle defined as three indices into its mesh's vertex buffer.
type Triangle [3]uint32

// A stable handle to a buffer owned by the GeometryBuffers registry.
type BufferHandle uint32

// GeometryBuffers owns the vertex and index arrays for all scene meshes.
// Buffers are immutable once uploaded and live as long as the registry.
type GeometryBuffers struct {
	VertexBuffers [][]Vertex
	IndexBuffers  [][]Triangle
}

// Upload a vertex array and return its handle.
func (gb *GeometryBuffers) UploadVertices(vertices []Vertex) BufferHandle {
	gb.VertexBuffers = append(gb.VertexBuffers, vertices)
	return BufferHandle(len(gb.VertexBuffers) - 1)
}

// Upload an index array and return its handle.
func (gb *GeometryBuffers) UploadIndices(triangles []Triangle) BufferHandle {
	gb.IndexBuffers = append(gb.IndexBuffers, triangles)
	return BufferHandle(len(gb.IndexBuffers) - 1)
}

// Get the vertex array for a handle.
func (gb *GeometryBuffers) Vertices(h BufferHandle) []Vertex {
	return gb.VertexBuffers[h]
}

// Get the index array for a handle.
func (gb *GeometryBuffers) Triangles(h BufferHandle) []Triangle {
	return gb.IndexBuffers[h]
}

// Validate that a handle pair references buffers owned by this registry.
func (gb *GeometryBuffers) Validate(vb, ib BufferHandle) error {
	if int(vb) >= len(gb.VertexBuffers) {
		return fmt.Errorf("geometry: unknown vertex buffer handle %d", vb)
	}
	if int(ib) >= len(gb.IndexBuffers) {
		return fmt.Errorf("geometry: unknown index buffer handle %d", ib)
	}
	return nil
}

// Release all buffers.
func (gb *GeometryBuffers) Release() {
	gb.VertexBuffers = nil
	gb.IndexBuffers = nil
}
