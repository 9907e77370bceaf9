package scene

import "github.com/achilleasa/prism/types"

const (
	// Instance custom indices are limited to 24 bits.
	MaxCustomIndex = 1<<24 - 1

	// Default instance visibility mask.
	DefaultInstanceMask uint8 = 0xFF
)

// Per-instance behaviour flags.
type InstanceFlag uint8

const (
	// Intersect triangles regardless of their winding.
	InstanceTriangleCullDisable InstanceFlag = 1 << iota
)

// A bottom-level acceleration structure over the triangles of a single mesh.
type Blas struct {
	// The geometry this structure was built from.
	VertexBuffer BufferHandle
	IndexBuffer  BufferHandle

	// Object space BVH; node 0 is the root.
	Nodes []BvhNode

	// Leaf nodes reference ranges of this list which in turn indexes the
	// triangles of the mesh.
	PrimitiveIndices []uint32
}

// Get the object space bounds of the mesh.
func (b *Blas) BBox() [2]types.Vec3 {
	if len(b.Nodes) == 0 {
		return [2]types.Vec3{}
	}
	return b.Nodes[0].BBox()
}

// A BLAS placement inside the scene.
type Instance struct {
	// Object to world transformation and its inverse.
	Transform    types.Mat4
	InvTransform types.Mat4

	// Transforms object space normals to world space.
	NormalMatrix types.Mat3

	// The BLAS referenced by this instance.
	BlasIndex uint32

	// A 24-bit user value; carries the instance material index.
	CustomIndex uint32

	// Visibility mask tested against the ray cull mask.
	Mask uint8

	// Offset added to the ray's hit group offset when selecting a hit group.
	SBTRecordOffset uint32

	Flags InstanceFlag
}

// The top-level acceleration structure over all scene instances.
type Tlas struct {
	// World space BVH; node 0 is the root.
	Nodes []BvhNode

	// Leaf nodes reference ranges of this list which in turn indexes Instances.
	InstanceIndices []uint32

	// Instances in instance-id order.
	Instances []Instance
}

// An instance descriptor records the buffers that a hit on a particular
// instance needs to reconstruct its geometry and material. Descriptors are
// stored in instance-id order.
type InstanceDescriptor struct {
	VertexBuffer  BufferHandle
	IndexBuffer   BufferHandle
	MaterialTable TableHandle
}
