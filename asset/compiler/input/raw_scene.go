package input

import (
	"math"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/types"
)

// A mesh is an indexed triangle list.
type Mesh struct {
	Name      string
	Vertices  []scene.Vertex
	Triangles []scene.Triangle

	bbox            [2]types.Vec3
	bboxNeedsUpdate bool
}

// Mark the bbox of this mesh as dirty.
func (m *Mesh) MarkBBoxDirty() {
	m.bboxNeedsUpdate = true
}

// Get mesh bounding box.
func (m *Mesh) BBox() [2]types.Vec3 {
	if m.bboxNeedsUpdate {
		m.bbox = [2]types.Vec3{
			types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
			types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
		}

		for _, v := range m.Vertices {
			m.bbox[0] = types.MinVec3(m.bbox[0], v.Position)
			m.bbox[1] = types.MaxVec3(m.bbox[1], v.Position)
		}

		m.bboxNeedsUpdate = false
	}

	return m.bbox
}

// Create a new mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:            name,
		Vertices:        make([]scene.Vertex, 0),
		Triangles:       make([]scene.Triangle, 0),
		bboxNeedsUpdate: true,
	}
}

// A mesh instance places a Mesh inside the scene and selects its material.
type MeshInstance struct {
	Name          string
	MeshIndex     uint32
	MaterialIndex uint32
	Transform     types.Mat4

	bbox   [2]types.Vec3
	center types.Vec3
}

// Set the mesh instance AABB.
func (mi *MeshInstance) SetBBox(bbox [2]types.Vec3) {
	mi.bbox = bbox
}

// Set the mesh instance center.
func (mi *MeshInstance) SetCenter(center types.Vec3) {
	mi.center = center
}

// Get AABB.
func (mi *MeshInstance) BBox() [2]types.Vec3 {
	return mi.bbox
}

// Get AABB center.
func (mi *MeshInstance) Center() types.Vec3 {
	return mi.center
}

// Camera settings.
type Camera struct {
	FOV  float32
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3
}

// The scene contains all elements that are processed and optimized by the
// scene compiler.
type Scene struct {
	Meshes        []*Mesh
	MeshInstances []*MeshInstance
	Materials     []scene.Material
	Camera        *Camera
	Light         types.Vec3
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Meshes:        make([]*Mesh, 0),
		MeshInstances: make([]*MeshInstance, 0),
		Materials:     make([]scene.Material, 0),
		Camera: &Camera{
			FOV:  45.0,
			Eye:  types.Vec3{0, 2, 10},
			Look: types.Vec3{0, 2, 9},
			Up:   types.Vec3{0, 1, 0},
		},
		Light: types.Vec3{10, 10, 10},
	}
}

// Append a mesh and return its index.
func (s *Scene) AddMesh(m *Mesh) uint32 {
	s.Meshes = append(s.Meshes, m)
	return uint32(len(s.Meshes) - 1)
}

// Append a material and return its index.
func (s *Scene) AddMaterial(mat scene.Material) uint32 {
	s.Materials = append(s.Materials, mat)
	return uint32(len(s.Materials) - 1)
}

// Place a mesh inside the scene.
func (s *Scene) AddInstance(name string, meshIndex uint32, transform types.Mat4, materialIndex uint32) *MeshInstance {
	inst := &MeshInstance{
		Name:          name,
		MeshIndex:     meshIndex,
		MaterialIndex: materialIndex,
		Transform:     transform,
	}
	s.MeshInstances = append(s.MeshInstances, inst)
	return inst
}

// Build an object to world transform: M = T * R * S. Rotation angles are
// in radians and applied in X, Y, Z order.
func TRS(translation, rotation, scale types.Vec3) types.Mat4 {
	rotMat := types.RotateXYZ4(rotation)
	return types.Translate4(translation).Mul4(rotMat.Mul4(types.Scale4(scale)))
}
