package input

import (
	"math"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/types"
)

var white = types.Vec3{1, 1, 1}

// Create a unit cube centered at the origin. Each face has its own four
// vertices so that face normals stay flat.
func NewCubeMesh(name string) *Mesh {
	faces := []struct {
		normal  types.Vec3
		corners [4]types.Vec3
	}{
		{types.Vec3{0, 0, 1}, [4]types.Vec3{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}},
		{types.Vec3{0, 0, -1}, [4]types.Vec3{{-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, -0.5, -0.5}}},
		{types.Vec3{0, 1, 0}, [4]types.Vec3{{-0.5, 0.5, -0.5}, {-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}}},
		{types.Vec3{0, -1, 0}, [4]types.Vec3{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}}},
		{types.Vec3{1, 0, 0}, [4]types.Vec3{{0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}, {0.5, -0.5, 0.5}}},
		{types.Vec3{-1, 0, 0}, [4]types.Vec3{{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}}},
	}

	m := NewMesh(name)
	for _, face := range faces {
		base := uint32(len(m.Vertices))
		for _, corner := range face.corners {
			m.Vertices = append(m.Vertices, scene.Vertex{Position: corner, Normal: face.normal, Color: white})
		}
		m.Triangles = append(m.Triangles,
			scene.Triangle{base, base + 1, base + 2},
			scene.Triangle{base, base + 2, base + 3},
		)
	}
	return m
}

// Create a UV sphere of radius 0.5 centered at the origin.
func NewSphereMesh(name string, slices, stacks uint32) *Mesh {
	m := NewMesh(name)
	for i := uint32(0); i <= stacks; i++ {
		phi := float64(i) / float64(stacks) * math.Pi
		for j := uint32(0); j <= slices; j++ {
			theta := float64(j) / float64(slices) * 2 * math.Pi
			n := types.Vec3{
				float32(math.Cos(theta) * math.Sin(phi)),
				float32(math.Cos(phi)),
				float32(math.Sin(theta) * math.Sin(phi)),
			}
			m.Vertices = append(m.Vertices, scene.Vertex{Position: n.Mul(0.5), Normal: n, Color: white})
		}
	}

	for i := uint32(0); i < stacks; i++ {
		for j := uint32(0); j < slices; j++ {
			first := i*(slices+1) + j
			second := first + slices + 1
			m.Triangles = append(m.Triangles,
				scene.Triangle{first, second, first + 1},
				scene.Triangle{second, second + 1, first + 1},
			)
		}
	}
	return m
}

// Create a quad of the given side length on the XZ plane facing +Y.
func NewQuadMesh(name string, size float32) *Mesh {
	h := size * 0.5
	up := types.Vec3{0, 1, 0}
	m := NewMesh(name)
	m.Vertices = []scene.Vertex{
		{Position: types.Vec3{-h, 0, -h}, Normal: up, Color: white},
		{Position: types.Vec3{-h, 0, h}, Normal: up, Color: white},
		{Position: types.Vec3{h, 0, h}, Normal: up, Color: white},
		{Position: types.Vec3{h, 0, -h}, Normal: up, Color: white},
	}
	m.Triangles = []scene.Triangle{{0, 1, 2}, {0, 2, 3}}
	return m
}
