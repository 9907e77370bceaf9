package input

import (
	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/types"
)

// Create the built-in street scene: a ground plane with a puddle, a house
// with a glass window, a tree, a metallic car and a person.
func NewDemoScene() *Scene {
	s := NewScene()

	rgba := func(r, g, b float32) types.Vec4 { return types.Vec4{r, g, b, 1} }
	concrete := s.AddMaterial(scene.Material{Name: "concrete", BaseColor: rgba(0.5, 0.5, 0.5), Type: scene.Lambert, Roughness: 1})
	leaves := s.AddMaterial(scene.Material{Name: "leaves", BaseColor: rgba(0.1, 0.8, 0.1), Type: scene.Lambert, Roughness: 1})
	bark := s.AddMaterial(scene.Material{Name: "bark", BaseColor: rgba(0.4, 0.2, 0.1), Type: scene.Lambert, Roughness: 1})
	brick := s.AddMaterial(scene.Material{Name: "brick", BaseColor: rgba(0.8, 0.3, 0.2), Type: scene.Lambert, Roughness: 1})
	car := s.AddMaterial(scene.Material{Name: "car", BaseColor: rgba(0.2, 0.2, 0.9), Type: scene.Metal, Roughness: 0.2})
	glass := s.AddMaterial(scene.Material{Name: "glass", BaseColor: rgba(1, 1, 1), Type: scene.Glass, IOR: 1.5})
	water := s.AddMaterial(scene.Material{Name: "water", BaseColor: rgba(0.8, 0.8, 1.0), Type: scene.Metal, Roughness: 0.05, IOR: 1.33})
	skin := s.AddMaterial(scene.Material{Name: "skin", BaseColor: rgba(0.9, 0.7, 0.6), Type: scene.Subsurface, Roughness: 0.5, SubsurfaceAmount: 1})
	asphalt := s.AddMaterial(scene.Material{Name: "asphalt", BaseColor: rgba(0.2, 0.2, 0.2), Type: scene.Lambert, Roughness: 1})

	cube := s.AddMesh(NewCubeMesh("cube"))
	sphere := s.AddMesh(NewSphereMesh("sphere", 16, 16))

	place := func(name string, mesh uint32, scale, translation types.Vec3, mat uint32) {
		s.AddInstance(name, mesh, TRS(translation, types.Vec3{}, scale), mat)
	}

	place("ground", cube, types.Vec3{20, 0.1, 20}, types.Vec3{0, -0.1, 0}, asphalt)
	place("puddle", cube, types.Vec3{3, 0.05, 3}, types.Vec3{5, -0.05, 2}, water)
	place("house", cube, types.Vec3{4, 3, 4}, types.Vec3{-5, 1.5, -5}, brick)
	place("window", cube, types.Vec3{1, 1, 0.1}, types.Vec3{-5, 1.5, -0.9}, glass)
	place("trunk", cube, types.Vec3{0.5, 2, 0.5}, types.Vec3{5, 1, -5}, bark)
	place("leaves", sphere, types.Vec3{2, 2, 2}, types.Vec3{5, 3, -5}, leaves)
	place("car", cube, types.Vec3{1.5, 0.5, 3}, types.Vec3{2, 0.5, 5}, car)
	place("head", sphere, types.Vec3{0.3, 0.3, 0.3}, types.Vec3{-2, 1.6, 2}, skin)
	place("body", cube, types.Vec3{0.4, 0.7, 0.2}, types.Vec3{-2, 0.7, 2}, concrete)

	return s
}
