package compiler

import (
	"fmt"
	"runtime"
	"time"

	"github.com/achilleasa/prism/asset/compiler/bvh"
	"github.com/achilleasa/prism/asset/compiler/input"
	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/types"
	"golang.org/x/sync/errgroup"
)

const (
	minPrimitivesPerLeaf = 4

	// Instances are partitioned so that each one ends up in its own leaf
	// unless their bounds can not be separated.
	minInstancesPerLeaf = 1
)

type sceneCompiler struct {
	parsedScene    *input.Scene
	optimizedScene *scene.Scene
	logger         log.Logger

	// Per-mesh buffer handles.
	vertexBuffers []scene.BufferHandle
	indexBuffers  []scene.BufferHandle

	// The material table shared by all instances.
	materialTable scene.TableHandle
}

// A triangle wrapper used for partitioning mesh geometry.
type triangleVolume struct {
	index  uint32
	bbox   [2]types.Vec3
	center types.Vec3
}

func (tv *triangleVolume) BBox() [2]types.Vec3 {
	return tv.bbox
}

func (tv *triangleVolume) Center() types.Vec3 {
	return tv.center
}

// A mesh instance wrapper that remembers its instance id.
type instanceVolume struct {
	*input.MeshInstance
	id uint32
}

// Compile a scene representation parsed by a scene reader into a two-level
// acceleration structure ready for tracing. Any validation or build error is
// fatal and no partial scene is returned.
func Compile(parsedScene *input.Scene) (*scene.Scene, error) {
	compiler := &sceneCompiler{
		parsedScene:    parsedScene,
		optimizedScene: &scene.Scene{},
		logger:         log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene")

	steps := []func() error{
		compiler.validate,
		compiler.uploadGeometry,
		compiler.uploadMaterials,
		compiler.buildBlas,
		compiler.buildTlas,
		compiler.buildDescriptors,
		compiler.setupCamera,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

// Check the parsed scene for invariant violations.
func (sc *sceneCompiler) validate() error {
	ps := sc.parsedScene
	if len(ps.Meshes) == 0 {
		return ErrNoMeshes
	}
	if len(ps.MeshInstances) == 0 {
		return ErrNoInstances
	}

	for mIndex, mesh := range ps.Meshes {
		if len(mesh.Vertices) == 0 || len(mesh.Triangles) == 0 {
			return fmt.Errorf("mesh %d (%q): %w", mIndex, mesh.Name, ErrEmptyMesh)
		}
		numVertices := uint32(len(mesh.Vertices))
		for tIndex, tri := range mesh.Triangles {
			for _, vIndex := range tri {
				if vIndex >= numVertices {
					return fmt.Errorf("mesh %d (%q), triangle %d: vertex index %d >= %d: %w", mIndex, mesh.Name, tIndex, vIndex, numVertices, ErrIndexOutOfRange)
				}
			}
		}
	}

	for matIndex, mat := range ps.Materials {
		if err := validateMaterial(mat); err != nil {
			return fmt.Errorf("material %d (%q): %v: %w", matIndex, mat.Name, err, ErrInvalidMaterial)
		}
	}

	for iIndex, inst := range ps.MeshInstances {
		if int(inst.MeshIndex) >= len(ps.Meshes) {
			return fmt.Errorf("instance %d (%q): mesh %d: %w", iIndex, inst.Name, inst.MeshIndex, ErrInvalidMeshRef)
		}
		if inst.MaterialIndex > scene.MaxCustomIndex {
			return fmt.Errorf("instance %d (%q): material %d: %w", iIndex, inst.Name, inst.MaterialIndex, ErrCustomIndexOverflow)
		}
		if int(inst.MaterialIndex) >= len(ps.Materials) {
			return fmt.Errorf("instance %d (%q): material %d: %w", iIndex, inst.Name, inst.MaterialIndex, ErrInvalidMaterialIndex)
		}
		if !inst.Transform.Invertible() {
			return fmt.Errorf("instance %d (%q): %w", iIndex, inst.Name, ErrSingularTransform)
		}
	}

	return nil
}

func validateMaterial(mat scene.Material) error {
	if !mat.Type.Valid() {
		return fmt.Errorf("unknown type %d", uint8(mat.Type))
	}
	if mat.Roughness < 0 || mat.Roughness > 1 {
		return fmt.Errorf("roughness %v outside [0, 1]", mat.Roughness)
	}
	if mat.Type == scene.Glass && mat.IOR <= 0 {
		return fmt.Errorf("glass requires a positive IOR; got %v", mat.IOR)
	}
	return nil
}

// Upload mesh vertex and index arrays into the scene's geometry registry.
func (sc *sceneCompiler) uploadGeometry() error {
	geometry := &sc.optimizedScene.Geometry
	sc.vertexBuffers = make([]scene.BufferHandle, len(sc.parsedScene.Meshes))
	sc.indexBuffers = make([]scene.BufferHandle, len(sc.parsedScene.Meshes))
	for mIndex, mesh := range sc.parsedScene.Meshes {
		vertices := make([]scene.Vertex, len(mesh.Vertices))
		copy(vertices, mesh.Vertices)
		triangles := make([]scene.Triangle, len(mesh.Triangles))
		copy(triangles, mesh.Triangles)

		sc.vertexBuffers[mIndex] = geometry.UploadVertices(vertices)
		sc.indexBuffers[mIndex] = geometry.UploadIndices(triangles)
	}

	sc.logger.Infof("uploaded %d meshes (%d triangles)", len(sc.parsedScene.Meshes), sc.optimizedScene.TriangleCount())
	return nil
}

// Upload the shared material table.
func (sc *sceneCompiler) uploadMaterials() error {
	table := make([]scene.Material, len(sc.parsedScene.Materials))
	copy(table, sc.parsedScene.Materials)
	sc.optimizedScene.MaterialTables = append(sc.optimizedScene.MaterialTables, table)
	sc.materialTable = scene.TableHandle(len(sc.optimizedScene.MaterialTables) - 1)

	sc.logger.Infof("uploaded material table with %d entries", len(table))
	return nil
}

// Build one BLAS per mesh. Builds are independent and run concurrently.
func (sc *sceneCompiler) buildBlas() error {
	start := time.Now()
	meshes := sc.parsedScene.Meshes
	sc.optimizedScene.BlasList = make([]scene.Blas, len(meshes))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for mIndex := range meshes {
		mIndex := mIndex
		g.Go(func() error {
			sc.optimizedScene.BlasList[mIndex] = sc.buildMeshBlas(mIndex)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sc.logger.Noticef("built %d BLAS in %d ms", len(meshes), time.Since(start).Nanoseconds()/1e6)
	return nil
}

func (sc *sceneCompiler) buildMeshBlas(mIndex int) scene.Blas {
	mesh := sc.parsedScene.Meshes[mIndex]
	sc.logger.Infof(`building BLAS for "%s" (%d triangles)`, mesh.Name, len(mesh.Triangles))

	volList := make([]bvh.BoundedVolume, len(mesh.Triangles))
	for tIndex, tri := range mesh.Triangles {
		v0, v1, v2 := mesh.Vertices[tri[0]].Position, mesh.Vertices[tri[1]].Position, mesh.Vertices[tri[2]].Position
		volList[tIndex] = &triangleVolume{
			index: uint32(tIndex),
			bbox: [2]types.Vec3{
				types.MinVec3(v0, types.MinVec3(v1, v2)),
				types.MaxVec3(v0, types.MaxVec3(v1, v2)),
			},
			center: v0.Add(v1).Add(v2).Mul(1.0 / 3.0),
		}
	}

	blas := scene.Blas{
		VertexBuffer:     sc.vertexBuffers[mIndex],
		IndexBuffer:      sc.indexBuffers[mIndex],
		PrimitiveIndices: make([]uint32, 0, len(mesh.Triangles)),
	}
	blas.Nodes = bvh.Build(volList, minPrimitivesPerLeaf, func(node *scene.BvhNode, workList []bvh.BoundedVolume) {
		node.SetPrimitives(uint32(len(blas.PrimitiveIndices)), uint32(len(workList)))
		for _, item := range workList {
			blas.PrimitiveIndices = append(blas.PrimitiveIndices, item.(*triangleVolume).index)
		}
	}, bvh.SurfaceAreaHeuristic)

	return blas
}

// Build the TLAS over the world space bounds of all mesh instances.
func (sc *sceneCompiler) buildTlas() error {
	start := time.Now()
	instances := sc.parsedScene.MeshInstances
	tlas := &sc.optimizedScene.Tlas
	tlas.Instances = make([]scene.Instance, len(instances))
	tlas.InstanceIndices = make([]uint32, 0, len(instances))

	volList := make([]bvh.BoundedVolume, len(instances))
	for iIndex, mi := range instances {
		meshBBox := sc.optimizedScene.BlasList[mi.MeshIndex].BBox()
		instBBox := types.TransformBBox(mi.Transform, meshBBox)
		mi.SetBBox(instBBox)
		mi.SetCenter(instBBox[0].Add(instBBox[1]).Mul(0.5))
		volList[iIndex] = &instanceVolume{MeshInstance: mi, id: uint32(iIndex)}

		tlas.Instances[iIndex] = scene.Instance{
			Transform:    mi.Transform,
			InvTransform: mi.Transform.Inv(),
			NormalMatrix: types.NormalMat3(mi.Transform),
			BlasIndex:    mi.MeshIndex,
			CustomIndex:  mi.MaterialIndex,
			Mask:         scene.DefaultInstanceMask,
			Flags:        scene.InstanceTriangleCullDisable,
		}
	}

	sc.logger.Infof("building TLAS (%d meshes, %d mesh instances)", len(sc.parsedScene.Meshes), len(instances))
	tlas.Nodes = bvh.Build(volList, minInstancesPerLeaf, func(node *scene.BvhNode, workList []bvh.BoundedVolume) {
		node.SetPrimitives(uint32(len(tlas.InstanceIndices)), uint32(len(workList)))
		for _, item := range workList {
			tlas.InstanceIndices = append(tlas.InstanceIndices, item.(*instanceVolume).id)
		}
	}, bvh.SurfaceAreaHeuristic)

	sc.logger.Noticef("built TLAS in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Build one descriptor per TLAS instance in instance-id order.
func (sc *sceneCompiler) buildDescriptors() error {
	instances := sc.optimizedScene.Tlas.Instances
	sc.optimizedScene.Descriptors = make([]scene.InstanceDescriptor, len(instances))
	for iIndex, inst := range instances {
		desc := scene.InstanceDescriptor{
			VertexBuffer:  sc.vertexBuffers[inst.BlasIndex],
			IndexBuffer:   sc.indexBuffers[inst.BlasIndex],
			MaterialTable: sc.materialTable,
		}
		if err := sc.optimizedScene.Geometry.Validate(desc.VertexBuffer, desc.IndexBuffer); err != nil {
			return fmt.Errorf("instance %d: %v", iIndex, err)
		}
		sc.optimizedScene.Descriptors[iIndex] = desc
	}
	return nil
}

// Initialize and position the camera and light for the scene.
func (sc *sceneCompiler) setupCamera() error {
	pc := sc.parsedScene.Camera
	if pc == nil {
		pc = input.NewScene().Camera
	}

	sc.optimizedScene.Camera = scene.NewCamera(pc.FOV)
	sc.optimizedScene.Camera.LookAt(pc.Eye, pc.Look)
	sc.optimizedScene.Light = scene.Light{Position: sc.parsedScene.Light}
	return nil
}
