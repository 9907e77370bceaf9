package reader

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/prism/asset"
	"github.com/achilleasa/prism/asset/compiler"
	"github.com/achilleasa/prism/asset/compiler/input"
	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/types"
)

type wavefrontMaterial struct {
	Name string

	// Diffuse/Albedo color and dissolve (alpha).
	Kd types.Vec3
	D  float32

	// Index of refraction.
	Ni float32

	// Shading model; when not set explicitly it is inferred from the
	// other material properties.
	Type    scene.MaterialType
	HasType bool

	Roughness        float32
	SubsurfaceAmount float32

	// True if this material is used by at least one mesh instance.
	Used bool
}

// Convert to a scene material.
func (wf *wavefrontMaterial) Material() scene.Material {
	matType := wf.Type
	if !wf.HasType {
		switch {
		case wf.Ni > 0 && wf.D < 1:
			matType = scene.Glass
		case wf.SubsurfaceAmount > 0:
			matType = scene.Subsurface
		default:
			matType = scene.Lambert
		}
	}

	return scene.Material{
		Name:             wf.Name,
		BaseColor:        wf.Kd.Vec4(wf.D),
		Type:             matType,
		Roughness:        wf.Roughness,
		IOR:              wf.Ni,
		SubsurfaceAmount: wf.SubsurfaceAmount,
	}
}

// A pair of vertex/normal list offsets that identifies an emitted mesh vertex.
type vertexKey struct {
	vertex int
	normal int
}

type wavefrontSceneReader struct {
	logger log.Logger

	// The parsed scene.
	rawScene *input.Scene

	// A map of material names to parsed wavefront materials
	matNameToIndex map[string]int

	// Currently selected material.
	curMaterial *wavefrontMaterial

	// Parsed wavefront materials.
	materials []*wavefrontMaterial

	// The material index selected by each parsed mesh.
	meshMaterials []int

	// List of vertices, vertex colors and normals.
	vertexList []types.Vec3
	colorList  []types.Vec3
	normalList []types.Vec3

	// Emitted vertices for the mesh being parsed.
	meshVertices map[vertexKey]uint32

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new text scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		rawScene:       input.NewScene(),
		matNameToIndex: make(map[string]int, 0),
		vertexList:     make([]types.Vec3, 0),
		colorList:      make([]types.Vec3, 0),
		normalList:     make([]types.Vec3, 0),
		meshVertices:   make(map[vertexKey]uint32),
		errStack:       make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	rawScene, err := r.ReadRaw(sceneRes)
	if err != nil {
		return nil, err
	}

	// Compile scene into its traceable two-level representation
	return compiler.Compile(rawScene)
}

// Parse a scene definition without compiling it.
func (r *wavefrontSceneReader) ReadRaw(sceneRes *asset.Resource) (*input.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	// If no mesh instances are defined, create instances for each defined mesh
	if len(r.rawScene.MeshInstances) == 0 {
		r.createDefaultMeshInstances()
	}

	// Prune unused materials
	r.processMaterials()

	r.logger.Noticef("parsed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return r.rawScene, nil
}

// Generate scene materials for material entries that are in use and update the
// material indices for all parsed mesh instances.
func (r *wavefrontSceneReader) processMaterials() {
	for _, inst := range r.rawScene.MeshInstances {
		if int(inst.MaterialIndex) < len(r.materials) {
			r.materials[inst.MaterialIndex].Used = true
		}
	}

	wfMaterialToSceneMaterial := make(map[uint32]uint32, 0)
	pruned := 0
	for wfIndex, wfMat := range r.materials {
		if !wfMat.Used {
			r.logger.Infof("skipping unused material %q", wfMat.Name)
			pruned++
			continue
		}

		wfMaterialToSceneMaterial[uint32(wfIndex)] = r.rawScene.AddMaterial(wfMat.Material())
	}

	for _, inst := range r.rawScene.MeshInstances {
		inst.MaterialIndex = wfMaterialToSceneMaterial[inst.MaterialIndex]
	}

	if pruned > 0 {
		r.logger.Noticef("pruned %d unused materials", pruned)
	}
}

// Generate a mesh instance with an identity transformation for each defined mesh.
func (r *wavefrontSceneReader) createDefaultMeshInstances() {
	for meshIndex, mesh := range r.rawScene.Meshes {
		r.rawScene.AddInstance(mesh.Name, uint32(meshIndex), types.Ident4(), uint32(r.meshMaterials[meshIndex]))
	}
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return errors.New(errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Create and select a default material for surfaces not using one.
func (r *wavefrontSceneReader) defaultMaterial() *wavefrontMaterial {
	matName := ""

	matIndex, exists := r.matNameToIndex[matName]
	if !exists {
		r.materials = append(r.materials, &wavefrontMaterial{Name: "default", Kd: types.Vec3{0.7, 0.7, 0.7}, D: 1})
		matIndex = len(r.materials) - 1
		r.matNameToIndex[matName] = matIndex
	}
	r.curMaterial = r.materials[matIndex]
	return r.curMaterial
}

// Start a new mesh.
func (r *wavefrontSceneReader) beginMesh(name string) {
	r.verifyLastParsedMesh()
	r.rawScene.AddMesh(input.NewMesh(name))
	r.meshMaterials = append(r.meshMaterials, -1)
	r.meshVertices = make(map[vertexKey]uint32)
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			switch lineTokens[0] {
			case "call":
				err = r.parse(incRes)
			case "mtllib":
				err = r.parseMaterials(incRes)
			}
			incRes.Close()

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for 'usemtl'; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			matIndex, exists := r.matNameToIndex[matName]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, matName)
			}

			r.curMaterial = r.materials[matIndex]
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			// Optional vertex colors: v x y z r g b
			color := types.Vec3{1, 1, 1}
			if len(lineTokens) >= 7 {
				color, err = parseVec3(append([]string{"v"}, lineTokens[4:7]...))
				if err != nil {
					return r.emitError(res.Path(), lineNum, "%s", err.Error())
				}
			}
			r.vertexList = append(r.vertexList, v)
			r.colorList = append(r.colorList, color)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.normalList = append(r.normalList, v.Normalize())
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.beginMesh(lineTokens[1])
		case "f":
			// If no object has been defined create a default one
			if len(r.rawScene.Meshes) == 0 {
				r.beginMesh("default")
			}

			err := r.parseFace(lineTokens, relVertexOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_fov":
			r.rawScene.Camera.FOV, err = parseFloat32(lineTokens)
		case "camera_eye":
			r.rawScene.Camera.Eye, err = parseVec3(lineTokens)
		case "camera_look":
			r.rawScene.Camera.Look, err = parseVec3(lineTokens)
		case "camera_up":
			r.rawScene.Camera.Up, err = parseVec3(lineTokens)
		case "light_pos":
			r.rawScene.Light, err = parseVec3(lineTokens)
		case "instance":
			err = r.parseMeshInstance(lineTokens)
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, "%s", err.Error())
		}
	}

	r.verifyLastParsedMesh()
	return scanner.Err()
}

// Drop the last parsed mesh if it contains no triangles.
func (r *wavefrontSceneReader) verifyLastParsedMesh() {
	lastMeshIndex := len(r.rawScene.Meshes) - 1
	if lastMeshIndex >= 0 && len(r.rawScene.Meshes[lastMeshIndex].Triangles) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.rawScene.Meshes[lastMeshIndex].Name)
		r.rawScene.Meshes = r.rawScene.Meshes[:lastMeshIndex]
		r.meshMaterials = r.meshMaterials[:lastMeshIndex]
	}
}

// Parse mesh instance definition. Definitions use the following format:
// instance mesh_name tX tY tZ rX rY rZ sX sY sZ [material_name]
// where:
// - tX, tY, tZ : translation vector
// - rX, rY, rZ : rotation angles in degrees
// - sX, sY, sZ : scale
//
// If the material is omitted, the instance uses the last material selected
// by the mesh faces.
func (r *wavefrontSceneReader) parseMeshInstance(lineTokens []string) error {
	if len(lineTokens) != 11 && len(lineTokens) != 12 {
		return fmt.Errorf(`unsupported syntax for "instance"; expected 10 or 11 arguments: mesh_name tX tY tZ rX rY rZ sX sY sZ [material]; got %d`, len(lineTokens)-1)
	}

	// Find object by name
	meshName := lineTokens[1]
	meshIndex := -1
	for index, mesh := range r.rawScene.Meshes {
		if mesh.Name == meshName {
			meshIndex = index
			break
		}
	}

	if meshIndex == -1 {
		return fmt.Errorf(`unknown mesh with name "%s"`, meshName)
	}

	var params [9]float32
	for index := range params {
		v, err := strconv.ParseFloat(lineTokens[index+2], 32)
		if err != nil {
			return err
		}
		params[index] = float32(v)
	}

	translation := types.Vec3{params[0], params[1], params[2]}
	rotation := types.Vec3{params[3], params[4], params[5]}.Mul(math.Pi / 180.0)
	scale := types.Vec3{params[6], params[7], params[8]}

	matIndex := r.meshMaterials[meshIndex]
	if len(lineTokens) == 12 {
		index, exists := r.matNameToIndex[lineTokens[11]]
		if !exists {
			return fmt.Errorf(`undefined material with name "%s"`, lineTokens[11])
		}
		matIndex = index
	}

	r.rawScene.AddInstance(meshName, uint32(meshIndex), input.TRS(translation, rotation, scale), uint32(matIndex))
	return nil
}

// Parse face definition. Each face definition consists of at least 3
// arguments, one for each vertex. Each one of the vertex arguments is
// comprised of 1, 2 or 3 args separated by a slash character. The following
// formats are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex/normal list. UV indices are accepted but ignored. Faces with
// more than 3 vertices are triangulated as a fan.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	numCorners := len(lineTokens) - 1
	keys := make([]vertexKey, numCorners)
	expIndices := 0
	for arg := 0; arg < numCorners; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		keys[arg] = vertexKey{vertex: vOffset, normal: -1}

		if expIndices > 2 && vTokens[2] != "" {
			nOffset, err := selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			keys[arg].normal = nOffset
		}
	}

	// If no material defined select the default.
	if r.curMaterial == nil {
		r.curMaterial = r.defaultMaterial()
	}

	meshIndex := len(r.rawScene.Meshes) - 1
	mesh := r.rawScene.Meshes[meshIndex]
	r.meshMaterials[meshIndex] = r.materialIndex(r.curMaterial)

	// Faces without normals get a flat normal from their first three vertices.
	e01 := r.vertexList[keys[1].vertex].Sub(r.vertexList[keys[0].vertex])
	e02 := r.vertexList[keys[2].vertex].Sub(r.vertexList[keys[0].vertex])
	faceNormal := e01.Cross(e02).Normalize()

	indices := make([]uint32, numCorners)
	for corner, key := range keys {
		if key.normal >= 0 {
			if index, exists := r.meshVertices[key]; exists {
				indices[corner] = index
				continue
			}
		}

		vertex := scene.Vertex{
			Position: r.vertexList[key.vertex],
			Normal:   faceNormal,
			Color:    r.colorList[key.vertex],
		}
		if key.normal >= 0 {
			vertex.Normal = r.normalList[key.normal]
		}
		mesh.Vertices = append(mesh.Vertices, vertex)
		indices[corner] = uint32(len(mesh.Vertices) - 1)
		if key.normal >= 0 {
			r.meshVertices[key] = indices[corner]
		}
	}

	for corner := 1; corner < numCorners-1; corner++ {
		mesh.Triangles = append(mesh.Triangles, scene.Triangle{indices[0], indices[corner], indices[corner+1]})
	}
	mesh.MarkBBoxDirty()
	return nil
}

// Find the index of a parsed material.
func (r *wavefrontSceneReader) materialIndex(mat *wavefrontMaterial) int {
	for index, candidate := range r.materials {
		if candidate == mat {
			return index
		}
	}
	return -1
}

// Parse a wavefront material library. Besides the standard Kd, d and Ni
// keys the following extension keys are supported:
// - mat_type  : lambert, metal, glass or sss
// - roughness : metal roughness in [0, 1] (also accepted as Pr)
// - sss       : subsurface tint amount
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)

	var curMaterial *wavefrontMaterial = nil
	var matName string = ""

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName = lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			curMaterial = &wavefrontMaterial{
				Name: matName,
				Kd:   types.Vec3{0.7, 0.7, 0.7},
				D:    1,
			}
			r.materials = append(r.materials, curMaterial)
			r.matNameToIndex[matName] = len(r.materials) - 1
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}

			switch lineTokens[0] {
			case "include":
				if len(lineTokens) < 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				baseMaterialIndex, exists := r.matNameToIndex[lineTokens[1]]
				if !exists {
					return r.emitError(res.Path(), lineNum, `could not include unknown material "%s"`, lineTokens[1])
				}

				// Overwrite material but keep the original name
				*curMaterial = *r.materials[baseMaterialIndex]
				curMaterial.Name = matName
			case "Kd":
				curMaterial.Kd, err = parseVec3(lineTokens)
			case "d":
				curMaterial.D, err = parseFloat32(lineTokens)
			case "Tr":
				var tr float32
				tr, err = parseFloat32(lineTokens)
				curMaterial.D = 1 - tr
			case "Ni":
				curMaterial.Ni, err = parseFloat32(lineTokens)
			case "roughness", "Pr":
				curMaterial.Roughness, err = parseFloat32(lineTokens)
			case "sss":
				curMaterial.SubsurfaceAmount, err = parseFloat32(lineTokens)
			case "mat_type":
				if len(lineTokens) != 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}
				curMaterial.Type, err = scene.ParseMaterialType(lineTokens[1])
				curMaterial.HasType = true
			}

			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	return scanner.Err()
}

// Given an index for a face coord type (vertex, normal) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
