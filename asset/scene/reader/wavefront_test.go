package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/prism/asset"
	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFaces(t *testing.T) {
	payload := `
# flat quad without normals
v 0 0 0
v 1 0 0
v 1 0 -1
v 0 0 -1
f 1 2 3 4

o smooth
vn 0 2 0
f 1//1 2//1 3//1
f 1//1 3//1 -1//1
`
	r := newWavefrontReader()
	rawScene, err := r.ReadRaw(asset.NewResourceFromStream("embedded", strings.NewReader(payload)))
	require.NoError(t, err)

	require.Len(t, rawScene.Meshes, 2)
	flat := rawScene.Meshes[0]
	assert.Equal(t, "default", flat.Name)
	assert.Len(t, flat.Vertices, 4)
	assert.Equal(t, []scene.Triangle{{0, 1, 2}, {0, 2, 3}}, flat.Triangles)
	for _, v := range flat.Vertices {
		assert.Equal(t, types.Vec3{0, 1, 0}, v.Normal)
		assert.Equal(t, types.Vec3{1, 1, 1}, v.Color)
	}

	// Corners sharing position and normal are emitted once.
	smooth := rawScene.Meshes[1]
	assert.Len(t, smooth.Vertices, 4)
	assert.Len(t, smooth.Triangles, 2)
	assert.Equal(t, types.Vec3{0, 1, 0}, smooth.Vertices[0].Normal)

	// One instance per mesh using the default material.
	require.Len(t, rawScene.MeshInstances, 2)
	require.Len(t, rawScene.Materials, 1)
	assert.Equal(t, "default", rawScene.Materials[0].Name)
	assert.Equal(t, scene.Lambert, rawScene.Materials[0].Type)
}

func TestParseSceneWithMaterialsAndInstances(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scene.mtl", `
newmtl red
Kd 1 0 0

newmtl glassy
Kd 0.9 0.9 0.9
d 0.3
Ni 1.5

newmtl polished
include red
mat_type metal
roughness 0.2

newmtl unused
Kd 0 0 1
`)
	writeFile(t, dir, "scene.obj", `
mtllib scene.mtl
camera_fov 60
camera_eye 0 1 5
camera_look 0 1 0
light_pos 1 2 3

o box
v -1 0 -1 1 0 0
v 1 0 -1
v 1 0 1
v -1 0 1
usemtl red
f 1 2 3 4

instance box 0 1 0 0 90 0 1 1 1 glassy
instance box 3 0 0 0 0 0 2 2 2
instance box 0 0 3 0 0 0 1 1 1 polished
`)

	res, err := asset.NewResource(filepath.Join(dir, "scene.obj"), nil)
	require.NoError(t, err)
	defer res.Close()

	rawScene, err := newWavefrontReader().ReadRaw(res)
	require.NoError(t, err)

	require.Len(t, rawScene.Materials, 3, "expected unused material to be pruned")
	assert.Equal(t, "red", rawScene.Materials[0].Name)
	assert.Equal(t, scene.Glass, rawScene.Materials[1].Type)
	assert.Equal(t, float32(1.5), rawScene.Materials[1].IOR)
	assert.Equal(t, types.Vec4{0.9, 0.9, 0.9, 0.3}, rawScene.Materials[1].BaseColor)
	assert.Equal(t, scene.Metal, rawScene.Materials[2].Type)
	assert.Equal(t, float32(0.2), rawScene.Materials[2].Roughness)
	assert.Equal(t, types.Vec4{1, 0, 0, 1}, rawScene.Materials[2].BaseColor)

	require.Len(t, rawScene.MeshInstances, 3)
	assert.Equal(t, uint32(1), rawScene.MeshInstances[0].MaterialIndex)
	assert.Equal(t, uint32(0), rawScene.MeshInstances[1].MaterialIndex)
	assert.Equal(t, uint32(2), rawScene.MeshInstances[2].MaterialIndex)

	p := rawScene.MeshInstances[1].Transform.MulPoint(types.Vec3{1, 0, 1})
	assert.True(t, p.ApproxEqual(types.Vec3{5, 0, 2}, 1e-5), "got %v", p)

	assert.Equal(t, types.Vec3{1, 0, 0}, rawScene.Meshes[0].Vertices[0].Color)
	assert.Equal(t, float32(60), rawScene.Camera.FOV)
	assert.Equal(t, types.Vec3{0, 1, 5}, rawScene.Camera.Eye)
	assert.Equal(t, types.Vec3{1, 2, 3}, rawScene.Light)

	// The full read compiles the parsed scene.
	sc, err := ReadScene(filepath.Join(dir, "scene.obj"))
	require.NoError(t, err)
	assert.Len(t, sc.Tlas.Instances, 3)
	assert.Len(t, sc.BlasList, 1)
}

func TestParseErrors(t *testing.T) {
	type spec struct {
		payload string
		expErr  string
	}
	specs := []spec{
		{"usemtl missing", `undefined material with name "missing"`},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4", "index out of bounds"},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2//1 3", "expected each face argument to contain 1 indices"},
		{"v 0 0 0\nf 1 1", `expected at least 3 arguments`},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\ninstance default 0 0 0", `expected 10 or 11 arguments`},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\ninstance box 0 0 0 0 0 0 1 1 1", `unknown mesh with name "box"`},
		{"camera_eye 0 1", `expected 3 arguments`},
		{"v 0 a 0", `invalid syntax`},
	}

	for index, s := range specs {
		_, err := newWavefrontReader().ReadRaw(asset.NewResourceFromStream("embedded", strings.NewReader(s.payload)))
		if err == nil || !strings.Contains(err.Error(), s.expErr) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", index, s.expErr, err)
		}
		if !strings.HasPrefix(err.Error(), "[embedded: ") {
			t.Fatalf("[spec %d] expected error to include file and line; got %v", index, err)
		}
	}
}

func TestIncludeErrorStack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.mtl", "Kd 1 1 1\n")
	writeFile(t, dir, "scene.obj", "mtllib broken.mtl\n")

	_, err := ReadScene(filepath.Join(dir, "scene.obj"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `got "Kd" without a "newmtl"`)
	assert.Contains(t, err.Error(), "referenced from")
}

func TestReadScene(t *testing.T) {
	sc, err := ReadScene(DemoScene)
	require.NoError(t, err)
	assert.Len(t, sc.Tlas.Instances, 9)

	_, err = ReadScene("scene.fbx")
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, payload string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(payload), 0o644))
}
