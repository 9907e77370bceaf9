package integrator

import (
	"fmt"
	"testing"

	"github.com/achilleasa/prism/asset/compiler"
	"github.com/achilleasa/prism/asset/compiler/input"
	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/types"
	"github.com/stretchr/testify/require"
)

type quadPlacement struct {
	size     float32
	pos      types.Vec3
	material uint32
}

// Compile a scene made of XZ quads facing +Y.
func buildQuadScene(t *testing.T, light types.Vec3, materials []scene.Material, quads ...quadPlacement) *scene.Scene {
	t.Helper()

	ps := input.NewScene()
	ps.Light = light
	for _, mat := range materials {
		ps.AddMaterial(mat)
	}
	for index, quad := range quads {
		name := fmt.Sprintf("quad-%d", index)
		meshIndex := ps.AddMesh(input.NewQuadMesh(name, quad.size))
		ps.AddInstance(name, meshIndex, types.Translate4(quad.pos), quad.material)
	}

	sc, err := compiler.Compile(ps)
	require.NoError(t, err)
	return sc
}

func newTestContext(t *testing.T, pipeline *Pipeline, sc *scene.Scene, settings tracer.RenderSettings) *Context {
	t.Helper()

	if pipeline == nil {
		var err error
		pipeline, err = DefaultPipeline()
		require.NoError(t, err)
	}

	return NewContext(pipeline, &LaunchParams{
		Scene: sc,
		Uniforms: tracer.Uniforms{
			InvView:  types.Ident4(),
			InvProj:  types.Ident4(),
			LightPos: sc.Light.Position,
			Settings: settings,
		},
	})
}

func primaryRay(origin, dir types.Vec3) TraceRequest {
	return TraceRequest{
		Type:      PrimaryRay,
		Flags:     RayFlagOpaque,
		CullMask:  CullMaskAll,
		Origin:    origin,
		TMin:      rayTMin,
		Direction: dir.Normalize(),
		TMax:      rayTMax,
	}
}

func requireColor(t *testing.T, exp, got types.Vec3) {
	t.Helper()
	require.True(t, exp.ApproxEqual(got, 1e-4), "expected color %v; got %v", exp, got)
}

func lambertMaterial(gray float32) scene.Material {
	return scene.Material{Name: "lambert", BaseColor: types.Vec4{gray, gray, gray, 1}, Type: scene.Lambert}
}
