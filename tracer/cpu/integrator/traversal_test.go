package integrator

import (
	"math"
	"testing"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersectTriangle(t *testing.T) {
	v0 := types.Vec3{-1, 0, -1}
	v1 := types.Vec3{1, 0, -1}
	v2 := types.Vec3{0, 0, 1}

	// The counter-clockwise side of the triangle faces -Y.
	specs := []struct {
		origin, dir types.Vec3
		cullBack    bool
		expHit      bool
		expT        float32
	}{
		// back face
		{types.Vec3{0, 1, 0}, types.Vec3{0, -1, 0}, false, true, 1},
		{types.Vec3{0, 1, 0}, types.Vec3{0, -1, 0}, true, false, 0},
		// front face
		{types.Vec3{0, -2, 0}, types.Vec3{0, 1, 0}, false, true, 2},
		{types.Vec3{0, -2, 0}, types.Vec3{0, 1, 0}, true, true, 2},
		// outside the edges
		{types.Vec3{3, 1, 0}, types.Vec3{0, -1, 0}, false, false, 0},
		// parallel
		{types.Vec3{0, 1, 0}, types.Vec3{1, 0, 0}, false, false, 0},
	}

	for specIndex, spec := range specs {
		tHit, u, v, ok := intersectTriangle(spec.origin, spec.dir, v0, v1, v2, spec.cullBack)
		if ok != spec.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", specIndex, spec.expHit, ok)
		}
		if !ok {
			continue
		}
		if math.Abs(float64(tHit-spec.expT)) > 1e-5 {
			t.Fatalf("[spec %d] expected t = %f; got %f", specIndex, spec.expT, tHit)
		}

		// The barycentric weights reconstruct the hit point.
		p := v0.Mul(1 - u - v).Add(v1.Mul(u)).Add(v2.Mul(v))
		exp := spec.origin.Add(spec.dir.Mul(tHit))
		if !p.ApproxEqual(exp, 1e-5) {
			t.Fatalf("[spec %d] expected barycentrics to reconstruct %v; got %v", specIndex, exp, p)
		}
	}
}

func TestIntersectBox(t *testing.T) {
	bmin := types.Vec3{-1, -1, -1}
	bmax := types.Vec3{1, 1, 1}
	flatMin := types.Vec3{-1, 0, -1}
	flatMax := types.Vec3{1, 0, 1}

	specs := []struct {
		origin, dir, min, max types.Vec3
		tMax                  float32
		exp                   bool
	}{
		{types.Vec3{0, 0, 5}, types.Vec3{0, 0, -1}, bmin, bmax, 100, true},
		{types.Vec3{0, 0, 5}, types.Vec3{0, 0, 1}, bmin, bmax, 100, false},
		{types.Vec3{0, 0, 5}, types.Vec3{0, 0, -1}, bmin, bmax, 2, false},
		{types.Vec3{5, 5, 5}, types.Vec3{0, 0, -1}, bmin, bmax, 100, false},
		// inside
		{types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, bmin, bmax, 100, true},
		// zero thickness boxes around planar geometry
		{types.Vec3{0, 3, 0}, types.Vec3{0, -1, 0}, flatMin, flatMax, 100, true},
		{types.Vec3{0.3, 3, 0.2}, types.Vec3{0.1, -1, 0}.Normalize(), flatMin, flatMax, 100, true},
	}

	for specIndex, spec := range specs {
		got := intersectBox(spec.origin, inverse(spec.dir), spec.min, spec.max, rayTMin, spec.tMax)
		if got != spec.exp {
			t.Fatalf("[spec %d] expected intersection to be %t; got %t", specIndex, spec.exp, got)
		}
	}
}

func TestTraverseReturnsClosestInstance(t *testing.T) {
	sc := buildQuadScene(t,
		types.Vec3{0, 10, 0},
		[]scene.Material{lambertMaterial(0.5), lambertMaterial(0.8)},
		quadPlacement{size: 10, pos: types.Vec3{0, 0, 0}, material: 0},
		quadPlacement{size: 2, pos: types.Vec3{0, 2, 0}, material: 1},
	)
	ctx := newTestContext(t, nil, sc, tracer.RenderSettings{})

	hit, found := ctx.traverse(primaryRay(types.Vec3{0.3, 5, 0.1}, types.Vec3{0, -1, 0}))
	require.True(t, found)
	assert.Equal(t, uint32(1), hit.InstanceID)
	assert.Equal(t, uint32(1), hit.CustomIndex)
	assert.InDelta(t, 3.0, hit.T, 1e-5)

	// Past the small quad only the floor remains.
	hit, found = ctx.traverse(primaryRay(types.Vec3{3, 5, 0}, types.Vec3{0, -1, 0}))
	require.True(t, found)
	assert.Equal(t, uint32(0), hit.InstanceID)
	assert.InDelta(t, 5.0, hit.T, 1e-5)

	// tMax limits the search interval.
	req := primaryRay(types.Vec3{3, 5, 0}, types.Vec3{0, -1, 0})
	req.TMax = 4
	_, found = ctx.traverse(req)
	assert.False(t, found)

	_, found = ctx.traverse(primaryRay(types.Vec3{0, 5, 0}, types.Vec3{0, 1, 0}))
	assert.False(t, found)
}

func TestTraverseHonorsCullMask(t *testing.T) {
	sc := buildQuadScene(t,
		types.Vec3{0, 10, 0},
		[]scene.Material{lambertMaterial(0.5)},
		quadPlacement{size: 10, pos: types.Vec3{0, 0, 0}},
	)
	ctx := newTestContext(t, nil, sc, tracer.RenderSettings{})

	req := primaryRay(types.Vec3{0.3, 5, 0.1}, types.Vec3{0, -1, 0})
	req.CullMask = 0
	_, found := ctx.traverse(req)
	assert.False(t, found, "expected masked instance to be skipped")

	sc.Tlas.Instances[0].Mask = 0x02
	req.CullMask = 0x01
	_, found = ctx.traverse(req)
	assert.False(t, found)

	req.CullMask = 0x03
	_, found = ctx.traverse(req)
	assert.True(t, found)
}

func TestTraverseTransformedInstance(t *testing.T) {
	sc := buildQuadScene(t,
		types.Vec3{0, 10, 0},
		[]scene.Material{lambertMaterial(0.5)},
		quadPlacement{size: 1, pos: types.Vec3{0, 0, 0}},
	)

	// Scale the unit quad up so a ray that misses the mesh in object space
	// hits the instance in world space.
	inst := &sc.Tlas.Instances[0]
	inst.Transform = types.Scale4(types.Vec3{4, 1, 4})
	inst.InvTransform = inst.Transform.Inv()
	sc.Tlas.Nodes[0].SetBBox([2]types.Vec3{{-2, 0, -2}, {2, 0, 2}})

	ctx := newTestContext(t, nil, sc, tracer.RenderSettings{})
	hit, found := ctx.traverse(primaryRay(types.Vec3{1.5, 3, -1}, types.Vec3{0, -1, 0}))
	require.True(t, found)
	assert.InDelta(t, 3.0, hit.T, 1e-5)
}

func TestTraverseBackFaceCulling(t *testing.T) {
	sc := buildQuadScene(t,
		types.Vec3{0, 10, 0},
		[]scene.Material{lambertMaterial(0.5)},
		quadPlacement{size: 10},
	)
	ctx := newTestContext(t, nil, sc, tracer.RenderSettings{})
	require.NotZero(t, sc.Tlas.Instances[0].Flags&scene.InstanceTriangleCullDisable, "expected compiled instances to disable culling")

	fromBelow := primaryRay(types.Vec3{0.3, -5, 0.1}, types.Vec3{0, 1, 0})
	fromAbove := primaryRay(types.Vec3{0.3, 5, 0.1}, types.Vec3{0, -1, 0})
	culling := func(req TraceRequest) TraceRequest {
		req.Flags |= RayFlagCullBackFacingTriangles
		return req
	}

	specs := []struct {
		req          TraceRequest
		cullDisabled bool
		expHit       bool
	}{
		{fromBelow, true, true},
		{culling(fromBelow), true, true},
		{fromBelow, false, true},
		{culling(fromBelow), false, false},
		{culling(fromAbove), false, true},
	}

	for specIndex, spec := range specs {
		sc.Tlas.Instances[0].Flags = 0
		if spec.cullDisabled {
			sc.Tlas.Instances[0].Flags = scene.InstanceTriangleCullDisable
		}
		if _, found := ctx.traverse(spec.req); found != spec.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", specIndex, spec.expHit, found)
		}
	}
}
