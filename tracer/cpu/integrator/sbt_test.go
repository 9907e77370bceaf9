package integrator

import (
	"image"
	"testing"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidMiss(color types.Vec3) MissProgram {
	return func(_ *Context, _ TraceRequest, payload RayPayload) RayPayload {
		payload.Color = color
		return payload
	}
}

func solidHit(color types.Vec3) HitGroup {
	return HitGroup{
		ClosestHit: func(_ *Context, _ TraceRequest, _ Hit, payload RayPayload) RayPayload {
			payload.Color = color
			return payload
		},
	}
}

func noopRayGen(*Context, uint32, uint32) {}

func TestShaderBindingTableValidation(t *testing.T) {
	miss := []MissProgram{solidMiss(types.Vec3{})}
	hit := []HitGroup{solidHit(types.Vec3{})}

	specs := []struct {
		rayGen RayGenProgram
		miss   []MissProgram
		hit    []HitGroup
		expErr error
	}{
		{nil, miss, hit, ErrMissingRayGen},
		{noopRayGen, nil, hit, ErrEmptyMissRegion},
		{noopRayGen, miss, nil, ErrEmptyHitRegion},
		{noopRayGen, []MissProgram{solidMiss(types.Vec3{}), nil}, hit, ErrNilProgram},
		{noopRayGen, miss, []HitGroup{{}}, ErrNilProgram},
		{noopRayGen, miss, hit, nil},
	}

	for specIndex, spec := range specs {
		sbt, err := NewShaderBindingTable(spec.rayGen, spec.miss, spec.hit)
		if spec.expErr == nil {
			require.NoError(t, err, "spec %d", specIndex)
			require.NotNil(t, sbt)
			continue
		}
		require.ErrorIs(t, err, spec.expErr, "spec %d", specIndex)
	}
}

func TestPipelineRecursionDepthValidation(t *testing.T) {
	sbt, err := NewShaderBindingTable(noopRayGen, []MissProgram{solidMiss(types.Vec3{})}, []HitGroup{solidHit(types.Vec3{})})
	require.NoError(t, err)

	_, err = NewPipeline(sbt, MaxSupportedRecursionDepth+1)
	require.ErrorIs(t, err, ErrUnsupportedRecursion)

	_, err = NewPipeline(nil, 1)
	require.ErrorIs(t, err, ErrMissingRayGen)

	p, err := NewPipeline(sbt, MaxSupportedRecursionDepth)
	require.NoError(t, err)
	assert.Equal(t, uint32(MaxSupportedRecursionDepth), p.MaxRecursionDepth())
	assert.Equal(t, sbt, p.SBT())

	p, err = DefaultPipeline()
	require.NoError(t, err)
	assert.Len(t, p.SBT().Miss, 2)
	assert.Len(t, p.SBT().Hit, 1)
}

func TestTraceRayRouting(t *testing.T) {
	primaryMiss := types.Vec3{1, 0, 0}
	shadowMiss := types.Vec3{0, 1, 0}
	primaryHit := types.Vec3{0, 0, 1}
	shadowHit := types.Vec3{1, 1, 0}

	sbt, err := NewShaderBindingTable(
		noopRayGen,
		[]MissProgram{solidMiss(primaryMiss), solidMiss(shadowMiss)},
		[]HitGroup{solidHit(primaryHit), solidHit(shadowHit)},
	)
	require.NoError(t, err)
	pipeline, err := NewPipeline(sbt, 2)
	require.NoError(t, err)

	sc := buildQuadScene(t,
		types.Vec3{0, 10, 0},
		[]scene.Material{lambertMaterial(0.5)},
		quadPlacement{size: 10},
	)
	ctx := newTestContext(t, pipeline, sc, tracer.RenderSettings{})

	origin := types.Vec3{0.3, 5, 0.1}
	down := types.Vec3{0, -1, 0}
	up := types.Vec3{0, 1, 0}

	shadowReq := func(dir types.Vec3) TraceRequest {
		req := primaryRay(origin, dir)
		req.Type = ShadowRay
		return req
	}

	specs := []struct {
		req      TraceRequest
		expColor types.Vec3
	}{
		{primaryRay(origin, down), primaryHit},
		{primaryRay(origin, up), primaryMiss},
		{shadowReq(down), shadowHit},
		{shadowReq(up), shadowMiss},
	}

	for specIndex, spec := range specs {
		payload := ctx.TraceRay(spec.req, RayPayload{})
		require.NoError(t, ctx.Err())
		assert.Equal(t, spec.expColor, payload.Color, "spec %d", specIndex)
	}
	assert.Equal(t, uint64(2), ctx.TraceCount(PrimaryRay))
	assert.Equal(t, uint64(2), ctx.TraceCount(ShadowRay))
	assert.Equal(t, uint64(4), ctx.TotalTraceCount())

	// A hit that skips the closest-hit stage returns the payload untouched.
	req := shadowReq(down)
	req.Flags |= RayFlagSkipClosestHit
	payload := ctx.TraceRay(req, RayPayload{Color: types.Vec3{0.5, 0.5, 0.5}, Occluded: true})
	assert.Equal(t, types.Vec3{0.5, 0.5, 0.5}, payload.Color)
	assert.True(t, payload.Occluded)

	// The instance record offset shifts hit group selection.
	sc.Tlas.Instances[0].SBTRecordOffset = 1
	payload = ctx.TraceRay(primaryRay(origin, down), RayPayload{})
	assert.Equal(t, shadowHit, payload.Color)
}

func TestTraceRayInvalidRecords(t *testing.T) {
	sbt, err := NewShaderBindingTable(noopRayGen, []MissProgram{solidMiss(types.Vec3{})}, []HitGroup{solidHit(types.Vec3{})})
	require.NoError(t, err)
	pipeline, err := NewPipeline(sbt, 2)
	require.NoError(t, err)

	sc := buildQuadScene(t,
		types.Vec3{0, 10, 0},
		[]scene.Material{lambertMaterial(0.5)},
		quadPlacement{size: 10},
	)

	ctx := newTestContext(t, pipeline, sc, tracer.RenderSettings{})
	req := primaryRay(types.Vec3{0.3, 5, 0.1}, types.Vec3{0, 1, 0})
	req.Type = ShadowRay
	ctx.TraceRay(req, RayPayload{})
	require.ErrorIs(t, ctx.Err(), ErrInvalidSBTIndex)

	ctx = newTestContext(t, pipeline, sc, tracer.RenderSettings{})
	sc.Tlas.Instances[0].SBTRecordOffset = 3
	ctx.TraceRay(primaryRay(types.Vec3{0.3, 5, 0.1}, types.Vec3{0, -1, 0}), RayPayload{})
	require.ErrorIs(t, ctx.Err(), ErrInvalidSBTIndex)
}

func TestLaunchRecursionLimit(t *testing.T) {
	rayGen := func(ctx *Context, _, _ uint32) {
		ctx.TraceRay(primaryRay(types.Vec3{0.3, 5, 0.1}, types.Vec3{0, -1, 0}), RayPayload{})
	}
	bounce := HitGroup{
		ClosestHit: func(ctx *Context, _ TraceRequest, _ Hit, payload RayPayload) RayPayload {
			return ctx.TraceRay(primaryRay(types.Vec3{0.3, 5, 0.1}, types.Vec3{0, -1, 0}), payload)
		},
	}
	sbt, err := NewShaderBindingTable(rayGen, []MissProgram{solidMiss(types.Vec3{})}, []HitGroup{bounce})
	require.NoError(t, err)
	pipeline, err := NewPipeline(sbt, 3)
	require.NoError(t, err)

	sc := buildQuadScene(t,
		types.Vec3{0, 10, 0},
		[]scene.Material{lambertMaterial(0.5)},
		quadPlacement{size: 10},
	)

	_, err = pipeline.Launch(&LaunchParams{
		Scene:  sc,
		Output: image.NewRGBA(image.Rect(0, 0, 2, 2)),
		FrameW: 2,
		FrameH: 2,
		BlockH: 2,
	})
	require.ErrorIs(t, err, ErrRecursionLimitExceeded)
}

func TestLaunchValidation(t *testing.T) {
	pipeline, err := DefaultPipeline()
	require.NoError(t, err)

	sc := buildQuadScene(t,
		types.Vec3{0, 10, 0},
		[]scene.Material{lambertMaterial(0.5)},
		quadPlacement{size: 10},
	)

	_, err = pipeline.Launch(&LaunchParams{Output: image.NewRGBA(image.Rect(0, 0, 4, 4)), FrameW: 4, FrameH: 4, BlockH: 4})
	require.ErrorIs(t, err, ErrNoScene)

	_, err = pipeline.Launch(&LaunchParams{Scene: sc, Output: image.NewRGBA(image.Rect(0, 0, 4, 4)), FrameW: 4, FrameH: 4, BlockY: 2, BlockH: 4})
	require.ErrorIs(t, err, ErrInvalidLaunchDimensions)

	_, err = pipeline.Launch(&LaunchParams{Scene: sc, Output: image.NewRGBA(image.Rect(0, 0, 2, 2)), FrameW: 4, FrameH: 4, BlockH: 4})
	require.ErrorIs(t, err, ErrInvalidLaunchDimensions)

	_, err = pipeline.Launch(&LaunchParams{Scene: sc, FrameW: 4, FrameH: 4, BlockH: 4})
	require.ErrorIs(t, err, ErrInvalidLaunchDimensions)
}
