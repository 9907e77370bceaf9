package integrator

import (
	"image/color"
	"math"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/types"
)

const (
	// Rays at or beyond this depth never spawn secondary rays.
	MaxDepth = 5

	// Ray extents for primary and secondary rays.
	rayTMin float32 = 0.001
	rayTMax float32 = 10000.0

	// Lighting factor for surfaces in shadow.
	ambientFactor float32 = 0.1

	// The width of the square the light is jittered over for soft shadows.
	lightJitterSpread float32 = 1.0

	// Glass blends the lighting term towards the traced result with this weight.
	glassTransmission float32 = 0.9

	// Wrap lighting constant for subsurface materials.
	subsurfaceWrap float32 = 0.5
)

var (
	skyHorizonColor = types.Vec3{1.0, 1.0, 1.0}
	skyZenithColor  = types.Vec3{0.5, 0.7, 1.0}

	// Warm tint added by subsurface materials, scaled by their subsurface amount.
	subsurfaceTint = types.Vec3{0.1, 0.02, 0.01}
)

// Generate a primary ray for pixel (x, y), trace it and write the resolved
// color to the output frame. Row 0 is the top of the frame.
func RayGen(ctx *Context, x, y uint32) {
	params := ctx.Params
	uniforms := ctx.Uniforms()

	u := (float32(x) + 0.5) / float32(params.FrameW)
	v := (float32(y) + 0.5) / float32(params.FrameH)
	d := types.Vec2{2*u - 1, 1 - 2*v}

	origin := uniforms.InvView.MulPoint(types.Vec3{})
	target := uniforms.InvProj.Mul4x1(types.Vec4{d[0], d[1], 1, 1})
	dir := uniforms.InvView.MulDir(target.Vec3().Normalize()).Normalize()

	payload := ctx.TraceRay(
		TraceRequest{
			Type:      PrimaryRay,
			Flags:     RayFlagOpaque,
			CullMask:  CullMaskAll,
			Origin:    origin,
			TMin:      rayTMin,
			Direction: dir,
			TMax:      rayTMax,
		},
		RayPayload{
			Depth: 0,
			Seed:  TEA(y*params.FrameW+x, params.FrameIndex),
		},
	)

	params.Output.SetRGBA(int(x), int(y), toRGBA(payload.Color))
}

// Shade rays that escape the scene with a vertical sky gradient.
func SkyMiss(_ *Context, req TraceRequest, payload RayPayload) RayPayload {
	payload.Color = SkyColor(req.Direction)
	return payload
}

// Get the sky gradient color for a ray direction.
func SkyColor(dir types.Vec3) types.Vec3 {
	t := 0.5 * (dir.Normalize()[1] + 1.0)
	return skyHorizonColor.Mix(skyZenithColor, t)
}

// Clear the occlusion flag of shadow rays that reach the light.
func ShadowMiss(_ *Context, _ TraceRequest, payload RayPayload) RayPayload {
	payload.Occluded = false
	return payload
}

// Shade the nearest hit of a primary ray. The geometry and material are
// recovered through the instance descriptor. Every hit casts a shadow ray
// towards the light; metal and glass surfaces spawn a secondary primary ray
// while the payload depth is below MaxDepth.
func ClosestHit(ctx *Context, req TraceRequest, hit Hit, payload RayPayload) RayPayload {
	sc := ctx.Scene()
	uniforms := ctx.Uniforms()
	settings := uniforms.Settings

	surf := resolveSurface(sc, hit)
	pos := req.Origin.Add(req.Direction.Mul(hit.T))

	// Shadow test
	lightPos := uniforms.LightPos
	seed := payload.Seed
	if settings.SoftShadows {
		var r1, r2 float32
		r1, seed = seed.Next()
		r2, seed = seed.Next()
		lightPos[0] += (r1 - 0.5) * lightJitterSpread
		lightPos[2] += (r2 - 0.5) * lightJitterSpread
	}

	toLight := lightPos.Sub(pos)
	lightDist := toLight.Len()
	lightDir := toLight.Normalize()
	nDotL := surf.normal.Dot(lightDir)

	shadow := ctx.TraceRay(
		TraceRequest{
			Type:      ShadowRay,
			Flags:     RayFlagOpaque | RayFlagTerminateOnFirstHit | RayFlagSkipClosestHit,
			CullMask:  CullMaskAll,
			Origin:    pos,
			TMin:      rayTMin,
			Direction: lightDir,
			TMax:      lightDist,
		},
		RayPayload{Occluded: true},
	)

	lighting := surf.albedo.Mul(ambientFactor)
	if !shadow.Occluded {
		lighting = surf.albedo.Mul(float32(math.Max(float64(nDotL), 0)))
	}

	out := lighting
	depth := payload.Depth
	if depth < MaxDepth {
		switch surf.material.Type {
		case scene.Metal:
			if !settings.Reflections {
				break
			}
			depth++
			reflected := ctx.TraceRay(
				secondaryRay(pos, types.Reflect(req.Direction, surf.normal)),
				RayPayload{Depth: depth, Seed: seed},
			)
			seed = reflected.Seed
			rough := surf.material.Roughness
			out = lighting.Mul(rough).Add(reflected.Color.Mul(1 - rough))
		case scene.Glass:
			if !settings.Refractions {
				break
			}
			depth++
			refracted := ctx.TraceRay(
				secondaryRay(pos, GlassDirection(req.Direction, surf.normal, surf.material.IOR)),
				RayPayload{Depth: depth, Seed: seed},
			)
			seed = refracted.Seed
			out = lighting.Mul(1 - glassTransmission).Add(refracted.Color.Mul(glassTransmission))
		case scene.Subsurface:
			if !settings.Subsurface {
				break
			}
			wrapped := float32(math.Max(float64(nDotL+subsurfaceWrap), 0)) / (1 + subsurfaceWrap)
			out = surf.albedo.Mul(wrapped).Add(subsurfaceTint.Mul(surf.material.SubsurfaceAmount))
		}
	}

	payload.Color = out
	payload.Depth = depth
	payload.Seed = seed
	return payload
}

// Get the direction of the ray continuing through a glass surface. Rays
// entering the surface refract with eta = 1/ior; exiting rays use eta = ior
// and the flipped normal. Total internal reflection falls back to a mirror
// reflection about the chosen normal.
func GlassDirection(dir, normal types.Vec3, ior float32) types.Vec3 {
	eta := 1.0 / ior
	n := normal
	if dir.Dot(normal) >= 0 {
		eta = ior
		n = normal.Neg()
	}

	refracted := types.Refract(dir, n, eta)
	if refracted == (types.Vec3{}) {
		return types.Reflect(dir, n)
	}
	return refracted
}

func secondaryRay(origin, dir types.Vec3) TraceRequest {
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

type surface struct {
	normal   types.Vec3
	albedo   types.Vec3
	material scene.Material
}

// Reconstruct the hit surface from the instance descriptor.
func resolveSurface(sc *scene.Scene, hit Hit) surface {
	desc := sc.Descriptor(hit.InstanceID)
	inst := &sc.Tlas.Instances[hit.InstanceID]
	vertices := sc.Geometry.Vertices(desc.VertexBuffer)
	tri := sc.Geometry.Triangles(desc.IndexBuffer)[hit.PrimitiveID]
	mat := sc.MaterialTable(desc.MaterialTable)[hit.CustomIndex]

	v0, v1, v2 := vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]
	w1, w2 := hit.Barycentrics[0], hit.Barycentrics[1]
	w0 := 1 - w1 - w2

	objNormal := v0.Normal.Mul(w0).Add(v1.Normal.Mul(w1)).Add(v2.Normal.Mul(w2))
	vertexColor := v0.Color.Mul(w0).Add(v1.Color.Mul(w1)).Add(v2.Color.Mul(w2))

	return surface{
		normal:   inst.NormalMatrix.Mul3x1(objNormal).Normalize(),
		albedo:   mat.BaseColor.Vec3().MulVec(vertexColor),
		material: mat,
	}
}

func toRGBA(c types.Vec3) color.RGBA {
	c = c.Clamp(0, 1)
	return color.RGBA{
		R: uint8(c[0]*255 + 0.5),
		G: uint8(c[1]*255 + 0.5),
		B: uint8(c[2]*255 + 0.5),
		A: 255,
	}
}
