package integrator

import (
	"fmt"

	"github.com/achilleasa/prism/types"
)

// The maximum recursion depth a pipeline may request.
const MaxSupportedRecursionDepth = 10

// A ray type selects the miss record and the hit group offset used for a trace.
type RayType uint32

const (
	PrimaryRay RayType = iota
	ShadowRay
	numRayTypes
)

func (t RayType) String() string {
	switch t {
	case PrimaryRay:
		return "primary"
	case ShadowRay:
		return "shadow"
	}
	return fmt.Sprintf("RayType(%d)", uint32(t))
}

// Flags that alter traversal behaviour.
type RayFlag uint8

const (
	RayFlagNone RayFlag = 0

	// Treat all geometry as opaque.
	RayFlagOpaque RayFlag = 1 << iota

	// Stop traversal at the first accepted intersection.
	RayFlagTerminateOnFirstHit

	// Do not invoke the closest-hit stage on a hit.
	RayFlagSkipClosestHit

	// Skip back-facing triangles of instances that do not disable culling.
	RayFlagCullBackFacingTriangles
)

// The cull mask that makes every instance visible.
const CullMaskAll uint8 = 0xFF

// A request to trace a single ray.
type TraceRequest struct {
	Type     RayType
	Flags    RayFlag
	CullMask uint8

	Origin    types.Vec3
	TMin      float32
	Direction types.Vec3
	TMax      float32
}

// The intersection attributes exposed by traversal.
type Hit struct {
	// The TLAS instance and the triangle within its mesh.
	InstanceID  uint32
	PrimitiveID uint32

	// The instance custom index.
	CustomIndex uint32

	// Barycentric weights of the second and third triangle vertex.
	Barycentrics types.Vec2

	// Distance along the ray direction.
	T float32
}

// A ray generation program; invoked once per pixel of the launch.
type RayGenProgram func(ctx *Context, x, y uint32)

// A miss program; invoked when a ray hits nothing.
type MissProgram func(ctx *Context, req TraceRequest, payload RayPayload) RayPayload

// A closest-hit program; invoked with the nearest intersection of a ray.
type ClosestHitProgram func(ctx *Context, req TraceRequest, hit Hit, payload RayPayload) RayPayload

// A hit group record.
type HitGroup struct {
	ClosestHit ClosestHitProgram
}

// The shader binding table routes traced rays to programs. Miss records are
// indexed by ray type while hit groups are indexed by the instance SBT
// record offset plus the ray type.
type ShaderBindingTable struct {
	RayGen RayGenProgram
	Miss   []MissProgram
	Hit    []HitGroup
}

// Create a shader binding table and validate its regions.
func NewShaderBindingTable(rayGen RayGenProgram, miss []MissProgram, hit []HitGroup) (*ShaderBindingTable, error) {
	if rayGen == nil {
		return nil, ErrMissingRayGen
	}
	if len(miss) == 0 {
		return nil, ErrEmptyMissRegion
	}
	if len(hit) == 0 {
		return nil, ErrEmptyHitRegion
	}
	for index, prog := range miss {
		if prog == nil {
			return nil, fmt.Errorf("miss record %d: %w", index, ErrNilProgram)
		}
	}
	for index, group := range hit {
		if group.ClosestHit == nil {
			return nil, fmt.Errorf("hit group %d: %w", index, ErrNilProgram)
		}
	}

	return &ShaderBindingTable{
		RayGen: rayGen,
		Miss:   append([]MissProgram(nil), miss...),
		Hit:    append([]HitGroup(nil), hit...),
	}, nil
}

// A ray tracing pipeline binds a shader binding table to a maximum trace
// recursion depth.
type Pipeline struct {
	sbt               *ShaderBindingTable
	maxRecursionDepth uint32
}

// Create a pipeline. Requesting a recursion depth above
// MaxSupportedRecursionDepth fails.
func NewPipeline(sbt *ShaderBindingTable, maxRecursionDepth uint32) (*Pipeline, error) {
	if sbt == nil {
		return nil, ErrMissingRayGen
	}
	if maxRecursionDepth > MaxSupportedRecursionDepth {
		return nil, fmt.Errorf("requested %d, supported %d: %w", maxRecursionDepth, MaxSupportedRecursionDepth, ErrUnsupportedRecursion)
	}

	return &Pipeline{
		sbt:               sbt,
		maxRecursionDepth: maxRecursionDepth,
	}, nil
}

// Create the renderer pipeline: one ray generation stage, sky and shadow
// miss stages and a single closest-hit stage shared by all geometry.
func DefaultPipeline() (*Pipeline, error) {
	sbt, err := NewShaderBindingTable(
		RayGen,
		[]MissProgram{
			PrimaryRay: SkyMiss,
			ShadowRay:  ShadowMiss,
		},
		[]HitGroup{
			{ClosestHit: ClosestHit},
		},
	)
	if err != nil {
		return nil, err
	}

	return NewPipeline(sbt, MaxSupportedRecursionDepth)
}

// Get the pipeline's shader binding table.
func (p *Pipeline) SBT() *ShaderBindingTable {
	return p.sbt
}

// Get the maximum recursion depth.
func (p *Pipeline) MaxRecursionDepth() uint32 {
	return p.maxRecursionDepth
}
