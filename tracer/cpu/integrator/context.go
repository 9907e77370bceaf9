package integrator

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/tracer"
	"golang.org/x/sync/errgroup"
)

// The parameters of a ray generation launch over a block of frame rows.
type LaunchParams struct {
	Scene    *scene.Scene
	Uniforms tracer.Uniforms

	// The frame being rendered. Only rows inside the block are written.
	Output *image.RGBA

	FrameW     uint32
	FrameH     uint32
	BlockY     uint32
	BlockH     uint32
	FrameIndex uint32

	// Max number of rows rendered in parallel.
	Workers int
}

// An invocation context carries the launch state for a single worker. It is
// not safe for concurrent use; each worker gets its own.
type Context struct {
	Pipeline *Pipeline
	Params   *LaunchParams

	// The trace call nesting level of the running program.
	level uint32

	// Per ray type trace call counters.
	traces [numRayTypes]uint64

	// Reusable traversal stacks.
	tlasStack []uint32
	blasStack []uint32

	// The first error raised by a program.
	err error
}

// Create an invocation context for a launch.
func NewContext(pipeline *Pipeline, params *LaunchParams) *Context {
	return &Context{
		Pipeline:  pipeline,
		Params:    params,
		tlasStack: make([]uint32, 0, 64),
		blasStack: make([]uint32, 0, 64),
	}
}

// Get the scene being traced.
func (ctx *Context) Scene() *scene.Scene {
	return ctx.Params.Scene
}

// Get the frame uniforms.
func (ctx *Context) Uniforms() *tracer.Uniforms {
	return &ctx.Params.Uniforms
}

// Get the number of trace calls issued for a ray type.
func (ctx *Context) TraceCount(rayType RayType) uint64 {
	if rayType >= numRayTypes {
		return 0
	}
	return ctx.traces[rayType]
}

// Get the total number of trace calls issued through this context.
func (ctx *Context) TotalTraceCount() uint64 {
	var total uint64
	for _, count := range ctx.traces {
		total += count
	}
	return total
}

// Get the first error raised while running programs.
func (ctx *Context) Err() error {
	return ctx.err
}

// Trace a ray through the scene and route it to the closest-hit or miss
// program selected by the shader binding table. The call returns once the
// invoked program has returned, yielding the payload it produced.
func (ctx *Context) TraceRay(req TraceRequest, payload RayPayload) RayPayload {
	if ctx.err != nil {
		return payload
	}
	if req.Type < numRayTypes {
		ctx.traces[req.Type]++
	}

	if ctx.level >= ctx.Pipeline.maxRecursionDepth {
		ctx.err = fmt.Errorf("level %d: %w", ctx.level+1, ErrRecursionLimitExceeded)
		return payload
	}
	ctx.level++
	defer func() { ctx.level-- }()

	sbt := ctx.Pipeline.sbt
	hit, found := ctx.traverse(req)
	if !found {
		if int(req.Type) >= len(sbt.Miss) {
			ctx.err = fmt.Errorf("miss record %d: %w", req.Type, ErrInvalidSBTIndex)
			return payload
		}
		return sbt.Miss[req.Type](ctx, req, payload)
	}

	// An accepted hit on a ray that does not need shading ends the trace.
	if req.Flags&RayFlagSkipClosestHit != 0 {
		return payload
	}

	inst := &ctx.Params.Scene.Tlas.Instances[hit.InstanceID]
	groupIndex := inst.SBTRecordOffset + uint32(req.Type)
	if int(groupIndex) >= len(sbt.Hit) {
		ctx.err = fmt.Errorf("hit group %d: %w", groupIndex, ErrInvalidSBTIndex)
		return payload
	}
	return sbt.Hit[groupIndex].ClosestHit(ctx, req, hit, payload)
}

// Launch the ray generation program for every pixel in the block rows. Rows
// are rendered in parallel; each row gets its own invocation context. The
// call returns the number of rays traced.
func (p *Pipeline) Launch(params *LaunchParams) (uint64, error) {
	if params.Scene == nil {
		return 0, ErrNoScene
	}
	if params.Output == nil || params.BlockY+params.BlockH > params.FrameH ||
		params.Output.Bounds().Dx() < int(params.FrameW) || params.Output.Bounds().Dy() < int(params.FrameH) {
		return 0, ErrInvalidLaunchDimensions
	}

	var raysTraced uint64
	var g errgroup.Group
	if params.Workers > 0 {
		g.SetLimit(params.Workers)
	}
	for y := params.BlockY; y < params.BlockY+params.BlockH; y++ {
		y := y
		g.Go(func() error {
			ctx := NewContext(p, params)
			for x := uint32(0); x < params.FrameW; x++ {
				p.sbt.RayGen(ctx, x, y)
				if ctx.err != nil {
					return fmt.Errorf("pixel (%d, %d): %w", x, y, ctx.err)
				}
			}
			atomic.AddUint64(&raysTraced, ctx.TotalTraceCount())
			return nil
		})
	}

	err := g.Wait()
	return atomic.LoadUint64(&raysTraced), err
}
