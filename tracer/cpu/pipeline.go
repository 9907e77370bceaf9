package cpu

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/tracer/cpu/integrator"
	"github.com/achilleasa/prism/types"
)

// Debug flags.
type DebugFlag uint16

const (
	Off DebugFlag = 0

	// Dump the shading normals seen by primary rays.
	PrimaryRayNormals DebugFlag = 1 << iota

	// Dump the frame buffer after each block.
	FrameBuffer
)

// An alias for functions that can be used as part of the rendering pipeline.
type PipelineStage func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error)

// The list of pluggable stages that are used to render a block.
type Pipeline struct {
	// This stage traces the block rows and writes the resolved colors to
	// the frame.
	Integrator PipelineStage

	// A set of post-processing stages that are executed after the block
	// has been traced.
	PostProcess []PipelineStage
}

func DefaultPipeline(debugFlags DebugFlag) *Pipeline {
	pipeline := &Pipeline{
		Integrator:  RayTracer(),
		PostProcess: make([]PipelineStage, 0),
	}

	if debugFlags&PrimaryRayNormals == PrimaryRayNormals {
		pipeline.PostProcess = append(pipeline.PostProcess, DebugPrimaryRayNormals("debug-primary-normals-%s.png"))
	}
	if debugFlags&FrameBuffer == FrameBuffer {
		pipeline.PostProcess = append(pipeline.PostProcess, DebugFrameBuffer("debug-fb-%s.png"))
	}

	return pipeline
}

// Trace the block with the tracer's ray tracing pipeline.
func RayTracer() PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()
		rays, err := tr.rtPipeline.Launch(tr.launchParams(blockReq, blockReq.Output))
		tr.stats.RaysTraced += rays
		return time.Since(start), err
	}
}

// Render the world space shading normals of primary ray hits for the block
// rows and write them to a png file. The file name pattern receives the
// tracer id.
func DebugPrimaryRayNormals(imgFilePattern string) PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		p, err := normalsPipeline()
		if err != nil {
			return 0, err
		}

		im := image.NewRGBA(image.Rect(0, 0, int(blockReq.FrameW), int(blockReq.FrameH)))
		if _, err = p.Launch(tr.launchParams(blockReq, im)); err != nil {
			return 0, err
		}

		return time.Since(start), writePNG(fmt.Sprintf(imgFilePattern, tr.id), im)
	}
}

// Dump a copy of the RGBA framebuffer. The file name pattern receives the
// tracer id.
func DebugFrameBuffer(imgFilePattern string) PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()
		return time.Since(start), writePNG(fmt.Sprintf(imgFilePattern, tr.id), blockReq.Output)
	}
}

func (tr *Tracer) launchParams(blockReq *tracer.BlockRequest, out *image.RGBA) *integrator.LaunchParams {
	return &integrator.LaunchParams{
		Scene:      tr.sceneData,
		Uniforms:   tr.uniforms,
		Output:     out,
		FrameW:     blockReq.FrameW,
		FrameH:     blockReq.FrameH,
		BlockY:     blockReq.BlockY,
		BlockH:     blockReq.BlockH,
		FrameIndex: blockReq.FrameIndex,
		Workers:    tr.workers,
	}
}

// Build a pipeline whose hit stage outputs the shading normal mapped to
// [0, 1] and whose miss stages output black.
func normalsPipeline() (*integrator.Pipeline, error) {
	miss := func(_ *integrator.Context, _ integrator.TraceRequest, payload integrator.RayPayload) integrator.RayPayload {
		payload.Color = types.Vec3{}
		return payload
	}
	hit := func(ctx *integrator.Context, _ integrator.TraceRequest, h integrator.Hit, payload integrator.RayPayload) integrator.RayPayload {
		sc := ctx.Scene()
		desc := sc.Descriptor(h.InstanceID)
		tri := sc.Geometry.Triangles(desc.IndexBuffer)[h.PrimitiveID]
		vertices := sc.Geometry.Vertices(desc.VertexBuffer)
		w1, w2 := h.Barycentrics[0], h.Barycentrics[1]
		n := vertices[tri[0]].Normal.Mul(1 - w1 - w2).Add(vertices[tri[1]].Normal.Mul(w1)).Add(vertices[tri[2]].Normal.Mul(w2))
		n = sc.Tlas.Instances[h.InstanceID].NormalMatrix.Mul3x1(n).Normalize()

		payload.Color = n.Mul(0.5).Add(types.Vec3{0.5, 0.5, 0.5})
		return payload
	}

	sbt, err := integrator.NewShaderBindingTable(
		integrator.RayGen,
		[]integrator.MissProgram{integrator.PrimaryRay: miss, integrator.ShadowRay: miss},
		[]integrator.HitGroup{{ClosestHit: hit}},
	)
	if err != nil {
		return nil, err
	}
	return integrator.NewPipeline(sbt, 1)
}

func writePNG(imgFile string, im image.Image) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, im)
}
