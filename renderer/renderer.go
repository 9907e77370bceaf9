package renderer

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/tracer/cpu"
	"github.com/google/uuid"
)

type Renderer interface {
	// Render frame. The returned image is reused by subsequent calls.
	Render(frameIndex uint32) (*image.RGBA, error)

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics for the last frame.
	Stats() FrameStats

	// Get or replace the shading toggles applied from the next frame onwards.
	Settings() tracer.RenderSettings
	SetSettings(tracer.RenderSettings)

	// Get the scene camera. Camera changes apply from the next frame onwards.
	Camera() *scene.Camera
}

// A renderer that splits each frame into row blocks and distributes them
// to a pool of cpu tracers.
type defaultRenderer struct {
	sync.Mutex

	logger log.Logger

	// The id of this renderer instance; attached to logs and stats.
	runID string

	sc        *scene.Scene
	scheduler tracer.BlockScheduler
	tracers   []tracer.Tracer
	options   Options

	// Block heights assigned to each tracer for the last frame.
	blockAssignments []uint32

	frame *image.RGBA
	stats FrameStats
}

// Create a new renderer using the specified block scheduler and tracing
// pipeline. The scene is uploaded to every tracer and is owned by the
// renderer from then on.
func NewDefault(sc *scene.Scene, scheduler tracer.BlockScheduler, pipeline *cpu.Pipeline, opts Options) (Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}
	if scheduler == nil {
		scheduler = tracer.NaiveScheduler()
	}

	r := &defaultRenderer{
		runID:     uuid.New().String(),
		sc:        sc,
		scheduler: scheduler,
		options:   opts,
		frame:     image.NewRGBA(image.Rect(0, 0, int(opts.FrameW), int(opts.FrameH))),
	}
	r.logger = log.New(fmt.Sprintf("renderer (%s)", r.runID[:8]))

	r.applyOverrides()

	for index := uint32(0); index < opts.Tracers; index++ {
		tr, err := cpu.NewTracer(fmt.Sprintf("cpu-%d", index), int(opts.Workers), pipeline)
		if err == nil {
			err = tr.Init()
		}
		if err != nil {
			r.Close()
			return nil, err
		}
		tr.Update(tracer.UpdateScene, sc)
		r.tracers = append(r.tracers, tr)
	}

	r.logger.Noticef("attached %d tracers; frame size %dx%d", len(r.tracers), opts.FrameW, opts.FrameH)
	return r, nil
}

// Apply the camera and light overrides and set up the camera projection
// for the frame aspect ratio.
func (r *defaultRenderer) applyOverrides() {
	camera := r.sc.Camera
	if r.options.Camera.FOV > 0 {
		camera.FOV = r.options.Camera.FOV
	}
	if r.options.Camera.Eye != nil || r.options.Camera.Look != nil {
		eye := camera.Position
		look := camera.Position.Add(camera.Forward)
		if r.options.Camera.Eye != nil {
			eye = *r.options.Camera.Eye
		}
		if r.options.Camera.Look != nil {
			look = *r.options.Camera.Look
		}
		camera.LookAt(eye, look)
	}
	camera.SetupProjection(float32(r.options.FrameW) / float32(r.options.FrameH))

	if r.options.Light != nil {
		r.sc.Light.Position = *r.options.Light
	}
}

// Render a frame. Uniforms are rebuilt from the current camera, light and
// settings, the frame rows are scheduled across the tracers and the call
// blocks until every tracer has reported back.
func (r *defaultRenderer) Render(frameIndex uint32) (*image.RGBA, error) {
	r.Lock()
	defer r.Unlock()

	if r.tracers == nil {
		return nil, ErrClosed
	}

	start := time.Now()
	uniforms := tracer.NewUniforms(r.sc.Camera, r.sc.Light, r.options.Settings)
	for _, tr := range r.tracers {
		tr.Update(tracer.UpdateUniforms, uniforms)
	}

	r.blockAssignments = r.scheduler.Schedule(r.tracers, r.options.FrameH)

	doneChan := make(chan uint32, len(r.tracers))
	errChan := make(chan error, len(r.tracers))
	var blockY uint32
	for index, tr := range r.tracers {
		blockH := r.blockAssignments[index]
		tr.Enqueue(tracer.BlockRequest{
			FrameW:     r.options.FrameW,
			FrameH:     r.options.FrameH,
			BlockY:     blockY,
			BlockH:     blockH,
			FrameIndex: frameIndex,
			Output:     r.frame,
			DoneChan:   doneChan,
			ErrChan:    errChan,
		})
		blockY += blockH
	}

	// Every tracer replies exactly once; wait for all of them so no tracer
	// is still writing to the frame when we return.
	var err error
	for pending := len(r.tracers); pending > 0; pending-- {
		select {
		case <-doneChan:
		case blockErr := <-errChan:
			if err == nil {
				err = blockErr
			}
		}
	}
	if err != nil {
		r.logger.Errorf("frame %d: %v", frameIndex, err)
		return nil, err
	}

	r.updateStats(frameIndex, time.Since(start))
	r.logger.Infof("rendered frame %d in %d ms (%d rays)", frameIndex, r.stats.RenderTime.Nanoseconds()/1e6, r.stats.RaysTraced)
	return r.frame, nil
}

func (r *defaultRenderer) updateStats(frameIndex uint32, renderTime time.Duration) {
	stats := FrameStats{
		RunID:      r.runID,
		FrameIndex: frameIndex,
		Tracers:    make([]TracerStat, len(r.tracers)),
		RenderTime: renderTime,
	}
	for index, tr := range r.tracers {
		trStats := tr.Stats()
		blockH := r.blockAssignments[index]
		stats.Tracers[index] = TracerStat{
			Id:           tr.Id(),
			IsPrimary:    index == 0,
			BlockH:       blockH,
			FramePercent: 100.0 * float32(blockH) / float32(r.options.FrameH),
			RenderTime:   trStats.RenderTime,
			RaysTraced:   trStats.RaysTraced,
		}
		stats.RaysTraced += trStats.RaysTraced
	}
	r.stats = stats
}

// Shutdown renderer and any attached tracer. The scene buffers and
// acceleration structures are released once no tracer references them.
func (r *defaultRenderer) Close() {
	r.Lock()
	defer r.Unlock()

	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
	r.sc.Release()
}

// Get render statistics for the last frame.
func (r *defaultRenderer) Stats() FrameStats {
	r.Lock()
	defer r.Unlock()
	return r.stats
}

func (r *defaultRenderer) Settings() tracer.RenderSettings {
	r.Lock()
	defer r.Unlock()
	return r.options.Settings
}

func (r *defaultRenderer) SetSettings(settings tracer.RenderSettings) {
	r.Lock()
	defer r.Unlock()
	if settings != r.options.Settings {
		r.logger.Noticef("render settings: %s", settings)
	}
	r.options.Settings = settings
}

func (r *defaultRenderer) Camera() *scene.Camera {
	return r.sc.Camera
}
