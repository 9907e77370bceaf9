package renderer

import (
	"fmt"

	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/types"
)

// Camera placement overrides. Unset fields keep the scene camera values.
type CameraOptions struct {
	Eye  *types.Vec3 `yaml:"eye"`
	Look *types.Vec3 `yaml:"look"`
	FOV  float32     `yaml:"fov"`
}

type Options struct {
	// Frame dims.
	FrameW uint32 `yaml:"width"`
	FrameH uint32 `yaml:"height"`

	// Number of cpu tracers the frame is split across.
	Tracers uint32 `yaml:"tracers"`

	// Rows traced in parallel by each tracer; 0 selects one per CPU.
	Workers uint32 `yaml:"workers"`

	// Shading toggles.
	Settings tracer.RenderSettings `yaml:"settings"`

	// Optional light position override.
	Light *types.Vec3 `yaml:"light"`

	// Optional camera overrides.
	Camera CameraOptions `yaml:"camera"`
}

// Get the default options: a 1280x720 frame rendered by a single tracer
// with one worker per CPU and every shading feature enabled.
func DefaultOptions() Options {
	return Options{
		FrameW:   1280,
		FrameH:   720,
		Tracers:  1,
		Settings: tracer.DefaultRenderSettings(),
	}
}

// Check the options for invalid values.
func (opts *Options) Validate() error {
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return fmt.Errorf("frame size %dx%d: %w", opts.FrameW, opts.FrameH, ErrInvalidFrameSize)
	}
	if opts.Tracers == 0 {
		return ErrNoTracers
	}
	if opts.Tracers > opts.FrameH {
		return fmt.Errorf("%d tracers for %d rows: %w", opts.Tracers, opts.FrameH, ErrTooManyTracers)
	}
	if opts.Camera.FOV < 0 || opts.Camera.FOV >= 180 {
		return fmt.Errorf("camera fov %v: %w", opts.Camera.FOV, ErrInvalidFOV)
	}
	return nil
}
