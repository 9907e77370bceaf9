package tracer

import (
	"fmt"
	"strings"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/types"
)

// A shading feature that can be toggled between frames.
type Feature uint8

const (
	SoftShadows Feature = iota
	Reflections
	Refractions
	Subsurface
	NumFeatures
)

var featureNames = [NumFeatures]string{"soft shadows", "reflections", "refractions", "subsurface"}

func (f Feature) String() string {
	if f >= NumFeatures {
		return fmt.Sprintf("Feature(%d)", uint8(f))
	}
	return featureNames[f]
}

// The per-frame shading toggles. Settings are read-only while a frame is
// being rendered.
type RenderSettings struct {
	SoftShadows bool `yaml:"soft_shadows"`
	Reflections bool `yaml:"reflections"`
	Refractions bool `yaml:"refractions"`
	Subsurface  bool `yaml:"subsurface"`
}

// Get the default settings with every feature enabled.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		SoftShadows: true,
		Reflections: true,
		Refractions: true,
		Subsurface:  true,
	}
}

func (s *RenderSettings) flag(f Feature) *bool {
	switch f {
	case SoftShadows:
		return &s.SoftShadows
	case Reflections:
		return &s.Reflections
	case Refractions:
		return &s.Refractions
	case Subsurface:
		return &s.Subsurface
	}
	return nil
}

// Check whether a feature is enabled.
func (s RenderSettings) Enabled(f Feature) bool {
	if flag := s.flag(f); flag != nil {
		return *flag
	}
	return false
}

// Toggle a feature on or off.
func (s *RenderSettings) Toggle(f Feature) {
	if flag := s.flag(f); flag != nil {
		*flag = !*flag
	}
}

// Get the packed boolean-as-float representation (1 = on, 0 = off) in
// feature order.
func (s RenderSettings) Packed() types.Vec4 {
	var packed types.Vec4
	for f := Feature(0); f < NumFeatures; f++ {
		if s.Enabled(f) {
			packed[f] = 1
		}
	}
	return packed
}

// Unpack settings from their packed representation. Components above 0.5
// are treated as enabled.
func UnpackRenderSettings(packed types.Vec4) RenderSettings {
	var s RenderSettings
	for f := Feature(0); f < NumFeatures; f++ {
		*s.flag(f) = packed[f] > 0.5
	}
	return s
}

func (s RenderSettings) String() string {
	parts := make([]string, 0, NumFeatures)
	for f := Feature(0); f < NumFeatures; f++ {
		state := "off"
		if s.Enabled(f) {
			state = "on"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f, state))
	}
	return strings.Join(parts, ", ")
}

// The per-frame data consumed by the ray generation and hit stages.
type Uniforms struct {
	InvView  types.Mat4
	InvProj  types.Mat4
	LightPos types.Vec3
	Settings RenderSettings
}

// Build uniforms from the scene camera and light. The camera projection
// must already be set up for the frame aspect ratio.
func NewUniforms(camera *scene.Camera, light scene.Light, settings RenderSettings) Uniforms {
	return Uniforms{
		InvView:  camera.InvViewMat(),
		InvProj:  camera.InvProjMat(),
		LightPos: light.Position,
		Settings: settings,
	}
}
