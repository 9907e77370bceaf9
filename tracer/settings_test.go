package tracer

import (
	"testing"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/types"
	"github.com/stretchr/testify/assert"
)

func TestRenderSettingsToggle(t *testing.T) {
	s := DefaultRenderSettings()
	assert.Equal(t, types.Vec4{1, 1, 1, 1}, s.Packed())

	s.Toggle(Reflections)
	s.Toggle(Subsurface)
	assert.Equal(t, types.Vec4{1, 0, 1, 0}, s.Packed())
	assert.False(t, s.Enabled(Reflections))
	assert.True(t, s.Enabled(Refractions))

	// Toggling twice restores the original state.
	s.Toggle(Reflections)
	assert.True(t, s.Enabled(Reflections))

	assert.Equal(t, s, UnpackRenderSettings(s.Packed()))
	assert.Equal(t, "soft shadows: on, reflections: on, refractions: on, subsurface: off", s.String())

	// Unknown features are ignored.
	s.Toggle(NumFeatures)
	assert.False(t, s.Enabled(NumFeatures))
}

func TestNewUniforms(t *testing.T) {
	cam := scene.NewCamera(45)
	cam.LookAt(types.Vec3{0, 2, 10}, types.Vec3{0, 2, 9})
	cam.SetupProjection(1)

	u := NewUniforms(cam, scene.Light{Position: types.Vec3{10, 10, 10}}, DefaultRenderSettings())
	origin := u.InvView.MulPoint(types.Vec3{})
	assert.True(t, origin.ApproxEqual(types.Vec3{0, 2, 10}, 1e-4), "got %v", origin)
	assert.Equal(t, types.Vec3{10, 10, 10}, u.LightPos)
}
