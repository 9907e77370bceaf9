package cmd

import (
	"fmt"
	"unicode"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/renderer"
	"github.com/achilleasa/prism/tracer"
)

// Camera movement speed per key press.
const cameraMoveSpeed float32 = 0.1

var moveBindings = map[rune]scene.CameraDirection{
	'w': scene.Forward,
	's': scene.Backward,
	'a': scene.Left,
	'd': scene.Right,
	'q': scene.Up,
	'e': scene.Down,
}

var toggleBindings = map[rune]tracer.Feature{
	'1': tracer.SoftShadows,
	'2': tracer.Reflections,
	'3': tracer.Refractions,
	'4': tracer.Subsurface,
}

// Apply a key press to the renderer: WASD moves the camera on the
// horizontal plane, Q/E move it up and down and 1-4 toggle the shading
// features. The '.' key is a no-op that just advances a frame.
func applyKey(r renderer.Renderer, key rune) error {
	key = unicode.ToLower(key)
	if dir, isMove := moveBindings[key]; isMove {
		r.Camera().Move(dir, cameraMoveSpeed)
		return nil
	}

	if feature, isToggle := toggleBindings[key]; isToggle {
		settings := r.Settings()
		settings.Toggle(feature)
		r.SetSettings(settings)
		logger.Noticef("toggled %s: %t", feature, settings.Enabled(feature))
		return nil
	}

	if key == '.' {
		return nil
	}

	return fmt.Errorf("unsupported key %q", key)
}
