package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/achilleasa/prism/renderer"
	"github.com/achilleasa/prism/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

const testConfig = `
width: 320
height: 200
tracers: 2
workers: 3
settings:
  soft_shadows: false
  reflections: true
  refractions: true
  subsurface: false
light: [1, 10, 2]
camera:
  eye: [0, 2, 8]
  look: [0, 0, 0]
  fov: 60
`

func TestLoadConfig(t *testing.T) {
	cfgFile := writeTestConfig(t, testConfig)

	opts := renderer.DefaultOptions()
	require.NoError(t, loadConfig(cfgFile, &opts))

	assert.Equal(t, uint32(320), opts.FrameW)
	assert.Equal(t, uint32(200), opts.FrameH)
	assert.Equal(t, uint32(2), opts.Tracers)
	assert.Equal(t, uint32(3), opts.Workers)
	assert.False(t, opts.Settings.SoftShadows)
	assert.True(t, opts.Settings.Reflections)
	assert.False(t, opts.Settings.Subsurface)
	require.NotNil(t, opts.Light)
	assert.Equal(t, types.Vec3{1, 10, 2}, *opts.Light)
	require.NotNil(t, opts.Camera.Eye)
	assert.Equal(t, types.Vec3{0, 2, 8}, *opts.Camera.Eye)
	assert.Equal(t, float32(60), opts.Camera.FOV)
}

func TestLoadConfigErrors(t *testing.T) {
	opts := renderer.DefaultOptions()
	require.Error(t, loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), &opts))

	cfgFile := writeTestConfig(t, "width: [not a number")
	require.Error(t, loadConfig(cfgFile, &opts))
}

func TestRenderOptions(t *testing.T) {
	cfgFile := writeTestConfig(t, testConfig)

	specs := []struct {
		args   []string
		check  func(renderer.Options)
		expErr error
	}{
		{
			nil,
			func(opts renderer.Options) {
				assert.Equal(t, renderer.DefaultOptions(), opts)
			},
			nil,
		},
		{
			[]string{"--config", cfgFile},
			func(opts renderer.Options) {
				assert.Equal(t, uint32(320), opts.FrameW)
				assert.Equal(t, uint32(2), opts.Tracers)
			},
			nil,
		},
		{
			// Explicit flags override the config file.
			[]string{"--config", cfgFile, "--width", "64", "--tracers", "4"},
			func(opts renderer.Options) {
				assert.Equal(t, uint32(64), opts.FrameW)
				assert.Equal(t, uint32(200), opts.FrameH)
				assert.Equal(t, uint32(4), opts.Tracers)
			},
			nil,
		},
		{
			[]string{"--no-reflections", "--no-sss"},
			func(opts renderer.Options) {
				assert.True(t, opts.Settings.SoftShadows)
				assert.False(t, opts.Settings.Reflections)
				assert.True(t, opts.Settings.Refractions)
				assert.False(t, opts.Settings.Subsurface)
			},
			nil,
		},
		{
			[]string{"--tracers", "0"},
			nil,
			renderer.ErrNoTracers,
		},
		{
			[]string{"--height", "0"},
			nil,
			renderer.ErrInvalidFrameSize,
		},
	}

	for specIndex, spec := range specs {
		opts, err := parseRenderOptions(t, spec.args...)
		if spec.expErr != nil {
			require.ErrorIs(t, err, spec.expErr, "spec %d", specIndex)
			continue
		}
		require.NoError(t, err, "spec %d", specIndex)
		spec.check(opts)
	}
}

func parseRenderOptions(t *testing.T, args ...string) (renderer.Options, error) {
	var (
		opts   renderer.Options
		optErr error
	)

	app := cli.NewApp()
	app.Commands = []cli.Command{
		{
			Name: "opts",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config"},
				cli.IntFlag{Name: "width", Value: 1280},
				cli.IntFlag{Name: "height", Value: 720},
				cli.IntFlag{Name: "tracers", Value: 1},
				cli.IntFlag{Name: "workers"},
				cli.BoolFlag{Name: "no-soft-shadows"},
				cli.BoolFlag{Name: "no-reflections"},
				cli.BoolFlag{Name: "no-refractions"},
				cli.BoolFlag{Name: "no-sss"},
			},
			Action: func(ctx *cli.Context) error {
				opts, optErr = renderOptions(ctx)
				return nil
			},
		},
	}

	require.NoError(t, app.Run(append([]string{"prism", "opts"}, args...)))
	return opts, optErr
}

func writeTestConfig(t *testing.T, data string) string {
	cfgFile := filepath.Join(t.TempDir(), "render.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(data), 0644))
	return cfgFile
}
