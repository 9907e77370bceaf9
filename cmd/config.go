package cmd

import (
	"fmt"
	"os"

	"github.com/achilleasa/prism/renderer"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"
)

// Load render options from a yaml file on top of the defaults.
func loadConfig(filename string, opts *renderer.Options) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	if err = yaml.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("config %s: %w", filename, err)
	}
	return nil
}

// Build the render options: defaults, then the optional config file, then
// any explicitly set flags.
func renderOptions(ctx *cli.Context) (renderer.Options, error) {
	opts := renderer.DefaultOptions()

	if cfgFile := ctx.String("config"); cfgFile != "" {
		if err := loadConfig(cfgFile, &opts); err != nil {
			return opts, err
		}
	}

	if ctx.IsSet("width") {
		opts.FrameW = uint32(ctx.Int("width"))
	}
	if ctx.IsSet("height") {
		opts.FrameH = uint32(ctx.Int("height"))
	}
	if ctx.IsSet("tracers") {
		opts.Tracers = uint32(ctx.Int("tracers"))
	}
	if ctx.IsSet("workers") {
		opts.Workers = uint32(ctx.Int("workers"))
	}

	if ctx.Bool("no-soft-shadows") {
		opts.Settings.SoftShadows = false
	}
	if ctx.Bool("no-reflections") {
		opts.Settings.Reflections = false
	}
	if ctx.Bool("no-refractions") {
		opts.Settings.Refractions = false
	}
	if ctx.Bool("no-sss") {
		opts.Settings.Subsurface = false
	}

	return opts, opts.Validate()
}
