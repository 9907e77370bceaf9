package main

import (
	"os"

	"github.com/achilleasa/prism/cmd"
	"github.com/achilleasa/prism/log"
	"github.com/urfave/cli"
)

var logger = log.New("prism")

func main() {
	os.Exit(run(os.Args))
}

// Run the cli app and return the process exit code. Errors returned by a
// command are logged before exiting.
func run(args []string) int {
	if err := newApp().Run(args); err != nil {
		logger.Error(err)
		return 1
	}
	return 0
}

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "prism"
	app.Usage = "render scenes with a two-level BVH ray tracer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}

	renderOptionFlags := []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "load render options from a yaml file; explicit flags override its values",
			EnvVar: "PRISM_CONFIG",
		},
		cli.IntFlag{
			Name:   "width",
			Value:  1280,
			Usage:  "frame width",
			EnvVar: "PRISM_WIDTH",
		},
		cli.IntFlag{
			Name:   "height",
			Value:  720,
			Usage:  "frame height",
			EnvVar: "PRISM_HEIGHT",
		},
		cli.IntFlag{
			Name:   "tracers",
			Value:  1,
			Usage:  "number of cpu tracers the frame is split across",
			EnvVar: "PRISM_TRACERS",
		},
		cli.IntFlag{
			Name:   "workers",
			Value:  0,
			Usage:  "rows traced in parallel by each tracer (0 = one per CPU)",
			EnvVar: "PRISM_WORKERS",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile text scene representation into a binary compressed format",
			Description: `
Parse a scene definition from a wavefront obj file, build the bottom and top
level acceleration structures and package scene elements together with the
instance descriptor table.

The compiled scene data is then written to a zip archive which can be supplied
as an argument to the render command.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Action:    cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "print scene statistics",
			ArgsUsage: "scene_file.{obj,zip} | demo",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:   "list-tracers",
			Usage:  "list the cpu tracers a render would attach",
			Flags:  renderOptionFlags,
			Action: cmd.ListTracers,
		},
		{
			Name:  "render",
			Usage: "render scene",
			Description: `
Render one or more frames of a scene. The scene argument may be a wavefront obj
file, a compiled zip archive, a http(s) url to either or the keyword "demo" for
the built-in street scene.

The --keys flag applies one key press before each frame: w/s/a/d/q/e move the
camera, 1-4 toggle soft shadows, reflections, refractions and subsurface
scattering and '.' renders the next frame unchanged.`,
			ArgsUsage: "scene_file.{obj,zip} | demo",
			Flags: append(renderOptionFlags,
				cli.IntFlag{
					Name:   "frames",
					Value:  1,
					Usage:  "number of frames to render",
					EnvVar: "PRISM_FRAMES",
				},
				cli.IntFlag{
					Name:  "toggle-every",
					Value: 0,
					Usage: "cycle through the shading feature toggles every N frames (0 = off)",
				},
				cli.StringFlag{
					Name:  "keys",
					Usage: "key presses applied one per frame",
				},
				cli.StringFlag{
					Name:   "scheduler",
					Value:  "naive",
					Usage:  "block scheduler (naive or perfect)",
					EnvVar: "PRISM_SCHEDULER",
				},
				cli.BoolFlag{
					Name:  "no-soft-shadows",
					Usage: "disable soft shadows",
				},
				cli.BoolFlag{
					Name:  "no-reflections",
					Usage: "disable metal reflections",
				},
				cli.BoolFlag{
					Name:  "no-refractions",
					Usage: "disable glass refractions",
				},
				cli.BoolFlag{
					Name:  "no-sss",
					Usage: "disable subsurface scattering",
				},
				cli.BoolFlag{
					Name:  "debug-fb",
					Usage: "dump the frame buffer after each block",
				},
				cli.BoolFlag{
					Name:  "debug-normals",
					Usage: "dump the primary ray shading normals after each block",
				},
				cli.StringFlag{
					Name:   "out, o",
					Value:  "frame.png",
					Usage:  "image filename for the rendered frame; multiple frames get an index suffix",
					EnvVar: "PRISM_OUT",
				},
			),
			Action: cmd.RenderFrames,
		},
	}

	return app
}
