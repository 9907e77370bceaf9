package cmd

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/achilleasa/prism/asset/scene/reader"
	"github.com/achilleasa/prism/renderer"
	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/tracer/cpu"
	"github.com/urfave/cli"
)

// Render one or more frames and write them out as png files.
func RenderFrames(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	// Load scene
	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	// Setup tracing pipeline
	debugFlags := cpu.Off
	if ctx.Bool("debug-fb") {
		debugFlags |= cpu.FrameBuffer
	}
	if ctx.Bool("debug-normals") {
		debugFlags |= cpu.PrimaryRayNormals
	}
	pipeline := cpu.DefaultPipeline(debugFlags)

	scheduler, err := blockScheduler(ctx.String("scheduler"))
	if err != nil {
		return err
	}

	// Create renderer
	r, err := renderer.NewDefault(sc, scheduler, pipeline, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	numFrames := ctx.Int("frames")
	if numFrames < 1 {
		numFrames = 1
	}
	toggleEvery := ctx.Int("toggle-every")
	keys := []rune(ctx.String("keys"))
	out := ctx.String("out")

	for frameIndex := 0; frameIndex < numFrames; frameIndex++ {
		if toggleEvery > 0 && frameIndex > 0 && frameIndex%toggleEvery == 0 {
			feature := tracer.Feature((frameIndex/toggleEvery - 1) % int(tracer.NumFeatures))
			if err = applyKey(r, rune('1'+feature)); err != nil {
				return err
			}
		}
		if frameIndex < len(keys) {
			if err = applyKey(r, keys[frameIndex]); err != nil {
				return err
			}
		}

		frame, err := r.Render(uint32(frameIndex))
		if err != nil {
			return err
		}

		imgFile := out
		if numFrames > 1 {
			imgFile = frameFilename(out, frameIndex)
		}
		if err = writeFrame(imgFile, frame); err != nil {
			return err
		}

		displayFrameStats(r.Stats())
	}

	return nil
}

func blockScheduler(name string) (tracer.BlockScheduler, error) {
	switch strings.ToLower(name) {
	case "", "naive":
		return tracer.NaiveScheduler(), nil
	case "perfect":
		return tracer.PerfectScheduler(), nil
	}
	return nil, fmt.Errorf("unknown block scheduler %q", name)
}

// Insert a zero-padded frame index before the file extension.
func frameFilename(out string, frameIndex int) string {
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s-%03d%s", strings.TrimSuffix(out, ext), frameIndex, ext)
}

func writeFrame(imgFile string, frame *image.RGBA) error {
	start := time.Now()
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = png.Encode(f, frame); err != nil {
		return fmt.Errorf("encoding png file %s: %w", imgFile, err)
	}
	logger.Infof("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1e6)
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	logger.Noticef("frame %d statistics (run %s)\n%s", stats.FrameIndex, stats.RunID, stats.Table())
}
