package cmd

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/achilleasa/prism/tracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameFilename(t *testing.T) {
	specs := []struct {
		out      string
		index    int
		expected string
	}{
		{"frame.png", 0, "frame-000.png"},
		{"frame.png", 12, "frame-012.png"},
		{"out/shot.v2.png", 7, "out/shot.v2-007.png"},
		{"frame", 3, "frame-003"},
	}

	for specIndex, spec := range specs {
		if got := frameFilename(spec.out, spec.index); got != spec.expected {
			t.Fatalf("[spec %d] expected %q; got %q", specIndex, spec.expected, got)
		}
	}
}

func TestBlockScheduler(t *testing.T) {
	for _, name := range []string{"", "naive", "Perfect"} {
		sched, err := blockScheduler(name)
		require.NoError(t, err, name)
		require.NotNil(t, sched, name)
	}

	_, err := blockScheduler("round-robin")
	require.Error(t, err)

	sched, err := blockScheduler("perfect")
	require.NoError(t, err)
	assert.IsType(t, tracer.PerfectScheduler(), sched)
}

func TestWriteFrame(t *testing.T) {
	imgFile := filepath.Join(t.TempDir(), "frame.png")
	frame := image.NewRGBA(image.Rect(0, 0, 4, 3))
	require.NoError(t, writeFrame(imgFile, frame))

	f, err := os.Open(imgFile)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, frame.Bounds(), img.Bounds())

	require.Error(t, writeFrame(filepath.Join(t.TempDir(), "missing", "frame.png"), frame))
}
