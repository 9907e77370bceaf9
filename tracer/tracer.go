package tracer

import (
	"image"
	"time"
)

// Tracer capability flags.
type Flag uint8

const (
	// The tracer runs on the local host and writes directly to the frame.
	Local Flag = 1 << iota
)

// The type of data passed to Tracer.Update.
type UpdateType uint8

const (
	// A compiled *scene.Scene.
	UpdateScene UpdateType = iota

	// Per-frame Uniforms.
	UpdateUniforms
)

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Frame dimensions.
	FrameW uint32
	FrameH uint32

	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// The index of the frame being rendered; used to decorrelate random
	// sequences across frames.
	FrameIndex uint32

	// The frame to render into. Each tracer only writes the rows of its block.
	Output *image.RGBA

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The rendered block height
	BlockH uint32

	// The time for rendering the last block.
	RenderTime time.Duration

	// The time spent applying queued updates before the last block.
	UpdateTime time.Duration

	// The number of rays traced while rendering the last block.
	RaysTraced uint64
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Get tracer flags.
	Flags() Flag

	// Get the tracer's relative speed estimate.
	Speed() uint32

	// Initialize tracer and start its worker.
	Init() error

	// Shutdown and cleanup tracer.
	Close()

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Queue an update to be applied before the next block is rendered.
	Update(UpdateType, interface{})

	// Retrieve last frame statistics.
	Stats() *Stats
}
