package cpu

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/achilleasa/prism/asset/scene"
	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/tracer/cpu/integrator"
)

// A tracer that renders frame blocks on the host CPU using a pool of
// row workers.
type Tracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// Max number of rows traced in parallel.
	workers int

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateLock   sync.Mutex
	updateBuffer map[tracer.UpdateType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan tracer.BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered block.
	stats *tracer.Stats

	// The tracer rendering pipeline.
	pipeline *Pipeline

	// The ray tracing pipeline used by the integrator stage.
	rtPipeline *integrator.Pipeline

	// The uploaded scene data and frame uniforms.
	sceneData   *scene.Scene
	uniforms    tracer.Uniforms
	hasUniforms bool
}

// Create a new cpu tracer. If workers is not positive, one worker per
// available CPU is used.
func NewTracer(id string, workers int, pipeline *Pipeline) (*Tracer, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if pipeline == nil {
		pipeline = DefaultPipeline(Off)
	}

	tr := &Tracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		workers:      workers,
		blockReqChan: make(chan tracer.BlockRequest, 1),
		updateBuffer: make(map[tracer.UpdateType]interface{}),
		stats:        &tracer.Stats{},
		pipeline:     pipeline,
	}

	return tr, nil
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Get tracer flags.
func (tr *Tracer) Flags() tracer.Flag {
	return tracer.Local
}

// Get the relative speed estimate; the number of rows traced in parallel.
func (tr *Tracer) Speed() uint32 {
	return uint32(tr.workers)
}

// Initialize tracer and start its worker.
func (tr *Tracer) Init() error {
	tr.Lock()
	defer tr.Unlock()

	if tr.rtPipeline == nil {
		rtPipeline, err := integrator.DefaultPipeline()
		if err != nil {
			return err
		}
		tr.rtPipeline = rtPipeline
	}

	if tr.closeChan == nil {
		tr.startWorker()
	}

	tr.logger.Infof("initialized with %d workers", tr.workers)
	return nil
}

// Shutdown and cleanup tracer.
func (tr *Tracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	tr.cleanup()
}

// Cleanup tracer. This method is meant to be called while holding tr.Lock()
func (tr *Tracer) cleanup() {
	// If the worker is running shut it down
	if tr.closeChan != nil {
		tr.closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-tr.closeChan
		close(tr.closeChan)
		tr.closeChan = nil
		tr.wg.Wait()
	}

	tr.sceneData = nil
	tr.hasUniforms = false
}

// Enqueue block request.
func (tr *Tracer) Enqueue(blockReq tracer.BlockRequest) {
	if tr.closeChan == nil {
		blockReq.ErrChan <- ErrNotInitialized
		return
	}

	select {
	case tr.blockReqChan <- blockReq:
	default:
		tr.logger.Error("request processor did not receive block request")
		blockReq.ErrChan <- ErrTracerBusy
	}
}

// Append a change to the tracer's update buffer.
func (tr *Tracer) Update(updateType tracer.UpdateType, data interface{}) {
	tr.updateLock.Lock()
	tr.updateBuffer[updateType] = data
	tr.updateLock.Unlock()
}

// Retrieve last block statistics.
func (tr *Tracer) Stats() *tracer.Stats {
	return tr.stats
}

// Commit queued changes. The update buffer is drained even if an update
// fails to apply.
func (tr *Tracer) commitUpdates() error {
	tr.updateLock.Lock()
	defer func() {
		tr.updateBuffer = make(map[tracer.UpdateType]interface{})
		tr.updateLock.Unlock()
	}()

	for updateType, data := range tr.updateBuffer {
		switch updateType {
		case tracer.UpdateScene:
			sc, ok := data.(*scene.Scene)
			if !ok || sc == nil {
				return fmt.Errorf("scene update with %T: %w", data, ErrInvalidUpdateData)
			}
			tr.sceneData = sc
			tr.logger.Debugf("uploaded scene with %d instances", len(sc.Tlas.Instances))
		case tracer.UpdateUniforms:
			switch u := data.(type) {
			case tracer.Uniforms:
				tr.uniforms = u
			case *tracer.Uniforms:
				tr.uniforms = *u
			default:
				return fmt.Errorf("uniform update with %T: %w", data, ErrInvalidUpdateData)
			}
			tr.hasUniforms = true
		default:
			return fmt.Errorf("update type %d: %w", updateType, ErrUnsupportedUpdate)
		}
	}

	return nil
}

func (tr *Tracer) hasPendingUpdates() bool {
	tr.updateLock.Lock()
	defer tr.updateLock.Unlock()
	return len(tr.updateBuffer) != 0
}

// Spawn a go-routine to process block render requests.
func (tr *Tracer) startWorker() {
	// Worker already running
	if tr.closeChan != nil {
		return
	}

	tr.closeChan = make(chan struct{})
	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		var blockReq tracer.BlockRequest
		var startTime time.Time
		var err error
		close(readyChan)
		for {
			select {
			case blockReq = <-tr.blockReqChan:
				startTime = time.Now()

				// Apply any pending changes
				if tr.hasPendingUpdates() {
					err = tr.commitUpdates()
					if err != nil {
						blockReq.ErrChan <- err
						continue
					}
					tr.stats.UpdateTime = time.Since(startTime)
				}

				// Render block and reply with our completion status
				err = tr.renderBlock(&blockReq)
				if err != nil {
					blockReq.ErrChan <- fmt.Errorf("tracer %s: %w", tr.id, err)
					continue
				}

				// Update stats
				tr.stats.BlockH = blockReq.BlockH
				tr.stats.RenderTime = time.Since(startTime)

				blockReq.DoneChan <- blockReq.BlockH
			case <-tr.closeChan:
				// Ack close
				tr.closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Render block.
func (tr *Tracer) renderBlock(blockReq *tracer.BlockRequest) error {
	var err error

	if tr.sceneData == nil {
		return ErrNoSceneData
	}
	if !tr.hasUniforms {
		return ErrNoUniforms
	}

	// Zero-height blocks only apply updates.
	tr.stats.RaysTraced = 0
	if blockReq.BlockH == 0 {
		return nil
	}

	// Execute pipeline
	if tr.pipeline.Integrator != nil {
		if _, err = tr.pipeline.Integrator(tr, blockReq); err != nil {
			return err
		}
	}
	for _, stage := range tr.pipeline.PostProcess {
		if _, err = stage(tr, blockReq); err != nil {
			return err
		}
	}

	return nil
}
