package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of variable height and assign to the pool
	// of tracers using feedback collected from previous frames.
	//
	// This function returns the block height assignment for each tracer
	// in the input list.
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The naive scheduler splits the frame proportionally to each tracer's
// speed estimate.
type naiveScheduler struct {
	blockAssignment []uint32
}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return &naiveScheduler{}
}

func (sch *naiveScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
	}

	rates := make([]float64, len(tracers))
	for idx, tr := range tracers {
		rates[idx] = float64(tr.Speed())
	}
	return distributeRows(sch.blockAssignment, rates, frameH)
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent frames is approximately the same.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split frame into blocks of variable height and assign to the pool
// of tracers using feedback collected from previous frames.
//
// When previous frame information is available the scheduler uses the
// following formula for estimating the workload for tracer w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i-1 / time,i-1)
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	rates := make([]float64, len(tracers))

	// If this is the first time we try to schedule or the number of tracers
	// has changed we need to fall back to the speed estimates.
	useSpeed := len(sch.blockAssignment) != len(tracers)
	if !useSpeed {
		for idx, tr := range tracers {
			stats := tr.Stats()
			if stats.BlockH == 0 || stats.RenderTime <= 0 {
				useSpeed = true
				break
			}
			rates[idx] = float64(stats.BlockH) / float64(stats.RenderTime)
		}
	}

	if useSpeed {
		sch.blockAssignment = make([]uint32, len(tracers))
		for idx, tr := range tracers {
			rates[idx] = float64(tr.Speed())
		}
	}

	return distributeRows(sch.blockAssignment, rates, frameH)
}

// Assign at least one row to each tracer proportionally to its rate. Any rows
// left over due to rounding are appended to the first tracer.
func distributeRows(blockAssignment []uint32, rates []float64, frameH uint32) []uint32 {
	if len(blockAssignment) == 0 {
		return blockAssignment
	}

	var total float64
	for _, rate := range rates {
		total += rate
	}

	// Without usable rates split rows evenly.
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		for idx := range rates {
			rates[idx] = 1
		}
		total = float64(len(rates))
	}

	scaler := float64(frameH) / total
	var scheduledRows uint32 = 0
	for idx, rate := range rates {
		blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(rate*scaler)))
		scheduledRows += blockAssignment[idx]
	}

	// In case rows don't add up to the frame height append the missing ones
	// to the first tracer or trim the surplus from the largest blocks.
	for scheduledRows < frameH {
		blockAssignment[0]++
		scheduledRows++
	}
	for scheduledRows > frameH {
		victim := 0
		for idx, rows := range blockAssignment {
			if rows > blockAssignment[victim] {
				victim = idx
			}
		}
		if blockAssignment[victim] == 1 {
			// More tracers than rows; trailing tracers get empty blocks.
			for idx := len(blockAssignment) - 1; idx >= 0; idx-- {
				if blockAssignment[idx] == 1 {
					victim = idx
					break
				}
			}
		}
		blockAssignment[victim]--
		scheduledRows--
	}

	return blockAssignment
}
