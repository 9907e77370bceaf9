package integrator

import "github.com/achilleasa/prism/types"

// A pseudo-random generator state. Seeds are values: drawing a number
// returns the advanced state instead of mutating shared storage.
type Seed uint32

// Derive a seed from two values using 16 rounds of the tiny encryption
// algorithm. Used to decorrelate per-pixel sequences across frames.
func TEA(val0, val1 uint32) Seed {
	var v0, v1, s0 uint32 = val0, val1, 0
	for n := 0; n < 16; n++ {
		s0 += 0x9e3779b9
		v0 += ((v1 << 4) + 0xa341316c) ^ (v1 + s0) ^ ((v1 >> 5) + 0xc8013ea4)
		v1 += ((v0 << 4) + 0xad90777d) ^ (v0 + s0) ^ ((v0 >> 5) + 0x7e95761e)
	}
	return Seed(v0)
}

// Draw a float in [0, 1) using a linear congruential step and return it
// together with the advanced seed.
func (s Seed) Next() (float32, Seed) {
	next := uint32(s)*1664525 + 1013904223
	return float32(next&0x00FFFFFF) / float32(0x01000000), Seed(next)
}

// The state threaded through a trace call and its recursive children.
type RayPayload struct {
	// The resolved color written by the hit or miss stage.
	Color types.Vec3

	// Recursion depth; incremented by the stage spawning a secondary ray.
	Depth uint32

	// Random state for stochastic sampling.
	Seed Seed

	// Shadow rays start out occluded; the shadow miss stage clears the flag.
	Occluded bool
}
