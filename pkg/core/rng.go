package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Seeds draws n distinct-looking seeds, used to fan out independent runs.
func (r *RNG) Seeds(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = r.r.Int64()
	}
	return out
}

// CellNoise returns a value in [0, 1) that depends only on seed and (x, y).
//
// Kernel invocations run in parallel with no shared state, so per-cell
// randomness comes from hashing coordinates rather than from a stream.
func CellNoise(seed int64, x, y int) float32 {
	h := uint32(seed) ^ uint32(seed>>32)
	h ^= uint32(x)*0x27d4eb2d + 0x9e3779b9
	h = pcgHash(h)
	h ^= uint32(y)*0x165667b1 + 0x85ebca6b
	h = pcgHash(h)
	return float32(h>>8) / float32(1<<24)
}

func pcgHash(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}
