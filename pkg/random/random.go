// Package random provides the explicitly seeded random stream threaded
// through every operator that needs randomness. Streams never read
// wall-clock time or global state, so equal seeds give equal sequences.
package random

import (
	"math"

	"github.com/chazu/splinter/pkg/geom"
	"golang.org/x/exp/rand"
)

// Stream is a deterministic pseudo-random sequence.
type Stream struct {
	seed int64
	r    *rand.Rand
}

// New returns a stream seeded with seed.
func New(seed int64) *Stream {
	return &Stream{seed: seed, r: rand.New(rand.NewSource(uint64(seed)))}
}

// Seed returns the seed the stream was created with.
func (s *Stream) Seed() int64 {
	return s.seed
}

// Reset rewinds the stream to its initial state.
func (s *Stream) Reset() {
	s.r = rand.New(rand.NewSource(uint64(s.seed)))
}

// FRand returns a value in [0, 1).
func (s *Stream) FRand() float64 {
	return s.r.Float64()
}

// GetFraction returns a value in [0, 1). One is never returned, so a keep
// probability of 1 never drops anything.
func (s *Stream) GetFraction() float64 {
	return s.r.Float64()
}

// RandHelper returns an integer in [0, n), or 0 when n <= 0.
func (s *Stream) RandHelper(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.Intn(n)
}

// RandRange returns an integer in [lo, hi]. Reversed bounds are swapped.
func (s *Stream) RandRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.RandHelper(hi-lo+1)
}

// FRandRange returns a value in [lo, hi).
func (s *Stream) FRandRange(lo, hi float64) float64 {
	return lo + (hi-lo)*s.r.Float64()
}

// VRand returns a uniformly distributed unit vector.
func (s *Stream) VRand() geom.Vec {
	z := 2*s.r.Float64() - 1
	phi := 2 * math.Pi * s.r.Float64()
	rxy := math.Sqrt(1 - z*z)
	return geom.V(rxy*math.Cos(phi), rxy*math.Sin(phi), z)
}

// PointInBox returns a uniformly distributed point inside b.
func (s *Stream) PointInBox(b geom.Box) geom.Vec {
	ext := b.Size()
	return geom.Add(b.Min, geom.Mul(geom.V(s.FRand(), s.FRand(), s.FRand()), ext))
}

// Read fills p with pseudo-random bytes. It lets a Stream feed readers
// such as uuid.NewRandomFromReader.
func (s *Stream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Shuffle permutes the first n elements using swap.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	s.r.Shuffle(n, swap)
}
