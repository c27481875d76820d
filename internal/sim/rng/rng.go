package rng

import (
	"math"
	"math/rand/v2"
)

// Stream ids used to derive independent generators from one master seed.
const (
	StreamMaze uint64 = 0
	// Robot i uses StreamRobotBase + i.
	StreamRobotBase uint64 = 1
)

// Source is a deterministic PCG generator. It is not safe for concurrent use;
// give each goroutine (or each robot) its own Source.
type Source struct {
	pcg *rand.PCG
	r   *rand.Rand
}

func New(seed int64, stream uint64) *Source {
	pcg := rand.NewPCG(uint64(seed), stream)
	return &Source{pcg: pcg, r: rand.New(pcg)}
}

// ForRobot derives the generator owned by robot index i.
func ForRobot(seed int64, i int) *Source {
	return New(seed, StreamRobotBase+uint64(i))
}

func (s *Source) Float64() float64 { return s.r.Float64() }
func (s *Source) IntN(n int) int   { return s.r.IntN(n) }
func (s *Source) Bool() bool       { return s.r.IntN(2) == 1 }

// Uniform returns a sample in [lo, hi). lo == hi returns lo.
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.r.Float64()
}

// Gaussian returns a zero-mean normal sample with the given variance.
// A sample is always drawn so the stream position does not depend on the variance.
func (s *Source) Gaussian(variance float64) float64 {
	n := s.r.NormFloat64()
	if variance <= 0 {
		return 0
	}
	return n * math.Sqrt(variance)
}

// State returns the serialized generator state.
func (s *Source) State() ([]byte, error) { return s.pcg.MarshalBinary() }

// Restore replaces the generator state with one produced by State.
func (s *Source) Restore(b []byte) error { return s.pcg.UnmarshalBinary(b) }
