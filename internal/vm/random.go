package vm

import "math/rand/v2"

// RandomSource supplies bytes for the rand instruction.
type RandomSource interface {
	NextByte() uint8
}

// RandSource draws bytes from math/rand/v2.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource returns a source backed by the global generator.
func NewRandSource() *RandSource {
	return &RandSource{}
}

// NewSeededSource returns a reproducible source.
func NewSeededSource(seed uint64) *RandSource {
	return &RandSource{rng: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

func (s *RandSource) NextByte() uint8 {
	if s.rng == nil {
		return uint8(rand.IntN(256))
	}
	return uint8(s.rng.IntN(256))
}

// FixedSource replays a fixed byte sequence, wrapping around at the end.
type FixedSource struct {
	bytes []uint8
	pos   int
}

func NewFixedSource(bytes ...uint8) *FixedSource {
	return &FixedSource{bytes: bytes}
}

func (s *FixedSource) NextByte() uint8 {
	if len(s.bytes) == 0 {
		return 0
	}
	b := s.bytes[s.pos%len(s.bytes)]
	s.pos++
	return b
}
