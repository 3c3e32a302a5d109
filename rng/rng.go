// Package rng provides the deterministic random sources for the move engine:
// a stateless 32-bit integer hash used inside the kernels and a host-side
// seed stream that expands one master seed into per-substep seeds.
package rng

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Wang32 is the canonical 32-bit Wang integer hash. Direction draws depend on
// it being bit-identical across implementations, so the constants must not
// change.
func Wang32(key uint32) uint32 {
	key = (key ^ 61) ^ (key >> 16)
	key *= 9
	key ^= key >> 4
	key *= 0x27d4eb2d
	key ^= key >> 15
	return key
}

// DirectionDraw returns the move direction id in [0,6) for sorted monomer
// index m under substep seed sigma.
func DirectionDraw(m, sigma uint32) uint32 {
	return Wang32(Wang32(m)^sigma) % 6
}

// SeedStream deterministically expands a 64-bit master seed into a sequence
// of 32-bit seeds. Each substep of a run consumes a fixed number of draws, so
// two runs with the same master seed see the same seed at every substep.
//
// The stream is blake2b in counter mode: block i is BLAKE2b-256(seed || i),
// consumed four bytes at a time.
type SeedStream struct {
	seed    uint64
	counter uint64
	block   [32]byte
	used    int
}

// NewSeedStream creates a stream positioned at the first draw.
func NewSeedStream(masterSeed uint64) *SeedStream {
	s := &SeedStream{seed: masterSeed}
	s.used = len(s.block)
	return s
}

// Next returns the next 32-bit seed in the stream.
func (s *SeedStream) Next() uint32 {
	if s.used >= len(s.block) {
		s.refill()
	}
	v := binary.LittleEndian.Uint32(s.block[s.used:])
	s.used += 4
	return v
}

// NextBelow returns a value in [0, n) drawn from the stream. n must be > 0.
// The slight modulo bias is irrelevant for species selection and matches the
// draw used for direction ids.
func (s *SeedStream) NextBelow(n uint32) uint32 {
	return s.Next() % n
}

func (s *SeedStream) refill() {
	var msg [16]byte
	binary.LittleEndian.PutUint64(msg[0:8], s.seed)
	binary.LittleEndian.PutUint64(msg[8:16], s.counter)
	s.block = blake2b.Sum256(msg[:])
	s.counter++
	s.used = 0
}
