// hashpair.go - hash-pair generation for the cascade MPHF
//
// Implements the two-word hash stepping scheme used by BBHash-style
// cascaded minimal perfect hash functions: https://arxiv.org/abs/1702.03154
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cascadephf

import (
	"github.com/opencoff/go-fasthash"
	"github.com/zeebo/xxh3"
)

// hashPair is the 128-bit hash of a key, represented as two 64-bit halves.
// It also serves as the key type for the final map F (component D/E), relying
// on the Go runtime's built-in hashing of the two-word struct.
type hashPair struct {
	h0, h1 uint64
}

// Hasher is the external hash-functor contract: it must be
// deterministic, safe for concurrent use, and must not mutate key.
type Hasher[K any] interface {
	HashPair(key K) (h0, h1 uint64)
}

// levelHash returns the hash word to use at cascade level i, given the
// key's base hash pair. i=0 uses h0, i=1 uses h1, and i>=2 steps an
// xorshift128* generator seeded by (h0,h1) forward i-1 times.
func levelHash(h0, h1 uint64, i int) uint64 {
	switch i {
	case 0:
		return h0
	case 1:
		return h1
	}

	s0, s1 := h0, h1
	var h uint64
	for n := 1; n < i; n++ {
		h, s0, s1 = xorshift128star(s0, s1)
	}
	return h
}

// xorshift128star advances the (s0,s1) state by one step and returns the
// word produced by that step along with the new state. This is the
// standard xorshift128* stepping function, used here purely as a fast,
// deterministic way to decorrelate successive per-level hash words from a
// single 128-bit seed - it is not used for its statistical/cryptographic
// randomness properties.
func xorshift128star(s0, s1 uint64) (out, newS0, newS1 uint64) {
	x1 := s1
	x0 := s0
	x1 ^= x1 << 23
	newS0 = x1 ^ x0 ^ (x1 >> 17) ^ (x0 >> 26)
	newS1 = x0
	out = newS0 + x0
	return out, newS0, newS1
}

// fastrange maps a 64-bit hash uniformly into [0, d) without division, per
// Lemire's "fast range" trick: (h * d) >> 64.
func fastrange(h, d uint64) uint64 {
	hi, _ := mul128(h, d)
	return hi
}

// mul128 returns the high and low 64 bits of the full 128-bit product a*b.
func mul128(a, b uint64) (hi, lo uint64) {
	const mask32 = 0xffffffff

	aLo, aHi := a&mask32, a>>32
	bLo, bHi := b&mask32, b>>32

	t := aLo * bLo
	w0 := t & mask32
	k := t >> 32

	t = aHi*bLo + k
	w1 := t & mask32
	w2 := t >> 32

	t = aLo*bHi + w1
	k = t >> 32

	hi = aHi*bHi + w2 + k
	lo = (t << 32) | w0
	return hi, lo
}

// Uint64Hasher implements Hasher[uint64] for plain 64-bit integer keys by
// mixing the key under two independently-salted rounds of Zi Long Tan's
// fast mixing function. Safe for concurrent use; holds no mutable state.
type Uint64Hasher struct {
	salt0, salt1 uint64
}

// NewUint64Hasher builds a Hasher[uint64] seeded with two random salts, so
// that repeated processes do not collide on the same hash sequence.
func NewUint64Hasher() *Uint64Hasher {
	return &Uint64Hasher{salt0: rand64(), salt1: rand64()}
}

// HashPair implements Hasher[uint64].
func (u *Uint64Hasher) HashPair(key uint64) (uint64, uint64) {
	h0 := mix(key ^ u.salt0)
	h1 := mix(fasthash.Hash64(u.salt1, uint64ToBytes(key)))
	return h0, h1
}

func uint64ToBytes(v uint64) []byte {
	var b [8]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
	return b[:]
}

// BytesHasher implements Hasher[[]byte] directly from a 128-bit hash of the
// key, needing no extra mixing step since xxh3 already produces two
// well-distributed 64-bit halves.
type BytesHasher struct{}

// HashPair implements Hasher[[]byte].
func (BytesHasher) HashPair(key []byte) (uint64, uint64) {
	u := xxh3.Hash128(key)
	return u.Lo, u.Hi
}

// StringHasher implements Hasher[string], the string analogue of BytesHasher.
type StringHasher struct{}

// HashPair implements Hasher[string].
func (StringHasher) HashPair(key string) (uint64, uint64) {
	u := xxh3.HashString128(key)
	return u.Lo, u.Hi
}
