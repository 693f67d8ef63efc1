// cascade.go - cascade minimal perfect hash: configuration, construction, introspection
//
// Implements the BBHash algorithm in: https://arxiv.org/abs/1702.03154
//
// Inspired by D Gryski's implementation of BBHash (https://github.com/dgryski/go-boomphf)
// and Sudhi Herle's bbHash/CHD implementations this package began life as.
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
	"bytes"
	"fmt"
	"math"
)

// Gamma is the default expansion factor for the base level's hash domain.
// Empirically, 2.0 is found to be a good balance between speed and space
// usage. See the BBHash paper for more details.
const Gamma float64 = 2.0

// DefaultFastLoadFraction is the default survivor-population threshold
// (relative to N) below which the builder switches to fast mode.
const DefaultFastLoadFraction float64 = 0.03

// nbLevels is fixed, not user-tunable: 24 cascaded bit-array levels
// (indices 0..23) plus one final level (index 24) that falls through to
// the exact final map F.
const nbLevels = 25

// finalMapEntryOverhead is a rough accounting constant used only by
// MemSize() to estimate the resident cost of a Go map[hashPair]uint64
// entry (bucket + key + value + overhead).
const finalMapEntryOverhead = 42

// Cascade is a minimal perfect hash function over keys of type K, built
// from a cascade of bit arrays sized by geometric decay. Once Build
// completes, Lookup is safe for concurrent use and allocation-free.
type Cascade[K any] struct {
	hasher Hasher[K]

	gamma            float64
	fastLoadFraction float64
	n                int

	domains []uint64
	levels  []*bitVector

	fastModeLevel  int
	lastBitsetRank uint64
	final          map[hashPair]uint64

	built bool
}

// Option configures a Cascade at construction time.
type Option func(*cascadeConfig)

type cascadeConfig struct {
	gamma            float64
	fastLoadFraction float64
}

// WithGamma overrides the default space/build-time tradeoff factor.
func WithGamma(g float64) Option {
	return func(c *cascadeConfig) { c.gamma = g }
}

// WithFastLoadFraction overrides the default fast-mode engagement threshold.
// A value of 0 disables fast mode entirely.
func WithFastLoadFraction(f float64) Option {
	return func(c *cascadeConfig) { c.fastLoadFraction = f }
}

// New creates an unbuilt cascade MPHF sized for n keys. Callers must call
// Build before Lookup returns meaningful answers.
func New[K any](n int, hasher Hasher[K], opts ...Option) *Cascade[K] {
	cfg := cascadeConfig{gamma: Gamma, fastLoadFraction: DefaultFastLoadFraction}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.gamma < 1.0 {
		cfg.gamma = Gamma
	}

	c := &Cascade[K]{
		hasher:           hasher,
		gamma:            cfg.gamma,
		fastLoadFraction: cfg.fastLoadFraction,
		n:                n,
	}
	c.computeLevels()
	return c
}

// Len returns N, the number of keys this cascade was built for.
func (c *Cascade[K]) Len() int {
	return c.n
}

// MemSize returns an estimate, in bytes, of the cascade's resident memory:
// the sum of every level's bit-array words plus its rank samples, plus a
// hard-coded per-entry overhead for the final map.
func (c *Cascade[K]) MemSize() uint64 {
	var sz uint64
	for _, lvl := range c.levels {
		sz += lvl.Words() * 8
		sz += uint64(len(lvl.ranks)) * 8
	}
	sz += uint64(len(c.final)) * finalMapEntryOverhead
	return sz
}

// String renders a human-readable summary of the cascade's level layout.
func (c *Cascade[K]) String() string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "cascade: %d keys, gamma %4.2f, %d levels, final-map %d entries\n",
		c.n, c.gamma, len(c.levels), len(c.final))

	for i, lvl := range c.levels {
		fmt.Fprintf(&b, "  %2d: %10d bits (%s)\n", i, lvl.Size(), humansize(lvl.Words()*8))
	}
	return b.String()
}

// computeLevels precomputes every level's hash-domain size and the level
// at which fast mode engages. Domains decay geometrically
// with p_collide, the expected fraction of keys that collide at any given
// level; this lets later levels shrink instead of staying at a constant
// size (unlike a flat single-domain retry scheme).
func (c *Cascade[K]) computeLevels() {
	n := float64(c.n)
	nbits := nbLevels - 1 // bit-array levels; the last level is the final map

	c.domains = make([]uint64, nbits)
	c.levels = make([]*bitVector, nbits)
	c.fastModeLevel = nbLevels // disabled unless we find an earlier crossing

	if c.n == 0 {
		for i := range c.domains {
			c.domains[i] = 64
			c.levels[i] = newBitVector(64)
		}
		return
	}

	gn := c.gamma * n
	pCollide := 1.0
	if n > 1 {
		pCollide = 1.0 - math.Pow((gn-1)/gn, n-1)
	} else {
		pCollide = 0.0
	}

	hashDomain := uint64(math.Ceil(gn))

	crossed := false
	for i := 0; i < nbits; i++ {
		p := math.Pow(pCollide, float64(i))

		d := roundUp64(uint64(float64(hashDomain) * p))
		if d < 64 {
			d = 64
		}
		c.domains[i] = d
		c.levels[i] = newBitVector(d)

		if !crossed && c.fastLoadFraction > 0 && p < c.fastLoadFraction {
			c.fastModeLevel = i
			crossed = true
		}
	}
}

func roundUp64(sz uint64) uint64 {
	sz += 63
	sz &= ^(uint64(63))
	if sz == 0 {
		sz = 64
	}
	return sz
}
