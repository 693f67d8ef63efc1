// cascade_build.go - parallel construction of the cascade MPHF
//
// Implements the BBHash algorithm in: https://arxiv.org/abs/1702.03154
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
	"context"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// drainBatch is the number of items a worker pulls from the shared source
// under one lock acquisition.
const drainBatch = 10000

// Build consumes keys (walking it once per level until fast mode engages,
// per the Iterator restartability contract) and fills in the cascade. It
// must be called exactly once; a second call returns ErrFrozen.
//
// ctx is checked at the start of every level, and each worker checks it
// again before draining its next batch of keys; the keys of a batch that
// was already drained are processed without interruption. A canceled build
// returns ctx's error instead of always running unattended to completion.
func (c *Cascade[K]) Build(ctx context.Context, keys Iterator[K], numThreads int) error {
	if c.built {
		return ErrFrozen
	}
	if numThreads < 1 {
		numThreads = 1
	}

	c.final = make(map[hashPair]uint64)

	if c.n == 0 {
		c.finishRanks()
		c.built = true
		return nil
	}

	var (
		fastBuf      []hashPair
		fastDisabled atomic.Bool
		fastCount    atomic.Int64
	)

	fastEnabled := c.fastLoadFraction > 0 && c.fastModeLevel < nbLevels
	if fastEnabled {
		sz := int(math.Ceil(c.fastLoadFraction * float64(c.n)))
		if sz < 1 {
			sz = 1
		}
		fastBuf = make([]hashPair, sz)
	}

	var src keySource
	checkFrom := 0

	var finalCounter uint64
	var finalMu sync.Mutex
	var srcMu sync.Mutex

	for i := 0; i < nbLevels; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		isBitLevel := i < nbLevels-1

		var collision *bitVector
		if isBitLevel {
			collision = newBitVector(c.domains[i])
		}

		// Switch to the fast-mode buffer the level after it was filled, as
		// long as it filled cleanly (no overflow disabled it), and walk the
		// buffer again from the top at every later level.
		switch {
		case fastEnabled && i > c.fastModeLevel:
			if fastDisabled.Load() {
				defaultLogger.Warnf("fast-mode buffer overflowed at level %d; fast mode disabled", c.fastModeLevel)
				fastEnabled = false
				src = newBasicSource(keys, c.hasher)
				checkFrom = 0
			} else {
				src = newBufferSource(fastBuf[:fastCount.Load()])
				checkFrom = c.fastModeLevel
			}

		case !fastEnabled || i <= c.fastModeLevel:
			// Still walking the original key range: every basic-mode level
			// re-iterates from the top, per Iterator's restartability
			// contract - a level-0 collision survivor must be seen again at
			// level 1, 2, ... up to fastModeLevel, not just once.
			src = newBasicSource(keys, c.hasher)
		}

		level := i
		source := src
		from := checkFrom
		thisCollision := collision

		g, gctx := errgroup.WithContext(ctx)
		for t := 0; t < numThreads; t++ {
			g.Go(func() error {
				buf := make([]hashPair, 0, drainBatch)
				for {
					if err := gctx.Err(); err != nil {
						return err
					}

					srcMu.Lock()
					var done bool
					buf, done = source.drain(buf[:0], drainBatch)
					srcMu.Unlock()

					for _, v := range buf {
						if c.resolvedBefore(v, level, from) {
							continue
						}

						if fastEnabled && level == c.fastModeLevel {
							idx := fastCount.Add(1) - 1
							if idx >= int64(len(fastBuf)) {
								fastDisabled.Store(true)
							} else {
								fastBuf[idx] = v
							}
						}

						if isBitLevel {
							h := levelHash(v.h0, v.h1, level)
							slot := fastrange(h, c.domains[level])
							if c.levels[level].TestAndSet(slot) {
								thisCollision.TestAndSet(slot)
							}
						} else {
							finalMu.Lock()
							if _, dup := c.final[v]; dup {
								defaultLogger.Warnf("duplicate key (or 128-bit hash collision) at final level")
							}
							c.final[v] = finalCounter
							finalCounter++
							finalMu.Unlock()
						}
					}

					if done {
						return nil
					}
				}
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		if isBitLevel {
			c.levels[level].ClearCollisions(thisCollision)
		}
	}

	c.finishRanks()
	c.built = true
	return nil
}

// resolvedBefore reports whether v was already claimed by an earlier level
// in [from, upTo).
func (c *Cascade[K]) resolvedBefore(v hashPair, upTo, from int) bool {
	for j := from; j < upTo; j++ {
		h := levelHash(v.h0, v.h1, j)
		if c.levels[j].Get(fastrange(h, c.domains[j])) {
			return true
		}
	}
	return false
}

// finishRanks builds the offset-chained rank tables across every level,
// carrying the running popcount offset from one level into the next.
func (c *Cascade[K]) finishRanks() {
	var offset uint64
	for _, lvl := range c.levels {
		offset = lvl.BuildRanks(offset)
	}
	c.lastBitsetRank = offset
}
