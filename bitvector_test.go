// bitvector_test.go -- test suite for bitvector
//
// (c) Sudhi Herle 2018
//
// License GPLv2
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cascadephf

import (
	"math/rand"
	"runtime"
	"sync"
	"testing"
)

func TestBV(t *testing.T) {
	assert := newAsserter(t)

	bv := newBitVector(100)
	assert(bv.Size() == 128, "size mismatch; exp 128, saw %d", bv.Size())

	var i uint64
	for i = 0; i < bv.Size(); i++ {
		if 1 == (i & 1) {
			bv.TestAndSet(i)
		}
	}

	for i = 0; i < bv.Size(); i++ {
		if 1 == (i & 1) {
			assert(bv.Get(i), "%d not set", i)
		} else {
			assert(!bv.Get(i), "%d is set", i)
		}
	}
}

func TestBVTestAndSet(t *testing.T) {
	assert := newAsserter(t)

	bv := newBitVector(128)
	assert(!bv.TestAndSet(5), "first TestAndSet should report unset")
	assert(bv.TestAndSet(5), "second TestAndSet should report already-set")
	assert(bv.Get(5), "bit 5 should be set")
}

func TestBVClearCollisions(t *testing.T) {
	assert := newAsserter(t)

	bv := newBitVector(128)
	cc := newBitVector(128)

	bv.TestAndSet(3)
	bv.TestAndSet(9)
	cc.TestAndSet(9)

	bv.ClearCollisions(cc)
	assert(bv.Get(3), "bit 3 should remain set")
	assert(!bv.Get(9), "bit 9 (a collision) should have been cleared")
	assert(!cc.Get(9), "collision vector should be reset after use")
}

func TestBVRank(t *testing.T) {
	assert := newAsserter(t)

	bv := newBitVector(2000)
	var want uint64
	for i := uint64(0); i < bv.Size(); i += 3 {
		bv.TestAndSet(i)
	}
	bv.BuildRanks(0)

	for i := uint64(0); i < bv.Size(); i++ {
		got := bv.Rank(i)
		assert(got == want, "rank(%d): exp %d, saw %d", i, want, got)
		if bv.Get(i) {
			want++
		}
	}
}

func TestBVMerge(t *testing.T) {
	assert := newAsserter(t)

	a := newBitVector(128)
	b := newBitVector(128)
	a.TestAndSet(1)
	b.TestAndSet(2)

	a.Merge(b)
	assert(a.Get(1), "bit 1 should stay set after merge")
	assert(a.Get(2), "bit 2 should be set from the merged vector")
}

// Test concurrent bitvector stuff
func TestBVConcurrentRandom(t *testing.T) {
	assert := newAsserter(t)
	ncpu := runtime.NumCPU() * 2

	br := newBitVector(1000)
	bw := newBitVector(1000)
	n := br.Size()

	for i := uint64(0); i < n; i++ {
		if 1 == (i & 1) {
			br.TestAndSet(i)
		}
	}

	verify := make([][]uint64, ncpu)
	var w sync.WaitGroup
	w.Add(ncpu)
	for i := 0; i < ncpu; i++ {
		go func(i int, a, b *bitVector) {
			defer w.Done()

			n := a.Size() * 16
			idx := make([]uint64, 0, n)
			sz := a.Size()

			for j := uint64(0); j < n; j++ {
				r := rand.Uint64() % sz
				if a.Get(r) {
					b.TestAndSet(r)
					idx = append(idx, r)
				}
			}

			verify[i] = idx
		}(i, br, bw)
	}

	w.Wait()

	// Now every entry in verify is set.
	for _, v := range verify {
		for _, k := range v {
			assert(bw.Get(k), "%d is not set", k)
		}
	}
}

func TestBVConcurrent(t *testing.T) {
	assert := newAsserter(t)
	ncpu := runtime.NumCPU() * 1

	br := newBitVector(1000)
	bw := newBitVector(1000)
	n := br.Size()

	for i := uint64(0); i < n; i++ {
		if 1 == (i & 1) {
			br.TestAndSet(i)
		}
	}

	var w sync.WaitGroup
	w.Add(ncpu)
	for i := 0; i < ncpu; i++ {
		go func(i int, a, b *bitVector) {
			defer w.Done()

			n := a.Size()
			for j := uint64(0); j < n; j++ {
				if a.Get(j) {
					b.TestAndSet(j)
				}
			}
		}(i, br, bw)
	}

	w.Wait()

	for i := uint64(0); i < n; i++ {
		if br.Get(i) {
			assert(bw.Get(i), "%d is not set", i)
		}
	}
}
