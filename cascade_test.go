// cascade_test.go - property and unit tests for the cascaded MPHF
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
	"math/rand"
	"runtime"
	"sort"
	"testing"
	"testing/quick"
)

func genUniqueUint64s(n int) []uint64 {
	m := make(map[uint64]struct{}, n)
	out := make([]uint64, 0, n)

	for len(out) < n {
		v := rand.Uint64()
		if _, ok := m[v]; ok {
			continue
		}
		m[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func buildCascade(t *testing.T, keys []uint64) (*Cascade[uint64], *Uint64Hasher) {
	t.Helper()
	hasher := NewUint64Hasher()
	c := New[uint64](len(keys), hasher)
	it := NewSliceIterator(keys)
	if err := c.Build(context.Background(), it, runtime.NumCPU()); err != nil {
		t.Fatalf("Build: %s", err)
	}
	return c, hasher
}

func TestCascadeRangeAndBijection(t *testing.T) {
	f := func(n uint8) bool {
		size := int(n)%200 + 1
		keys := genUniqueUint64s(size)

		c, _ := buildCascade(t, keys)

		seen := make(map[uint64]struct{}, size)
		for _, k := range keys {
			v := c.Lookup(k)
			if v >= uint64(size) {
				t.Errorf("Lookup(%d) out of range: got %d, want [0,%d)", k, v, size)
				return false
			}
			if _, dup := seen[v]; dup {
				t.Errorf("duplicate index %d for key %d", v, k)
				return false
			}
			seen[v] = struct{}{}
		}
		return len(seen) == size
	}

	cfg := &quick.Config{MaxCount: 20}
	if err := quick.Check(f, cfg); err != nil {
		t.Fatalf("range/bijection property failed: %v", err)
	}
}

func TestCascadeReproducible(t *testing.T) {
	keys := genUniqueUint64s(500)
	hasher := NewUint64Hasher()

	build := func() *Cascade[uint64] {
		c := New[uint64](len(keys), hasher)
		it := NewSliceIterator(keys)
		if err := c.Build(context.Background(), it, 4); err != nil {
			t.Fatalf("Build: %s", err)
		}
		return c
	}

	c1 := build()
	c2 := build()

	for _, k := range keys {
		v1, v2 := c1.Lookup(k), c2.Lookup(k)
		if v1 != v2 {
			t.Fatalf("non-reproducible Lookup(%d): %d != %d", k, v1, v2)
		}
	}
}

func TestCascadeOrderIndependence(t *testing.T) {
	keys := genUniqueUint64s(300)
	hasher := NewUint64Hasher()

	build := func(ks []uint64) *Cascade[uint64] {
		c := New[uint64](len(ks), hasher)
		it := NewSliceIterator(ks)
		if err := c.Build(context.Background(), it, 4); err != nil {
			t.Fatalf("Build: %s", err)
		}
		return c
	}

	c1 := build(append([]uint64{}, keys...))

	shuffled := append([]uint64{}, keys...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	c2 := build(shuffled)

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if v1, v2 := c1.Lookup(k), c2.Lookup(k); v1 != v2 {
			t.Fatalf("order independence broken for key %d: %d != %d", k, v1, v2)
		}
	}
}

func TestCascadeUnknownKeyMisses(t *testing.T) {
	keys := genUniqueUint64s(100)
	c, _ := buildCascade(t, keys)

	known := make(map[uint64]struct{}, len(keys))
	for _, k := range keys {
		known[k] = struct{}{}
	}

	var misses int
	for i := 0; i < 1000; i++ {
		k := rand.Uint64()
		if _, ok := known[k]; ok {
			continue
		}
		if v := c.Lookup(k); v != NotFound {
			misses++
		}
	}

	if misses > 5 {
		t.Fatalf("too many false-positive lookups for unknown keys: %d/1000", misses)
	}
}

func TestCascadeEmpty(t *testing.T) {
	c, _ := buildCascade(t, nil)
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
	if v := c.Lookup(42); v != NotFound {
		t.Fatalf("Lookup on empty cascade = %d, want NotFound", v)
	}
}

func TestCascadeSingleKey(t *testing.T) {
	c, _ := buildCascade(t, []uint64{0xdeadbeef})
	if v := c.Lookup(0xdeadbeef); v != 0 {
		t.Fatalf("Lookup(single key) = %d, want 0", v)
	}
}

func TestCascadeFastModeEngages(t *testing.T) {
	keys := genUniqueUint64s(20000)
	hasher := NewUint64Hasher()
	c := New[uint64](len(keys), hasher, WithFastLoadFraction(0.5))
	it := NewSliceIterator(keys)
	if err := c.Build(context.Background(), it, runtime.NumCPU()); err != nil {
		t.Fatalf("Build: %s", err)
	}

	seen := make(map[uint64]struct{}, len(keys))
	for _, k := range keys {
		v := c.Lookup(k)
		if v >= uint64(len(keys)) {
			t.Fatalf("Lookup(%d) out of range: %d", k, v)
		}
		if _, dup := seen[v]; dup {
			t.Fatalf("duplicate index %d", v)
		}
		seen[v] = struct{}{}
	}
}

func TestCascadeDoubleBuildFails(t *testing.T) {
	keys := genUniqueUint64s(10)
	c, hasher := buildCascade(t, keys)
	_ = hasher

	it := NewSliceIterator(keys)
	if err := c.Build(context.Background(), it, 1); err != ErrFrozen {
		t.Fatalf("second Build() = %v, want ErrFrozen", err)
	}
}

func TestCascadeStringSummary(t *testing.T) {
	c, _ := buildCascade(t, genUniqueUint64s(50))
	s := c.String()
	if len(s) == 0 {
		t.Fatal("String() returned empty summary")
	}
}
