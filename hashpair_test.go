// hashpair_test.go - tests for hash-pair generation primitives
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
	"math/rand"
	"testing"
	"testing/quick"
)

func TestLevelHashDeterministic(t *testing.T) {
	f := func(h0, h1 uint64, i uint8) bool {
		level := int(i) % 25
		a := levelHash(h0, h1, level)
		b := levelHash(h0, h1, level)
		return a == b
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Fatalf("levelHash not deterministic: %v", err)
	}
}

func TestLevelHashBaseCases(t *testing.T) {
	h0, h1 := uint64(0x1234), uint64(0x5678)
	if v := levelHash(h0, h1, 0); v != h0 {
		t.Fatalf("levelHash(.., 0) = %#x, want h0 %#x", v, h0)
	}
	if v := levelHash(h0, h1, 1); v != h1 {
		t.Fatalf("levelHash(.., 1) = %#x, want h1 %#x", v, h1)
	}
}

func TestXorshift128StarAdvancesState(t *testing.T) {
	s0, s1 := uint64(1), uint64(2)
	out1, ns0, ns1 := xorshift128star(s0, s1)
	out2, _, _ := xorshift128star(ns0, ns1)
	if out1 == out2 {
		t.Fatal("successive xorshift128star steps produced the same output")
	}
}

func TestFastrangeInRange(t *testing.T) {
	f := func(h uint64, d uint16) bool {
		domain := uint64(d) + 1
		r := fastrange(h, domain)
		return r < domain
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 500}); err != nil {
		t.Fatalf("fastrange escaped [0,d): %v", err)
	}
}

func TestMul128MatchesBigBasic(t *testing.T) {
	hi, lo := mul128(1<<63, 2)
	if hi != 1 || lo != 0 {
		t.Fatalf("mul128(2^63, 2) = (%d, %d), want (1, 0)", hi, lo)
	}

	hi, lo = mul128(0, 12345)
	if hi != 0 || lo != 0 {
		t.Fatalf("mul128(0, x) = (%d, %d), want (0, 0)", hi, lo)
	}
}

func TestUint64HasherDeterministic(t *testing.T) {
	h := NewUint64Hasher()
	a0, a1 := h.HashPair(42)
	b0, b1 := h.HashPair(42)
	if a0 != b0 || a1 != b1 {
		t.Fatal("Uint64Hasher.HashPair not deterministic for the same key")
	}
}

func TestUint64HasherDistinctSalts(t *testing.T) {
	// Two independently-seeded hashers should (overwhelmingly likely) produce
	// different hash pairs for the same key.
	h1 := NewUint64Hasher()
	h2 := NewUint64Hasher()

	var diff int
	for i := uint64(0); i < 20; i++ {
		a0, a1 := h1.HashPair(i)
		b0, b1 := h2.HashPair(i)
		if a0 != b0 || a1 != b1 {
			diff++
		}
	}
	if diff == 0 {
		t.Fatal("two independently-salted hashers produced identical hash pairs for every test key")
	}
}

func TestBytesHasherDeterministic(t *testing.T) {
	var h BytesHasher
	key := []byte("the quick brown fox")
	a0, a1 := h.HashPair(key)
	b0, b1 := h.HashPair(key)
	if a0 != b0 || a1 != b1 {
		t.Fatal("BytesHasher.HashPair not deterministic")
	}
}

func TestStringHasherDeterministic(t *testing.T) {
	var h StringHasher
	a0, a1 := h.HashPair("jumps over the lazy dog")
	b0, b1 := h.HashPair("jumps over the lazy dog")
	if a0 != b0 || a1 != b1 {
		t.Fatal("StringHasher.HashPair not deterministic")
	}
}

func TestUint64ToBytesRoundtrip(t *testing.T) {
	f := func(v uint64) bool {
		b := uint64ToBytes(v)
		back := bsToUint64Slice(b)
		return len(back) == 1 && back[0] == v
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Fatalf("uint64ToBytes roundtrip failed: %v", err)
	}
}

func TestMixAvalanche(t *testing.T) {
	// Flipping a single input bit should change a large fraction of the
	// output bits - a cheap sanity check that mix isn't degenerate.
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		x := r.Uint64()
		bit := uint(r.Intn(64))
		y := x ^ (uint64(1) << bit)

		hx, hy := mix(x), mix(y)
		diff := hx ^ hy
		n := 0
		for diff != 0 {
			n++
			diff &= diff - 1
		}
		if n < 8 {
			t.Fatalf("mix: flipping bit %d of %#x only changed %d output bits", bit, x, n)
		}
	}
}
