// mph_cascade.go - adapts Cascade[uint64] to the MPHBuilder/MPH interfaces
// used by the DB wrapper (dbwriter.go/dbreader.go).
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
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
)

// cascadeBuilder accumulates uint64 keys the way bbHashBuilder used to, then
// builds a Cascade[uint64] on Freeze.
type cascadeBuilder struct {
	keys  []uint64
	gamma float64
}

// NewCascadeBuilder is the uint64-key MPHBuilder backed by the cascade
// algorithm; it replaces the DB wrapper's old bbHash-backed builder. g is
// the gamma (space/build-time tradeoff) passed through to New.
func NewCascadeBuilder(g float64) (MPHBuilder, error) {
	return &cascadeBuilder{keys: make([]uint64, 0, 1024), gamma: g}, nil
}

// Add implements MPHBuilder.
func (b *cascadeBuilder) Add(key uint64) error {
	b.keys = append(b.keys, key)
	return nil
}

// Freeze implements MPHBuilder.
func (b *cascadeBuilder) Freeze() (MPH, error) {
	hasher := NewUint64Hasher()
	c := New[uint64](len(b.keys), hasher, WithGamma(b.gamma))

	it := NewSliceIterator(b.keys)
	if err := c.Build(context.Background(), it, runtime.NumCPU()); err != nil {
		return nil, err
	}

	return &cascadeMPH{c: c, hasher: hasher}, nil
}

// cascadeMPH adapts *Cascade[uint64] to the MPH interface. It keeps its own
// handle on the Uint64Hasher it was built with so MarshalBinary can persist
// the hasher's random salts alongside the cascade body - without them, a
// reloaded cascade would hash keys differently than at build time and every
// Find would miss.
type cascadeMPH struct {
	c      *Cascade[uint64]
	hasher *Uint64Hasher
}

// Find implements MPH.
func (m *cascadeMPH) Find(key uint64) (uint64, bool) {
	v := m.c.Lookup(key)
	if v == NotFound {
		return 0, false
	}
	return v, true
}

// Len implements MPH.
func (m *cascadeMPH) Len() int {
	return m.c.Len()
}

// MarshalBinary implements MPH. It writes the hasher's salts followed by
// the cascade's raw body (no magic, no trailing checksum - the DB wrapper
// already frames and checksums the whole file; see Save for the
// standalone, self-framed equivalent).
func (m *cascadeMPH) MarshalBinary(w io.Writer) (int, error) {
	ew := newErrWriter(w)

	var salts [16]byte
	binary.LittleEndian.PutUint64(salts[0:8], m.hasher.salt0)
	binary.LittleEndian.PutUint64(salts[8:16], m.hasher.salt1)
	n, _ := ew.Write(salts[:])

	mm, _ := m.c.marshalBody(ew)
	n += mm

	return n, ew.Error()
}

// DumpMeta implements MPH.
func (m *cascadeMPH) DumpMeta(w io.Writer) {
	fmt.Fprintln(w, m.c.String())
}

// newCascadeMPH reconstructs a cascadeMPH from a previously marshalled
// image (salts + raw body), for the DB reader's un-marshal path.
func newCascadeMPH(buf []byte) (MPH, error) {
	if len(buf) < 16 {
		return nil, ErrTooSmall
	}

	hasher := &Uint64Hasher{
		salt0: binary.LittleEndian.Uint64(buf[0:8]),
		salt1: binary.LittleEndian.Uint64(buf[8:16]),
	}

	c := &Cascade[uint64]{hasher: hasher}
	if _, err := c.unmarshalBody(buf[16:]); err != nil {
		return nil, err
	}
	return &cascadeMPH{c: c, hasher: hasher}, nil
}
