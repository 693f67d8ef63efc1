// serialize.go - durable on-disk form of a built cascade
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
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dchest/siphash"
	"github.com/opencoff/go-mmap"
)

// cascadeMagic and cascadeVersion identify a standalone serialized cascade
// image. A reader that doesn't see this magic refuses the
// file outright rather than guessing at a layout. The DB wrapper embeds a
// cascade's raw body (see marshalBody/unmarshalBody below) inside its own
// framing instead, since it already carries an end-to-end file checksum and
// doesn't need a second one nested inside it.
var cascadeMagic = [4]byte{'C', 'P', 'H', 'F'}

const cascadeVersion = 1

// siphash key for the trailing integrity checksum; fixed (not per-file
// random like the DB wrapper's record checksums) since a cascade image has
// no adversarial-tampering threat model beyond plain bit-rot/truncation.
var serializeChecksumKey = [16]byte{
	0x63, 0x61, 0x73, 0x63, 0x61, 0x64, 0x65, 0x70,
	0x68, 0x66, 0x2d, 0x63, 0x6b, 0x73, 0x75, 0x6d,
}

// Save writes a durable standalone image of the cascade: the CPHF header,
// the raw level+final-map body, and a trailing siphash-2-4 checksum over
// everything written before it.
func (c *Cascade[K]) Save(w io.Writer) (int, error) {
	if !c.built {
		return 0, ErrFrozen
	}

	h := siphash.New(serializeChecksumKey[:])
	tw := io.MultiWriter(w, h)
	ew := newErrWriter(tw)

	var hdr [8]byte
	copy(hdr[0:4], cascadeMagic[:])
	hdr[4] = cascadeVersion
	n, _ := ew.Write(hdr[:])

	m, _ := c.marshalBody(ew)
	n += m

	if err := ew.Error(); err != nil {
		return n, err
	}

	var sum [8]byte
	binary.LittleEndian.PutUint64(sum[:], h.Sum64())
	m2, err := w.Write(sum[:])
	return n + m2, err
}

// marshalBody writes gamma, the level count, the running rank offset, N,
// every level's size/words/rank samples in full, and the final map - the
// complete field layout, nothing reconstructed or omitted. It carries no
// magic or checksum of its own; callers that need integrity framing add it
// around this, per Save and cascadeMPH.
func (c *Cascade[K]) marshalBody(w io.Writer) (int, error) {
	ew := newErrWriter(w)

	var hdr [20]byte
	binary.LittleEndian.PutUint64(hdr[0:8], math.Float64bits(c.gamma))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(c.levels)+1))
	binary.LittleEndian.PutUint64(hdr[12:20], c.lastBitsetRank)
	n, _ := ew.Write(hdr[:])

	var nelem [8]byte
	binary.LittleEndian.PutUint64(nelem[:], uint64(c.n))
	m, _ := ew.Write(nelem[:])
	n += m

	for _, lvl := range c.levels {
		var lh [16]byte
		binary.LittleEndian.PutUint64(lh[0:8], lvl.Size())
		binary.LittleEndian.PutUint64(lh[8:16], lvl.Words())
		m, _ := ew.Write(lh[:])
		n += m

		m, _ = ew.Write(u64sToByteSlice(lvl.v))
		n += m

		var rh [8]byte
		binary.LittleEndian.PutUint64(rh[:], uint64(len(lvl.ranks)))
		m, _ = ew.Write(rh[:])
		n += m

		m, _ = ew.Write(u64sToByteSlice(lvl.ranks))
		n += m
	}

	var fh [8]byte
	binary.LittleEndian.PutUint64(fh[:], uint64(len(c.final)))
	m, _ = ew.Write(fh[:])
	n += m

	for k, v := range c.final {
		var rec [24]byte
		binary.LittleEndian.PutUint64(rec[0:8], k.h0)
		binary.LittleEndian.PutUint64(rec[8:16], k.h1)
		binary.LittleEndian.PutUint64(rec[16:24], v)
		m, _ = ew.Write(rec[:])
		n += m
	}

	return n, ew.Error()
}

// Load reconstructs a cascade previously written by Save, re-hashing
// nothing - the bit-array words, rank tables, and final map are all read
// back verbatim. hasher must be the same (or an equivalent) Hasher[K] used
// to build the original cascade; Load has no way to verify this beyond the
// structural checksum.
func Load[K any](r io.Reader, hasher Hasher[K]) (*Cascade[K], error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decodeCascade[K](buf, hasher)
}

// LoadMmap memory-maps path read-only and decodes the cascade from the
// mapping with the same checks as Load. The level words, rank tables and
// final map are copied out of the mapping into ordinary Go memory, so the
// returned cascade does not alias the mapped pages. The mapping itself is
// not unmapped; no Close/unmap is exposed here.
func LoadMmap[K any](path string, hasher Hasher[K]) (*Cascade[K], error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	fi, err := fd.Stat()
	if err != nil {
		return nil, err
	}

	mm := mmap.New(fd)
	mapping, err := mm.Map(fi.Size(), 0, mmap.PROT_READ, mmap.F_READAHEAD)
	if err != nil {
		return nil, fmt.Errorf("cascadephf: mmap %s: %w", path, err)
	}

	return decodeCascade[K](mapping.Bytes(), hasher)
}

func decodeCascade[K any](buf []byte, hasher Hasher[K]) (*Cascade[K], error) {
	if len(buf) < 8+8 {
		return nil, ErrTooSmall
	}

	body, trailer := buf[:len(buf)-8], buf[len(buf)-8:]

	h := siphash.New(serializeChecksumKey[:])
	h.Write(body)
	if binary.LittleEndian.Uint64(trailer) != h.Sum64() {
		return nil, ErrCorrupt
	}

	hdr := body[:8]
	if hdr[0] != cascadeMagic[0] || hdr[1] != cascadeMagic[1] || hdr[2] != cascadeMagic[2] || hdr[3] != cascadeMagic[3] {
		return nil, ErrCorrupt
	}
	if hdr[4] != cascadeVersion {
		return nil, fmt.Errorf("cascadephf: unsupported image version %d: %w", hdr[4], ErrCorrupt)
	}

	c := &Cascade[K]{hasher: hasher}
	if _, err := c.unmarshalBody(body[8:]); err != nil {
		return nil, err
	}
	return c, nil
}

// unmarshalBody is the inverse of marshalBody. Every rank table is read back
// verbatim rather than rebuilt, so it marks the cascade built without
// calling finishRanks - the last_bitset_rank field carries the running
// offset finishRanks would otherwise have recomputed.
func (c *Cascade[K]) unmarshalBody(buf []byte) ([]byte, error) {
	if len(buf) < 28 {
		return nil, ErrCorrupt
	}
	c.gamma = math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8]))
	nbLevelsRead := int(binary.LittleEndian.Uint32(buf[8:12]))
	c.lastBitsetRank = binary.LittleEndian.Uint64(buf[12:20])
	c.n = int(binary.LittleEndian.Uint64(buf[20:28]))
	buf = buf[28:]

	nlevels := nbLevelsRead - 1
	if nlevels < 0 {
		return nil, ErrCorrupt
	}

	c.levels = make([]*bitVector, nlevels)
	c.domains = make([]uint64, nlevels)

	for i := 0; i < nlevels; i++ {
		if len(buf) < 16 {
			return nil, ErrCorrupt
		}
		size := binary.LittleEndian.Uint64(buf[0:8])
		words := int(binary.LittleEndian.Uint64(buf[8:16]))
		buf = buf[16:]

		sz := words * 8
		if len(buf) < sz {
			return nil, ErrCorrupt
		}
		lvl := &bitVector{v: bsToUint64Slice(buf[:sz])}
		c.domains[i] = size
		buf = buf[sz:]

		if len(buf) < 8 {
			return nil, ErrCorrupt
		}
		nranks := int(binary.LittleEndian.Uint64(buf[0:8]))
		buf = buf[8:]

		rsz := nranks * 8
		if len(buf) < rsz {
			return nil, ErrCorrupt
		}
		lvl.ranks = bsToUint64Slice(buf[:rsz])
		buf = buf[rsz:]

		c.levels[i] = lvl
	}

	if len(buf) < 8 {
		return nil, ErrCorrupt
	}
	nfinal := int(binary.LittleEndian.Uint64(buf[0:8]))
	buf = buf[8:]

	c.final = make(map[hashPair]uint64, nfinal)
	for i := 0; i < nfinal; i++ {
		if len(buf) < 24 {
			return nil, ErrCorrupt
		}
		k := hashPair{
			h0: binary.LittleEndian.Uint64(buf[0:8]),
			h1: binary.LittleEndian.Uint64(buf[8:16]),
		}
		c.final[k] = binary.LittleEndian.Uint64(buf[16:24])
		buf = buf[24:]
	}

	c.built = true
	return buf, nil
}
