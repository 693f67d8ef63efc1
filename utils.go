// utils.go -- utility functions
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
	"crypto/rand"
	"encoding/binary"
	"io"
)

// compression function for fasthash
func mix(h uint64) uint64 {
	h ^= h >> 23
	h *= 0x2127599bf4325c37
	h ^= h >> 47
	return h
}

func randbytes(n int) []byte {
	b := make([]byte, n)

	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		panic("can't read crypto/rand")
	}
	return b
}

func rand32() uint32 {
	var b [4]byte

	_, err := io.ReadFull(rand.Reader, b[:])
	if err != nil {
		panic("can't read crypto/rand")
	}

	return binary.BigEndian.Uint32(b[:])
}

func rand64() uint64 {
	var b [8]byte

	_, err := io.ReadFull(rand.Reader, b[:])
	if err != nil {
		panic("can't read crypto/rand")
	}

	return binary.BigEndian.Uint64(b[:])
}

// u64sToByteSlice renders a []uint64 as its little-endian byte image, for
// writing bit-vector words and rank samples to a serialized cascade.
func u64sToByteSlice(v []uint64) []byte {
	b := make([]byte, len(v)*8)
	for i, w := range v {
		binary.LittleEndian.PutUint64(b[i*8:], w)
	}
	return b
}

// bsToUint64Slice is the inverse of u64sToByteSlice. b's length must be a
// multiple of 8.
func bsToUint64Slice(b []byte) []uint64 {
	v := make([]uint64, len(b)/8)
	for i := range v {
		v[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return v
}

// u16sToByteSlice is the 16-bit analogue of u64sToByteSlice, used by the
// CHD backend's compressed seed table.
func u16sToByteSlice(v []uint16) []byte {
	b := make([]byte, len(v)*2)
	for i, w := range v {
		binary.LittleEndian.PutUint16(b[i*2:], w)
	}
	return b
}

// bsToUint16Slice is the inverse of u16sToByteSlice. b's length must be a
// multiple of 2.
func bsToUint16Slice(b []byte) []uint16 {
	v := make([]uint16, len(b)/2)
	for i := range v {
		v[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return v
}

// u32sToByteSlice is the 32-bit analogue of u64sToByteSlice, used for the
// DB wrapper's value-length table.
func u32sToByteSlice(v []uint32) []byte {
	b := make([]byte, len(v)*4)
	for i, w := range v {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

// bsToUint32Slice is the inverse of u32sToByteSlice. b's length must be a
// multiple of 4.
func bsToUint32Slice(b []byte) []uint32 {
	v := make([]uint32, len(b)/4)
	for i := range v {
		v[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return v
}
