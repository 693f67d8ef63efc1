// serialize_test.go - round-trip and corruption tests for the durable
// cascade image format.
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
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	keys := genUniqueUint64s(1000)
	c, hasher := buildCascade(t, keys)

	var buf bytes.Buffer
	if _, err := c.Save(&buf); err != nil {
		t.Fatalf("Save: %s", err)
	}

	c2, err := Load[uint64](&buf, hasher)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}

	for _, k := range keys {
		if v1, v2 := c.Lookup(k), c2.Lookup(k); v1 != v2 {
			t.Fatalf("Lookup(%d) mismatch after roundtrip: %d != %d", k, v1, v2)
		}
	}
}

func TestSaveLoadMmapRoundtrip(t *testing.T) {
	keys := genUniqueUint64s(2000)
	c, hasher := buildCascade(t, keys)

	dir := t.TempDir()
	fn := filepath.Join(dir, "cascade.img")

	fd, err := createFile(fn)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	if _, err := c.Save(fd); err != nil {
		fd.Close()
		t.Fatalf("Save: %s", err)
	}
	fd.Close()

	c2, err := LoadMmap[uint64](fn, hasher)
	if err != nil {
		t.Fatalf("LoadMmap: %s", err)
	}

	for _, k := range keys {
		if v1, v2 := c.Lookup(k), c2.Lookup(k); v1 != v2 {
			t.Fatalf("Lookup(%d) mismatch after mmap roundtrip: %d != %d", k, v1, v2)
		}
	}
}

func TestLoadRejectsTruncated(t *testing.T) {
	keys := genUniqueUint64s(200)
	c, hasher := buildCascade(t, keys)

	var buf bytes.Buffer
	if _, err := c.Save(&buf); err != nil {
		t.Fatalf("Save: %s", err)
	}

	truncated := buf.Bytes()[:buf.Len()/2]
	if _, err := Load[uint64](bytes.NewReader(truncated), hasher); err == nil {
		t.Fatal("Load on truncated image unexpectedly succeeded")
	}
}

func TestLoadRejectsCorruptChecksum(t *testing.T) {
	keys := genUniqueUint64s(200)
	c, hasher := buildCascade(t, keys)

	var buf bytes.Buffer
	if _, err := c.Save(&buf); err != nil {
		t.Fatalf("Save: %s", err)
	}

	b := buf.Bytes()
	b[len(b)/2] ^= 0xff

	if _, err := Load[uint64](bytes.NewReader(b), hasher); err != ErrCorrupt {
		t.Fatalf("Load on bit-flipped image = %v, want ErrCorrupt", err)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	keys := genUniqueUint64s(50)
	c, hasher := buildCascade(t, keys)

	var buf bytes.Buffer
	if _, err := c.Save(&buf); err != nil {
		t.Fatalf("Save: %s", err)
	}

	b := buf.Bytes()
	b[0] ^= 0xff
	// recompute nothing: the checksum covers the (now-mutated) magic byte
	// too, so this fails the checksum check before ever reaching the magic
	// check. Either check reports ErrCorrupt.
	if _, err := Load[uint64](bytes.NewReader(b), hasher); err != ErrCorrupt {
		t.Fatalf("Load with flipped magic byte = %v, want ErrCorrupt", err)
	}
}

func TestMarshalBodyUnmarshalBodyRoundtrip(t *testing.T) {
	keys := genUniqueUint64s(500)
	c, _ := buildCascade(t, keys)

	var buf bytes.Buffer
	if _, err := c.marshalBody(&buf); err != nil {
		t.Fatalf("marshalBody: %s", err)
	}

	c2 := &Cascade[uint64]{hasher: c.hasher}
	if _, err := c2.unmarshalBody(buf.Bytes()); err != nil {
		t.Fatalf("unmarshalBody: %s", err)
	}

	for _, k := range keys {
		if v1, v2 := c.Lookup(k), c2.Lookup(k); v1 != v2 {
			t.Fatalf("Lookup(%d) mismatch after body roundtrip: %d != %d", k, v1, v2)
		}
	}
}

func TestCascadeMPHMarshalRoundtrip(t *testing.T) {
	b, err := NewCascadeBuilder(Gamma)
	if err != nil {
		t.Fatalf("NewCascadeBuilder: %s", err)
	}

	keys := genUniqueUint64s(1000)
	for _, k := range keys {
		if err := b.Add(k); err != nil {
			t.Fatalf("Add: %s", err)
		}
	}

	m, err := b.Freeze()
	if err != nil {
		t.Fatalf("Freeze: %s", err)
	}

	var buf bytes.Buffer
	if _, err := m.MarshalBinary(&buf); err != nil {
		t.Fatalf("MarshalBinary: %s", err)
	}

	m2, err := newCascadeMPH(buf.Bytes())
	if err != nil {
		t.Fatalf("newCascadeMPH: %s", err)
	}

	for _, k := range keys {
		v1, ok1 := m.Find(k)
		v2, ok2 := m2.Find(k)
		if !ok1 || !ok2 || v1 != v2 {
			t.Fatalf("Find(%d) mismatch after marshal roundtrip: (%d,%v) != (%d,%v)", k, v1, ok1, v2, ok2)
		}
	}
}

// createFile is a tiny os.Create wrapper kept local to this test file so
// LoadMmap can be exercised against a real file.
func createFile(fn string) (*os.File, error) {
	return os.Create(fn)
}
