// errors.go - public errors exposed by cascadephf
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
	"errors"
	"fmt"
)

func errShortWrite(who string, n int) error {
	return fmt.Errorf("%s: incomplete write; wrote only %d bytes", who, n)
}

var (
	// ErrMPHFail is returned when a builder exhausts its retry budget
	// without finding a minimal perfect hash (the CHD backend's bucket/seed
	// search; the cascade itself cannot exhaust since its final level
	// always absorbs residual keys into the exact map F).
	ErrMPHFail = errors.New("failed to build MPH")

	// ErrFrozen is returned when attempting to add new records to an already frozen DB
	// It is also returned when trying to freeze a DB that's already frozen.
	ErrFrozen = errors.New("DB already frozen")

	// ErrValueTooLarge is returned if the value-length is larger than 2^32-1 bytes
	ErrValueTooLarge = errors.New("value is larger than 2^32-1 bytes")

	// ErrExists is returned if a duplicate key is added to the DB
	ErrExists = errors.New("key exists in DB")

	// ErrNoKey is returned when a key cannot be found in the DB
	ErrNoKey = errors.New("No such key")

	// Header too small for unmarshalling
	ErrTooSmall = errors.New("not enough data to unmarshal")

	// ErrCorrupt is returned when a serialized cascade fails its magic,
	// version, or trailing checksum check.
	ErrCorrupt = errors.New("corrupt or truncated cascade image")
)

// NotFound is the sentinel uint64 returned by Lookup for a key that was
// never part of the built key set, chosen to fall well outside [0, N).
const NotFound uint64 = ^uint64(0)
