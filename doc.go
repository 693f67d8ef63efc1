// doc.go - top level documentation
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

// Package cascadephf implements two different perfect hash functions for
// large data sets:
//  1. Cascade: a cascaded bit-array minimal perfect hash, in the style of
//     BBHash (https://arxiv.org/abs/1702.03154), generic over the key type.
//  2. CHD: Compress Hash Displace (http://cmph.sourceforge.net/papers/esa09.pdf).
//
// cascadephf exposes a convenient way to serialize keys and values OR just keys
// into an on-disk single-file database. This serialized MPH DB is useful
// in situations where reading from such a "constant" DB is much more
// frequent compared to updates to the DB.
//
// The primary user interface for this package is via the 'DBWriter' and
// 'DBReader' objects. Each object added to the DB is a <key, value> pair.
// The key is identified by a uint64 value - most commonly obtained by hashing
// a user specific object. The caller must ensure that they use a good
// hash function (eg siphash, xxh3) that produces a random distribution of
// the keys. Callers who want the cascade MPHF directly (without the DB
// wrapper) use Cascade[K] with a Hasher[K].
package cascadephf
