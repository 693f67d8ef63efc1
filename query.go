// query.go - cascade lookup
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

// Lookup returns a value in [0, N) for key, unique across every key Build
// saw. The result is undefined (but never panics) for a key outside the
// built set; callers who need membership testing must track that
// separately.
//
// Lookup walks the bit-array levels in order, stopping at the first level
// where the key's slot is set, and returns that level's running rank
// offset plus the in-level rank. A key that clears every bit-array level
// falls through to the exact final map.
func (c *Cascade[K]) Lookup(key K) uint64 {
	h0, h1 := c.hasher.HashPair(key)
	return c.lookupHashPair(hashPair{h0: h0, h1: h1})
}

func (c *Cascade[K]) lookupHashPair(v hashPair) uint64 {
	for i, lvl := range c.levels {
		h := levelHash(v.h0, v.h1, i)
		slot := fastrange(h, c.domains[i])
		if lvl.Get(slot) {
			return lvl.Rank(slot)
		}
	}

	if r, ok := c.final[v]; ok {
		return c.lastBitsetRank + r
	}
	return NotFound
}
