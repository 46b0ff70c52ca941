package ordermap

import (
	"fmt"
	"hash/maphash"
)

// HashFunc computes the full hash of a key. Unlike a plain func(K) uint64,
// it can report failure: a caller-supplied hash hook that panics or that
// cannot hash a particular value surfaces as ErrHashFailed rather than
// crashing the table.
type HashFunc[K comparable] func(K) (uint64, error)

// MakeDefaultHashFunc returns the table's default hash function, seeded once
// per table so that hash values are not stable across process restarts (the
// same hardening maphash.Comparable already provides).
func MakeDefaultHashFunc[K comparable](seed maphash.Seed) HashFunc[K] {
	return func(k K) (h uint64, err error) {
		defer func() {
			if r := recover(); r != nil {
				h, err = 0, fmt.Errorf("%w: %v", ErrHashFailed, r)
			}
		}()

		return maphash.Comparable(seed, k), nil
	}
}

// splitHash derives the group selector H1 and the 7-bit fingerprint H2 from
// a full key hash.
func splitHash(h uint64) (h1 uintptr, h2 uint8) {
	return uintptr(h >> 7), uint8(h & 0x7F)
}
