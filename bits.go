package ordermap

import "math/bits"

const (
	bitsetLSB = 0x0101010101010101
	bitsetMSB = 0x8080808080808080
)

// bitset represents a set of slots within one 8-slot half of a group.
//
// The underlying representation uses one byte per slot, where each byte is
// either 0x80 if the slot is part of the set or 0x00 otherwise. This makes it
// convenient to compute for eight slots at once from a single 64-bit load.
type bitset uint64

// first returns the relative index, within this half, of the first set byte.
// Assumes only the MSB of each byte can be set (e.g. the result of matchEmpty
// or similar).
func (b bitset) first() uintptr {
	return uintptr(bits.TrailingZeros64(uint64(b)) >> 3)
}

// removeFirst resets the least significant set byte to 0.
func (b bitset) removeFirst() bitset {
	return b & ^(bitset(ctrlEmpty) << (bits.TrailingZeros64(uint64(b)) &^ 7))
}

//go:inline
func matchByte(word uint64, h2 uint8) bitset {
	v := word ^ (bitsetLSB * uint64(h2))
	return bitset(((v - bitsetLSB) &^ v) & bitsetMSB)
}

// matchEmptyWord: MSB is 1 AND bit 1 is 0 (0x80 qualifies, 0xFE does not).
//
//go:inline
func matchEmptyWord(word uint64) bitset {
	return bitset((word &^ (word << 6)) & bitsetMSB)
}

// matchEmptyOrDeletedWord: MSB is 1 (both 0x80 and 0xFE qualify).
//
//go:inline
func matchEmptyOrDeletedWord(word uint64) bitset {
	return bitset(word & bitsetMSB)
}

// groupMask is the 16-slot analogue of bitset: the portable SWAR fallback
// mandated as the normative group-scan algorithm by the spec (two 64-bit
// words standing in for the single 128-bit SIMD load). lo covers slots
// 0-7, hi covers slots 8-15.
type groupMask struct {
	lo, hi bitset
}

func (m groupMask) empty() bool {
	return m.lo == 0 && m.hi == 0
}

// first returns the index, within the full 16-slot group, of the first set
// slot. Only valid when !m.empty().
func (m groupMask) first() uintptr {
	if m.lo != 0 {
		return m.lo.first()
	}

	return 8 + m.hi.first()
}

// removeFirst clears the first set slot found by first().
func (m groupMask) removeFirst() groupMask {
	if m.lo != 0 {
		return groupMask{lo: m.lo.removeFirst(), hi: m.hi}
	}

	return groupMask{lo: m.lo, hi: m.hi.removeFirst()}
}

// matchH2 returns, for each of the 16 slots in the group, whether the control
// byte equals the 7-bit fingerprint h2. The SWAR borrow can also flag a byte
// equal to h2^1 sitting directly above a true match, so every candidate is
// verified by its cached hash and key before use.
func matchH2(lo, hi uint64, h2 uint8) groupMask {
	return groupMask{lo: matchByte(lo, h2), hi: matchByte(hi, h2)}
}

// matchEmpty returns, for each slot, whether the control byte is EMPTY.
func matchEmpty(lo, hi uint64) groupMask {
	return groupMask{lo: matchEmptyWord(lo), hi: matchEmptyWord(hi)}
}

// matchEmptyOrDeleted returns, for each slot, whether the control byte has
// its top bit set (EMPTY or DELETED).
func matchEmptyOrDeleted(lo, hi uint64) groupMask {
	return groupMask{lo: matchEmptyOrDeletedWord(lo), hi: matchEmptyOrDeletedWord(hi)}
}
