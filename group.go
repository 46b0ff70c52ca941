package ordermap

import "unsafe"

// groupSize is the number of slots scanned in parallel by a single group
// scan. The spec's normative width is 16 (a 128-bit control load); the
// portable SWAR fallback implements that as two 64-bit words (see bits.go).
const groupSize = 16

const (
	// ctrlEmpty marks a slot with no entry that no probe chain depends on:
	// either unused since the last rehash or Reset, or emptied by a delete
	// while its group still had another empty byte.
	ctrlEmpty = 0x80
	// ctrlDeleted marks a tombstone: a slot whose entry was deleted while
	// its group had no empty byte, so the probe chain past it must remain
	// intact.
	ctrlDeleted = 0xFE
)

var emptyCtrls = [groupSize]uint8{
	ctrlEmpty, ctrlEmpty, ctrlEmpty, ctrlEmpty,
	ctrlEmpty, ctrlEmpty, ctrlEmpty, ctrlEmpty,
	ctrlEmpty, ctrlEmpty, ctrlEmpty, ctrlEmpty,
	ctrlEmpty, ctrlEmpty, ctrlEmpty, ctrlEmpty,
}

// group is one 16-slot bucket of the table: a control byte, a cached full
// hash, a key, and a value per slot, plus the slot's current order-arena
// back-reference.
type group[K comparable, V any] struct {
	ctrls [groupSize]uint8

	// hashes caches the full hash used to place each entry (Entry.hash_cached
	// in the spec's data model). Compared before invoking key equality, and
	// the sole input to H1/H2 during rehash.
	hashes [groupSize]uint64

	keys   [groupSize]K
	values [groupSize]V

	// order is the arena index backing this slot's position in the
	// insertion-order traversal layer, valid only while ctrls[i] is FULL.
	order [groupSize]int32
}

// words loads the group's control array as two 64-bit words suitable for
// matchH2/matchEmpty/matchEmptyOrDeleted.
func (g *group[K, V]) words() (lo, hi uint64) {
	p := (*[2]uint64)(unsafe.Pointer(&g.ctrls))

	return p[0], p[1]
}

func (g *group[K, V]) reset() {
	g.ctrls = emptyCtrls
}
