package ordermap

import (
	"fmt"
	"hash/maphash"
	"unsafe"
)

// table is the shared swiss-table-plus-order-arena engine backing both Map
// and Set. It owns its control/entry arrays and the order arena exclusively;
// keys and values are held by value (Go's GC, not a retain/release protocol,
// owns their lifetime once stored).
type table[K comparable, V any] struct {
	groups []group[K, V]

	groupMask         uintptr // group_count - 1
	capacity          uintptr // group_count * groupSize
	capacityEffective uintptr // capacity * 7/8, the load-factor bound (I1)

	used       uintptr
	tombstones uintptr

	// version increases on every mutation, including in-place value
	// replacement (I6). structVersion increases only on structural
	// mutation (new-key insert, delete, rehash) and is what Iterator
	// snapshots, so value replacement during iteration is tolerated per
	// §4.6 while structural change still invalidates per §4.3/S6.
	version       uint64
	structVersion uint64

	hashFunc HashFunc[K]
	order    orderArena[K]
}

// tableConfig accumulates Option values before a table is initialized.
type tableConfig[K comparable, V any] struct {
	capacity int
	hashFunc HashFunc[K]
}

// Option configures a Map or Set at construction time.
type Option[K comparable, V any] func(*tableConfig[K, V])

// WithHashFunc overrides the default hash function.
func WithHashFunc[K comparable, V any](f HashFunc[K]) Option[K, V] {
	return func(c *tableConfig[K, V]) {
		c.hashFunc = f
	}
}

// WithCapacity hints the initial capacity (in slots). It is rounded up to a
// power of two no smaller than 16, per the container's lifecycle rules.
func WithCapacity[K comparable, V any](capacity int) Option[K, V] {
	return func(c *tableConfig[K, V]) {
		c.capacity = capacity
	}
}

func (t *table[K, V]) init(opts ...Option[K, V]) {
	cfg := tableConfig[K, V]{capacity: 16}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.capacity < 16 {
		cfg.capacity = 16
	}

	capacity := uintptr(NextPowerOf2(uint32(cfg.capacity)))
	groupCount := capacity / groupSize
	if groupCount == 0 {
		groupCount = 1
	}

	t.groups = make([]group[K, V], groupCount)
	for i := range t.groups {
		t.groups[i].reset()
	}

	t.groupMask = groupCount - 1
	t.capacity = groupCount * groupSize
	t.capacityEffective = t.capacity * 7 / 8
	t.order.init()

	t.hashFunc = cfg.hashFunc
	if t.hashFunc == nil {
		t.hashFunc = MakeDefaultHashFunc[K](maphash.MakeSeed())
	} else {
		user := cfg.hashFunc
		t.hashFunc = func(k K) (h uint64, err error) {
			defer func() {
				if r := recover(); r != nil {
					h, err = 0, fmt.Errorf("%w: %v", ErrHashFailed, r)
				}
			}()

			if h, err = user(k); err != nil {
				err = fmt.Errorf("%w: %w", ErrHashFailed, err)
			}

			return h, err
		}
	}
}

func (t *table[K, V]) Len() int {
	return int(t.used)
}

func (t *table[K, V]) EffectiveCapacity() int {
	return int(t.capacityEffective)
}

// get looks up a key without mutating the table.
func (t *table[K, V]) get(key K) (value V, found bool, err error) {
	for {
		versionBefore := t.version

		h, herr := t.hashFunc(key)
		if herr != nil {
			return value, false, herr
		}

		if t.version != versionBefore {
			continue // hashFunc re-entered the table; re-resolve from scratch.
		}

		h1, h2 := splitHash(h)
		seq := newProbeSeq(h1, t.groupMask)

		for i := uintptr(0); i <= t.groupMask; i++ {
			g := &t.groups[seq.group]
			lo, hi := g.words()

			matches := matchH2(lo, hi, h2)
			for !matches.empty() {
				idx := matches.first()
				if g.hashes[idx] == h && g.keys[idx] == key {
					return g.values[idx], true, nil
				}

				matches = matches.removeFirst()
			}

			if !matchEmpty(lo, hi).empty() {
				return value, false, nil
			}

			seq.next()
		}

		return value, false, nil
	}
}

// upsert inserts key/value if key is absent, or replaces its value in place
// if present. isNew reports whether a new entry was created.
func (t *table[K, V]) upsert(key K, value V) (isNew bool, err error) {
	for {
		versionBefore := t.version

		h, herr := t.hashFunc(key)
		if herr != nil {
			return false, herr
		}

		if t.version != versionBefore {
			continue
		}

		h1, h2 := splitHash(h)
		seq := newProbeSeq(h1, t.groupMask)

		var (
			insGroupIdx uintptr
			insSlot     uintptr
			haveIns     bool
		)

		for i := uintptr(0); i <= t.groupMask; i++ {
			gi := seq.group
			g := &t.groups[gi]
			lo, hi := g.words()

			matches := matchH2(lo, hi, h2)
			for !matches.empty() {
				idx := matches.first()
				if g.hashes[idx] == h && g.keys[idx] == key {
					g.values[idx] = value
					t.version++

					return false, nil
				}

				matches = matches.removeFirst()
			}

			if !haveIns {
				if eod := matchEmptyOrDeleted(lo, hi); !eod.empty() {
					insGroupIdx, insSlot, haveIns = gi, eod.first(), true
				}
			}

			if !matchEmpty(lo, hi).empty() {
				break
			}

			seq.next()
		}

		if !haveIns {
			panic("ordermap: probe sequence exhausted without an insertion slot (I1 violated)")
		}

		if t.used+t.tombstones+1 > t.capacityEffective {
			if growErr := t.grow(); growErr != nil {
				return false, growErr
			}

			continue // capacity changed; restart the operation.
		}

		g := &t.groups[insGroupIdx]

		if g.ctrls[insSlot] == ctrlDeleted {
			t.tombstones--
		}

		g.ctrls[insSlot] = h2
		g.keys[insSlot] = key
		g.values[insSlot] = value
		g.hashes[insSlot] = h

		orderIdx := t.order.append(key, uint32(insGroupIdx), uint8(insSlot))
		g.order[insSlot] = orderIdx

		t.used++
		t.version++
		t.structVersion++

		return true, nil
	}
}

// delete removes key if present. found reports whether it was present.
func (t *table[K, V]) delete(key K) (found bool, err error) {
	for {
		versionBefore := t.version

		h, herr := t.hashFunc(key)
		if herr != nil {
			return false, herr
		}

		if t.version != versionBefore {
			continue
		}

		h1, h2 := splitHash(h)
		seq := newProbeSeq(h1, t.groupMask)

		for i := uintptr(0); i <= t.groupMask; i++ {
			g := &t.groups[seq.group]
			lo, hi := g.words()

			matches := matchH2(lo, hi, h2)
			for !matches.empty() {
				idx := matches.first()
				if g.hashes[idx] == h && g.keys[idx] == key {
					t.order.unlink(g.order[idx])

					if !matchEmpty(lo, hi).empty() {
						g.ctrls[idx] = ctrlEmpty
					} else {
						g.ctrls[idx] = ctrlDeleted
						t.tombstones++
					}

					var zeroK K

					var zeroV V

					g.keys[idx] = zeroK
					g.values[idx] = zeroV
					g.hashes[idx] = 0
					g.order[idx] = 0

					t.used--
					t.version++
					t.structVersion++

					if t.tombstones > t.capacity/8 && t.used*2 >= t.capacity {
						// Best-effort: a failed compaction leaves tombstones in
						// place, which is always safe, just slower to probe.
						_ = t.compact()
					}

					return true, nil
				}

				matches = matches.removeFirst()
			}

			if !matchEmpty(lo, hi).empty() {
				return false, nil
			}

			seq.next()
		}

		return false, nil
	}
}

// growTargetCapacity computes the next power-of-two capacity satisfying
// spec.md §4.5's grow formula for one additional pending insert.
func (t *table[K, V]) growTargetCapacity() uintptr {
	pending := t.used + 1
	needed := (pending*8 + 6) / 7 // ceil(pending * 8/7)

	target := 2 * t.capacity
	if needed > target {
		target = needed
	}

	return uintptr(NextPowerOf2(uint32(target)))
}

func (t *table[K, V]) grow() error {
	return t.rehash(t.growTargetCapacity())
}

// Compact reclaims tombstones by rehashing in place at the same capacity.
// It is triggered automatically after Delete once tombstones exceed
// capacity/8 while the table remains at least half live (spec.md §4.5); it
// is also exposed directly for callers that want to force reclamation.
func (t *table[K, V]) compact() error {
	return t.rehash(t.capacity)
}

// rehash is the single routine implementing both grow and compact: allocate
// fresh arrays, replay the order arena head-to-tail into them (spec.md
// §4.5's Algorithm, deterministic and insertion-order preserving per I5),
// swap, and reset tombstones.
func (t *table[K, V]) rehash(newCapacity uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrOutOfMemory, r)
		}
	}()

	newGroupCount := newCapacity / groupSize
	if newGroupCount == 0 {
		newGroupCount = 1
	}

	newGroups := make([]group[K, V], newGroupCount)
	for i := range newGroups {
		newGroups[i].reset()
	}

	newMask := newGroupCount - 1

	for idx := t.order.head; idx != orderNil; idx = t.order.nodes[idx].next {
		node := &t.order.nodes[idx]

		oldGroup := &t.groups[node.groupIdx]
		slot := uintptr(node.slotIdx)

		h := oldGroup.hashes[slot]
		key := oldGroup.keys[slot]
		value := oldGroup.values[slot]

		h1, h2 := splitHash(h)
		seq := newProbeSeq(h1, newMask)

		for {
			g := &newGroups[seq.group]
			lo, hi := g.words()

			m := matchEmpty(lo, hi)
			if m.empty() {
				seq.next()

				continue
			}

			slotIdx := m.first()
			g.ctrls[slotIdx] = h2
			g.keys[slotIdx] = key
			g.values[slotIdx] = value
			g.hashes[slotIdx] = h
			g.order[slotIdx] = idx

			t.order.relocate(idx, uint32(seq.group), uint8(slotIdx))

			break
		}
	}

	t.groups = newGroups
	t.groupMask = newMask
	t.capacity = newGroupCount * groupSize
	t.capacityEffective = t.capacity * 7 / 8
	t.tombstones = 0
	t.version++
	t.structVersion++

	return nil
}

// Reset drops every entry and the order arena without reallocating the
// slot arrays.
func (t *table[K, V]) Reset() {
	for i := range t.groups {
		t.groups[i].reset()
	}

	t.used = 0
	t.tombstones = 0
	t.order.reset()
	t.version++
	t.structVersion++
}

func (t *table[K, V]) Stats() Stats {
	var tombstonesCapacityRatio, tombstonesUsedRatio, loadFactor float64

	if t.capacity > 0 {
		tombstonesCapacityRatio = float64(t.tombstones) / float64(t.capacity)
		loadFactor = float64(t.used+t.tombstones) / float64(t.capacity)
	}

	if t.used > 0 {
		tombstonesUsedRatio = float64(t.tombstones) / float64(t.used)
	}

	return Stats{
		Size:                    int(t.used),
		Tombstones:              int(t.tombstones),
		Capacity:                int(t.capacity),
		EffectiveCapacity:       int(t.capacityEffective),
		TombstonesCapacityRatio: tombstonesCapacityRatio,
		TombstonesSizeRatio:     tombstonesUsedRatio,
		LoadFactor:              loadFactor,
	}
}

// groupIndexOf returns the index of g within t.groups, computed from its
// address. Nothing in the package calls it; it is not part of the
// load-bearing algorithm.
func groupIndexOf[K comparable, V any](t *table[K, V], g *group[K, V]) uintptr {
	base := unsafe.Pointer(&t.groups[0])

	return (uintptr(unsafe.Pointer(g)) - uintptr(base)) / unsafe.Sizeof(t.groups[0])
}
