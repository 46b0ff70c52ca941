package ordermap

// Iterator is a lazy, ordered, single-pass traversal over the live entries
// of a Map or Set, oldest insertion first. It follows the pull style of
// database/sql.Rows rather than a Go 1.23 range-over-func iterator, because
// spec.md's S6 scenario requires a per-advance error outcome
// (MUTATED_DURING_ITERATION) that a push-style iterator can't surface
// without panicking.
//
// An Iterator is invalidated by any structural mutation (a new key's
// insertion, a deletion, or a grow/compact) of the table it was created
// from; replacing an existing key's value does not invalidate it. It is not
// restartable once exhausted or invalidated.
type Iterator[K comparable, V any] struct {
	t *table[K, V]

	snapshot uint64
	cur      int32
	started  bool

	key   K
	value V
	err   error
}

func newIterator[K comparable, V any](t *table[K, V]) *Iterator[K, V] {
	return &Iterator[K, V]{t: t, snapshot: t.structVersion, cur: orderNil}
}

// Next advances the iterator and reports whether a new entry is available.
// It returns false at the end of the sequence or once an error has occurred;
// call Err to distinguish the two.
func (it *Iterator[K, V]) Next() bool {
	if it.err != nil {
		return false
	}

	if it.t.structVersion != it.snapshot {
		it.err = ErrMutatedDuringIteration

		return false
	}

	var nextIdx int32
	if !it.started {
		nextIdx = it.t.order.head
		it.started = true
	} else {
		nextIdx = it.t.order.nodes[it.cur].next
	}

	if nextIdx == orderNil {
		return false
	}

	node := &it.t.order.nodes[nextIdx]
	it.cur = nextIdx
	it.key = node.key
	it.value = it.t.groups[node.groupIdx].values[node.slotIdx]

	return true
}

// Key returns the current entry's key. Only valid after Next returns true.
func (it *Iterator[K, V]) Key() K {
	return it.key
}

// Value returns the current entry's value. Only valid after Next returns
// true.
func (it *Iterator[K, V]) Value() V {
	return it.value
}

// Err returns ErrMutatedDuringIteration if a structural mutation invalidated
// the iterator, or nil otherwise (including ordinary exhaustion).
func (it *Iterator[K, V]) Err() error {
	return it.err
}
