package ordermap

// Set is an ordered set: a collection of hashable keys that preserves
// insertion order, built on the same swiss-table-plus-order-arena engine as
// Map, storing no values. It is not safe for concurrent use.
type Set[K comparable] struct {
	table[K, struct{}]
}

// NewSet returns an empty Set, ready to use.
func NewSet[K comparable](opts ...Option[K, struct{}]) *Set[K] {
	var s Set[K]
	s.init(opts...)

	return &s
}

// Len returns the number of live keys.
func (s *Set[K]) Len() int {
	return s.table.Len()
}

// Has reports whether key is present.
func (s *Set[K]) Has(key K) (found bool, err error) {
	defer recoverEquality(&err)

	_, found, err = s.table.get(key)

	return found, err
}

// Put inserts key if absent. isNew reports whether the key was newly added;
// inserting an already-present key is a no-op that leaves its iteration
// position unchanged.
func (s *Set[K]) Put(key K) (isNew bool, err error) {
	defer recoverEquality(&err)

	return s.table.upsert(key, struct{}{})
}

// Delete removes key, reporting whether it was present.
func (s *Set[K]) Delete(key K) (found bool, err error) {
	defer recoverEquality(&err)

	return s.table.delete(key)
}

// Keys returns a lazy, insertion-ordered iterator over live keys.
func (s *Set[K]) Keys() *Iterator[K, struct{}] {
	return newIterator(&s.table)
}

// Stats reports the set's current occupancy.
func (s *Set[K]) Stats() Stats {
	return s.table.Stats()
}

// Reset removes every key without reallocating the underlying arrays.
func (s *Set[K]) Reset() {
	s.table.Reset()
}

// Compact reclaims tombstones by rehashing in place at the current
// capacity.
func (s *Set[K]) Compact() error {
	return s.table.compact()
}
