package ordermap

// Map is an ordered associative container: a mapping from hashable keys to
// values that preserves insertion order, built on a swiss-table-style hash
// index overlaid with an insertion-order traversal layer. It is not safe
// for concurrent use.
type Map[K comparable, V any] struct {
	table[K, V]
}

// New returns an empty Map, ready to use.
func New[K comparable, V any](opts ...Option[K, V]) *Map[K, V] {
	var m Map[K, V]
	m.init(opts...)

	return &m
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int {
	return m.table.Len()
}

// Get returns the value stored for key, and whether it was present. A
// non-nil error indicates the configured HashFunc failed, or that key
// comparison panicked (ErrEqualityFailed); the table is left unmodified.
func (m *Map[K, V]) Get(key K) (value V, found bool, err error) {
	defer recoverEquality(&err)

	return m.table.get(key)
}

// Set inserts key if absent, or replaces its value in place if present.
// Replacing a value does not move the key's iteration position (P5);
// inserting a new key appends it at the end (P3).
func (m *Map[K, V]) Set(key K, value V) (err error) {
	defer recoverEquality(&err)

	_, err = m.table.upsert(key, value)

	return err
}

// Delete removes key, reporting whether it was present.
func (m *Map[K, V]) Delete(key K) (found bool, err error) {
	defer recoverEquality(&err)

	return m.table.delete(key)
}

// Contains reports whether key is present, without mutating the map.
func (m *Map[K, V]) Contains(key K) (found bool, err error) {
	defer recoverEquality(&err)

	_, found, err = m.table.get(key)

	return found, err
}

// Keys returns a lazy, insertion-ordered iterator over live keys.
func (m *Map[K, V]) Keys() *Iterator[K, V] {
	return newIterator(&m.table)
}

// Values returns a lazy, insertion-ordered iterator over live values.
func (m *Map[K, V]) Values() *Iterator[K, V] {
	return newIterator(&m.table)
}

// Items returns a lazy, insertion-ordered iterator over live key/value
// pairs.
func (m *Map[K, V]) Items() *Iterator[K, V] {
	return newIterator(&m.table)
}

// Stats reports the map's current occupancy.
func (m *Map[K, V]) Stats() Stats {
	return m.table.Stats()
}

// Reset removes every entry without reallocating the underlying arrays.
func (m *Map[K, V]) Reset() {
	m.table.Reset()
}

// Compact reclaims tombstones by rehashing in place at the current
// capacity. Delete triggers this automatically once warranted; Compact is
// exposed for callers that want to force it (e.g. after a large batch of
// deletions, before a latency-sensitive burst of inserts).
func (m *Map[K, V]) Compact() error {
	return m.table.compact()
}

// recoverEquality turns a panic from a comparable key's == operator (the
// realistic failure mode for EQUALITY_FAILED in Go, e.g. an interface-typed
// key holding a dynamically non-comparable value) into ErrEqualityFailed,
// rather than crashing the caller.
func recoverEquality(err *error) {
	if r := recover(); r != nil {
		*err = &equalityError{cause: r}
	}
}
