package ordermap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTable[V any](t *testing.T, capacity int) *table[string, V] {
	t.Helper()

	var tbl table[string, V]
	tbl.init(WithCapacity[string, V](capacity))

	return &tbl
}

func TestTableUpsertAndGet(t *testing.T) {
	tbl := newTestTable[int](t, 16)

	isNew, err := tbl.upsert("a", 1)
	require.NoError(t, err)
	require.True(t, isNew)

	v, found, err := tbl.get("a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, v)

	isNew, err = tbl.upsert("a", 2)
	require.NoError(t, err)
	require.False(t, isNew, "re-inserting an existing key must not report isNew")

	v, found, err = tbl.get("a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, v)
}

func TestTableGetMissingKey(t *testing.T) {
	tbl := newTestTable[int](t, 16)

	_, found, err := tbl.get("missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestTableDeletePresentAndAbsent(t *testing.T) {
	tbl := newTestTable[int](t, 16)

	_, _ = tbl.upsert("a", 1)

	found, err := tbl.delete("a")
	require.NoError(t, err)
	require.True(t, found)

	found, err = tbl.delete("a")
	require.NoError(t, err)
	require.False(t, found, "deleting an already-deleted key reports not found")

	_, found, err = tbl.get("a")
	require.NoError(t, err)
	require.False(t, found)
}

// TestTableCollisionBridgeDeletion mirrors the teacher's collision-bridge
// scenario: deleting a key from a group that has no empty byte must
// tombstone rather than empty its slot, or a later key whose probe chain
// runs through that group becomes unreachable.
func TestTableCollisionBridgeDeletion(t *testing.T) {
	tbl := newTestTable[int](t, 32) // 2 groups
	tbl.hashFunc = func(string) (uint64, error) { return 0, nil }

	// Fill group 0 completely (groupSize == 16), leaving no empty byte.
	for i := 0; i < 16; i++ {
		_, err := tbl.upsert(fmt.Sprintf("g0-%d", i), i)
		require.NoError(t, err)
	}

	// This insert's probe starts at group 0 (full), finds no match and no
	// empty byte there, and lands in group 1.
	_, err := tbl.upsert("bridge", 99)
	require.NoError(t, err)

	// Deleting a group-0 key while group 0 is still full must tombstone its
	// slot (not empty it), or "bridge"'s probe would stop at group 0 and
	// never reach group 1.
	found, err := tbl.delete("g0-0")
	require.NoError(t, err)
	require.True(t, found)

	v, found, err := tbl.get("bridge")
	require.NoError(t, err)
	require.True(t, found, "bridge must remain reachable after a key sharing its probe chain is deleted")
	require.Equal(t, 99, v)
}

// TestTableFillPastEffectiveCapacityAutoGrows exercises the container's
// auto-grow lifecycle (no ErrTableFull, unlike the teacher's fixed-size
// StableMap): inserting past the 7/8 load factor must grow capacity rather
// than fail.
func TestTableFillPastEffectiveCapacityAutoGrows(t *testing.T) {
	tbl := newTestTable[int](t, 16)
	initialCapacity := tbl.capacity

	for i := 0; i < 64; i++ {
		_, err := tbl.upsert(fmt.Sprintf("key-%d", i), i)
		require.NoError(t, err)
	}

	require.Greater(t, tbl.capacity, initialCapacity)
	require.Equal(t, uintptr(64), tbl.used)

	for i := 0; i < 64; i++ {
		v, found, err := tbl.get(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, i, v)
	}
}

func TestTableGrowPreservesInsertionOrder(t *testing.T) {
	tbl := newTestTable[int](t, 16)

	var want []string
	for i := 0; i < 40; i++ {
		key := fmt.Sprintf("key-%d", i)
		want = append(want, key)

		_, err := tbl.upsert(key, i)
		require.NoError(t, err)
	}

	var got []string
	for idx := tbl.order.head; idx != orderNil; idx = tbl.order.nodes[idx].next {
		got = append(got, tbl.order.nodes[idx].key)
	}

	require.Equal(t, want, got)
}

func TestTableCompactReclaimsTombstonesAndPreservesOrder(t *testing.T) {
	tbl := newTestTable[int](t, 16)

	for i := 0; i < 8; i++ {
		_, err := tbl.upsert(fmt.Sprintf("key-%d", i), i)
		require.NoError(t, err)
	}

	// Delete the even keys (the single group keeps empty bytes, so these
	// deletes leave no tombstones and never trip auto-compaction inside
	// delete itself), then compact explicitly to verify the operation
	// directly.
	for i := 0; i < 8; i += 2 {
		_, err := tbl.delete(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	err := tbl.compact()
	require.NoError(t, err)
	require.Equal(t, uintptr(0), tbl.tombstones)

	var got []string
	for idx := tbl.order.head; idx != orderNil; idx = tbl.order.nodes[idx].next {
		got = append(got, tbl.order.nodes[idx].key)
	}

	want := []string{"key-1", "key-3", "key-5", "key-7"}
	require.Equal(t, want, got)

	for _, key := range want {
		_, found, err := tbl.get(key)
		require.NoError(t, err)
		require.True(t, found)
	}
}

func TestTableHashFailurePropagatesFromAllOperations(t *testing.T) {
	boom := errors.New("boom")
	tbl := newTestTable[int](t, 16)
	tbl.hashFunc = func(string) (uint64, error) { return 0, boom }

	_, _, err := tbl.get("a")
	require.ErrorIs(t, err, boom)

	_, err = tbl.upsert("a", 1)
	require.ErrorIs(t, err, boom)

	_, err = tbl.delete("a")
	require.ErrorIs(t, err, boom)
}

func TestTableResetClearsEntriesButKeepsCapacity(t *testing.T) {
	tbl := newTestTable[int](t, 16)

	for i := 0; i < 8; i++ {
		_, _ = tbl.upsert(fmt.Sprintf("key-%d", i), i)
	}

	capacityBefore := tbl.capacity

	tbl.Reset()

	require.Equal(t, 0, tbl.Len())
	require.Equal(t, capacityBefore, tbl.capacity)
	require.Equal(t, orderNil, tbl.order.head)

	_, found, err := tbl.get("key-0")
	require.NoError(t, err)
	require.False(t, found)
}

func TestTableStatsReportsOccupancy(t *testing.T) {
	tbl := newTestTable[int](t, 16)

	for i := 0; i < 4; i++ {
		_, _ = tbl.upsert(fmt.Sprintf("key-%d", i), i)
	}
	_, _ = tbl.delete("key-0")

	stats := tbl.Stats()
	require.Equal(t, 3, stats.Size)
	require.Equal(t, 16, stats.Capacity)
	require.GreaterOrEqual(t, stats.LoadFactor, 0.0)
}

// TestTableBoundaryMirrorsSpecWrapAround mirrors the teacher's
// boundary-probing test: a probe sequence starting near the top group must
// wrap around through group 0 rather than running off the array.
func TestTableBoundaryMirrorsSpecWrapAround(t *testing.T) {
	tbl := newTestTable[int](t, 32) // groupMask = 1 -> two groups
	require.Equal(t, uintptr(1), tbl.groupMask)

	// Every key has H1 = 1, so each probe starts at the top group.
	tbl.hashFunc = func(string) (uint64, error) { return 1 << 7, nil }

	// 16 keys fill group 1; the last two must wrap around into group 0.
	for i := 0; i < 18; i++ {
		_, err := tbl.upsert(fmt.Sprintf("k%d", i), i)
		require.NoError(t, err)
	}

	require.Equal(t, uint32(0), tbl.order.nodes[tbl.order.tail].groupIdx)

	for i := 0; i < 18; i++ {
		v, found, err := tbl.get(fmt.Sprintf("k%d", i))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, i, v)
	}
}
