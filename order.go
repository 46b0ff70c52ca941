package ordermap

// orderNode is one entry in the insertion-order traversal layer. Its arena
// index never changes for the lifetime of the entry it backs (insert to
// delete); only its groupIdx/slotIdx back-reference is updated, in O(1),
// whenever a rehash relocates the entry to a new physical slot.
type orderNode[K comparable] struct {
	key K

	prev, next int32 // arena indices; -1 denotes the list sentinel.

	groupIdx uint32
	slotIdx  uint8
}

const orderNil int32 = -1

// orderArena is the insertion-order layer: a doubly linked list threaded
// through an index-addressed arena rather than through slot memory, because
// slot memory moves across grow/compact in this implementation (spec.md §9
// calls this out as the reason to prefer arena+index over intrusive
// pointers). Deleted nodes are returned to a free list and reused by the
// next insert, keeping the arena's size proportional to the table's peak
// occupancy rather than growing without bound.
type orderArena[K comparable] struct {
	nodes      []orderNode[K]
	head, tail int32
	free       []int32
}

func (a *orderArena[K]) init() {
	a.head, a.tail = orderNil, orderNil
}

// append adds a new node to the tail of the order list and returns its
// arena index.
func (a *orderArena[K]) append(key K, groupIdx uint32, slotIdx uint8) int32 {
	var idx int32

	node := orderNode[K]{key: key, prev: a.tail, next: orderNil, groupIdx: groupIdx, slotIdx: slotIdx}

	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
		a.nodes[idx] = node
	} else {
		idx = int32(len(a.nodes))
		a.nodes = append(a.nodes, node)
	}

	if a.tail == orderNil {
		a.head = idx
	} else {
		a.nodes[a.tail].next = idx
	}

	a.tail = idx

	return idx
}

// unlink removes the node at idx from the order list and returns it to the
// free list for reuse.
func (a *orderArena[K]) unlink(idx int32) {
	node := a.nodes[idx]

	if node.prev != orderNil {
		a.nodes[node.prev].next = node.next
	} else {
		a.head = node.next
	}

	if node.next != orderNil {
		a.nodes[node.next].prev = node.prev
	} else {
		a.tail = node.prev
	}

	a.nodes[idx] = orderNode[K]{}
	a.free = append(a.free, idx)
}

// relocate updates the physical back-reference of the node at idx, called
// whenever rehash moves the slot it describes.
func (a *orderArena[K]) relocate(idx int32, groupIdx uint32, slotIdx uint8) {
	a.nodes[idx].groupIdx = groupIdx
	a.nodes[idx].slotIdx = slotIdx
}

func (a *orderArena[K]) reset() {
	a.nodes = a.nodes[:0]
	a.free = a.free[:0]
	a.head, a.tail = orderNil, orderNil
}
