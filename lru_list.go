package pagecache

import "github.com/duskdb/pagecache/internal/reclist"

// lruList is an ordered sequence of values in MRU->LRU order with O(1)
// lookup by key. It backs each of the three 2Q queues (a1in, a1out, am)
// independently; each queue owns its own lruList instance.
//
// Reordering via putMRU is tolerated to be approximate under concurrent
// callers holding only the cache's shared read lock plus a per-page
// lock (see PageLockManager); remove and removeLRU are always atomic
// with respect to the list's own state because they run under a
// compare against the index map before touching the ring.
type lruList[Key comparable, Value any] struct {
	index map[Key]*reclist.Node[Key, Value]
	mru   *reclist.Node[Key, Value] // MRU end; mru.Next() is the LRU end.
}

func newLRUList[Key comparable, Value any]() *lruList[Key, Value] {
	return &lruList[Key, Value]{
		index: make(map[Key]*reclist.Node[Key, Value]),
	}
}

// putMRU inserts key/value, or moves an existing key, to the MRU end.
func (l *lruList[Key, Value]) putMRU(key Key, value Value) {
	if node, ok := l.index[key]; ok {
		node.Value = value
		l.moveToMRU(node)
		return
	}
	node := &reclist.Node[Key, Value]{Key: key, Value: value}
	if l.mru == nil {
		l.mru = node
	} else {
		l.mru.Link(node)
		l.mru = node
	}
	l.index[key] = node
}

func (l *lruList[Key, Value]) moveToMRU(node *reclist.Node[Key, Value]) {
	if node == l.mru {
		return
	}
	leaf := node.Prev().Unlink()
	l.mru.Link(leaf)
	l.mru = leaf
}

// get returns the value for key without changing its position.
func (l *lruList[Key, Value]) get(key Key) (Value, bool) {
	if node, ok := l.index[key]; ok {
		return node.Value, true
	}
	var zero Value
	return zero, false
}

// remove removes and returns key's value, if present.
func (l *lruList[Key, Value]) remove(key Key) (Value, bool) {
	node, ok := l.index[key]
	if !ok {
		var zero Value
		return zero, false
	}
	l.unlink(node)
	delete(l.index, key)
	return node.Value, true
}

// removeLRU removes and returns the value at the LRU end, if any.
func (l *lruList[Key, Value]) removeLRU() (Key, Value, bool) {
	if l.mru == nil {
		var zeroKey Key
		var zeroValue Value
		return zeroKey, zeroValue, false
	}
	lru := l.mru.Next()
	key, value := lru.Key, lru.Value
	l.unlink(lru)
	delete(l.index, key)
	return key, value, true
}

// removeColdestUnused scans from the LRU end toward the MRU end for the
// first value inUse reports as false, removes and returns it. Returns
// ok=false if every resident value is in use (§4.7: eviction must skip
// entries it cannot reclaim rather than removing whatever sits at the
// literal LRU position).
func (l *lruList[Key, Value]) removeColdestUnused(inUse func(Value) bool) (Key, Value, bool) {
	n := len(l.index)
	if n == 0 {
		var zeroKey Key
		var zeroValue Value
		return zeroKey, zeroValue, false
	}
	node := l.mru.Next()
	for i := 0; i < n; i++ {
		if !inUse(node.Value) {
			key, value := node.Key, node.Value
			l.unlink(node)
			delete(l.index, key)
			return key, value, true
		}
		node = node.Next()
	}
	var zeroKey Key
	var zeroValue Value
	return zeroKey, zeroValue, false
}

func (l *lruList[Key, Value]) unlink(node *reclist.Node[Key, Value]) {
	if node == l.mru {
		if node.Next() == node {
			l.mru = nil
			return
		}
		l.mru = node.Prev()
	}
	node.Prev().Unlink()
}

func (l *lruList[Key, Value]) size() int {
	return len(l.index)
}

// values iterates in MRU->LRU order. The ring's Next() direction runs
// oldest->newest (wrapping from mru straight to the LRU end), so walking
// MRU->LRU means following Prev() from mru.
func (l *lruList[Key, Value]) values(yield func(Key, Value) bool) {
	if l.mru == nil {
		return
	}
	node := l.mru
	for {
		if !yield(node.Key, node.Value) {
			return
		}
		node = node.Prev()
		if node == l.mru {
			return
		}
	}
}

func (l *lruList[Key, Value]) clear() {
	l.index = make(map[Key]*reclist.Node[Key, Value])
	l.mru = nil
}
