package pagecache

import (
	"sort"
	"sync"
)

// PageLockManager is a partitioned lock table keyed by PageKey. Distinct
// keys are striped across a fixed set of shards by hash, so unrelated
// pages rarely contend for the same underlying sync.RWMutex; this
// mirrors the shard-by-hash approach used to partition entries in the
// wider cache pack (e.g. a fixed shard array indexed by a hash of the
// key), applied here to locks rather than data.
type PageLockManager struct {
	stripes []sync.RWMutex
}

// defaultPageLockStripes is the shard count used when the caller does
// not need to tune it; a power of two so index() can mask instead of
// divide.
const defaultPageLockStripes = 256

// NewPageLockManager creates a PageLockManager with stripeCount shards.
// stripeCount is rounded up to the next power of two.
func NewPageLockManager(stripeCount int) *PageLockManager {
	if stripeCount < 1 {
		stripeCount = defaultPageLockStripes
	}
	n := 1
	for n < stripeCount {
		n <<= 1
	}
	return &PageLockManager{stripes: make([]sync.RWMutex, n)}
}

// pageKeyHash is an FNV-1a mix of the two key fields, inlined rather
// than allocating a byte slice to feed hash/fnv.
func pageKeyHash(k PageKey) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	v := k.FileID
	for i := 0; i < 8; i++ {
		h *= prime64
		h ^= v & 0xff
		v >>= 8
	}
	v = k.PageIndex
	for i := 0; i < 8; i++ {
		h *= prime64
		h ^= v & 0xff
		v >>= 8
	}
	return h
}

func (m *PageLockManager) index(k PageKey) int {
	return int(pageKeyHash(k) & uint64(len(m.stripes)-1))
}

// Unlocker releases whatever AcquireShared/AcquireExclusive/
// AcquireExclusiveBatch handed out.
type Unlocker func()

// AcquireShared locks key for shared (reader) access.
func (m *PageLockManager) AcquireShared(k PageKey) Unlocker {
	stripe := &m.stripes[m.index(k)]
	stripe.RLock()
	return stripe.RUnlock
}

// AcquireExclusive locks key for exclusive (writer) access.
func (m *PageLockManager) AcquireExclusive(k PageKey) Unlocker {
	stripe := &m.stripes[m.index(k)]
	stripe.Lock()
	return stripe.Unlock
}

// AcquireExclusiveBatch acquires exclusive locks covering every key in
// keys. Keys are sorted into canonical (fileID, pageIndex) order and
// mapped to their stripes, deduplicated, and locked in ascending stripe
// order, so a concurrent caller doing the same for an overlapping key
// set can never form a lock cycle. The returned Unlocker releases every
// acquired stripe in reverse order.
func (m *PageLockManager) AcquireExclusiveBatch(keys []PageKey) Unlocker {
	sorted := append([]PageKey(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	seen := make(map[int]struct{}, len(sorted))
	var indices []int
	for _, k := range sorted {
		idx := m.index(k)
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		m.stripes[idx].Lock()
	}
	return func() {
		for i := len(indices) - 1; i >= 0; i-- {
			m.stripes[indices[i]].Unlock()
		}
	}
}
