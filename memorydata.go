package pagecache

import "sync/atomic"

// MemoryData is an immutable snapshot of the cache's budget. It is
// replaced wholesale, via compare-and-swap on the holder, whenever
// maxSize or pinnedPages changes, so that a caller reading MaxSize,
// PinnedPages and the derived sizes together always sees values that
// were computed from the same generation of the budget.
type MemoryData struct {
	MaxSize     int64
	PinnedPages int64
	KIn         int64
	KOut        int64
	TwoQSize    int64
}

func newMemoryData(maxSize, pinnedPages int64) MemoryData {
	twoQSize := maxSize - pinnedPages
	return MemoryData{
		MaxSize:     maxSize,
		PinnedPages: pinnedPages,
		KIn:         twoQSize / 4,
		KOut:        twoQSize / 2,
		TwoQSize:    twoQSize,
	}
}

// memoryDataHolder publishes a MemoryData snapshot behind an atomic
// pointer. Every mutation goes through update, which CAS-loops so
// concurrent budget/pin-count changes never interleave into a torn
// snapshot.
type memoryDataHolder struct {
	ptr atomic.Pointer[MemoryData]
}

func newMemoryDataHolder(initial MemoryData) *memoryDataHolder {
	h := &memoryDataHolder{}
	h.ptr.Store(&initial)
	return h
}

func (h *memoryDataHolder) load() MemoryData {
	return *h.ptr.Load()
}

// update CAS-loops, calling fn with the current snapshot until fn
// either rejects the change (returning a non-nil error, propagated
// as-is to the caller) or the swap succeeds.
func (h *memoryDataHolder) update(fn func(MemoryData) (MemoryData, error)) error {
	for {
		old := h.ptr.Load()
		next, err := fn(*old)
		if err != nil {
			return err
		}
		if h.ptr.CompareAndSwap(old, &next) {
			return nil
		}
	}
}
