package pagecache

import (
	"sync"
	"sync/atomic"
)

// CacheEntry is one resident (or ghost, while parked in a1out) page.
//
// usagesCount and cachePointer are mutated only while the owning
// PageLockManager key's exclusive lock is held (queue moves, pointer
// swap, usages++/--), except for the pinned fast path (§4.3), which
// increments the atomic usagesCount without taking the per-page lock.
// mu is the entry's own intrinsic lock, acquired shared for
// readers and exclusive for writers between a load and its matching
// release; it is a distinct lock role from the per-page lock, held
// across a much longer span (the caller's use of the page) rather than
// just the queue-membership mutation.
type CacheEntry struct {
	fileID    uint64
	pageIndex uint64

	mu sync.RWMutex

	pointer     CachePointer // nil while parked in a1out.
	usagesCount atomic.Int32
	dirty       bool
}

func newCacheEntry(fileID, pageIndex uint64, pointer CachePointer) *CacheEntry {
	return &CacheEntry{fileID: fileID, pageIndex: pageIndex, pointer: pointer}
}

// FileID returns the entry's file identifier.
func (e *CacheEntry) FileID() uint64 { return e.fileID }

// PageIndex returns the entry's page index within its file.
func (e *CacheEntry) PageIndex() uint64 { return e.pageIndex }

// Pointer returns the entry's attached buffer reference. Valid for the
// lifetime of the caller's usage (between load and release); nil is
// only possible if called on an entry that is not currently in use,
// which is a caller error.
func (e *CacheEntry) Pointer() CachePointer { return e.pointer }

func (e *CacheEntry) key() PageKey {
	return PageKey{FileID: e.fileID, PageIndex: e.pageIndex}
}
