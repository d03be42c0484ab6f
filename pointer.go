package pagecache

// CachePointer is an externally owned reference to a page buffer,
// supplied by the write cache. This package never allocates or frees
// the underlying buffer; it only ever holds a single reader reference
// per entry a pointer is attached to, released with
// DecrementReadersReferrer when that entry is evicted or cleared.
//
// Pointers returned from WriteCache.Load already carry the +1 reference
// this package will hold; it must not call an "increment" method on
// receipt, only DecrementReadersReferrer on release.
type CachePointer interface {
	// DecrementReadersReferrer releases the one reference this package
	// holds on the pointer. Called exactly once per entry the pointer
	// was ever attached to, when that entry stops being resident.
	DecrementReadersReferrer()
	// AcquireExclusiveLock takes the pointer's exclusive write lock.
	// Held by a loadForWrite caller for the lifetime of its access.
	AcquireExclusiveLock()
	// ReleaseExclusiveLock releases the exclusive write lock. Per §4.4,
	// releaseFromWrite calls this only after the write cache has been
	// told about the page (writeCache.store), never before.
	ReleaseExclusiveLock()
}
