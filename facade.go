package pagecache

import "context"

// PublicAPI is the narrow surface a caller needs to drive the cache:
// load/release pairs, pinning, allocation, file lifecycle, and the
// handful of whole-cache administrative operations. Cache implements
// it; callers that only need to exercise the cache (as opposed to
// constructing one) should depend on this interface instead of the
// concrete type, the way this package depends on WriteCache rather
// than a concrete write-cache implementation.
type PublicAPI interface {
	AddFile(name string) (uint64, error)
	AddFileWithID(name string, fileIDHint uint64) (uint64, error)

	LoadForRead(ctx context.Context, fileID, pageIndex uint64, checkPinned bool, pageCount int, verifyChecksums bool) (*CacheEntry, error)
	LoadForWrite(ctx context.Context, fileID, pageIndex uint64, checkPinned bool, pageCount int, verifyChecksums bool) (*CacheEntry, error)
	ReleaseFromRead(entry *CacheEntry) error
	ReleaseFromWrite(entry *CacheEntry) error

	PinPage(entry *CacheEntry) bool
	AllocateNewPage(ctx context.Context, fileID uint64, verifyChecksums bool) (*CacheEntry, error)

	TruncateFile(fileID uint64) error
	CloseFile(fileID uint64, flush bool) error
	DeleteFile(fileID uint64) error

	Clear() error
	CloseStorage() error
	DeleteStorage() error
	ChangeMaximumAmountOfMemory(bytes int64) error

	LoadCacheState() error
	StoreCacheState() error

	MemoryData() MemoryData
	CacheRequests() int64
	CacheHits() int64
	PinnedCount() int
	QueueSizes() (a1in, a1out, am int)
	CheckInvariants() error
}

var _ PublicAPI = (*Cache)(nil)
