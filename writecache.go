package pagecache

import "context"

// WriteCache is the external collaborator that owns physical page
// buffers. Its implementation is out of scope for this package (§1); it
// is consumed only through this interface.
type WriteCache interface {
	// AddFile registers a new file and returns its assigned id.
	AddFile(name string) (uint64, error)
	// AddFileWithID registers a new file under a caller-supplied id
	// hint. It is an error for the id to already be tracked with
	// non-empty contents.
	AddFileWithID(name string, fileIDHint uint64) (uint64, error)

	// Load materializes up to count pages starting at startIndex,
	// returning 0..count CachePointers (each already holding its own
	// +1 reference), whether the primary page was served without disk
	// I/O (writeCacheHit), and an error. A length-0, error-nil result
	// means the primary page does not exist and allocateIfMissing was
	// false: callers treat this as a miss on a non-existent page.
	Load(ctx context.Context, fileID, startIndex uint64, count int, allocateIfMissing, verifyChecksums bool) (pointers []CachePointer, writeCacheHit bool, err error)

	// Store records pointer as the current buffer for (fileID,
	// pageIndex) in the write cache's own bookkeeping.
	Store(fileID, pageIndex uint64, pointer CachePointer) error
	// UpdateDirtyPagesTable notifies the write cache that pointer now
	// holds a dirty page pending flush.
	UpdateDirtyPagesTable(pointer CachePointer) error

	// FilledUpTo returns the current logical size, in pages, of fileID.
	FilledUpTo(fileID uint64) (uint64, error)

	TruncateFile(fileID uint64) error
	// Close closes a single file, optionally flushing first.
	Close(fileID uint64, flush bool) error
	// CloseAll closes every open file and returns their ids.
	CloseAll() ([]uint64, error)
	DeleteFile(fileID uint64) error
	// DeleteAll deletes every tracked file and returns their ids.
	DeleteAll() ([]uint64, error)

	// CheckCacheOverflow may block cooperatively, waiting for dirty-page
	// flushes to make room. A ctx cancellation observed during the wait
	// must be returned as ctx.Err(), which removeColdestPagesIfNeeded
	// maps to ErrInterrupted.
	CheckCacheOverflow(ctx context.Context) error

	ID() string
	RootDirectory() string
}
