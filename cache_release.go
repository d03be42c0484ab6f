package pagecache

// ReleaseFromRead decrements the usage count taken by LoadForRead and
// releases the entry's shared intrinsic lock.
func (c *Cache) ReleaseFromRead(entry *CacheEntry) error {
	c.cacheLock.RLock()
	unlockFile := c.fileLocks.Shared(entry.fileID)
	unlockPage := c.pageLocks.AcquireExclusive(entry.key())

	remaining := entry.usagesCount.Add(-1)
	assert(remaining >= 0, "usagesCount went negative")

	unlockPage()
	unlockFile()
	c.cacheLock.RUnlock()

	entry.mu.RUnlock()
	return nil
}

// ReleaseFromWrite decrements the usage count taken by LoadForWrite. The
// write cache observes the updated pointer via Store BEFORE the page
// lock is released, and the CachePointer's exclusive lock is released
// only AFTER that: this ordering is a hard correctness requirement (see
// design notes), not a stylistic choice — reordering it would let a
// concurrent flush observe the dirty-pages table before the store,
// risking data loss on recovery.
func (c *Cache) ReleaseFromWrite(entry *CacheEntry) error {
	c.cacheLock.RLock()
	unlockFile := c.fileLocks.Shared(entry.fileID)
	unlockPage := c.pageLocks.AcquireExclusive(entry.key())

	remaining := entry.usagesCount.Add(-1)
	assert(remaining >= 0, "usagesCount went negative")

	storeErr := c.writeCache.Store(entry.fileID, entry.pageIndex, entry.pointer)

	unlockPage()
	unlockFile()
	c.cacheLock.RUnlock()

	pointer := entry.pointer
	entry.mu.Unlock()
	if pointer != nil {
		pointer.ReleaseExclusiveLock()
	}

	return storeErr
}
