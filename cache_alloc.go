package pagecache

import "context"

// AllocateNewPage appends a new page to fileID and returns it with an
// exclusive intrinsic lock held and marked dirty, as LoadForWrite does.
// It always counts as both a cache request and a cache hit (§4.4).
func (c *Cache) AllocateNewPage(ctx context.Context, fileID uint64, verifyChecksums bool) (entry *CacheEntry, err error) {
	c.cacheLock.RLock()
	unlockFile := c.fileLocks.Exclusive(fileID)

	filledUpTo, err := c.writeCache.FilledUpTo(fileID)
	if err != nil {
		unlockFile()
		c.cacheLock.RUnlock()
		return nil, err
	}

	out, err := c.updateCache(ctx, fileID, filledUpTo, true, 1, verifyChecksums)
	if err == nil && out != nil {
		out.entry.usagesCount.Add(1)
	}

	unlockFile()
	c.cacheLock.RUnlock()

	if err != nil {
		return nil, err
	}
	assert(out != nil, "allocateNewPage: write cache returned no pointer for a new page")

	if out.removeColdPages {
		if evictErr := c.removeColdestPagesIfNeeded(ctx); evictErr != nil {
			// Same as loadForRead/loadForWrite (§7): release the just-
			// obtained entry's usage before rethrowing, since no caller
			// will ever hold it to release it otherwise.
			out.entry.usagesCount.Add(-1)
			return nil, evictErr
		}
	}

	c.cacheRequests.Add(1)
	c.cacheHits.Add(1)

	entry = out.entry
	entry.mu.Lock()
	entry.pointer.AcquireExclusiveLock()
	defer func() {
		if err != nil {
			entry.pointer.ReleaseExclusiveLock()
			entry.usagesCount.Add(-1)
			entry.mu.Unlock()
		}
	}()
	entry.dirty = true
	if err = c.writeCache.UpdateDirtyPagesTable(entry.pointer); err != nil {
		return nil, err
	}
	return entry, nil
}
