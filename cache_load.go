package pagecache

import "context"

// loadOutcome is the result of doLoad/updateCache before usage-count
// bookkeeping and lock release.
type loadOutcome struct {
	entry           *CacheEntry
	hit             bool
	removeColdPages bool
}

// doLoad implements the shared body of LoadForRead and LoadForWrite
// (§4.4); AllocateNewPage calls updateCache directly instead. It returns (nil, nil) when the primary page
// does not exist and addNewPages is false: a miss on a non-existent
// page rather than an error.
func (c *Cache) doLoad(ctx context.Context, fileID, pageIndex uint64, checkPinned, addNewPages bool, pageCount int, verifyChecksums bool) (*loadOutcome, error) {
	if pageCount < 1 {
		return nil, invalidPageCountError(pageCount)
	}

	c.cacheLock.RLock()
	unlockFile := c.fileLocks.Shared(fileID)

	if checkPinned {
		c.pinnedMu.Lock()
		e, ok := c.pinned[pinnedKey(PageKey{FileID: fileID, PageIndex: pageIndex})]
		c.pinnedMu.Unlock()
		if ok {
			e.usagesCount.Add(1)
			unlockFile()
			c.cacheLock.RUnlock()
			return &loadOutcome{entry: e, hit: true}, nil
		}
	}

	pageKeys := make([]PageKey, pageCount)
	for i := range pageKeys {
		pageKeys[i] = PageKey{FileID: fileID, PageIndex: pageIndex + uint64(i)}
	}
	unlockPages := c.pageLocks.AcquireExclusiveBatch(pageKeys)

	var out *loadOutcome
	var err error

	c.pinnedMu.Lock()
	e, pinnedAgain := c.pinned[pinnedKey(pageKeys[0])]
	c.pinnedMu.Unlock()

	if pinnedAgain {
		out = &loadOutcome{entry: e, hit: true}
	} else {
		out, err = c.updateCache(ctx, fileID, pageIndex, addNewPages, pageCount, verifyChecksums)
	}

	if err == nil && out != nil {
		out.entry.usagesCount.Add(1)
	}

	unlockPages()
	unlockFile()
	c.cacheLock.RUnlock()

	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}

	if out.removeColdPages {
		if evictErr := c.removeColdestPagesIfNeeded(ctx); evictErr != nil {
			// The entry was already admitted and its usagesCount already
			// bumped above; since no caller will ever see this entry to
			// release it, undo that bump here so it does not leak a
			// permanently non-evictable usage (§7).
			out.entry.usagesCount.Add(-1)
			return nil, evictErr
		}
	}

	c.cacheRequests.Add(1)
	if out.hit {
		c.cacheHits.Add(1)
	}

	return out, nil
}

// updateCache is the 2Q admission/promotion table of §4.6, evaluated
// under the caller's already-acquired page-key batch lock.
func (c *Cache) updateCache(ctx context.Context, fileID, pageIndex uint64, addNewPages bool, pageCount int, verifyChecksums bool) (*loadOutcome, error) {
	primary := PageKey{FileID: fileID, PageIndex: pageIndex}

	if e, ok := c.am.get(primary); ok {
		c.am.putMRU(primary, e)
		return c.finishPrefetch(&loadOutcome{entry: e, hit: true, removeColdPages: false}, fileID, pageIndex, nil), nil
	}

	var pointers []CachePointer
	var out *loadOutcome

	if e, ok := c.a1out.remove(primary); ok {
		var err error
		pointers, out, err = c.fetchAndPromoteFromA1Out(ctx, fileID, pageIndex, pageCount, verifyChecksums, e)
		if err != nil {
			return nil, err
		}
	} else if e, ok := c.a1in.get(primary); ok {
		out = &loadOutcome{entry: e, hit: true, removeColdPages: false}
	} else {
		var writeCacheHit bool
		var err error
		pointers, writeCacheHit, err = c.writeCache.Load(ctx, fileID, pageIndex, pageCount, addNewPages, verifyChecksums)
		if err != nil {
			return nil, err
		}
		if len(pointers) == 0 {
			return nil, nil
		}
		entry := c.insertAbsent(primary, pointers[0])
		out = &loadOutcome{entry: entry, hit: writeCacheHit, removeColdPages: true}
	}

	return c.finishPrefetch(out, fileID, pageIndex, pointers), nil
}

// finishPrefetch runs processFetchedPage over pointers[1:], accumulating
// removeColdPages by OR (§4.6). Sibling i corresponds to key (fileID,
// pageIndex+i): WriteCache.Load's contract guarantees a contiguous
// return starting at the requested index.
func (c *Cache) finishPrefetch(out *loadOutcome, fileID, pageIndex uint64, pointers []CachePointer) *loadOutcome {
	for i := 1; i < len(pointers); i++ {
		key := PageKey{FileID: fileID, PageIndex: pageIndex + uint64(i)}
		if c.processFetchedPage(key, pointers[i]) {
			out.removeColdPages = true
		}
	}
	return out
}

// fetchAndPromoteFromA1Out materializes the primary page (previously a
// ghost in a1out) and promotes it into am.
func (c *Cache) fetchAndPromoteFromA1Out(ctx context.Context, fileID, pageIndex uint64, pageCount int, verifyChecksums bool, ghost *CacheEntry) ([]CachePointer, *loadOutcome, error) {
	pointers, writeCacheHit, err := c.writeCache.Load(ctx, fileID, pageIndex, pageCount, false, verifyChecksums)
	if err != nil {
		return nil, nil, err
	}
	assert(len(pointers) > 0, "a1out ghost missing on write cache reload")
	assert(ghost.pointer == nil, "a1out entry retains pointer")
	ghost.pointer = pointers[0]
	c.am.putMRU(PageKey{FileID: fileID, PageIndex: pageIndex}, ghost)
	return pointers, &loadOutcome{entry: ghost, hit: writeCacheHit, removeColdPages: true}, nil
}

// insertAbsent creates a brand-new resident entry for a key found in
// none of the queues, inserting it at the MRU end of a1in.
func (c *Cache) insertAbsent(key PageKey, pointer CachePointer) *CacheEntry {
	e := newCacheEntry(key.FileID, key.PageIndex, pointer)
	c.a1in.putMRU(key, e)
	c.trackPage(key.FileID, key.PageIndex)
	return e
}

// processFetchedPage applies the prefetch-specific variant of the
// admission table to a sibling page beyond the primary (§4.6).
func (c *Cache) processFetchedPage(key PageKey, pointer CachePointer) bool {
	c.pinnedMu.Lock()
	_, pinned := c.pinned[pinnedKey(key)]
	c.pinnedMu.Unlock()
	if pinned {
		pointer.DecrementReadersReferrer()
		return false
	}

	if e, ok := c.am.get(key); ok {
		c.am.putMRU(key, e)
		pointer.DecrementReadersReferrer()
		return false
	}

	if ghost, ok := c.a1out.remove(key); ok {
		assert(ghost.pointer == nil, "a1out entry retains pointer")
		ghost.pointer = pointer
		c.am.putMRU(key, ghost)
		return true
	}

	if _, ok := c.a1in.get(key); ok {
		pointer.DecrementReadersReferrer()
		return false
	}

	c.insertAbsent(key, pointer)
	return true
}

// LoadForRead returns the entry for (fileID, pageIndex), materializing
// it from the write cache on a miss, with a shared intrinsic lock
// already acquired. The caller must call ReleaseFromRead exactly once.
func (c *Cache) LoadForRead(ctx context.Context, fileID, pageIndex uint64, checkPinned bool, pageCount int, verifyChecksums bool) (*CacheEntry, error) {
	out, err := c.doLoad(ctx, fileID, pageIndex, checkPinned, false, pageCount, verifyChecksums)
	if err != nil || out == nil {
		return nil, err
	}
	out.entry.mu.RLock()
	return out.entry, nil
}

// LoadForWrite is LoadForRead, except the intrinsic lock is acquired
// exclusively, the entry is marked dirty, and the write cache's dirty
// pages table is notified with the current pointer.
func (c *Cache) LoadForWrite(ctx context.Context, fileID, pageIndex uint64, checkPinned bool, pageCount int, verifyChecksums bool) (entry *CacheEntry, err error) {
	out, err := c.doLoad(ctx, fileID, pageIndex, checkPinned, false, pageCount, verifyChecksums)
	if err != nil || out == nil {
		return nil, err
	}
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
