package pagecache

import "math"

// Clear empties every queue, the pinned table, and filePages, releasing
// one reader reference per still-attached buffer. An entry found with
// usagesCount > 0 makes the whole operation fail: callers must ensure
// no load is outstanding before calling Clear.
func (c *Cache) Clear() error {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()
	return c.clearLocked()
}

func (c *Cache) clearLocked() error {
	c.pinnedMu.Lock()
	pinnedCount := int64(0)
	for key, e := range c.pinned {
		if e.usagesCount.Load() != 0 {
			c.pinnedMu.Unlock()
			return pageInUseError(key.FileID, key.PageIndex)
		}
	}
	for _, e := range c.pinned {
		if e.pointer != nil {
			e.pointer.DecrementReadersReferrer()
			e.pointer = nil
		}
		pinnedCount++
	}
	c.pinned = make(map[PinnedPage]*CacheEntry)
	c.pinnedMu.Unlock()

	for _, list := range []*lruList[PageKey, *CacheEntry]{c.a1in, c.am} {
		for key, e := range list.values {
			if e.usagesCount.Load() != 0 {
				return pageInUseError(key.FileID, key.PageIndex)
			}
		}
	}
	for _, list := range []*lruList[PageKey, *CacheEntry]{c.a1in, c.am} {
		for _, e := range list.values {
			if e.pointer != nil {
				e.pointer.DecrementReadersReferrer()
				e.pointer = nil
			}
		}
		list.clear()
	}
	c.a1out.clear()

	c.filesMu.Lock()
	c.filePages = make(map[uint64]map[uint64]struct{})
	c.filesMu.Unlock()

	if pinnedCount > 0 {
		return c.memData.update(func(d MemoryData) (MemoryData, error) {
			return newMemoryData(d.MaxSize, 0), nil
		})
	}
	return nil
}

// CloseStorage asks the write cache for its currently open file ids and
// clears each from the cache before returning.
func (c *Cache) CloseStorage() error {
	ids, err := c.writeCache.CloseAll()
	if err != nil {
		return err
	}
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()
	for _, fileID := range ids {
		if err := c.clearFile(fileID); err != nil {
			return err
		}
		c.filesMu.Lock()
		delete(c.filePages, fileID)
		c.filesMu.Unlock()
	}
	return nil
}

// DeleteStorage asks the write cache to delete every tracked file,
// clears each from the cache, and would remove the persisted state
// file if this package produced one (§6, §9: reserved, not produced).
func (c *Cache) DeleteStorage() error {
	ids, err := c.writeCache.DeleteAll()
	if err != nil {
		return err
	}
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()
	for _, fileID := range ids {
		if err := c.clearFile(fileID); err != nil {
			return err
		}
		c.filesMu.Lock()
		delete(c.filePages, fileID)
		c.filesMu.Unlock()
		c.fileLocks.Forget(fileID)
	}
	return nil
}

// ChangeMaximumAmountOfMemory recomputes MaxSize from bytes. Shrinking
// does not force eviction; the next load brings the cache back within
// budget (§4.8, §9 — the original disables this path's eviction
// trigger and this package preserves that).
func (c *Cache) ChangeMaximumAmountOfMemory(bytes int64) error {
	newSize := bytes / c.pageSize
	if newSize > math.MaxInt32 {
		newSize = math.MaxInt32
	}
	return c.memData.update(func(d MemoryData) (MemoryData, error) {
		if newSize > 0 && 100*d.PinnedPages/newSize > int64(c.percent) {
			return d, budgetExceedsPinnedRatioError(newSize, d.PinnedPages, c.percent)
		}
		return newMemoryData(newSize, d.PinnedPages), nil
	})
}

// LoadCacheState is a no-op kept for facade compatibility (§4.4, §9):
// this package reserves the persistence format but does not produce or
// consume it.
func (c *Cache) LoadCacheState() error { return nil }

// StoreCacheState is a no-op kept for facade compatibility (§4.4, §9).
func (c *Cache) StoreCacheState() error { return nil }
