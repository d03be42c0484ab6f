package pagecache

import "context"

// removeColdestPagesIfNeeded brings |a1in|+|am| back within twoQSize. It
// may be called with no locks held: it first gives the write cache a
// chance to drain dirty pages via CheckCacheOverflow, then takes
// cacheLock exclusively for the actual eviction loop.
func (c *Cache) removeColdestPagesIfNeeded(ctx context.Context) error {
	if err := c.writeCache.CheckCacheOverflow(ctx); err != nil {
		if ctx.Err() != nil {
			return interruptedError(err)
		}
		return err
	}

	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	for {
		data := c.memData.load()
		if int64(c.a1in.size()+c.am.size()) <= data.TwoQSize {
			return nil
		}
		if int64(c.a1in.size()) > data.KIn {
			if err := c.evictFromA1In(data); err != nil {
				return err
			}
			continue
		}
		if err := c.evictFromAm(); err != nil {
			return err
		}
	}
}

// evictFromA1In pops the coldest a1in entry, drops its buffer, and
// parks it as a ghost in a1out, then trims a1out back to KOut.
func (c *Cache) evictFromA1In(data MemoryData) error {
	key, e, ok := c.a1in.removeColdestUnused(entryInUse)
	if !ok {
		return ErrAllEntriesInUse
	}
	if e.pointer != nil {
		e.pointer.DecrementReadersReferrer()
		e.pointer = nil
	}
	c.a1out.putMRU(key, e)

	for int64(c.a1out.size()) > data.KOut {
		lruKey, lru, ok := c.a1out.removeLRU()
		if !ok {
			break
		}
		assert(lru.usagesCount.Load() == 0, "a1out entry in use")
		assert(lru.pointer == nil, "a1out entry retains pointer")
		c.untrackPage(lruKey.FileID, lruKey.PageIndex)
	}
	return nil
}

// evictFromAm pops the coldest unused am entry and discards it
// outright: am entries never become ghosts.
func (c *Cache) evictFromAm() error {
	key, e, ok := c.am.removeColdestUnused(entryInUse)
	if !ok {
		return ErrAllEntriesInUse
	}
	if e.pointer != nil {
		e.pointer.DecrementReadersReferrer()
		e.pointer = nil
	}
	c.untrackPage(key.FileID, key.PageIndex)
	return nil
}

func entryInUse(e *CacheEntry) bool { return e.usagesCount.Load() != 0 }
