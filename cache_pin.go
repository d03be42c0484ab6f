package pagecache

import "context"

// PinPage pins entry, excluding it from eviction and the 2Q queues.
// Pinning is capped at Config.PercentOfPinnedPages percent of capacity;
// once the cap is hit, PinPage declines and returns false rather than
// failing the caller's operation. Each decline also bumps the
// PinnedWarnings counter, which stops at maxPinnedPageWarnings.
func (c *Cache) PinPage(entry *CacheEntry) (pinned bool) {
	data := c.memData.load()
	if data.MaxSize > 0 && 100*(data.PinnedPages+1)/data.MaxSize > c.percentInt64() {
		// Warning count is exposed via PinnedWarnings, capped at
		// maxPinnedPageWarnings; no logging sink is wired at this
		// layer (§1).
		if n := c.pinnedWarnings.Load(); n < maxPinnedPageWarnings {
			c.pinnedWarnings.CompareAndSwap(n, n+1)
		}
		return false
	}

	c.cacheLock.RLock()
	unlockFile := c.fileLocks.Shared(entry.fileID)
	unlockPage := c.pageLocks.AcquireExclusive(entry.key())

	c.removeFromQueues(entry.key())
	c.pinnedMu.Lock()
	c.pinned[pinnedKey(entry.key())] = entry
	c.pinnedMu.Unlock()

	unlockPage()
	unlockFile()
	c.cacheLock.RUnlock()

	if err := c.memData.update(func(d MemoryData) (MemoryData, error) {
		return newMemoryData(d.MaxSize, d.PinnedPages+1), nil
	}); err != nil {
		return false
	}

	_ = c.removeColdestPagesIfNeeded(context.Background())
	return true
}

// percentInt64 widens the configured percentage for the overflow-safe
// comparison in PinPage.
func (c *Cache) percentInt64() int64 { return int64(c.percent) }

// PinnedWarnings returns how many times PinPage has declined to pin a
// page because the configured percentage would be exceeded, capped at
// maxPinnedPageWarnings.
func (c *Cache) PinnedWarnings() int32 { return c.pinnedWarnings.Load() }

// removeFromQueues extracts key from whichever of a1in/a1out/am
// currently holds it, if any. Used by PinPage; a no-op if key is not
// resident in any queue (e.g. it is already pinned).
func (c *Cache) removeFromQueues(key PageKey) (*CacheEntry, bool) {
	if e, ok := c.a1in.remove(key); ok {
		return e, true
	}
	if e, ok := c.a1out.remove(key); ok {
		return e, true
	}
	if e, ok := c.am.remove(key); ok {
		return e, true
	}
	return nil, false
}

// peekQueues looks up key in a1in/a1out/am without removing it, so a
// caller can validate an entry (e.g. its usagesCount) before deciding
// whether to remove it.
func (c *Cache) peekQueues(key PageKey) (*CacheEntry, bool) {
	if e, ok := c.a1in.get(key); ok {
		return e, true
	}
	if e, ok := c.a1out.get(key); ok {
		return e, true
	}
	if e, ok := c.am.get(key); ok {
		return e, true
	}
	return nil, false
}
