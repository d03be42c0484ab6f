package pagecache

import "fmt"

// QueueSizes reports the current resident counts of the three 2Q
// queues. Exposed the way the pack's caches surface internal state via
// plain accessors (e.g. Len, Keys) rather than requiring a caller to
// reach into unexported fields.
func (c *Cache) QueueSizes() (a1in, a1out, am int) {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()
	return c.a1in.size(), c.a1out.size(), c.am.size()
}

// CheckInvariants walks every queue, the pinned table, and filePages and
// returns an error at the first violation of §3's global invariants:
// queue-membership exclusivity, usagesCount non-negativity, filePages
// tracking exactly the pages resident somewhere, and |a1in|+|am| staying
// within twoQSize. It takes cacheLock exclusively for the walk, so it is
// meant for tests and operational health checks, not the hot path.
func (c *Cache) CheckInvariants() error {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	seen := make(map[PageKey]struct{})
	walk := func(list *lruList[PageKey, *CacheEntry], name string) error {
		for key, e := range list.values {
			if _, dup := seen[key]; dup {
				return fmt.Errorf("pagecache: page %d:%d present in more than one queue (also in %s)", key.FileID, key.PageIndex, name)
			}
			seen[key] = struct{}{}
			if e.usagesCount.Load() < 0 {
				return fmt.Errorf("pagecache: page %d:%d has negative usagesCount in %s", key.FileID, key.PageIndex, name)
			}
		}
		return nil
	}
	if err := walk(c.a1in, "a1in"); err != nil {
		return err
	}
	if err := walk(c.a1out, "a1out"); err != nil {
		return err
	}
	if err := walk(c.am, "am"); err != nil {
		return err
	}

	c.pinnedMu.Lock()
	for key, e := range c.pinned {
		pk := key.pageKey()
		if _, dup := seen[pk]; dup {
			c.pinnedMu.Unlock()
			return fmt.Errorf("pagecache: page %d:%d present in pinnedPages and a queue", pk.FileID, pk.PageIndex)
		}
		seen[pk] = struct{}{}
		if e.usagesCount.Load() < 0 {
			c.pinnedMu.Unlock()
			return fmt.Errorf("pagecache: page %d:%d has negative usagesCount in pinnedPages", pk.FileID, pk.PageIndex)
		}
	}
	c.pinnedMu.Unlock()

	c.filesMu.Lock()
	tracked := 0
	for fileID, pages := range c.filePages {
		for pageIndex := range pages {
			tracked++
			if _, ok := seen[PageKey{FileID: fileID, PageIndex: pageIndex}]; !ok {
				c.filesMu.Unlock()
				return fmt.Errorf("pagecache: filePages tracks %d:%d, absent from every queue and pinnedPages", fileID, pageIndex)
			}
		}
	}
	c.filesMu.Unlock()
	if tracked != len(seen) {
		return fmt.Errorf("pagecache: filePages tracks %d pages, but %d are resident across queues/pinnedPages", tracked, len(seen))
	}

	data := c.memData.load()
	if int64(c.a1in.size()+c.am.size()) > data.TwoQSize {
		return fmt.Errorf("pagecache: |a1in|+|am| = %d exceeds twoQSize %d", c.a1in.size()+c.am.size(), data.TwoQSize)
	}
	return nil
}
