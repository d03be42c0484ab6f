package pagecache

// trackPage records that (fileID, pageIndex) is resident in one of the
// four page locations (§3's filePages invariant).
func (c *Cache) trackPage(fileID, pageIndex uint64) {
	c.filesMu.Lock()
	defer c.filesMu.Unlock()
	pages, ok := c.filePages[fileID]
	if !ok {
		pages = make(map[uint64]struct{})
		c.filePages[fileID] = pages
	}
	pages[pageIndex] = struct{}{}
}

// untrackPage removes (fileID, pageIndex) from filePages.
func (c *Cache) untrackPage(fileID, pageIndex uint64) {
	c.filesMu.Lock()
	defer c.filesMu.Unlock()
	if pages, ok := c.filePages[fileID]; ok {
		delete(pages, pageIndex)
	}
}

// AddFile registers a new file with the write cache and starts an
// empty filePages entry for it.
func (c *Cache) AddFile(name string) (uint64, error) {
	fileID, err := c.writeCache.AddFile(name)
	if err != nil {
		return 0, err
	}
	c.filesMu.Lock()
	defer c.filesMu.Unlock()
	if pages, ok := c.filePages[fileID]; ok && len(pages) > 0 {
		return 0, fileContentsNotEmptyError(fileID)
	}
	c.filePages[fileID] = make(map[uint64]struct{})
	return fileID, nil
}

// AddFileWithID registers a new file under a caller-supplied id hint.
func (c *Cache) AddFileWithID(name string, fileIDHint uint64) (uint64, error) {
	fileID, err := c.writeCache.AddFileWithID(name, fileIDHint)
	if err != nil {
		return 0, err
	}
	c.filesMu.Lock()
	defer c.filesMu.Unlock()
	if pages, ok := c.filePages[fileID]; ok && len(pages) > 0 {
		return 0, fileContentsNotEmptyError(fileID)
	}
	c.filePages[fileID] = make(map[uint64]struct{})
	return fileID, nil
}

// TruncateFile truncates fileID at the write cache and drops its
// resident pages from the cache.
func (c *Cache) TruncateFile(fileID uint64) error {
	c.cacheLock.RLock()
	unlockFile := c.fileLocks.Exclusive(fileID)
	defer func() {
		unlockFile()
		c.cacheLock.RUnlock()
	}()

	if err := c.writeCache.TruncateFile(fileID); err != nil {
		return err
	}
	return c.clearFile(fileID)
}

// CloseFile closes fileID at the write cache and drops its resident
// pages from the cache.
func (c *Cache) CloseFile(fileID uint64, flush bool) error {
	c.cacheLock.RLock()
	unlockFile := c.fileLocks.Exclusive(fileID)
	defer func() {
		unlockFile()
		c.cacheLock.RUnlock()
	}()

	if err := c.writeCache.Close(fileID, flush); err != nil {
		return err
	}
	return c.clearFile(fileID)
}

// DeleteFile deletes fileID at the write cache, drops its resident
// pages, and forgets the file's lock entry.
func (c *Cache) DeleteFile(fileID uint64) error {
	c.cacheLock.RLock()
	unlockFile := c.fileLocks.Exclusive(fileID)

	err := c.writeCache.DeleteFile(fileID)
	if err == nil {
		err = c.clearFile(fileID)
	}
	if err == nil {
		c.filesMu.Lock()
		delete(c.filePages, fileID)
		c.filesMu.Unlock()
		// Forget must run before unlockFile below: once the exclusive
		// lock is released, a concurrent Exclusive(fileID)/Shared(fileID)
		// could relock the same *sync.RWMutex before Forget drops the
		// map entry, and a subsequent AddFileWithID reusing fileID would
		// then hand out a brand-new mutex while that goroutine still
		// believes it holds the old one.
		c.fileLocks.Forget(fileID)
	}

	unlockFile()
	c.cacheLock.RUnlock()
	return err
}

// clearFile evicts every page of fileID from whichever of a1in, a1out,
// am, or pinnedPages currently holds it. Called with fileID's exclusive
// file lock and cacheLock held shared. Per §9's open question, a page
// found with usagesCount > 0 is a fatal storage-consistency error: a
// concurrent load racing a file-lifecycle operation is treated as a
// programmer contract violation, not something to wait out.
func (c *Cache) clearFile(fileID uint64) error {
	c.filesMu.Lock()
	pages := c.filePages[fileID]
	indexes := make([]uint64, 0, len(pages))
	for idx := range pages {
		indexes = append(indexes, idx)
	}
	c.filesMu.Unlock()

	for _, pageIndex := range indexes {
		key := PageKey{FileID: fileID, PageIndex: pageIndex}
		unlockPage := c.pageLocks.AcquireExclusive(key)
		err := c.clearOnePage(key)
		unlockPage()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) clearOnePage(key PageKey) error {
	c.pinnedMu.Lock()
	if e, ok := c.pinned[pinnedKey(key)]; ok {
		if e.usagesCount.Load() != 0 {
			c.pinnedMu.Unlock()
			return pageInUseError(key.FileID, key.PageIndex)
		}
		delete(c.pinned, pinnedKey(key))
		c.pinnedMu.Unlock()
		if e.pointer != nil {
			e.pointer.DecrementReadersReferrer()
			e.pointer = nil
		}
		_ = c.memData.update(func(d MemoryData) (MemoryData, error) {
			return newMemoryData(d.MaxSize, d.PinnedPages-1), nil
		})
		c.untrackPage(key.FileID, key.PageIndex)
		return nil
	}
	c.pinnedMu.Unlock()

	e, ok := c.peekQueues(key)
	if !ok {
		return pageNotFoundError(key.FileID, key.PageIndex)
	}
	if e.usagesCount.Load() != 0 {
		return pageInUseError(key.FileID, key.PageIndex)
	}
	c.removeFromQueues(key)
	if e.pointer != nil {
		e.pointer.DecrementReadersReferrer()
		e.pointer = nil
	}
	c.untrackPage(key.FileID, key.PageIndex)
	return nil
}
