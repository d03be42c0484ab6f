package pagecache

import (
	"math"
	"sync"
	"sync/atomic"
)

// minEnforcedCapacityPages is the effective floor on capacity when
// Config.EnforceMinCacheSize is set and the requested budget computes
// to fewer pages than this (§6).
const minEnforcedCapacityPages = 256

// maxPinnedPageWarnings caps the number of "pinned pages would exceed
// limit" warnings pinPage will surface before it goes silent; the
// counter is process-wide, not per-file (§9).
const maxPinnedPageWarnings = 8

// Config carries the constructor arguments of §6:
// (readCacheMaxMemoryBytes, pageSizeBytes, enforceMinCacheSize,
// percentOfPinnedPages, printStatistics, statisticsIntervalSeconds).
type Config struct {
	MaxMemoryBytes       int64
	PageSizeBytes        int64
	EnforceMinCacheSize  bool
	PercentOfPinnedPages int32

	// PrintStatistics and StatisticsIntervalSeconds are accepted for
	// constructor-signature compatibility with a caller migrating from
	// a version of this cache that reported statistics on a timer.
	// Periodic statistics reporting is out of scope for this package
	// (§1); New ignores these fields.
	PrintStatistics           bool
	StatisticsIntervalSeconds int32
}

// Cache is the 2Q read cache core. Constructed with New.
type Cache struct {
	writeCache WriteCache
	pageSize   int64
	percent    int32

	cacheLock sync.RWMutex

	a1in  *lruList[PageKey, *CacheEntry]
	a1out *lruList[PageKey, *CacheEntry]
	am    *lruList[PageKey, *CacheEntry]

	pinnedMu sync.Mutex
	pinned   map[PinnedPage]*CacheEntry

	filesMu   sync.Mutex
	filePages map[uint64]map[uint64]struct{}

	pageLocks *PageLockManager
	fileLocks *FileLockManager

	memData *memoryDataHolder

	cacheRequests  atomic.Int64
	cacheHits      atomic.Int64
	pinnedWarnings atomic.Int32
}

// New constructs a Cache backed by wc. It returns ErrInvalidArgument if
// cfg.PercentOfPinnedPages exceeds 50.
func New(wc WriteCache, cfg Config) (*Cache, error) {
	if cfg.PercentOfPinnedPages > 50 {
		return nil, invalidPercentError(cfg.PercentOfPinnedPages)
	}
	pageCount := cfg.MaxMemoryBytes / cfg.PageSizeBytes
	if cfg.EnforceMinCacheSize && pageCount < minEnforcedCapacityPages {
		pageCount = minEnforcedCapacityPages
	}
	if pageCount > math.MaxInt32 {
		pageCount = math.MaxInt32
	}
	c := &Cache{
		writeCache: wc,
		pageSize:   cfg.PageSizeBytes,
		percent:    cfg.PercentOfPinnedPages,
		a1in:       newLRUList[PageKey, *CacheEntry](),
		a1out:      newLRUList[PageKey, *CacheEntry](),
		am:         newLRUList[PageKey, *CacheEntry](),
		pinned:     make(map[PinnedPage]*CacheEntry),
		filePages:  make(map[uint64]map[uint64]struct{}),
		pageLocks:  NewPageLockManager(defaultPageLockStripes),
		fileLocks:  NewFileLockManager(),
		memData:    newMemoryDataHolder(newMemoryData(pageCount, 0)),
	}
	return c, nil
}

// MemoryData returns the current budget snapshot.
func (c *Cache) MemoryData() MemoryData { return c.memData.load() }

// CacheRequests returns the number of load/allocate requests that
// returned an entry. Loads served by the checkPinned fast path and loads
// that return no entry or an error are not counted.
func (c *Cache) CacheRequests() int64 { return c.cacheRequests.Load() }

// CacheHits returns the number of requests served without a write-cache
// disk read, per WriteCache.Load's writeCacheHit output.
func (c *Cache) CacheHits() int64 { return c.cacheHits.Load() }

// PinnedCount returns the number of currently pinned pages.
func (c *Cache) PinnedCount() int {
	c.pinnedMu.Lock()
	defer c.pinnedMu.Unlock()
	return len(c.pinned)
}
