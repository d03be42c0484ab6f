// Package pagecache implements the read-side page cache of an embedded
// storage engine: a 2Q admission/eviction policy sitting in front of a
// lower-level write cache that owns the physical page buffers.
//
// The cache is organized as three recency structures plus a pinned-page
// table, following the [2Q algorithm] rather than plain LRU, specifically
// to resist sequential-scan pollution.
//
// Glossary and invariants:
//
//   - PageKey
//
//     Addressing tuple (fileID, pageIndex). Total order lexicographic on
//     (fileID, pageIndex); used to sort keys for deadlock-free batch locking.
//
//   - a1in
//
//     FIFO of recently admitted, resident pages. First stop for a miss.
//
//   - a1out
//
//     Ghost queue: keys evicted from a1in, data NOT resident. A hit here
//     promotes the page (once refetched) to am.
//
//   - am
//
//     LRU of pages accessed at least twice; the hot set.
//
//   - pinnedPages
//
//     Pages excluded from the three queues entirely, exempt from
//     eviction, capped as a percentage of total capacity.
//
//   - CacheEntry
//
//     One resident (or ghost) page: fileID, pageIndex, an externally
//     owned CachePointer (nil while parked in a1out), a usage count, and
//     an intrinsic reader-writer lock held by callers between a load and
//     its matching release.
//
//   - CachePointer
//
//     Reference-counted buffer handle owned by the write cache. This
//     package never allocates or frees buffers, only tracks the one
//     reference it holds while a pointer is attached to an entry.
//
// Operations:
//
//   - Admission
//
//     A miss fetches from the write cache and inserts into a1in. A hit
//     in a1out promotes the page (now refetched) to am. A hit in am
//     moves it to the MRU end of am. A hit in a1in does not move it
//     (a1in is a FIFO, not an LRU).
//
//   - Eviction
//
//     Runs whenever |a1in| + |am| exceeds twoQSize = maxSize - pinnedPages.
//     a1in sheds its LRU entry into a1out (dropping the buffer reference)
//     once |a1in| > K_IN; a1out itself is capped at K_OUT. Once a1in is
//     within budget, am sheds its LRU entry outright, no ghost kept.
//
//   - Pinning
//
//     A page can be moved out of the queues into pinnedPages, exempt
//     from eviction, as long as the pinned set stays within
//     percentOfPinnedPages of total capacity.
//
// Counts and targets:
//
//   - K_IN = twoQSize/4, K_OUT = twoQSize/2, twoQSize = maxSize - pinnedPages.
//
//     Recomputed atomically as a single MemoryData snapshot whenever
//     maxSize or pinnedPages changes; callers needing a consistent view
//     across both derived values must read the snapshot once.
//
//   - usagesCount
//
//     Per-entry count of concurrent load/release holders. Above zero
//     guarantees the entry is neither evictable nor removable.
//
// Lock hierarchy (acquired in this order, released in reverse): cacheLock,
// then the per-file lock, then per-page lock(s) (sorted for batched
// acquisition), then the entry's intrinsic lock, then the CachePointer's
// exclusive lock.
//
// [2Q algorithm]: https://www.vldb.org/conf/1994/P439.PDF
package pagecache
