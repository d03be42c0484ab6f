package pagecache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/duskdb/pagecache"
)

// TestEvictionRespectsTwoQSize checks invariant 3 (§8): after a batch
// of loads with no in-flight operation, |a1in|+|am| never exceeds
// twoQSize, which forces eviction to run well before the write cache
// would otherwise run out of room.
func TestEvictionRespectsTwoQSize(t *testing.T) {
	c, _, fileID := newTestCache(t, 8*4096, 0) // 8 pages, no pinning
	for i := uint64(0); i < 100; i++ {
		release(t, c, loadRead(t, c, fileID, i))
	}
	data := c.MemoryData()
	if data.TwoQSize != 8 {
		t.Fatalf("TwoQSize = %d, want 8", data.TwoQSize)
	}
	if a1in, _, am := c.QueueSizes(); int64(a1in+am) > data.TwoQSize {
		t.Fatalf("|a1in|+|am| = %d, exceeds TwoQSize %d", a1in+am, data.TwoQSize)
	}
}

// TestEvictionFailsWhenEverythingIsPinnedInUse exercises
// ErrAllEntriesInUse: with capacity exhausted and every resident page
// held open, an insert that needs to evict cannot free anything.
func TestEvictionFailsWhenEverythingIsPinnedInUse(t *testing.T) {
	c, _, fileID := newTestCache(t, 2*4096, 0)

	held := make([]*pagecache.CacheEntry, 0, 2)
	for i := uint64(0); i < 2; i++ {
		held = append(held, loadRead(t, c, fileID, i))
	}
	defer func() {
		for _, e := range held {
			release(t, c, e)
		}
	}()

	_, err := c.LoadForRead(context.Background(), fileID, 99, false, 1, false)
	if !errors.Is(err, pagecache.ErrAllEntriesInUse) {
		t.Fatalf("LoadForRead error = %v, want ErrAllEntriesInUse", err)
	}
}

// TestCheckCacheOverflowInterruption maps a cancelled context observed
// while cooperatively waiting inside CheckCacheOverflow to
// ErrInterrupted (§7).
func TestCheckCacheOverflowInterruption(t *testing.T) {
	wc := newFakeWriteCache()
	c, err := pagecache.New(wc, pagecache.Config{MaxMemoryBytes: 2 * 4096, PageSizeBytes: 4096})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fileID, err := c.AddFile(t.Name())
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	release(t, c, loadRead(t, c, fileID, 0))
	release(t, c, loadRead(t, c, fileID, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.LoadForRead(ctx, fileID, 2, false, 1, false)
	if !errors.Is(err, pagecache.ErrInterrupted) {
		t.Fatalf("LoadForRead error = %v, want ErrInterrupted", err)
	}
}
