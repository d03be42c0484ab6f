package pagecache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/duskdb/pagecache"
)

// errUnknownFile is returned by fake operations addressed at a fileID
// the fake has no record of, most commonly a file deleted by a
// concurrent DeleteFile/DeleteStorage racing the caller. Workload tests
// that drive file-lifecycle deletion under contention treat this the
// same way they treat pagecache's own race sentinels.
var errUnknownFile = errors.New("fakeWriteCache: unknown file")

// errFileHasContents mirrors pagecache's fileContentsNotEmptyError at
// the write-cache layer: AddFileWithID racing another goroutine's
// concurrent load into the same recycled id.
var errFileHasContents = errors.New("fakeWriteCache: file already has contents")

// fakePointer is a minimal CachePointer: a reference count and an
// exclusive lock, with no backing bytes since this package never reads
// or writes page contents.
type fakePointer struct {
	fileID, pageIndex uint64

	mu   sync.Mutex
	refs int32

	log *opLog // non-nil only in tests that assert release ordering
}

func (p *fakePointer) DecrementReadersReferrer() {
	if p.refs <= 0 {
		panic("fakePointer: reference count went negative")
	}
	p.refs--
}

func (p *fakePointer) AcquireExclusiveLock() { p.mu.Lock() }

func (p *fakePointer) ReleaseExclusiveLock() {
	if p.log != nil {
		p.log.add(fmt.Sprintf("release:%d:%d", p.fileID, p.pageIndex))
	}
	p.mu.Unlock()
}

// opLog records a sequence of events under a mutex, for tests that need
// to assert relative ordering across goroutine-free single-threaded
// call sequences.
type opLog struct {
	mu     sync.Mutex
	events []string
}

func (l *opLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *opLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeFile struct {
	name  string
	pages map[uint64]*fakePointer
	size  uint64 // one past the highest allocated pageIndex
}

// fakeFilePages bounds the pages a read materializes on demand: a Load
// without allocateIfMissing creates any missing page below this index,
// and reports pages at or beyond it as nonexistent.
const fakeFilePages = 4096

// fakeWriteCache is an in-memory stand-in for the external write cache
// (§6): it materializes pages on demand (reads below fakeFilePages, or
// any page when allocation is requested) and never actually persists or
// evicts anything on its own. Overflow is never signaled unless a test
// opts in via overErr.
type fakeWriteCache struct {
	mu      sync.Mutex
	nextID  uint64
	files   map[uint64]*fakeFile
	dirty   map[*fakePointer]bool
	stores  []storeCall
	log     *opLog
	overErr error
}

type storeCall struct {
	fileID, pageIndex uint64
	pointer           pagecache.CachePointer
}

func newFakeWriteCache() *fakeWriteCache {
	return &fakeWriteCache{
		files: make(map[uint64]*fakeFile),
		dirty: make(map[*fakePointer]bool),
	}
}

func (w *fakeWriteCache) AddFile(name string) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	id := w.nextID
	w.files[id] = &fakeFile{name: name, pages: make(map[uint64]*fakePointer)}
	return id, nil
}

func (w *fakeWriteCache) AddFileWithID(name string, fileIDHint uint64) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f, ok := w.files[fileIDHint]; ok && len(f.pages) > 0 {
		return 0, fmt.Errorf("%w: %d", errFileHasContents, fileIDHint)
	}
	w.files[fileIDHint] = &fakeFile{name: name, pages: make(map[uint64]*fakePointer)}
	if fileIDHint >= w.nextID {
		w.nextID = fileIDHint
	}
	return fileIDHint, nil
}

func (w *fakeWriteCache) Load(_ context.Context, fileID, startIndex uint64, count int, allocateIfMissing, _ bool) ([]pagecache.CachePointer, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.files[fileID]
	if !ok {
		return nil, false, fmt.Errorf("%w: %d", errUnknownFile, fileID)
	}

	var out []pagecache.CachePointer
	hit := false
	for i := 0; i < count; i++ {
		idx := startIndex + uint64(i)
		p, exists := f.pages[idx]
		if !exists {
			if !allocateIfMissing && idx >= fakeFilePages {
				break
			}
			p = &fakePointer{fileID: fileID, pageIndex: idx, refs: 1, log: w.log}
			f.pages[idx] = p
			if idx+1 > f.size {
				f.size = idx + 1
			}
		} else {
			p.refs++
			if i == 0 {
				hit = true
			}
		}
		out = append(out, p)
	}
	return out, hit, nil
}

func (w *fakeWriteCache) Store(fileID, pageIndex uint64, pointer pagecache.CachePointer) error {
	if w.log != nil {
		w.log.add(fmt.Sprintf("store:%d:%d", fileID, pageIndex))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stores = append(w.stores, storeCall{fileID, pageIndex, pointer})
	return nil
}

func (w *fakeWriteCache) UpdateDirtyPagesTable(pointer pagecache.CachePointer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty[pointer.(*fakePointer)] = true
	return nil
}

func (w *fakeWriteCache) FilledUpTo(fileID uint64) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[fileID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", errUnknownFile, fileID)
	}
	return f.size, nil
}

func (w *fakeWriteCache) TruncateFile(fileID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[fileID]
	if !ok {
		return fmt.Errorf("%w: %d", errUnknownFile, fileID)
	}
	f.pages = make(map[uint64]*fakePointer)
	f.size = 0
	return nil
}

func (w *fakeWriteCache) Close(uint64, bool) error { return nil }

func (w *fakeWriteCache) CloseAll() ([]uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]uint64, 0, len(w.files))
	for id := range w.files {
		ids = append(ids, id)
	}
	return ids, nil
}

func (w *fakeWriteCache) DeleteFile(fileID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, fileID)
	return nil
}

func (w *fakeWriteCache) DeleteAll() ([]uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]uint64, 0, len(w.files))
	for id := range w.files {
		ids = append(ids, id)
	}
	w.files = make(map[uint64]*fakeFile)
	return ids, nil
}

func (w *fakeWriteCache) CheckCacheOverflow(ctx context.Context) error {
	if w.overErr != nil {
		return w.overErr
	}
	return ctx.Err()
}

func (w *fakeWriteCache) ID() string            { return "fake" }
func (w *fakeWriteCache) RootDirectory() string { return "" }

var _ pagecache.WriteCache = (*fakeWriteCache)(nil)
