// Package pool implements the buffer pool: the cache mediating all access
// to leaf pages on disk. It owns page allocation (free-list plus
// high-water mark) and enforces strict LRU eviction that never evicts a
// page with an outstanding caller handle.
//
// The eviction/allocation policy is ported from the original C++
// BufferPool<PageType> (buffer_pool.h); the map-plus-access-order shape is
// adapted from DaemonDB's storage_engine/bufferpool/bufferpool.go, with its
// access-order slice replaced by a container/list and its
// FetchPage/UnpinPage/evictLRU roles played here by GetPage/Handle.Release/
// evictOne, adapted to single-file offset addressing and to the spec's own
// header format instead of DaemonDB's WAL-aware one.
package pool

import (
	"container/list"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"recordstore/internal/page"
)

// Sentinel errors surfaced to callers, per the taxonomy in the coordinator
// design: IoError, InvalidOffset, AllPinned, PageCorrupt.
var (
	ErrIO             = errors.New("pool: io error")
	ErrInvalidOffset  = errors.New("pool: invalid offset")
	ErrAllPinned      = errors.New("pool: all cached pages are pinned, cannot evict")
	ErrPageCorrupt    = errors.New("pool: page failed corruption check")
	ErrHeaderOverflow = errors.New("pool: discarded offset list does not fit in the header page")
)

const headerOffset uint64 = 0

type frame struct {
	offset   uint64
	page     *page.Page
	pinCount int32
	elem     *list.Element
}

// Handle is a caller-held, reference-counted alias for a cached page.
// Eviction only considers frames whose pin count has dropped back to zero
// (meaning only the pool itself holds the page).
type Handle struct {
	pool   *Pool
	frame  *frame
	offset uint64
}

// Page returns the underlying page bytes for reading or writing.
func (h *Handle) Page() *page.Page { return h.frame.page }

// Offset returns the file offset this handle refers to.
func (h *Handle) Offset() uint64 { return h.offset }

// MarkDirty flags the handle's page as needing a flush before eviction or
// close, without changing its pin count.
func (h *Handle) MarkDirty() {
	h.pool.dirty[h.offset] = true
}

// Release decrements the handle's pin count and marks the page dirty if
// the caller mutated it. A page is not necessarily flushed immediately;
// flush happens on eviction or Close.
func (h *Handle) Release(dirty bool) {
	h.pool.release(h.frame, dirty)
}

// Pool is the buffer pool over one pages.bin file.
type Pool struct {
	log      *zap.SugaredLogger
	file     *os.File
	layout   page.Layout
	capacity int

	frames map[uint64]*frame
	lru    *list.List // front = most recently used, back = least recently used
	dirty  map[uint64]bool

	emptyPagesStart uint64
	discarded       []uint64 // LIFO free list
}

// Open opens (or creates) a pages.bin file at path with the given page
// geometry and pool capacity, restoring the header page's allocation state.
func Open(path string, layout page.Layout, capacity int, log *zap.SugaredLogger) (*Pool, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if capacity < 1 {
		return nil, errors.New("pool: capacity must be >= 1")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "open %s: %v", path, err)
	}

	p := &Pool{
		log:      log,
		file:     f,
		layout:   layout,
		capacity: capacity,
		frames:   make(map[uint64]*frame),
		lru:      list.New(),
		dirty:    make(map[uint64]bool),
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	if fi.Size() == 0 {
		if err := f.Truncate(int64(layout.PageSize)); err != nil {
			return nil, errors.Wrap(ErrIO, err.Error())
		}
		p.emptyPagesStart = uint64(layout.PageSize)
		p.discarded = nil
		if err := p.writeHeader(); err != nil {
			return nil, err
		}
		return p, nil
	}

	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// Close flushes every dirty page and writes back the header page, then
// closes the underlying file.
func (p *Pool) Close() error {
	if err := p.FlushAll(); err != nil {
		return err
	}
	if err := p.writeHeader(); err != nil {
		return err
	}
	if err := p.file.Sync(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return p.file.Close()
}

func (p *Pool) validateOffset(offset uint64) error {
	if offset == page.NoNextPage {
		return errors.Wrap(ErrInvalidOffset, "sentinel offset")
	}
	if offset%uint64(p.layout.PageSize) != 0 {
		return errors.Wrapf(ErrInvalidOffset, "offset %d not page-aligned", offset)
	}
	if offset == headerOffset {
		return errors.Wrap(ErrInvalidOffset, "offset 0 is the header page")
	}
	return nil
}

// QueryPage reports whether offset is currently cached.
func (p *Pool) QueryPage(offset uint64) bool {
	_, ok := p.frames[offset]
	return ok
}

// GetPage returns a handle to the page at offset, loading it from disk on
// a cache miss. A hit promotes the entry to most-recently-used; a miss that
// installs a new entry also becomes most-recently-used.
func (p *Pool) GetPage(offset uint64) (*Handle, error) {
	if err := p.validateOffset(offset); err != nil {
		return nil, err
	}
	if fr, ok := p.frames[offset]; ok {
		p.lru.MoveToFront(fr.elem)
		fr.pinCount++
		return &Handle{pool: p, frame: fr, offset: offset}, nil
	}

	buf := make([]byte, p.layout.PageSize)
	if _, err := p.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, errors.Wrapf(ErrIO, "read offset %d: %v", offset, err)
	}
	pg, err := page.Load(p.layout, buf)
	if err != nil {
		return nil, errors.Wrapf(ErrPageCorrupt, "offset %d: %v", offset, err)
	}

	fr, err := p.install(offset, pg)
	if err != nil {
		return nil, err
	}
	fr.pinCount++
	return &Handle{pool: p, frame: fr, offset: offset}, nil
}

// GetNewPage allocates a fresh page (via the allocation policy below),
// installs it in the cache already pinned, and initializes its
// next-page-offset field to initNext (defaulting to NoNextPage).
func (p *Pool) GetNewPage(initNext ...uint64) (*Handle, uint64, error) {
	next := page.NoNextPage
	if len(initNext) > 0 {
		next = initNext[0]
	}

	offset, err := p.allocate()
	if err != nil {
		return nil, 0, err
	}

	pg := page.New(p.layout, next)
	fr, err := p.install(offset, pg)
	if err != nil {
		return nil, 0, err
	}
	fr.pinCount++
	p.dirty[offset] = true
	return &Handle{pool: p, frame: fr, offset: offset}, offset, nil
}

// allocate picks the next page offset per the documented preference order:
// high-water mark, then the discarded LIFO list, then extending the file.
func (p *Pool) allocate() (uint64, error) {
	fi, err := p.file.Stat()
	if err != nil {
		return 0, errors.Wrap(ErrIO, err.Error())
	}
	pageSize := uint64(p.layout.PageSize)

	if p.emptyPagesStart+pageSize <= uint64(fi.Size()) {
		offset := p.emptyPagesStart
		p.emptyPagesStart += pageSize
		return offset, nil
	}

	if len(p.discarded) > 0 {
		offset := p.discarded[len(p.discarded)-1]
		p.discarded = p.discarded[:len(p.discarded)-1]
		return offset, nil
	}

	offset := p.emptyPagesStart
	if err := p.file.Truncate(int64(offset + pageSize)); err != nil {
		return 0, errors.Wrap(ErrIO, err.Error())
	}
	p.emptyPagesStart += pageSize
	return offset, nil
}

// DiscardPage removes offset from the cache (flushing it first if dirty)
// and returns it to the free-space policy: if it is the very last
// allocated page, the high-water mark shrinks; otherwise it joins the
// discarded LIFO list.
func (p *Pool) DiscardPage(offset uint64) error {
	if err := p.validateOffset(offset); err != nil {
		return err
	}
	if fr, ok := p.frames[offset]; ok {
		if fr.pinCount > 1 {
			return errors.Wrapf(ErrAllPinned, "cannot discard pinned page %d", offset)
		}
		if err := p.flushFrame(fr); err != nil {
			return err
		}
		p.lru.Remove(fr.elem)
		delete(p.frames, offset)
		delete(p.dirty, offset)
	}

	pageSize := uint64(p.layout.PageSize)
	if offset+pageSize == p.emptyPagesStart {
		p.emptyPagesStart -= pageSize
	} else {
		p.discarded = append(p.discarded, offset)
	}
	return nil
}

// install inserts a freshly loaded/allocated page into the cache, evicting
// the least-recently-used unpinned frame first if the pool is at capacity.
func (p *Pool) install(offset uint64, pg *page.Page) (*frame, error) {
	if len(p.frames) >= p.capacity {
		if err := p.evictOne(); err != nil {
			return nil, err
		}
	}
	fr := &frame{offset: offset, page: pg}
	fr.elem = p.lru.PushFront(fr)
	p.frames[offset] = fr
	return fr, nil
}

// evictOne scans from the LRU tail for the first frame with no
// outstanding caller handle (pinCount == 0) and evicts it, flushing first
// if dirty. It fails with ErrAllPinned if every cached frame is held.
func (p *Pool) evictOne() error {
	for e := p.lru.Back(); e != nil; e = e.Prev() {
		fr := e.Value.(*frame)
		if fr.pinCount == 0 {
			if err := p.flushFrame(fr); err != nil {
				return err
			}
			p.lru.Remove(e)
			delete(p.frames, fr.offset)
			delete(p.dirty, fr.offset)
			p.log.Debugw("evicted page", "offset", fr.offset)
			return nil
		}
	}
	return ErrAllPinned
}

func (p *Pool) release(fr *frame, dirty bool) {
	if dirty {
		p.dirty[fr.offset] = true
	}
	if fr.pinCount > 0 {
		fr.pinCount--
	}
}

func (p *Pool) flushFrame(fr *frame) error {
	if !p.dirty[fr.offset] {
		return nil
	}
	if _, err := p.file.WriteAt(fr.page.Bytes(), int64(fr.offset)); err != nil {
		return errors.Wrapf(ErrIO, "write offset %d: %v", fr.offset, err)
	}
	delete(p.dirty, fr.offset)
	return nil
}

// FlushAll writes back every dirty cached page without evicting anything.
func (p *Pool) FlushAll() error {
	for e := p.lru.Front(); e != nil; e = e.Next() {
		fr := e.Value.(*frame)
		if err := p.flushFrame(fr); err != nil {
			return err
		}
	}
	return nil
}
