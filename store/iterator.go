package store

import (
	"recordstore/internal/page"
	"recordstore/internal/pool"
)

// Iter is a forward cursor pair (page handle, page iterator) spanning the
// leaf list via next-page-offset. Advancing past a page's last record
// acquires a new handle to the following leaf and releases the old one.
// Backward iteration is intentionally limited to within a single page (see
// page.Iter.Prev); the store itself only exposes forward Next.
type Iter struct {
	store    *Store
	handle   *pool.Handle
	pageIter page.Iter
}

// Valid reports whether the iterator refers to a real record.
func (it Iter) Valid() bool { return it.handle != nil && it.pageIter.Valid() }

// Record returns the full record at the cursor.
func (it Iter) Record() []byte { return it.pageIter.Record() }

// Release releases the iterator's underlying page handle. Safe to call on
// an already-released or end iterator.
func (it Iter) Release() {
	if it.handle != nil {
		it.handle.Release(false)
	}
}

// Begin returns an iterator to the first record of the leftmost leaf, or
// End if the store has no records.
func (s *Store) Begin() (Iter, error) {
	bit := s.idx.Begin()
	if !bit.Valid() {
		return s.End(), nil
	}
	h, err := s.pool.GetPage(s.offsetForPageID(bit.PageID()))
	if err != nil {
		return Iter{}, err
	}
	return s.firstNonEmptyFrom(h)
}

// End returns the store's past-the-end iterator.
func (s *Store) End() Iter { return Iter{store: s} }

// firstNonEmptyFrom returns an iterator to h's minimum record, walking
// forward through next-page-offset if h happens to be empty (a bootstrap
// leaf that never received records, or a leaf whose records were all
// erased).
func (s *Store) firstNonEmptyFrom(h *pool.Handle) (Iter, error) {
	for {
		pit := h.Page().Min()
		if pit.Valid() {
			return Iter{store: s, handle: h, pageIter: pit}, nil
		}
		next := h.Page().NextPageOffset()
		h.Release(false)
		if next == page.NoNextPage {
			return s.End(), nil
		}
		var err error
		h, err = s.pool.GetPage(next)
		if err != nil {
			return Iter{}, err
		}
	}
}

// Next advances the iterator by one record, crossing into the next leaf
// through the pool when the current page is exhausted.
func (it Iter) Next() (Iter, error) {
	if !it.Valid() {
		return it, nil
	}
	nxt := it.pageIter.Next()
	if nxt.Valid() {
		return Iter{store: it.store, handle: it.handle, pageIter: nxt}, nil
	}
	next := it.handle.Page().NextPageOffset()
	it.handle.Release(false)
	if next == page.NoNextPage {
		return it.store.End(), nil
	}
	h, err := it.store.pool.GetPage(next)
	if err != nil {
		return Iter{}, err
	}
	return it.store.firstNonEmptyFrom(h)
}
