package store

import (
	"bytes"

	"recordstore/internal/page"
)

// SearchLB returns an iterator to the first record >= key within the leaf
// the branch index maps key to, or End if that leaf holds no such record.
// Following leaves are not searched.
func (s *Store) SearchLB(key []byte) (Iter, error) {
	pid, ok := s.idx.FindPage(key)
	if !ok {
		return s.End(), nil
	}
	h, err := s.pool.GetPage(s.offsetForPageID(pid))
	if err != nil {
		return Iter{}, err
	}
	pit := h.Page().SearchLB(key)
	if !pit.Valid() {
		h.Release(false)
		return s.End(), nil
	}
	return Iter{store: s, handle: h, pageIter: pit}, nil
}

// SearchUB returns an iterator to the first record > key, crossing into
// the following leaf if key's own leaf has no such record, or End if none
// exists anywhere.
func (s *Store) SearchUB(key []byte) (Iter, error) {
	pid, ok := s.idx.FindPage(key)
	if !ok {
		return s.End(), nil
	}
	h, err := s.pool.GetPage(s.offsetForPageID(pid))
	if err != nil {
		return Iter{}, err
	}
	pit := h.Page().SearchUB(key)
	if pit.Valid() {
		return Iter{store: s, handle: h, pageIter: pit}, nil
	}
	next := h.Page().NextPageOffset()
	h.Release(false)
	if next == page.NoNextPage {
		return s.End(), nil
	}
	hNext, err := s.pool.GetPage(next)
	if err != nil {
		return Iter{}, err
	}
	return s.firstNonEmptyFrom(hNext)
}

// Search starts from SearchLB(key) and walks forward, returning the first
// exact match, or End as soon as a strictly greater record is seen.
func (s *Store) Search(record []byte) (Iter, error) {
	it, err := s.SearchLB(s.extractKey(record))
	if err != nil {
		return Iter{}, err
	}
	for it.Valid() {
		cmp := bytes.Compare(it.Record(), record)
		if cmp == 0 {
			return it, nil
		}
		if cmp > 0 {
			it.Release()
			return s.End(), nil
		}
		it, err = it.Next()
		if err != nil {
			return Iter{}, err
		}
	}
	return s.End(), nil
}
