package store

import (
	"recordstore/internal/index"
	"recordstore/internal/pool"
)

// Erase removes the exact record from its leaf and rebalances (merge or
// borrow) if the leaf drops below half full and has a right sibling. It
// returns whether a record was actually removed.
//
// A rebalance can move records between pages and change the branch index,
// so no navigable iterator is returned; callers that need to keep
// iterating after an erase should re-Search or re-SearchLB.
func (s *Store) Erase(record []byte) (bool, error) {
	key := s.extractKey(record)

	cur := s.idx.FindPageIter(key)
	if !cur.Valid() {
		return false, nil
	}

	pid := cur.PageID()
	h, err := s.pool.GetPage(s.offsetForPageID(pid))
	if err != nil {
		return false, err
	}

	it := h.Page().EraseRecord(record)
	if !it.Valid() {
		h.Release(false)
		return false, nil
	}
	h.MarkDirty()

	if err := s.rebalanceAfterErase(cur, h); err != nil {
		h.Release(false)
		return true, err
	}
	h.Release(false)
	return true, nil
}

// rebalanceAfterErase implements inspect_after_erase: when a leaf falls
// below C/2 records and has a right sibling (found via the branch index's
// adjacent entry, not the page's own next-page-offset), either merge the
// two leaves or borrow records from the right one to restore balance.
func (s *Store) rebalanceAfterErase(cur index.Iter, h *pool.Handle) error {
	capacity := h.Page().MaxSize()
	if h.Page().Size() >= capacity/2 {
		return nil
	}

	nxt := cur.Next()
	if !nxt.Valid() {
		return nil // rightmost leaf: no sibling to rebalance against.
	}

	rightPid := nxt.PageID()
	hRight, err := s.pool.GetPage(s.offsetForPageID(rightPid))
	if err != nil {
		return err
	}

	if h.Page().Size()+hRight.Page().Size() <= capacity {
		mergeErr := h.Page().MergeWith(hRight.Page())
		hRight.Release(false)
		if mergeErr != nil {
			return mergeErr
		}
		h.MarkDirty()
		s.idx.ErasePage(nxt.Key(), rightPid)
		return s.pool.DiscardPage(s.offsetForPageID(rightPid))
	}

	newMin, err := h.Page().BorrowFrom(hRight.Page())
	hRight.MarkDirty()
	hRight.Release(true)
	if err != nil {
		return err
	}
	h.MarkDirty()
	s.idx.ReplaceSeparator(nxt.Key(), rightPid, append([]byte(nil), newMin[:s.cfg.KeySize]...))
	return nil
}
