package store

import "bytes"

// Insert places record into the correct leaf, splitting it first if full.
// It returns the iterator to the inserted (or, in no-dup mode, the
// pre-existing colliding) record and whether an insertion actually
// happened.
func (s *Store) Insert(record []byte) (Iter, bool, error) {
	key := s.extractKey(record)

	cur := s.idx.FindPageIter(key)
	if !cur.Valid() {
		return Iter{}, false, ErrKeyChainFull
	}

	if s.cfg.AllowDup {
		for {
			nxt := cur.Next()
			if !nxt.Valid() || !bytes.Equal(nxt.Key(), cur.Key()) {
				break
			}
			hNext, err := s.pool.GetPage(s.offsetForPageID(nxt.PageID()))
			if err != nil {
				return Iter{}, false, err
			}
			minIt := hNext.Page().Min()
			advance := minIt.Valid() && bytes.Compare(minIt.Record(), record) <= 0
			hNext.Release(false)
			if !advance {
				break
			}
			cur = nxt
		}
	}

	targetPid := cur.PageID()
	target, err := s.pool.GetPage(s.offsetForPageID(targetPid))
	if err != nil {
		return Iter{}, false, err
	}

	if target.Page().IsFull() {
		hRight, rightOffset, err := s.pool.GetNewPage()
		if err != nil {
			target.Release(false)
			return Iter{}, false, err
		}
		promoted, err := target.Page().SplitWith(hRight.Page(), rightOffset)
		if err != nil {
			target.Release(false)
			hRight.Release(false)
			return Iter{}, false, err
		}
		target.MarkDirty()
		hRight.MarkDirty()
		s.idx.InsertPage(append([]byte(nil), promoted[:s.cfg.KeySize]...), s.pageIDForOffset(rightOffset))

		if bytes.Compare(record, promoted) >= 0 {
			target.Release(false)
			target = hRight
		} else {
			hRight.Release(false)
		}

		if target.Page().IsFull() {
			target.Release(false)
			return Iter{}, false, ErrKeyChainFull
		}
	}

	it, inserted := target.Page().Insert(record, s.cfg.AllowDup)
	target.MarkDirty()
	if !it.Valid() {
		target.Release(false)
		return s.End(), false, nil
	}
	return Iter{store: s, handle: target, pageIter: it}, inserted, nil
}
