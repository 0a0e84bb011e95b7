package store

import (
	"fmt"

	"recordstore/internal/page"
)

// DebugPages returns one line per leaf page, walking the leaf list from
// the leftmost leaf (found via the branch index) through next-page-offset,
// for use by the inspect CLI subcommand.
func (s *Store) DebugPages() ([]string, error) {
	var lines []string

	bit := s.idx.Begin()
	if !bit.Valid() {
		return lines, nil
	}

	offset := s.offsetForPageID(bit.PageID())
	for {
		h, err := s.pool.GetPage(offset)
		if err != nil {
			return lines, err
		}
		lines = append(lines, fmt.Sprintf("[offset %d] %s", offset, h.Page().DebugString()))
		next := h.Page().NextPageOffset()
		h.Release(false)
		if next == page.NoNextPage {
			break
		}
		offset = next
	}
	return lines, nil
}
