package page

import "github.com/pkg/errors"

// SplitWith moves the upper half of a full page's records into an empty
// right sibling, links self -> right -> (self's old next), and returns the
// promoted record: a copy of right's new minimum. The caller is responsible
// for inserting the promoted key into the branch index against rightOffset.
func (p *Page) SplitWith(right *Page, rightOffset uint64) ([]byte, error) {
	if !p.IsFull() {
		return nil, errors.New("page: SplitWith called on a page that is not full")
	}
	if right.Size() != 0 {
		return nil, errors.New("page: SplitWith called with a non-empty right sibling")
	}

	p.Solidify()
	mid := p.layout.Capacity / 2
	upperCount := p.layout.Capacity - mid

	for i := 0; i < upperCount; i++ {
		right.writeRecord(i, p.recordBytes(mid+i))
	}
	for i := mid; i < p.layout.Capacity; i++ {
		zero(p.recordBytes(i))
		p.setBit(i, false)
	}

	right.SetNextPageOffset(p.NextPageOffset())
	p.SetNextPageOffset(rightOffset)

	promoted := append([]byte(nil), right.recordBytes(0)...)
	return promoted, nil
}

// MergeWith absorbs right's records onto self's tail and takes over right's
// next-page-offset. The caller must remove right's separator from the
// branch index and discard right's page afterward.
func (p *Page) MergeWith(right *Page) error {
	selfSize := p.Solidify()
	rightSize := right.Solidify()
	if selfSize+rightSize > p.layout.Capacity {
		return errors.Errorf("page: MergeWith would overflow capacity: %d+%d > %d", selfSize, rightSize, p.layout.Capacity)
	}
	for i := 0; i < rightSize; i++ {
		p.writeRecord(selfSize+i, right.recordBytes(i))
	}
	p.SetNextPageOffset(right.NextPageOffset())
	return nil
}

// BorrowFrom redistributes records from right onto self's tail until both
// sides are roughly balanced, and returns right's new minimum record so the
// caller can update the branch index's separator for right's page id.
func (p *Page) BorrowFrom(right *Page) ([]byte, error) {
	selfSize := p.Solidify()
	rightSize := right.Solidify()

	targetLeftSize := (selfSize + rightSize) / 2
	toMove := targetLeftSize - selfSize
	if toMove <= 0 {
		return nil, errors.New("page: BorrowFrom called but self is not underfull relative to right")
	}

	for i := 0; i < toMove; i++ {
		p.writeRecord(selfSize+i, right.recordBytes(i))
	}
	remaining := rightSize - toMove
	for i := 0; i < remaining; i++ {
		copy(right.recordBytes(i), right.recordBytes(i+toMove))
	}
	for i := remaining; i < rightSize; i++ {
		zero(right.recordBytes(i))
	}
	for i := 0; i < right.layout.Capacity; i++ {
		right.setBit(i, i < remaining)
	}

	newMin := append([]byte(nil), right.recordBytes(0)...)
	return newMin, nil
}
