package page

import "sort"

// Insert places record into the page in sorted position. If the page is
// full it returns (End, false) without modifying the page. In no-duplicate
// mode, inserting a record that is byte-for-byte identical to one already
// present returns (existing iterator, false) instead of inserting again;
// records that merely share a key prefix are not considered duplicates.
//
// When room exists between the record's would-be neighbors, the record is
// written directly into a free slot there. Otherwise the page is solidified
// first (packing it into a dense prefix) and the record is placed by a
// plain array insert-shift, which always finds room because the page was
// confirmed not full.
func (p *Page) Insert(record []byte, allowDup bool) (Iter, bool) {
	if p.IsFull() {
		return End(p), false
	}

	occ := p.occupiedSlots()
	lbPos := sort.Search(len(occ), func(i int) bool { return p.cmpSlot(occ[i], record) >= 0 })
	if !allowDup && lbPos < len(occ) && p.cmpSlot(occ[lbPos], record) == 0 {
		return Iter{Page: p, Slot: occ[lbPos]}, false
	}

	ubPos := lbPos
	for ubPos < len(occ) && p.cmpSlot(occ[ubPos], record) == 0 {
		ubPos++
	}

	leftBound := -1
	if ubPos > 0 {
		leftBound = occ[ubPos-1]
	}
	rightBound := p.layout.Capacity
	if ubPos < len(occ) {
		rightBound = occ[ubPos]
	}

	if rightBound-leftBound > 1 {
		slot := leftBound + 1
		p.writeRecord(slot, record)
		return Iter{Page: p, Slot: slot}, true
	}

	size := p.Solidify()
	insertAt := ubPos
	for i := size; i > insertAt; i-- {
		copy(p.recordBytes(i), p.recordBytes(i-1))
	}
	p.setBit(size, true)
	p.writeRecord(insertAt, record)
	return Iter{Page: p, Slot: insertAt}, true
}

// EraseAt clears the bitmap bit at the iterator's slot without moving any
// bytes; cleanup of the vacated slot is deferred to the next Solidify. It
// returns the same iterator (now pointing at a freed slot) or End if it was
// already invalid.
func (p *Page) EraseAt(it Iter) Iter {
	if !it.Valid() {
		return End(p)
	}
	p.setBit(it.Slot, false)
	return it
}

// EraseRecord finds record by exact match and erases it, or is a no-op
// returning End if absent.
func (p *Page) EraseRecord(record []byte) Iter {
	it := p.Search(record)
	if !it.Valid() {
		return End(p)
	}
	return p.EraseAt(it)
}
