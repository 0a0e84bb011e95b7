package page

import "sort"

// SearchLB returns an iterator to the first occupied slot whose record is
// >= target, or End if none. target may be a K-byte key or an R-byte
// record; both are compared against each record's matching-length prefix.
func (p *Page) SearchLB(target []byte) Iter {
	occ := p.occupiedSlots()
	if len(occ) == 0 {
		return End(p)
	}
	i := sort.Search(len(occ), func(i int) bool { return p.cmpSlot(occ[i], target) >= 0 })
	if i == len(occ) {
		return End(p)
	}
	return Iter{Page: p, Slot: occ[i]}
}

// SearchUB returns an iterator to the first occupied slot whose record is
// strictly greater than target, or End if none.
func (p *Page) SearchUB(target []byte) Iter {
	occ := p.occupiedSlots()
	if len(occ) == 0 {
		return End(p)
	}
	i := sort.Search(len(occ), func(i int) bool { return p.cmpSlot(occ[i], target) > 0 })
	if i == len(occ) {
		return End(p)
	}
	return Iter{Page: p, Slot: occ[i]}
}

// Search returns an iterator to the occupied slot whose record equals
// target exactly, or End if no such slot exists.
func (p *Page) Search(target []byte) Iter {
	it := p.SearchLB(target)
	if !it.Valid() {
		return End(p)
	}
	if len(it.Record()) != len(target) {
		// target shorter than a record (a key lookup): compare prefixes only.
		if bytesEqualPrefix(it.Record(), target) {
			return it
		}
		return End(p)
	}
	if bytesEqualPrefix(it.Record(), target) {
		return it
	}
	return End(p)
}

func bytesEqualPrefix(record, target []byte) bool {
	if len(record) < len(target) {
		return false
	}
	for i := range target {
		if record[i] != target[i] {
			return false
		}
	}
	return true
}

// Min returns an iterator to the first occupied slot, or End if the page is
// empty.
func (p *Page) Min() Iter {
	occ := p.occupiedSlots()
	if len(occ) == 0 {
		return End(p)
	}
	return Iter{Page: p, Slot: occ[0]}
}

// Max returns an iterator to the last occupied slot, or End if the page is
// empty.
func (p *Page) Max() Iter {
	occ := p.occupiedSlots()
	if len(occ) == 0 {
		return End(p)
	}
	return Iter{Page: p, Slot: occ[len(occ)-1]}
}
