package page

import "fmt"

// DebugString renders a page's occupancy and leading key bytes for manual
// inspection, in the spirit of the original C++ page's operator<< dump and
// DaemonDB's bplustree/inspect.go formatting helpers.
func (p *Page) DebugString() string {
	occ := p.occupiedSlots()
	s := fmt.Sprintf("page(size=%d/%d next=%#x)", len(occ), p.layout.Capacity, p.NextPageOffset())
	for _, slot := range occ {
		key := p.recordBytes(slot)[:p.layout.KeySize]
		s += fmt.Sprintf(" [%d]=%x", slot, key)
	}
	return s
}
