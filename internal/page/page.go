package page

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrCorrupt is returned by Load when a byte buffer is not exactly P bytes
// long; no other check is made on deserialization.
var ErrCorrupt = errors.New("page: corrupt on-disk representation")

// Page is one P-byte disk block: an 8-byte next-page-offset field, an
// occupancy bitmap and a fixed-width record array. It owns its buffer
// exclusively; the buffer pool decides when the bytes are read from or
// flushed to disk.
type Page struct {
	layout Layout
	buf    []byte
}

// New allocates a zeroed page with the given next-page-offset already set.
func New(layout Layout, next uint64) *Page {
	p := &Page{layout: layout, buf: make([]byte, layout.PageSize)}
	p.SetNextPageOffset(next)
	return p
}

// Load reinterprets an existing P-byte buffer as a page. The buffer is used
// directly (not copied); callers must not alias it elsewhere.
func Load(layout Layout, buf []byte) (*Page, error) {
	if len(buf) != layout.PageSize {
		return nil, errors.Wrapf(ErrCorrupt, "want %d bytes, got %d", layout.PageSize, len(buf))
	}
	return &Page{layout: layout, buf: buf}, nil
}

// Bytes returns the page's backing buffer, exactly P bytes, ready to be
// written to disk at the page's offset.
func (p *Page) Bytes() []byte { return p.buf }

// Layout returns the geometry this page was constructed with.
func (p *Page) Layout() Layout { return p.layout }

// NextPageOffset returns the file offset of the next leaf in key order, or
// NoNextPage if this is the last leaf.
func (p *Page) NextPageOffset() uint64 {
	return binary.LittleEndian.Uint64(p.buf[0:nextOffsetFieldSize])
}

// SetNextPageOffset overwrites the next-page-offset field.
func (p *Page) SetNextPageOffset(v uint64) {
	binary.LittleEndian.PutUint64(p.buf[0:nextOffsetFieldSize], v)
}

func (p *Page) bitmapByte(slot int) (int, byte) {
	return slot / 8, byte(1) << uint(slot%8)
}

func (p *Page) getBit(slot int) bool {
	byteIdx, mask := p.bitmapByte(slot)
	return p.buf[nextOffsetFieldSize+byteIdx]&mask != 0
}

func (p *Page) setBit(slot int, v bool) {
	byteIdx, mask := p.bitmapByte(slot)
	off := nextOffsetFieldSize + byteIdx
	if v {
		p.buf[off] |= mask
	} else {
		p.buf[off] &^= mask
	}
}

// recordBytes returns a mutable slice over the given slot's R bytes,
// regardless of whether that slot is currently marked occupied.
func (p *Page) recordBytes(slot int) []byte {
	start := p.layout.RecordsOffset + slot*p.layout.RecordSize
	return p.buf[start : start+p.layout.RecordSize]
}

func (p *Page) writeRecord(slot int, record []byte) {
	copy(p.recordBytes(slot), record)
	p.setBit(slot, true)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// occupiedSlots returns, in ascending slot order, every slot index whose
// bitmap bit is set. Occupied slots are always in non-decreasing record
// order (invariant I1), so this is equivalently the page's records in
// sorted order.
func (p *Page) occupiedSlots() []int {
	occ := make([]int, 0, p.layout.Capacity)
	for i := 0; i < p.layout.Capacity; i++ {
		if p.getBit(i) {
			occ = append(occ, i)
		}
	}
	return occ
}

// Size returns the number of occupied slots.
func (p *Page) Size() int { return len(p.occupiedSlots()) }

// MaxSize returns C, the page's slot capacity.
func (p *Page) MaxSize() int { return p.layout.Capacity }

// IsFull reports whether every slot is occupied.
func (p *Page) IsFull() bool { return p.Size() >= p.layout.Capacity }

// cmpSlot compares the record at slot against target, where target is
// either a K-byte key or an R-byte record. Because a record's key is its
// leading K bytes, comparing target against the record's leading
// len(target) bytes handles both cases uniformly.
func (p *Page) cmpSlot(slot int, target []byte) int {
	return bytes.Compare(p.recordBytes(slot)[:len(target)], target)
}

// VerifyOrder walks every occupied slot and confirms records appear in
// non-decreasing order by full record bytes.
func (p *Page) VerifyOrder() bool {
	occ := p.occupiedSlots()
	for i := 1; i < len(occ); i++ {
		if bytes.Compare(p.recordBytes(occ[i-1]), p.recordBytes(occ[i])) > 0 {
			return false
		}
	}
	return true
}

// Solidify packs every valid record into the leading slots [0, size) in
// order and zeroes the rest, rewriting the bitmap to match. It returns the
// resulting size.
func (p *Page) Solidify() int {
	occ := p.occupiedSlots()
	for i, slot := range occ {
		if slot != i {
			copy(p.recordBytes(i), p.recordBytes(slot))
		}
	}
	for i := len(occ); i < p.layout.Capacity; i++ {
		zero(p.recordBytes(i))
	}
	for i := 0; i < p.layout.Capacity; i++ {
		p.setBit(i, i < len(occ))
	}
	return len(occ)
}
