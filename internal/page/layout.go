// Package page implements the fixed-size record page: a single P-byte disk
// block holding an occupancy bitmap and an array of C fixed-width records.
//
// The binary layout and the search/insert/split/merge/borrow algorithms are
// ported from the original C++ FixedRecordDataPage (fixed_datapage.h),
// translated from pointer arithmetic over a memory-mapped buffer into slice
// arithmetic over a plain []byte, in the style DaemonDB's bplustree/node_codec.go
// uses encoding/binary rather than unsafe.Pointer casts.
package page

import "github.com/pkg/errors"

// NoNextPage is the sentinel stored in a page's next-page-offset field when
// the page is the last leaf in key order.
const NoNextPage uint64 = 0xFFFFFFFFFFFFFFFF

const nextOffsetFieldSize = 8

// Layout describes the geometry of a page for a given (P, R, K) triple: the
// page size, record size and key-prefix size that a Store is opened with.
//
// Capacity C is the largest number of record slots that fit alongside their
// occupancy bitmap in P bytes. The naive source formula (P-8)/R ignores the
// bitmap's own footprint; Layout solves the tighter bound by decrementing
// from that upper estimate until the bitmap-inclusive size fits.
type Layout struct {
	PageSize      int
	RecordSize    int
	KeySize       int
	Capacity      int
	BitmapBytes   int
	RecordsOffset int
}

// NewLayout computes the page geometry for the given page size, record size
// and key size, or returns an error if P is too small to hold the header
// plus at least two records.
func NewLayout(pageSize, recordSize, keySize int) (Layout, error) {
	if pageSize <= nextOffsetFieldSize {
		return Layout{}, errors.Errorf("page size %d too small for header", pageSize)
	}
	if recordSize <= 0 || keySize <= 0 || keySize > recordSize {
		return Layout{}, errors.Errorf("invalid record/key size: record=%d key=%d", recordSize, keySize)
	}

	capacity := (pageSize - nextOffsetFieldSize) / recordSize
	for capacity > 0 {
		bitmapBytes := (capacity + 7) / 8
		if nextOffsetFieldSize+bitmapBytes+capacity*recordSize <= pageSize {
			break
		}
		capacity--
	}
	if capacity < 2 {
		return Layout{}, errors.Errorf("page size %d too small to hold 2 records of size %d", pageSize, recordSize)
	}

	bitmapBytes := (capacity + 7) / 8
	return Layout{
		PageSize:      pageSize,
		RecordSize:    recordSize,
		KeySize:       keySize,
		Capacity:      capacity,
		BitmapBytes:   bitmapBytes,
		RecordsOffset: nextOffsetFieldSize + bitmapBytes,
	}, nil
}
