package pool

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Header field layout inside page 0 of pages.bin, per the external file
// format: empty_pages_start (u64 LE) at byte 0, discarded_count (u64 LE)
// at byte 8, then discarded_count 8-byte offsets, zero-padded to P.
//
// The original C++ buffer_pool.h reads discarded_page_count as a
// std::vector<uintmax_t> sized by a count read as a plain "size_t" but
// populated from bytes that appear to assume 4-byte units elsewhere in the
// same header round-trip; the two widths disagree. Rather than replicate
// that mismatch, this implementation uses one consistent 8-byte width for
// every header field, which is what the file-format section of the
// specification calls for.
const (
	headerEmptyStartOff = 0
	headerCountOff      = 8
	headerOffsetsOff    = 16
)

func (p *Pool) readHeader() error {
	buf := make([]byte, p.layout.PageSize)
	if _, err := p.file.ReadAt(buf, int64(headerOffset)); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}

	p.emptyPagesStart = binary.LittleEndian.Uint64(buf[headerEmptyStartOff : headerEmptyStartOff+8])
	count := binary.LittleEndian.Uint64(buf[headerCountOff : headerCountOff+8])

	need := headerOffsetsOff + int(count)*8
	if need > p.layout.PageSize {
		return errors.Wrapf(ErrHeaderOverflow, "discarded_count=%d needs %d bytes, page is %d", count, need, p.layout.PageSize)
	}

	p.discarded = make([]uint64, count)
	for i := uint64(0); i < count; i++ {
		off := headerOffsetsOff + int(i)*8
		p.discarded[i] = binary.LittleEndian.Uint64(buf[off : off+8])
	}
	return nil
}

func (p *Pool) writeHeader() error {
	need := headerOffsetsOff + len(p.discarded)*8
	if need > p.layout.PageSize {
		return errors.Wrapf(ErrHeaderOverflow, "discarded list of %d offsets needs %d bytes, page is %d", len(p.discarded), need, p.layout.PageSize)
	}

	buf := make([]byte, p.layout.PageSize)
	binary.LittleEndian.PutUint64(buf[headerEmptyStartOff:headerEmptyStartOff+8], p.emptyPagesStart)
	binary.LittleEndian.PutUint64(buf[headerCountOff:headerCountOff+8], uint64(len(p.discarded)))
	for i, off := range p.discarded {
		at := headerOffsetsOff + i*8
		binary.LittleEndian.PutUint64(buf[at:at+8], off)
	}

	if _, err := p.file.WriteAt(buf, int64(headerOffset)); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}
