package store

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"recordstore/internal/index"
)

// The branch index's on-disk format is internal to the store package per
// the specification ("format is internal to the index module"); it is
// serialized once at Close and reloaded at Open. Layout: allowDup (1
// byte), entry count (u32 LE), then for each entry: key length (u16 LE),
// key bytes, page id (u64 LE).
func loadIndex(path string, allowDup bool) (*index.Index, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return index.New(allowDup), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: opening btree file")
	}
	defer f.Close()

	var header [5]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		if err == io.EOF {
			return index.New(allowDup), nil
		}
		return nil, errors.Wrap(err, "store: reading btree header")
	}
	persistedDup := header[0] != 0
	count := binary.LittleEndian.Uint32(header[1:5])

	idx := index.New(persistedDup)
	for i := uint32(0); i < count; i++ {
		var lenBuf [2]byte
		if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
			return nil, errors.Wrap(err, "store: reading btree key length")
		}
		keyLen := binary.LittleEndian.Uint16(lenBuf[:])
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(f, key); err != nil {
			return nil, errors.Wrap(err, "store: reading btree key")
		}
		var idBuf [8]byte
		if _, err := io.ReadFull(f, idBuf[:]); err != nil {
			return nil, errors.Wrap(err, "store: reading btree page id")
		}
		idx.InsertPage(key, index.PageID(binary.LittleEndian.Uint64(idBuf[:])))
	}
	return idx, nil
}

func saveIndex(path string, idx *index.Index) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "store: creating btree file")
	}
	defer f.Close()

	var header [5]byte
	if idx.AllowDup() {
		header[0] = 1
	}
	binary.LittleEndian.PutUint32(header[1:5], uint32(idx.Len()))
	if _, err := f.Write(header[:]); err != nil {
		return errors.Wrap(err, "store: writing btree header")
	}

	for it := idx.Begin(); it.Valid(); it = it.Next() {
		key := it.Key()
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(key)))
		if _, err := f.Write(lenBuf[:]); err != nil {
			return errors.Wrap(err, "store: writing btree key length")
		}
		if _, err := f.Write(key); err != nil {
			return errors.Wrap(err, "store: writing btree key")
		}
		var idBuf [8]byte
		binary.LittleEndian.PutUint64(idBuf[:], uint64(it.PageID()))
		if _, err := f.Write(idBuf[:]); err != nil {
			return errors.Wrap(err, "store: writing btree page id")
		}
	}
	return f.Sync()
}
