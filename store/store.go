// Package store implements the coordinator: the façade that ties the
// record page, buffer pool and branch index together into an ordered
// key/record container with insert, erase, search and forward iteration,
// driving page splits, merges and borrows as needed.
//
// The insert/erase control flow is grounded on the original C++
// FixedDBBTree::insert (db_btree.h) and DaemonDB's bplustree/insertion.go
// and bplustree/deletion.go, adapted from an in-memory node tree to a
// pool-backed leaf page plus a separate in-memory branch index.
package store

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"recordstore/internal/index"
	"recordstore/internal/page"
	"recordstore/internal/pool"
)

// Sentinel errors surfaced to callers, matching the coordinator's error
// taxonomy.
var (
	ErrKeyChainFull = errors.New("store: duplicate-key chain could not be split further")
)

// Config parameterizes a Store the way the original template parameters
// (P, R, K, AllowDup) do: page size, record size, key-prefix size,
// duplicate policy and pool capacity.
type Config struct {
	PageSize     int
	RecordSize   int
	KeySize      int
	AllowDup     bool
	PoolCapacity int
	Logger       *zap.SugaredLogger
}

// Store is the coordinator façade over one (pages.bin, btree.bin) pair.
type Store struct {
	cfg       Config
	layout    page.Layout
	pool      *pool.Pool
	idx       *index.Index
	btreePath string
	log       *zap.SugaredLogger
}

// Open opens or creates the store's backing files and bootstraps an empty
// two-leaf tree if the branch index has no entries yet.
func Open(pagesPath, btreePath string, cfg Config) (*Store, error) {
	if cfg.PoolCapacity < 1 {
		cfg.PoolCapacity = 8
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	layout, err := page.NewLayout(cfg.PageSize, cfg.RecordSize, cfg.KeySize)
	if err != nil {
		return nil, err
	}

	pl, err := pool.Open(pagesPath, layout, cfg.PoolCapacity, log)
	if err != nil {
		return nil, err
	}

	idx, err := loadIndex(btreePath, cfg.AllowDup)
	if err != nil {
		pl.Close()
		return nil, err
	}

	s := &Store{cfg: cfg, layout: layout, pool: pl, idx: idx, btreePath: btreePath, log: log}

	if idx.Len() == 0 {
		if err := s.bootstrap(); err != nil {
			pl.Close()
			return nil, err
		}
	}
	return s, nil
}

// bootstrap allocates the two initial empty leaves (right then left, so
// left.next == right's offset) and installs a single all-zero-key
// separator entry pointing at the leftmost leaf.
func (s *Store) bootstrap() error {
	hRight, rightOffset, err := s.pool.GetNewPage(page.NoNextPage)
	if err != nil {
		return err
	}
	hLeft, leftOffset, err := s.pool.GetNewPage(rightOffset)
	if err != nil {
		hRight.Release(false)
		return err
	}
	hRight.Release(true)
	hLeft.Release(true)

	zeroKey := make([]byte, s.cfg.KeySize)
	s.idx.InitializePages(zeroKey, s.pageIDForOffset(leftOffset), s.pageIDForOffset(rightOffset))
	return nil
}

// Close flushes the pool and persists the branch index.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return err
	}
	return saveIndex(s.btreePath, s.idx)
}

func (s *Store) pageIDForOffset(offset uint64) index.PageID {
	return index.PageID(offset / uint64(s.layout.PageSize))
}

func (s *Store) offsetForPageID(id index.PageID) uint64 {
	return uint64(id) * uint64(s.layout.PageSize)
}

func (s *Store) extractKey(record []byte) []byte { return record[:s.cfg.KeySize] }

// VerifyOrder walks the entire leaf list and confirms records are in
// non-decreasing order end to end.
func (s *Store) VerifyOrder() (bool, error) {
	it, err := s.Begin()
	if err != nil {
		return false, err
	}
	var prev []byte
	ok := true
	for it.Valid() {
		rec := it.Record()
		if prev != nil && bytes.Compare(prev, rec) > 0 {
			ok = false
		}
		prev = append([]byte(nil), rec...)
		nxt, err := it.Next()
		if err != nil {
			it.Release()
			return false, err
		}
		it = nxt
	}
	it.Release()
	return ok, nil
}
