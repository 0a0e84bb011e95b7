// Package index implements the in-memory branch index: an ordered map from
// separator key to leaf page id, with the exact find/insert/erase/iteration
// surface the coordinator needs (§4.3). The entries live in one sorted
// slice with no internal balancing; persistence to btree.bin is done by
// package store (persist.go), not here.
//
// The entry representation is adapted from DaemonDB's bplustree.Node, whose
// key []byte array is kept in sorted order and searched with a lower-bound
// scan (see bplustree/struct.go, bplustree/insertion.go). Because the spec
// treats the branch index as entirely in-memory with no page I/O of its
// own, this drops that package's Pager/BufferPool machinery entirely and
// keeps only the sorted-array-of-separators shape, growing it dynamically
// instead of splitting fixed-capacity nodes.
package index

import (
	"bytes"
	"sort"
)

// PageID identifies a leaf page. The coordinator maps it to a file offset
// as pageID * P.
type PageID uint64

// NoPage is the sentinel PageID meaning "no page", mirroring NoNextPage in
// package page.
const NoPage PageID = 0xFFFFFFFFFFFFFFFF

type entry struct {
	key    []byte
	pageID PageID
}

// Index is an ordered multimap from separator key to page id.
type Index struct {
	allowDup bool
	entries  []entry
}

// New constructs an empty branch index. allowDup mirrors the store's own
// duplicate-key policy: when true, InsertPage may add a second entry under
// an already-present key.
func New(allowDup bool) *Index {
	return &Index{allowDup: allowDup}
}

// Len returns the number of separator entries.
func (ix *Index) Len() int { return len(ix.entries) }

// AllowDup reports whether this index was constructed in duplicate-key mode.
func (ix *Index) AllowDup() bool { return ix.allowDup }

// lowerBound returns the index of the first entry with key >= target.
func (ix *Index) lowerBound(target []byte) int {
	return sort.Search(len(ix.entries), func(i int) bool {
		return bytes.Compare(ix.entries[i].key, target) >= 0
	})
}

// InitializePages installs the two bootstrap leaves the coordinator
// creates on first open: a single separator entry keyed by key, referring
// to leftID, the leftmost leaf. rightID gets no entry of its own; the
// caller links it as leftID's successor through the left leaf's
// next-page-offset, so it is reachable only by walking the leaf list.
func (ix *Index) InitializePages(key []byte, leftID, rightID PageID) {
	ix.entries = []entry{
		{key: append([]byte(nil), key...), pageID: leftID},
	}
	_ = rightID // rightID is reached through the left leaf's next-page-offset, not through the index.
}

// FindPageIter returns the iterator positioned at the same entry FindPage
// would resolve to, so callers can walk .Next() to inspect the immediate
// right neighbor (used for the duplicate-key chain walk and for
// erase-time rebalancing).
func (ix *Index) FindPageIter(key []byte) Iter {
	if len(ix.entries) == 0 {
		return ix.End()
	}
	i := ix.lowerBound(key)
	if i < len(ix.entries) && bytes.Equal(ix.entries[i].key, key) {
		return Iter{ix: ix, pos: i}
	}
	if i == 0 {
		return Iter{ix: ix, pos: 0}
	}
	return Iter{ix: ix, pos: i - 1}
}

// FindPage returns the page id of the page that would contain key: the
// entry with the greatest separator <= key, or the leftmost page if key is
// less than every separator.
func (ix *Index) FindPage(key []byte) (PageID, bool) {
	if len(ix.entries) == 0 {
		return NoPage, false
	}
	i := ix.lowerBound(key)
	if i < len(ix.entries) && bytes.Equal(ix.entries[i].key, key) {
		return ix.entries[i].pageID, true
	}
	if i == 0 {
		return ix.entries[0].pageID, true
	}
	return ix.entries[i-1].pageID, true
}

// NextPage returns the page id of the first entry whose separator is
// strictly greater than key, and whether one exists. Every entry sharing
// key is skipped, so it steps past a whole duplicate-key chain; walking
// along such a chain goes through FindPageIter and Iter.Next instead.
func (ix *Index) NextPage(key []byte) (PageID, bool) {
	i := ix.lowerBound(key)
	for i < len(ix.entries) && bytes.Compare(ix.entries[i].key, key) <= 0 {
		i++
	}
	if i >= len(ix.entries) {
		return NoPage, false
	}
	return ix.entries[i].pageID, true
}

// InsertPage adds a new separator entry. In no-dup mode, inserting a key
// that already has an entry replaces nothing and simply returns false; the
// coordinator only calls this after a split, which always promotes a
// genuinely new separator.
//
// In allow-dup mode, a new entry for a key that already has one or more
// entries is placed after the run of existing same-keyed entries, not at
// its lower-bound position. This keeps insertion order matching the
// physical leaf-chain order: a later split's promoted right page must sit
// to the right of the earlier same-keyed entry, since FindPageIter
// callers walk the duplicate-key chain rightward assuming index order
// mirrors leaf order.
func (ix *Index) InsertPage(key []byte, id PageID) bool {
	i := ix.lowerBound(key)
	if !ix.allowDup {
		if i < len(ix.entries) && bytes.Equal(ix.entries[i].key, key) {
			return false
		}
	} else {
		for i < len(ix.entries) && bytes.Equal(ix.entries[i].key, key) {
			i++
		}
	}
	e := entry{key: append([]byte(nil), key...), pageID: id}
	ix.entries = append(ix.entries, entry{})
	copy(ix.entries[i+1:], ix.entries[i:])
	ix.entries[i] = e
	return true
}

// ErasePage removes the entry matching (key, id) exactly. It is a no-op if
// no such entry exists.
func (ix *Index) ErasePage(key []byte, id PageID) bool {
	for i, e := range ix.entries {
		if bytes.Equal(e.key, key) && e.pageID == id {
			ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceSeparator updates the separator key for the entry carrying id,
// used after a borrow changes a leaf's minimum record.
func (ix *Index) ReplaceSeparator(oldKey []byte, id PageID, newKey []byte) bool {
	if !ix.ErasePage(oldKey, id) {
		return false
	}
	return ix.InsertPage(newKey, id)
}

// Iter is a forward cursor over branch index entries in key order.
type Iter struct {
	ix  *Index
	pos int
}

// Begin returns an iterator to the first entry.
func (ix *Index) Begin() Iter { return Iter{ix: ix, pos: 0} }

// End returns the past-the-end iterator.
func (ix *Index) End() Iter { return Iter{ix: ix, pos: len(ix.entries)} }

// Valid reports whether the iterator refers to a real entry.
func (it Iter) Valid() bool { return it.pos >= 0 && it.pos < len(it.ix.entries) }

// Next advances the iterator by one entry.
func (it Iter) Next() Iter { return Iter{ix: it.ix, pos: it.pos + 1} }

// Key returns the current entry's separator key.
func (it Iter) Key() []byte { return it.ix.entries[it.pos].key }

// PageID returns the current entry's page id.
func (it Iter) PageID() PageID { return it.ix.entries[it.pos].pageID }
