package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindPageBeforeAnyEntryReturnsLeftmost(t *testing.T) {
	ix := New(true)
	ix.InitializePages([]byte{0, 0, 0, 0}, 1, 2)

	id, ok := ix.FindPage([]byte{0, 0, 0, 5})
	require.True(t, ok)
	require.Equal(t, PageID(1), id)
}

func TestInsertPageKeepsSeparatorsSorted(t *testing.T) {
	ix := New(true)
	ix.InsertPage([]byte("m"), 1)
	ix.InsertPage([]byte("a"), 2)
	ix.InsertPage([]byte("z"), 3)

	var keys []string
	for it := ix.Begin(); it.Valid(); it = it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.Equal(t, []string{"a", "m", "z"}, keys)
}

func TestFindPageGreatestSeparatorLE(t *testing.T) {
	ix := New(true)
	ix.InsertPage([]byte("a"), 1)
	ix.InsertPage([]byte("m"), 2)

	id, ok := ix.FindPage([]byte("z"))
	require.True(t, ok)
	require.Equal(t, PageID(2), id)

	id, ok = ix.FindPage([]byte("m"))
	require.True(t, ok)
	require.Equal(t, PageID(2), id)
}

func TestReplaceSeparatorAfterBorrow(t *testing.T) {
	ix := New(true)
	ix.InsertPage([]byte("a"), 1)
	ix.InsertPage([]byte("m"), 2)

	require.True(t, ix.ReplaceSeparator([]byte("m"), 2, []byte("q")))
	id, ok := ix.FindPage([]byte("n"))
	require.True(t, ok)
	require.Equal(t, PageID(1), id)

	id, ok = ix.FindPage([]byte("q"))
	require.True(t, ok)
	require.Equal(t, PageID(2), id)
}

func TestNextPageSkipsPastDuplicateChain(t *testing.T) {
	ix := New(true)
	ix.InsertPage([]byte("a"), 1)
	ix.InsertPage([]byte("a"), 2)
	ix.InsertPage([]byte("a"), 3)

	next, ok := ix.NextPage([]byte("a"))
	require.False(t, ok)
	_ = next
}

func TestErasePageRemovesExactMatch(t *testing.T) {
	ix := New(true)
	ix.InsertPage([]byte("a"), 1)
	ix.InsertPage([]byte("b"), 2)

	require.True(t, ix.ErasePage([]byte("a"), 1))
	require.False(t, ix.ErasePage([]byte("a"), 1))
	require.Equal(t, 1, ix.Len())
}
