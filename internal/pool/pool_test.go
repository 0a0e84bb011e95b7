package pool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"recordstore/internal/page"
)

func testLayout(t *testing.T) page.Layout {
	t.Helper()
	l, err := page.NewLayout(4096, 200, 20)
	require.NoError(t, err)
	return l
}

func openTestPool(t *testing.T, capacity int) *Pool {
	t.Helper()
	dir := t.TempDir()
	p, err := Open(filepath.Join(dir, "pages.bin"), testLayout(t), capacity, nil)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestOpenCreatesHeaderPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.bin")
	p, err := Open(path, testLayout(t), 8, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(4096), p.emptyPagesStart)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(4096), fi.Size())
	require.NoError(t, p.Close())
}

func TestGetNewPageAllocatesDistinctOffsets(t *testing.T) {
	// S4: 50 distinct multiples of P, none equal to 0, cached while held.
	// Capacity must cover every simultaneously pinned handle, since a pool
	// at capacity with every frame pinned cannot evict to make room.
	p := openTestPool(t, 50)
	seen := map[uint64]bool{}
	handles := make([]*Handle, 0, 50)
	for i := 0; i < 50; i++ {
		h, offset, err := p.GetNewPage()
		require.NoError(t, err)
		require.NotZero(t, offset)
		require.Zero(t, offset%4096)
		require.False(t, seen[offset])
		seen[offset] = true
		require.True(t, p.QueryPage(offset))
		handles = append(handles, h)
	}
	for _, h := range handles {
		h.Release(false)
	}
}

func TestEvictionRespectsPinCount(t *testing.T) {
	p := openTestPool(t, 2)

	h1, o1, err := p.GetNewPage()
	require.NoError(t, err)
	_, _, err = p.GetNewPage()
	require.NoError(t, err)

	// Pool at capacity, both frames pinned: a third allocation must fail.
	_, _, err = p.GetNewPage()
	require.ErrorIs(t, err, ErrAllPinned)

	h1.Release(false)
	// Now o1's frame is unpinned and evictable.
	_, o3, err := p.GetNewPage()
	require.NoError(t, err)
	require.False(t, p.QueryPage(o1))
	require.True(t, p.QueryPage(o3))
}

func TestDiscardShrinksHighWaterMarkForLastPage(t *testing.T) {
	p := openTestPool(t, 8)
	h, offset, err := p.GetNewPage()
	require.NoError(t, err)
	h.Release(false)

	require.Equal(t, offset+4096, p.emptyPagesStart)
	require.NoError(t, p.DiscardPage(offset))
	require.Equal(t, offset, p.emptyPagesStart)
}

func TestDiscardOfNonTailPageGoesToFreeList(t *testing.T) {
	p := openTestPool(t, 8)
	h1, o1, err := p.GetNewPage()
	require.NoError(t, err)
	h1.Release(false)
	h2, _, err := p.GetNewPage()
	require.NoError(t, err)
	h2.Release(false)

	require.NoError(t, p.DiscardPage(o1))
	require.Contains(t, p.discarded, o1)

	h3, o3, err := p.GetNewPage()
	require.NoError(t, err)
	require.Equal(t, o1, o3)
	h3.Release(false)
}

func TestCloseThenReopenPreservesHeaderState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.bin")
	l := testLayout(t)

	p1, err := Open(path, l, 8, nil)
	require.NoError(t, err)
	h, offset, err := p1.GetNewPage()
	require.NoError(t, err)
	h.Release(true)
	require.NoError(t, p1.Close())

	p2, err := Open(path, l, 8, nil)
	require.NoError(t, err)
	defer p2.Close()
	require.Equal(t, offset+4096, p2.emptyPagesStart)
}
