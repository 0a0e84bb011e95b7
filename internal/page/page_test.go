package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testPageSize   = 4096
	testRecordSize = 200
	testKeySize    = 20
)

func testLayout(t *testing.T) Layout {
	t.Helper()
	l, err := NewLayout(testPageSize, testRecordSize, testKeySize)
	require.NoError(t, err)
	require.Greater(t, l.Capacity, 2)
	return l
}

func makeRecord(layout Layout, key string, tail byte) []byte {
	rec := make([]byte, layout.RecordSize)
	copy(rec, key)
	for i := len(key); i < layout.RecordSize; i++ {
		rec[i] = tail
	}
	return rec
}

func TestLayoutFitsHeaderAndBitmap(t *testing.T) {
	l := testLayout(t)
	require.Equal(t, l.RecordsOffset, nextOffsetFieldSize+l.BitmapBytes)
	require.LessOrEqual(t, l.RecordsOffset+l.Capacity*l.RecordSize, l.PageSize)
}

func TestInsertIntoEmptyPageGoesToSlotZero(t *testing.T) {
	l := testLayout(t)
	p := New(l, NoNextPage)

	rec := makeRecord(l, "0001", 0)
	it, ok := p.Insert(rec, true)
	require.True(t, ok)
	require.Equal(t, 0, it.Slot)
	require.Equal(t, 1, p.Size())
}

func TestInsertThenSearchFindsRecord(t *testing.T) {
	l := testLayout(t)
	p := New(l, NoNextPage)

	rec := makeRecord(l, "0042", 0)
	_, ok := p.Insert(rec, true)
	require.True(t, ok)

	found := p.Search(rec)
	require.True(t, found.Valid())
	require.Equal(t, rec, found.Record())
}

func TestInsertKeepsOrderRegardlessOfInsertionOrder(t *testing.T) {
	l := testLayout(t)
	p := New(l, NoNextPage)

	keys := []string{"0050", "0010", "0090", "0030", "0070"}
	for _, k := range keys {
		_, ok := p.Insert(makeRecord(l, k, 0), true)
		require.True(t, ok)
	}
	require.True(t, p.VerifyOrder())
	require.Equal(t, len(keys), p.Size())
}

func TestNoDupInsertOfIdenticalRecordFails(t *testing.T) {
	l := testLayout(t)
	p := New(l, NoNextPage)

	rec := makeRecord(l, "0001", 7)
	_, ok := p.Insert(rec, false)
	require.True(t, ok)
	_, ok = p.Insert(append([]byte(nil), rec...), false)
	require.False(t, ok)
	require.Equal(t, 1, p.Size())
}

func TestNoDupInsertAllowsSameKeyDistinctTail(t *testing.T) {
	// S6: allow_dup=false, same key prefix but different tail must both insert.
	l := testLayout(t)
	p := New(l, NoNextPage)

	first := makeRecord(l, "0001", 1)
	second := makeRecord(l, "0001", 2)

	_, ok := p.Insert(first, false)
	require.True(t, ok)
	_, ok = p.Insert(second, false)
	require.True(t, ok)
	require.Equal(t, 2, p.Size())

	_, ok = p.Insert(append([]byte(nil), first...), false)
	require.False(t, ok)
	require.Equal(t, 2, p.Size())
}

func TestEraseThenSearchReturnsEnd(t *testing.T) {
	l := testLayout(t)
	p := New(l, NoNextPage)

	rec := makeRecord(l, "0005", 0)
	p.Insert(rec, true)

	it := p.EraseRecord(rec)
	require.True(t, it.Valid())

	require.False(t, p.Search(rec).Valid())
	require.Equal(t, 0, p.Size())
}

func TestFullPageInsertFails(t *testing.T) {
	l := testLayout(t)
	p := New(l, NoNextPage)
	for i := 0; i < l.Capacity; i++ {
		key := string(rune('a' + i%26))
		_, ok := p.Insert(makeRecord(l, key+string(rune(i)), 0), true)
		require.True(t, ok)
	}
	require.True(t, p.IsFull())
	_, ok := p.Insert(makeRecord(l, "zzzz", 0), true)
	require.False(t, ok)
}

func TestSplitWithProducesBalancedHalves(t *testing.T) {
	l := testLayout(t)
	left := New(l, NoNextPage)
	for i := 0; i < l.Capacity; i++ {
		rec := makeRecord(l, keyN(i), 0)
		_, ok := left.Insert(rec, true)
		require.True(t, ok)
	}
	right := New(l, NoNextPage)

	promoted, err := left.SplitWith(right, 4096)
	require.NoError(t, err)
	require.NotEmpty(t, promoted)

	lo, hi := left.MaxSize()/2, l.Capacity-left.MaxSize()/2
	require.InDelta(t, lo, left.Size(), 1)
	require.InDelta(t, hi, right.Size(), 1)
	require.Equal(t, left.Size()+right.Size(), l.Capacity)
	require.Equal(t, uint64(4096), left.NextPageOffset())
	require.True(t, left.VerifyOrder())
	require.True(t, right.VerifyOrder())
	require.True(t, bytesLE(left.Max().Record(), right.Min().Record()))
}

func TestMergeWithRecombinesRecords(t *testing.T) {
	l := testLayout(t)
	left := New(l, NoNextPage)
	right := New(l, 999)
	for i := 0; i < 3; i++ {
		left.Insert(makeRecord(l, keyN(i), 0), true)
	}
	for i := 3; i < 6; i++ {
		right.Insert(makeRecord(l, keyN(i), 0), true)
	}

	err := left.MergeWith(right)
	require.NoError(t, err)
	require.Equal(t, 6, left.Size())
	require.Equal(t, uint64(999), left.NextPageOffset())
	require.True(t, left.VerifyOrder())
}

func TestBorrowFromRebalancesAndReturnsNewSeparator(t *testing.T) {
	l := testLayout(t)
	left := New(l, NoNextPage)
	right := New(l, NoNextPage)
	left.Insert(makeRecord(l, keyN(0), 0), true)
	for i := 1; i < 7; i++ {
		right.Insert(makeRecord(l, keyN(i), 0), true)
	}

	newMin, err := left.BorrowFrom(right)
	require.NoError(t, err)
	require.Equal(t, right.Min().Record(), newMin)
	require.True(t, left.Size() > 1)
	require.True(t, left.VerifyOrder())
	require.True(t, right.VerifyOrder())
}

func keyN(i int) string {
	return string([]byte{byte('a' + i/26), byte('a' + i%26)})
}

func bytesLE(a, b []byte) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return true
}
