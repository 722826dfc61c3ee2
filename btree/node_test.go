package btree

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagedkv/pager"
	"pagedkv/row"
)

func newTestPager(t *testing.T) *pager.Pager {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "btree-node-*.db")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	p, err := pager.Open(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestLeaf_InitAndAccessors(t *testing.T) {
	p := newTestPager(t)
	pg, err := p.Get(0)
	require.NoError(t, err)

	l := InitLeaf(pg, 7, true)
	assert.EqualValues(t, 7, l.Parent())
	assert.True(t, l.IsRoot())
	assert.EqualValues(t, 0, l.NextLeaf())
	assert.Equal(t, 0, l.NumCells())
	assert.True(t, isLeaf(pg))

	l.SetParent(3)
	l.SetIsRoot(false)
	l.SetNextLeaf(9)
	assert.EqualValues(t, 3, l.Parent())
	assert.False(t, l.IsRoot())
	assert.EqualValues(t, 9, l.NextLeaf())
}

func TestLeaf_CellReadWriteAndShift(t *testing.T) {
	p := newTestPager(t)
	pg, err := p.Get(0)
	require.NoError(t, err)
	l := InitLeaf(pg, 0, true)

	r1, _ := row.New(1, []byte("a"), []byte("alpha"))
	r2, _ := row.New(2, []byte("b"), []byte("beta"))
	r3, _ := row.New(3, []byte("c"), []byte("gamma"))

	l.SetCell(0, 1, r1)
	l.SetCell(1, 3, r3)
	l.SetNumCells(2)

	// insert key 2 at index 1, shifting 3/r3 right
	l.ShiftRight(1, l.NumCells())
	l.SetCell(1, 2, r2)
	l.SetNumCells(3)

	assert.EqualValues(t, 1, l.CellKey(0))
	assert.EqualValues(t, 2, l.CellKey(1))
	assert.EqualValues(t, 3, l.CellKey(2))
	assert.Equal(t, "alpha", string(l.CellRow(0).Value()))
	assert.Equal(t, "beta", string(l.CellRow(1).Value()))
	assert.Equal(t, "gamma", string(l.CellRow(2).Value()))
}

func TestInternal_InitAndAccessors(t *testing.T) {
	p := newTestPager(t)
	pg, err := p.Get(0)
	require.NoError(t, err)

	n := InitInternal(pg, 5, false)
	assert.EqualValues(t, 5, n.Parent())
	assert.False(t, n.IsRoot())
	assert.Equal(t, 0, n.NumKeys())
	assert.False(t, isLeaf(pg))

	n.SetRightChild(42)
	n.SetCell(0, 10, 1)
	n.SetCell(1, 20, 2)
	n.SetNumKeys(2)

	assert.EqualValues(t, 42, n.RightChild())
	assert.EqualValues(t, 10, n.CellKey(0))
	assert.EqualValues(t, 1, n.CellChild(0))
	assert.EqualValues(t, 20, n.CellKey(1))
	assert.EqualValues(t, 2, n.CellChild(1))

	// Child(i) falls back to right_child once i reaches num_keys.
	assert.EqualValues(t, 2, n.Child(1))
	assert.EqualValues(t, 42, n.Child(2))
}

func TestLowerBound(t *testing.T) {
	keys := []uint32{10, 20, 30, 40}
	keyAt := func(i int) uint32 { return keys[i] }

	assert.Equal(t, 0, lowerBound(4, keyAt, 5))
	assert.Equal(t, 1, lowerBound(4, keyAt, 20))
	assert.Equal(t, 2, lowerBound(4, keyAt, 25))
	assert.Equal(t, 4, lowerBound(4, keyAt, 41))
}

func TestConstants_DerivedNotHardcoded(t *testing.T) {
	// Spec reference values for PageSize=4096, row.Size=293.
	assert.Equal(t, 13, MaxCells)
	assert.Equal(t, 510, MaxKeys)
	assert.Equal(t, MaxCells+1, LeftSplitCells+RightSplitCells)
	assert.Equal(t, MaxKeys+1, LeftSplitKeys+RightSplitKeys)
}
