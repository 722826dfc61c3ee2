// Package btree implements a B+ tree over fixed 32-bit primary keys: leaves
// linked for range scans, internal nodes that index their children by max
// key rather than by a separator, and splits that recurse up to a freshly
// rewritten root at page 0.
package btree

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pagedkv/dberr"
	"pagedkv/internal/dblog"
	"pagedkv/pager"
	"pagedkv/row"
)

// Tree is a handle over a pager, rooted at page 0, which never moves even
// across a root split.
type Tree struct {
	pager *pager.Pager
	log   *zap.SugaredLogger
}

// New wraps p in a Tree and initializes an empty root leaf at page 0 if the
// file was empty. log may be nil, in which case logging is a no-op.
func New(p *pager.Pager, log *zap.SugaredLogger) (*Tree, error) {
	if log == nil {
		log = dblog.Noop()
	}
	t := &Tree{pager: p, log: log}
	if p.PageCount() == 0 {
		pg, err := p.Get(RootPage)
		if err != nil {
			return nil, err
		}
		InitLeaf(pg, 0, true)
		t.log.Debugw("tree initialized", "root", RootPage)
	}
	return t, nil
}

// allocate reserves the next free page and materializes it, translating the
// pager's OutOfBound (page number beyond the configured ceiling) into
// dberr.TableFull: the page-number space has been exhausted mid-split.
func (t *Tree) allocate() (uint32, *pager.Page, error) {
	n := t.pager.GetFree()
	pg, err := t.pager.Get(n)
	if errors.Is(err, dberr.OutOfBound) {
		return 0, nil, dberr.TableFull
	}
	if err != nil {
		return 0, nil, err
	}
	return n, pg, nil
}

func (t *Tree) setParent(page, parent uint32) error {
	pg, err := t.pager.Get(page)
	if err != nil {
		return err
	}
	if isLeaf(pg) {
		AsLeaf(pg).SetParent(parent)
	} else {
		AsInternal(pg).SetParent(parent)
	}
	return nil
}

func (t *Tree) reparentChildren(n Internal, newParent uint32) error {
	for i := 0; i < n.NumKeys(); i++ {
		if err := t.setParent(n.CellChild(i), newParent); err != nil {
			return err
		}
	}
	return t.setParent(n.RightChild(), newParent)
}

// TreeMaxKey returns the maximum key reachable from page: its own last cell
// if it is a leaf, or its right child's max key (recursively) if internal.
func (t *Tree) TreeMaxKey(page uint32) (uint32, error) {
	pg, err := t.pager.Get(page)
	if err != nil {
		return 0, err
	}
	return t.treeMaxKeyNode(pg)
}

func (t *Tree) treeMaxKeyNode(pg *pager.Page) (uint32, error) {
	if isLeaf(pg) {
		l := AsLeaf(pg)
		n := l.NumCells()
		if n == 0 {
			return 0, nil
		}
		return l.CellKey(n - 1), nil
	}
	return t.TreeMaxKey(AsInternal(pg).RightChild())
}

// Find descends from page looking for key, returning a cursor at the first
// cell whose key is >= key in the leaf it lands on.
func (t *Tree) Find(page uint32, key uint32) (*Cursor, error) {
	pg, err := t.pager.Get(page)
	if err != nil {
		return nil, err
	}
	if isLeaf(pg) {
		l := AsLeaf(pg)
		n := l.NumCells()
		i := lowerBound(n, l.CellKey, key)
		return &Cursor{tree: t, Page: page, Cell: i, End: i >= n}, nil
	}
	n := AsInternal(pg)
	i := lowerBound(n.NumKeys(), n.CellKey, key)
	return t.Find(n.Child(i), key)
}

// Head returns a cursor at the first cell of the leftmost leaf.
func (t *Tree) Head() (*Cursor, error) {
	return t.Find(RootPage, 0)
}

// Insert adds row r, keyed by r.ID, to the tree. It fails dberr.DuplicateKey
// if r.ID is already present.
func (t *Tree) Insert(r row.Row) error {
	cur, err := t.Find(RootPage, r.ID)
	if err != nil {
		return err
	}
	pg, err := t.pager.Get(cur.Page)
	if err != nil {
		return err
	}
	leaf := AsLeaf(pg)
	if !cur.End && leaf.CellKey(cur.Cell) == r.ID {
		return dberr.DuplicateKey
	}
	return t.leafInsert(cur.Page, cur.Cell, r.ID, r)
}

// Select appends every row in the tree, in ascending key order, to out.
func (t *Tree) Select(out *[]row.Row) error {
	cur, err := t.Head()
	if err != nil {
		return err
	}
	page, cell := cur.Page, cur.Cell
	for {
		pg, err := t.pager.Get(page)
		if err != nil {
			return err
		}
		leaf := AsLeaf(pg)
		for i := cell; i < leaf.NumCells(); i++ {
			*out = append(*out, leaf.CellRow(i))
		}
		next := leaf.NextLeaf()
		if next == 0 {
			return nil
		}
		page, cell = next, 0
	}
}

// Count returns the total number of rows across every leaf reachable from
// Head via the leaf linked list.
func (t *Tree) Count() (uint64, error) {
	cur, err := t.Head()
	if err != nil {
		return 0, err
	}
	var total uint64
	page := cur.Page
	for {
		pg, err := t.pager.Get(page)
		if err != nil {
			return 0, err
		}
		leaf := AsLeaf(pg)
		total += uint64(leaf.NumCells())
		next := leaf.NextLeaf()
		if next == 0 {
			return total, nil
		}
		page = next
	}
}

// leafInsert writes (key, r) into leaf page at cell index cell, shifting
// existing cells right, or falls through to a split-insert if the leaf is
// already full.
func (t *Tree) leafInsert(page uint32, cell int, key uint32, r row.Row) error {
	pg, err := t.pager.Get(page)
	if err != nil {
		return err
	}
	leaf := AsLeaf(pg)
	if leaf.NumCells() < MaxCells {
		leaf.ShiftRight(cell, leaf.NumCells())
		leaf.SetCell(cell, key, r)
		leaf.SetNumCells(leaf.NumCells() + 1)
		return nil
	}
	return t.leafSplitInsert(page, cell, key, r)
}

type leafCellData struct {
	key uint32
	row row.Row
}

func mergedLeafCells(leaf Leaf, insertAt int, key uint32, r row.Row) []leafCellData {
	n := leaf.NumCells()
	merged := make([]leafCellData, 0, n+1)
	for i := 0; i < insertAt; i++ {
		merged = append(merged, leafCellData{leaf.CellKey(i), leaf.CellRow(i)})
	}
	merged = append(merged, leafCellData{key, r})
	for i := insertAt; i < n; i++ {
		merged = append(merged, leafCellData{leaf.CellKey(i), leaf.CellRow(i)})
	}
	return merged
}

// leafSplitInsert handles inserting into a full leaf L: it allocates a new
// right sibling R, redistributes MaxCells+1 cells between them, relinks the
// leaf chain, and propagates the split upward.
func (t *Tree) leafSplitInsert(page uint32, cell int, key uint32, r row.Row) error {
	pg, err := t.pager.Get(page)
	if err != nil {
		return err
	}
	L := AsLeaf(pg)
	oldMax, err := t.treeMaxKeyNode(pg)
	if err != nil {
		return err
	}

	rPage, rPg, err := t.allocate()
	if err != nil {
		return err
	}
	R := InitLeaf(rPg, L.Parent(), false)

	merged := mergedLeafCells(L, cell, key, r)
	for i := 0; i < LeftSplitCells; i++ {
		L.SetCell(i, merged[i].key, merged[i].row)
	}
	L.SetNumCells(LeftSplitCells)
	for i := 0; i < RightSplitCells; i++ {
		R.SetCell(i, merged[LeftSplitCells+i].key, merged[LeftSplitCells+i].row)
	}
	R.SetNumCells(RightSplitCells)

	R.SetNextLeaf(L.NextLeaf())
	L.SetNextLeaf(rPage)

	newMax, err := t.treeMaxKeyNode(pg)
	if err != nil {
		return err
	}

	if L.IsRoot() {
		t.log.Debugw("root leaf split", "right", rPage)
		return t.createNewRoot(newMax, rPage)
	}

	parent := L.Parent()
	rMax, err := t.TreeMaxKey(rPage)
	if err != nil {
		return err
	}
	return t.internalInsert(parent, rMax, rPage, oldMax, newMax)
}

// internalInsert inserts (k, c) into internal node N, first repointing any
// cell keyed lnodeOldMax to lnodeNewMax (the left child's key may have
// shifted as a side effect of the split that produced c).
func (t *Tree) internalInsert(nPage uint32, k, c, lnodeOldMax, lnodeNewMax uint32) error {
	pg, err := t.pager.Get(nPage)
	if err != nil {
		return err
	}
	N := AsInternal(pg)

	for i := 0; i < N.NumKeys(); i++ {
		if N.CellKey(i) == lnodeOldMax {
			N.SetCellKey(i, lnodeNewMax)
			break
		}
	}

	if N.NumKeys() < MaxKeys {
		rMax, err := t.TreeMaxKey(N.RightChild())
		if err != nil {
			return err
		}
		if k > rMax {
			idx := N.NumKeys()
			N.SetCell(idx, rMax, N.RightChild())
			N.SetRightChild(c)
			N.SetNumKeys(idx + 1)
			return nil
		}
		i := lowerBound(N.NumKeys(), N.CellKey, k)
		N.ShiftRight(i, N.NumKeys())
		N.SetCell(i, k, c)
		N.SetNumKeys(N.NumKeys() + 1)
		return nil
	}
	return t.internalSplitInsert(nPage, k, c)
}

type internalCellData struct {
	key, child uint32
}

// internalSplitInsert handles inserting (k, c) into a full internal node N.
// See DESIGN.md for why the incoming pair bypasses the ordinary sorted merge
// when k > old_max: folding it into the merge by position can silently drop
// an already-merged cell whenever RightSplitKeys > LeftSplitKeys.
func (t *Tree) internalSplitInsert(nPage uint32, k, c uint32) error {
	pg, err := t.pager.Get(nPage)
	if err != nil {
		return err
	}
	N := AsInternal(pg)
	oldMax, err := t.treeMaxKeyNode(pg)
	if err != nil {
		return err
	}
	oldRightChild := N.RightChild()

	mPage, mPg, err := t.allocate()
	if err != nil {
		return err
	}
	M := InitInternal(mPg, N.Parent(), false)

	merged := make([]internalCellData, 0, MaxKeys+1)
	promotesRightChild := k > oldMax
	if promotesRightChild {
		for i := 0; i < N.NumKeys(); i++ {
			merged = append(merged, internalCellData{N.CellKey(i), N.CellChild(i)})
		}
		merged = append(merged, internalCellData{oldMax, oldRightChild})
	} else {
		i := lowerBound(N.NumKeys(), N.CellKey, k)
		for idx := 0; idx < i; idx++ {
			merged = append(merged, internalCellData{N.CellKey(idx), N.CellChild(idx)})
		}
		merged = append(merged, internalCellData{k, c})
		for idx := i; idx < N.NumKeys(); idx++ {
			merged = append(merged, internalCellData{N.CellKey(idx), N.CellChild(idx)})
		}
	}

	for i := 0; i < LeftSplitKeys; i++ {
		N.SetCell(i, merged[i].key, merged[i].child)
	}
	for i := 0; i < RightSplitKeys; i++ {
		M.SetCell(i, merged[LeftSplitKeys+i].key, merged[LeftSplitKeys+i].child)
	}
	N.SetNumKeys(LeftSplitKeys - 1)
	M.SetNumKeys(RightSplitKeys)

	if promotesRightChild {
		M.SetRightChild(c)
	} else {
		M.SetRightChild(oldRightChild)
	}
	N.SetRightChild(N.CellChild(LeftSplitKeys - 1))

	if err := t.reparentChildren(M, mPage); err != nil {
		return err
	}

	newMax, err := t.treeMaxKeyNode(pg)
	if err != nil {
		return err
	}

	if N.IsRoot() {
		t.log.Debugw("root internal split", "right", mPage)
		return t.createNewRoot(newMax, mPage)
	}

	mMax, err := t.treeMaxKeyNode(mPg)
	if err != nil {
		return err
	}
	// When k > oldMax the split child was N's right child, so the key N's
	// parent holds for N is k (N's subtree max before this insert), not oldMax.
	parentOldMax := oldMax
	if promotesRightChild {
		parentOldMax = k
	}
	return t.internalInsert(N.Parent(), mMax, mPage, parentOldMax, newMax)
}

// createNewRoot rebuilds page 0 (the root, which never moves) as a fresh
// internal node with one cell. The current root's contents
// are copied into a freshly allocated left child first, since page 0 is
// about to be overwritten; every child of that copied subtree is then
// re-targeted to the new page.
func (t *Tree) createNewRoot(promotedKey, rightPage uint32) error {
	lPage, lPg, err := t.allocate()
	if err != nil {
		return err
	}
	rootPg, err := t.pager.Get(RootPage)
	if err != nil {
		return err
	}
	copy(lPg.Data[:], rootPg.Data[:])
	lPg.Dirty = true

	if isLeaf(lPg) {
		l := AsLeaf(lPg)
		l.SetIsRoot(false)
		l.SetParent(RootPage)
	} else {
		l := AsInternal(lPg)
		l.SetIsRoot(false)
		l.SetParent(RootPage)
		if err := t.reparentChildren(l, lPage); err != nil {
			return err
		}
	}

	if err := t.setParent(rightPage, RootPage); err != nil {
		return err
	}
	if rightPg, err := t.pager.Get(rightPage); err == nil {
		if isLeaf(rightPg) {
			AsLeaf(rightPg).SetIsRoot(false)
		} else {
			AsInternal(rightPg).SetIsRoot(false)
		}
	}

	// Re-fetch page 0: reparentChildren above may have cycled the cache
	// (one Get per child of the copied subtree) and evicted the stale
	// rootPg reference, so writing through it here could land on a *Page
	// the cache no longer tracks. Get always returns the resident object.
	rootPg, err = t.pager.Get(RootPage)
	if err != nil {
		return err
	}
	root := InitInternal(rootPg, 0, true)
	root.SetCell(0, promotedKey, lPage)
	root.SetNumKeys(1)
	root.SetRightChild(rightPage)
	return nil
}

// DumpShape writes a depth-first rendering of the tree's structure to w:
// each leaf line shows its cell count followed by its keys in order; each
// internal line shows its key count, then recurses into each child followed
// by that child's separating key, then recurses into the right child.
func (t *Tree) DumpShape(w io.Writer) error {
	return t.dumpNode(w, RootPage, 0)
}

func (t *Tree) dumpNode(w io.Writer, page uint32, depth int) error {
	pg, err := t.pager.Get(page)
	if err != nil {
		return err
	}
	indent := strings.Repeat("  ", depth)
	if isLeaf(pg) {
		l := AsLeaf(pg)
		fmt.Fprintf(w, "%s- leaf (size %d)\n", indent, l.NumCells())
		for i := 0; i < l.NumCells(); i++ {
			fmt.Fprintf(w, "%s  - %d\n", indent, l.CellKey(i))
		}
		return nil
	}
	n := AsInternal(pg)
	fmt.Fprintf(w, "%s- internal (size %d)\n", indent, n.NumKeys())
	for i := 0; i < n.NumKeys(); i++ {
		if err := t.dumpNode(w, n.CellChild(i), depth+1); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  - key %d\n", indent, n.CellKey(i))
	}
	return t.dumpNode(w, n.RightChild(), depth+1)
}
