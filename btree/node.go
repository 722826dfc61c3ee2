package btree

import (
	"encoding/binary"

	"pagedkv/pager"
	"pagedkv/row"
)

// header is the common leaf/internal header: the parent page number, the
// root flag, and the node type tag, read from or written to the first
// commonHdrSize bytes of a page.
type header struct {
	parent uint32
	isRoot bool
	typ    byte
}

func readHeader(data []byte) header {
	var h header
	h.parent = binary.LittleEndian.Uint32(data[hdrParentOff : hdrParentOff+4])
	h.isRoot = data[hdrIsRootOff] != 0
	h.typ = data[hdrTypeOff]
	return h
}

func (h header) writeTo(data []byte) {
	binary.LittleEndian.PutUint32(data[hdrParentOff:hdrParentOff+4], h.parent)
	if h.isRoot {
		data[hdrIsRootOff] = 1
	} else {
		data[hdrIsRootOff] = 0
	}
	data[hdrTypeOff] = h.typ
}

// isLeaf reports whether page pg currently holds a leaf node.
func isLeaf(pg *pager.Page) bool { return pg.Data[hdrTypeOff] == typeLeaf }

// Leaf is a view over a page known to hold a leaf node. It reads and writes
// pg.Data directly; there is no separate in-memory mirror to fall out of
// sync with the page the pager owns.
type Leaf struct{ pg *pager.Page }

// AsLeaf wraps pg as a Leaf view, without checking its type tag.
func AsLeaf(pg *pager.Page) Leaf { return Leaf{pg: pg} }

// InitLeaf stamps pg as a fresh, empty leaf with the given parent and root
// flag. It marks pg dirty. The page is zeroed first: a page that previously
// held the other variant (e.g. the root being overwritten during a split)
// must not leak stale cell bytes into the unused tail.
func InitLeaf(pg *pager.Page, parent uint32, isRoot bool) Leaf {
	for i := range pg.Data {
		pg.Data[i] = 0
	}
	h := header{parent: parent, isRoot: isRoot, typ: typeLeaf}
	h.writeTo(pg.Data[:])
	binary.LittleEndian.PutUint32(pg.Data[leafNextOff:leafNextOff+4], 0)
	binary.LittleEndian.PutUint32(pg.Data[leafCountOff:leafCountOff+4], 0)
	pg.Dirty = true
	return Leaf{pg: pg}
}

func (l Leaf) header() header { return readHeader(l.pg.Data[:]) }

// Parent returns the page number of this leaf's parent internal node.
func (l Leaf) Parent() uint32 { return l.header().parent }

// SetParent rewrites this leaf's parent page number.
func (l Leaf) SetParent(p uint32) {
	binary.LittleEndian.PutUint32(l.pg.Data[hdrParentOff:hdrParentOff+4], p)
	l.pg.Dirty = true
}

// IsRoot reports whether this leaf is currently the tree root.
func (l Leaf) IsRoot() bool { return l.header().isRoot }

// SetIsRoot rewrites this leaf's root flag.
func (l Leaf) SetIsRoot(v bool) {
	if v {
		l.pg.Data[hdrIsRootOff] = 1
	} else {
		l.pg.Data[hdrIsRootOff] = 0
	}
	l.pg.Dirty = true
}

// NextLeaf returns the page number of the next leaf in key order, or 0.
func (l Leaf) NextLeaf() uint32 {
	return binary.LittleEndian.Uint32(l.pg.Data[leafNextOff : leafNextOff+4])
}

// SetNextLeaf rewrites the next-leaf link.
func (l Leaf) SetNextLeaf(n uint32) {
	binary.LittleEndian.PutUint32(l.pg.Data[leafNextOff:leafNextOff+4], n)
	l.pg.Dirty = true
}

// NumCells returns the occupied cell count.
func (l Leaf) NumCells() int {
	return int(binary.LittleEndian.Uint32(l.pg.Data[leafCountOff : leafCountOff+4]))
}

// SetNumCells rewrites the occupied cell count.
func (l Leaf) SetNumCells(n int) {
	binary.LittleEndian.PutUint32(l.pg.Data[leafCountOff:leafCountOff+4], uint32(n))
	l.pg.Dirty = true
}

func (l Leaf) cellOff(i int) int { return leafCellsOff + i*leafCellSize }

// CellKey returns cell i's key.
func (l Leaf) CellKey(i int) uint32 {
	off := l.cellOff(i)
	return binary.LittleEndian.Uint32(l.pg.Data[off : off+leafKeySize])
}

// CellRow returns a copy of cell i's row.
func (l Leaf) CellRow(i int) row.Row {
	off := l.cellOff(i) + leafKeySize
	return row.Decode(l.pg.Data[off : off+row.Size])
}

// SetCell overwrites cell i with (key, r) in place.
func (l Leaf) SetCell(i int, key uint32, r row.Row) {
	off := l.cellOff(i)
	binary.LittleEndian.PutUint32(l.pg.Data[off:off+leafKeySize], key)
	r.Encode(l.pg.Data[off+leafKeySize : off+leafCellSize])
	l.pg.Dirty = true
}

// ShiftRight moves cells [from, count) one slot to the right, making room to
// write a new cell at index from. count is the cell count *before* the
// shift.
func (l Leaf) ShiftRight(from, count int) {
	for i := count; i > from; i-- {
		srcOff := l.cellOff(i - 1)
		dstOff := l.cellOff(i)
		copy(l.pg.Data[dstOff:dstOff+leafCellSize], l.pg.Data[srcOff:srcOff+leafCellSize])
	}
	l.pg.Dirty = true
}

// Internal is a view over a page known to hold an internal node.
type Internal struct{ pg *pager.Page }

// AsInternal wraps pg as an Internal view, without checking its type tag.
func AsInternal(pg *pager.Page) Internal { return Internal{pg: pg} }

// InitInternal stamps pg as a fresh, empty internal node with the given
// parent and root flag. It marks pg dirty. The page is zeroed first, for
// the same reason InitLeaf zeroes it.
func InitInternal(pg *pager.Page, parent uint32, isRoot bool) Internal {
	for i := range pg.Data {
		pg.Data[i] = 0
	}
	h := header{parent: parent, isRoot: isRoot, typ: typeInternal}
	h.writeTo(pg.Data[:])
	binary.LittleEndian.PutUint32(pg.Data[intRightOff:intRightOff+4], 0)
	binary.LittleEndian.PutUint32(pg.Data[intCountOff:intCountOff+4], 0)
	pg.Dirty = true
	return Internal{pg: pg}
}

func (n Internal) header() header { return readHeader(n.pg.Data[:]) }

// Parent returns the page number of this node's parent internal node.
func (n Internal) Parent() uint32 { return n.header().parent }

// SetParent rewrites this node's parent page number.
func (n Internal) SetParent(p uint32) {
	binary.LittleEndian.PutUint32(n.pg.Data[hdrParentOff:hdrParentOff+4], p)
	n.pg.Dirty = true
}

// IsRoot reports whether this node is currently the tree root.
func (n Internal) IsRoot() bool { return n.header().isRoot }

// SetIsRoot rewrites this node's root flag.
func (n Internal) SetIsRoot(v bool) {
	if v {
		n.pg.Data[hdrIsRootOff] = 1
	} else {
		n.pg.Data[hdrIsRootOff] = 0
	}
	n.pg.Dirty = true
}

// RightChild returns the page number of the rightmost subtree.
func (n Internal) RightChild() uint32 {
	return binary.LittleEndian.Uint32(n.pg.Data[intRightOff : intRightOff+4])
}

// SetRightChild rewrites the right-child pointer.
func (n Internal) SetRightChild(p uint32) {
	binary.LittleEndian.PutUint32(n.pg.Data[intRightOff:intRightOff+4], p)
	n.pg.Dirty = true
}

// NumKeys returns the occupied cell count.
func (n Internal) NumKeys() int {
	return int(binary.LittleEndian.Uint32(n.pg.Data[intCountOff : intCountOff+4]))
}

// SetNumKeys rewrites the occupied cell count.
func (n Internal) SetNumKeys(k int) {
	binary.LittleEndian.PutUint32(n.pg.Data[intCountOff:intCountOff+4], uint32(k))
	n.pg.Dirty = true
}

func (n Internal) cellOff(i int) int { return intCellsOff + i*intCellSize }

// CellKey returns cell i's key.
func (n Internal) CellKey(i int) uint32 {
	off := n.cellOff(i)
	return binary.LittleEndian.Uint32(n.pg.Data[off : off+intKeySize])
}

// CellChild returns cell i's child page number.
func (n Internal) CellChild(i int) uint32 {
	off := n.cellOff(i) + intKeySize
	return binary.LittleEndian.Uint32(n.pg.Data[off : off+intChildSize])
}

// SetCell overwrites cell i with (key, child) in place.
func (n Internal) SetCell(i int, key, child uint32) {
	off := n.cellOff(i)
	binary.LittleEndian.PutUint32(n.pg.Data[off:off+intKeySize], key)
	binary.LittleEndian.PutUint32(n.pg.Data[off+intKeySize:off+intCellSize], child)
	n.pg.Dirty = true
}

// SetCellKey rewrites only cell i's key, leaving its child untouched.
func (n Internal) SetCellKey(i int, key uint32) {
	off := n.cellOff(i)
	binary.LittleEndian.PutUint32(n.pg.Data[off:off+intKeySize], key)
	n.pg.Dirty = true
}

// ShiftRight moves cells [from, count) one slot to the right, making room to
// write a new cell at index from. count is the cell count *before* the
// shift.
func (n Internal) ShiftRight(from, count int) {
	for i := count; i > from; i-- {
		srcOff := n.cellOff(i - 1)
		dstOff := n.cellOff(i)
		copy(n.pg.Data[dstOff:dstOff+intCellSize], n.pg.Data[srcOff:srcOff+intCellSize])
	}
	n.pg.Dirty = true
}

// Child returns the page number of the subtree that would contain key,
// given search index i as returned by lowerBound over this node's
// num_keys cells: cells[i].child when i < num_keys, else right_child.
func (n Internal) Child(i int) uint32 {
	if i < n.NumKeys() {
		return n.CellChild(i)
	}
	return n.RightChild()
}

// lowerBound returns the first index i in [0, count) with keyAt(i) >= key,
// or count if no such index exists: the insertion index when no equal key
// is present, the index of the equal key otherwise.
func lowerBound(count int, keyAt func(int) uint32, key uint32) int {
	lo, hi := 0, count
	for lo < hi {
		mid := (lo + hi) / 2
		if keyAt(mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
