package btree

import "pagedkv/row"

// Cursor anchors ordered traversal and point insertion at a specific
// (leaf page, cell index) pair. Page always identifies a leaf; a cursor
// must not outlive a mutating tree call other than the Insert it drives.
type Cursor struct {
	tree *Tree
	Page uint32
	Cell int
	End  bool
}

// Value returns the row at the cursor's current position.
func (c *Cursor) Value() (row.Row, error) {
	pg, err := c.tree.pager.Get(c.Page)
	if err != nil {
		return row.Row{}, err
	}
	return AsLeaf(pg).CellRow(c.Cell), nil
}

// Advance moves the cursor to the next cell, following the leaf link if the
// current leaf is exhausted, and setting End once the last leaf is drained.
func (c *Cursor) Advance() error {
	pg, err := c.tree.pager.Get(c.Page)
	if err != nil {
		return err
	}
	leaf := AsLeaf(pg)
	c.Cell++
	if c.Cell >= leaf.NumCells() {
		next := leaf.NextLeaf()
		if next == 0 {
			c.End = true
			return nil
		}
		c.Page = next
		c.Cell = 0
	}
	return nil
}

// Insert writes (key, r) at the cursor's position, driving the same leaf
// insert/split logic as Tree.Insert. The cursor is consumed afterward; it
// must not be reused.
func (c *Cursor) Insert(key uint32, r row.Row) error {
	return c.tree.leafInsert(c.Page, c.Cell, key, r)
}
