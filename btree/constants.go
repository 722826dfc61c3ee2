package btree

import (
	"pagedkv/pager"
	"pagedkv/row"
)

// Node type tags, stored in the common header's type byte.
const (
	typeLeaf     byte = 0
	typeInternal byte = 1
)

// Common header layout: parent page (uint32), is_root (bool, one byte),
// type (one byte).
const (
	hdrParentOff  = 0
	hdrIsRootOff  = 4
	hdrTypeOff    = 5
	commonHdrSize = 6
)

// Leaf body layout: next_leaf (uint32), num_cells (uint32), then cells.
const (
	leafNextOff  = commonHdrSize
	leafCountOff = commonHdrSize + 4
	leafCellsOff = commonHdrSize + 8

	leafKeySize  = 4
	leafCellSize = leafKeySize + row.Size
)

// Internal body layout: right_child (uint32), num_keys (uint32), then
// cells (key, child page).
const (
	intRightOff = commonHdrSize
	intCountOff = commonHdrSize + 4
	intCellsOff = commonHdrSize + 8

	intKeySize   = 4
	intChildSize = 4
	intCellSize  = intKeySize + intChildSize
)

// MaxCells, MaxKeys and the split points are derived from pager.PageSize and
// row.Size rather than hardcoded.
var (
	// MaxCells is how many leaf cells fit in one page.
	MaxCells = int((pager.PageSize - leafCellsOff) / leafCellSize)
	// MaxKeys is how many internal cells fit in one page.
	MaxKeys = int((pager.PageSize - intCellsOff) / intCellSize)

	// LeftSplitCells/RightSplitCells split a full leaf's MaxCells+1 cells
	// (after inserting the new one) between the original leaf and its new
	// right sibling.
	LeftSplitCells  = (MaxCells + 1) / 2
	RightSplitCells = (MaxCells + 1) - LeftSplitCells

	// LeftSplitKeys/RightSplitKeys do the same for a full internal node's
	// MaxKeys+1 cells.
	LeftSplitKeys  = (MaxKeys + 1) / 2
	RightSplitKeys = (MaxKeys + 1) - LeftSplitKeys
)

// RootPage is always page 0: the root never moves, and a root split
// overwrites page 0 in place instead of handing the root role to a new page.
const RootPage uint32 = 0
