// Package dberr holds the sentinel error values shared by the pager and
// btree packages, plus the wrapping helpers used to attach context to an
// underlying I/O failure without losing sentinel identity.
package dberr

import "github.com/pkg/errors"

var (
	// Corrupted is returned when a database file's size is not a multiple
	// of the page size.
	Corrupted = errors.New("dberr: file size is not a multiple of the page size")

	// OutOfBound is returned when a page number is at or beyond the
	// configured page ceiling.
	OutOfBound = errors.New("dberr: page number out of bound")

	// NullPage is returned when an operation needs a page to be resident
	// in the cache but it is not.
	NullPage = errors.New("dberr: page is not resident in the cache")

	// DuplicateKey is returned when an insert's key already exists in the
	// tree.
	DuplicateKey = errors.New("dberr: duplicate key")

	// KeyTooLong is returned when a row's key exceeds row.MaxKeyLen.
	KeyTooLong = errors.New("dberr: key too long")

	// ValueTooLong is returned when a row's value exceeds row.MaxValLen.
	ValueTooLong = errors.New("dberr: value too long")

	// TableFull is returned when no further pages can be allocated because
	// the page ceiling has been reached. Reserved: nothing in this module
	// currently allocates enough pages in a test or documented run to hit
	// it, but callers should handle it.
	TableFull = errors.New("dberr: table full, no free pages below the page ceiling")
)

// Wrap attaches msg as context to err while keeping err matchable with
// errors.Is. It returns nil if err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
