// Package row implements Row, the fixed-layout record stored in every leaf
// cell: a 32-bit id, a short key, and a short value, serialized to a
// constant-size byte buffer so every cell on disk has the same width.
package row

import (
	"encoding/binary"

	"pagedkv/dberr"
)

const (
	// MaxKeyLen is the longest key a Row can hold, in bytes.
	MaxKeyLen = 32
	// MaxValLen is the longest value a Row can hold, in bytes.
	MaxValLen = 255

	idSize     = 4
	keyLenSize = 1
	valLenSize = 1

	// Size is the constant on-disk width of a serialized Row.
	Size = idSize + keyLenSize + valLenSize + MaxKeyLen + MaxValLen
)

// Row is the fixed key/value record stored in every leaf cell.
type Row struct {
	ID     uint32
	KeyLen uint8
	ValLen uint8
	KeyBuf [MaxKeyLen]byte
	ValBuf [MaxValLen]byte
}

// New builds a Row, validating and zero-padding key and val. It returns
// dberr.KeyTooLong or dberr.ValueTooLong if either exceeds its maximum.
func New(id uint32, key, val []byte) (Row, error) {
	if len(key) > MaxKeyLen {
		return Row{}, dberr.KeyTooLong
	}
	if len(val) > MaxValLen {
		return Row{}, dberr.ValueTooLong
	}
	var r Row
	r.ID = id
	r.KeyLen = uint8(len(key))
	r.ValLen = uint8(len(val))
	copy(r.KeyBuf[:], key)
	copy(r.ValBuf[:], val)
	return r, nil
}

// Key returns the key's live bytes (excluding zero padding).
func (r Row) Key() []byte { return r.KeyBuf[:r.KeyLen] }

// Value returns the value's live bytes (excluding zero padding).
func (r Row) Value() []byte { return r.ValBuf[:r.ValLen] }

// Encode writes the row's fixed Size-byte representation into dst, which
// must be at least Size bytes long.
func (r Row) Encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], r.ID)
	dst[4] = r.KeyLen
	dst[5] = r.ValLen
	copy(dst[6:6+MaxKeyLen], r.KeyBuf[:])
	copy(dst[6+MaxKeyLen:6+MaxKeyLen+MaxValLen], r.ValBuf[:])
}

// Decode reads a Row out of its fixed Size-byte representation.
func Decode(src []byte) Row {
	var r Row
	r.ID = binary.LittleEndian.Uint32(src[0:4])
	r.KeyLen = src[4]
	r.ValLen = src[5]
	copy(r.KeyBuf[:], src[6:6+MaxKeyLen])
	copy(r.ValBuf[:], src[6+MaxKeyLen:6+MaxKeyLen+MaxValLen])
	return r
}
