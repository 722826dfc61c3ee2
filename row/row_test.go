package row_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagedkv/dberr"
	"pagedkv/row"
)

func TestNew_RoundTrip(t *testing.T) {
	r, err := row.New(7, []byte("hello"), []byte("world"))
	require.NoError(t, err)
	assert.EqualValues(t, 7, r.ID)
	assert.Equal(t, "hello", string(r.Key()))
	assert.Equal(t, "world", string(r.Value()))

	var buf [row.Size]byte
	r.Encode(buf[:])
	got := row.Decode(buf[:])
	assert.Equal(t, r, got)
}

func TestNew_KeyTooLong(t *testing.T) {
	key := make([]byte, row.MaxKeyLen+1)
	_, err := row.New(1, key, nil)
	assert.ErrorIs(t, err, dberr.KeyTooLong)
}

func TestNew_ValueTooLong(t *testing.T) {
	val := make([]byte, row.MaxValLen+1)
	_, err := row.New(1, nil, val)
	assert.ErrorIs(t, err, dberr.ValueTooLong)
}

func TestNew_MaxLengths(t *testing.T) {
	key := make([]byte, row.MaxKeyLen)
	val := make([]byte, row.MaxValLen)
	r, err := row.New(1, key, val)
	require.NoError(t, err)
	assert.Len(t, r.Key(), row.MaxKeyLen)
	assert.Len(t, r.Value(), row.MaxValLen)
}

func TestRoundTrip_Fuzzed(t *testing.T) {
	for i := 0; i < 200; i++ {
		key := []byte(gofakeit.LetterN(uint(gofakeit.Number(0, row.MaxKeyLen))))
		val := []byte(gofakeit.LetterN(uint(gofakeit.Number(0, row.MaxValLen))))
		id := gofakeit.Uint32()

		r, err := row.New(id, key, val)
		require.NoError(t, err)

		var buf [row.Size]byte
		r.Encode(buf[:])
		got := row.Decode(buf[:])
		require.Equal(t, r, got)
		assert.Equal(t, string(key), string(got.Key()))
		assert.Equal(t, string(val), string(got.Value()))
	}
}
