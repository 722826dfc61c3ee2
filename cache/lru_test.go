package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagedkv/cache"
)

func TestSet_DoesNotEvictOnItsOwn(t *testing.T) {
	c := cache.New[int, string](2)
	c.Set(1, "a")
	c.Set(2, "b")
	c.Set(3, "c") // over capacity by one, but Set must not evict

	assert.Equal(t, 3, c.Len())
	for _, k := range []int{1, 2, 3} {
		_, ok := c.Peek(k)
		assert.Truef(t, ok, "key %d should still be resident after Set alone", k)
	}
}

func TestInvalidate_EvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.New[int, string](2)
	c.Set(1, "a")
	c.Set(2, "b")
	c.Set(3, "c")

	key, val, ok := c.Invalidate()
	require.True(t, ok)
	assert.Equal(t, 1, key)
	assert.Equal(t, "a", val)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Peek(1)
	assert.False(t, ok)
}

func TestInvalidate_NoOpUnderCapacity(t *testing.T) {
	c := cache.New[int, string](4)
	c.Set(1, "a")
	_, _, ok := c.Invalidate()
	assert.False(t, ok)
}

func TestGet_UpdatesRecency(t *testing.T) {
	c := cache.New[int, string](2)
	c.Set(1, "a")
	c.Set(2, "b")

	_, ok := c.Get(1) // 1 is now most-recently-used
	require.True(t, ok)

	c.Set(3, "c") // over capacity; 2 is now least-recently-used
	key, _, ok := c.Invalidate()
	require.True(t, ok)
	assert.Equal(t, 2, key)
}

func TestPeek_DoesNotChangeRecency(t *testing.T) {
	c := cache.New[int, string](2)
	c.Set(1, "a")
	c.Set(2, "b")

	_, ok := c.Peek(1)
	require.True(t, ok)

	c.Set(3, "c")
	key, _, ok := c.Invalidate()
	require.True(t, ok)
	assert.Equal(t, 1, key, "Peek must not have promoted key 1")
}

func TestKeys_MostRecentlyUsedFirst(t *testing.T) {
	c := cache.New[int, string](3)
	c.Set(1, "a")
	c.Set(2, "b")
	c.Set(3, "c")
	c.Get(1)

	assert.Equal(t, []int{1, 3, 2}, c.Keys())
}
