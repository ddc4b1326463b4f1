package foldercache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetPut(t *testing.T) {
	c := New(3)

	_, ok := c.Get("k1")
	assert.False(t, ok)

	c.Put("k1", "folder-1")
	id, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "folder-1", id)
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictsOldestFirst(t *testing.T) {
	c := New(3)
	for i := 1; i <= 4; i++ {
		c.Put(fmt.Sprintf("k%d", i), fmt.Sprintf("f%d", i))
	}

	// capacity+1 inserts: the first-inserted key is gone, later ones remain
	_, ok := c.Get("k1")
	assert.False(t, ok)
	for i := 2; i <= 4; i++ {
		_, ok := c.Get(fmt.Sprintf("k%d", i))
		assert.True(t, ok, "k%d should survive", i)
	}
	assert.Equal(t, 3, c.Len())
}

func TestCache_NeverExceedsCapacity(t *testing.T) {
	c := New(5)
	for i := 0; i < 50; i++ {
		c.Put(fmt.Sprintf("k%d", i), "f")
		assert.LessOrEqual(t, c.Len(), 5)
	}
}

func TestCache_HitDoesNotRefreshPosition(t *testing.T) {
	c := New(2)
	c.Put("k1", "f1")
	c.Put("k2", "f2")

	// a hit on k1 must not save it from eviction
	_, _ = c.Get("k1")
	c.Put("k3", "f3")

	_, ok := c.Get("k1")
	assert.False(t, ok)
	_, ok = c.Get("k2")
	assert.True(t, ok)
}

func TestCache_PutExistingKeepsPosition(t *testing.T) {
	c := New(2)
	c.Put("k1", "f1")
	c.Put("k2", "f2")
	c.Put("k1", "f1-new") // update, not re-insert

	id, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "f1-new", id)

	// k1 is still the oldest and is evicted next
	c.Put("k3", "f3")
	_, ok = c.Get("k1")
	assert.False(t, ok)
}

func TestCache_DefaultCapacity(t *testing.T) {
	c := New(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		c.Put(fmt.Sprintf("k%d", i), "f")
	}
	assert.Equal(t, DefaultCapacity, c.Len())
}

func TestCache_Clear(t *testing.T) {
	c := New(3)
	c.Put("k1", "f1")
	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("k1")
	assert.False(t, ok)
}
