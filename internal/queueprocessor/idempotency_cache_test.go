package queueprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdempotencyCache_ContainsAndAdd(t *testing.T) {
	c := NewIdempotencyCache(2)
	assert.False(t, c.Contains("a"))
	c.Add("a")
	assert.True(t, c.Contains("a"))
}

func TestIdempotencyCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewIdempotencyCache(2)
	c.Add("a")
	c.Add("b")
	// touch "a" so "b" becomes the LRU victim
	assert.True(t, c.Contains("a"))
	c.Add("c")

	assert.True(t, c.Contains("a"))
	assert.True(t, c.Contains("c"))
	assert.False(t, c.Contains("b"))
	assert.Equal(t, 2, c.Len())
}
