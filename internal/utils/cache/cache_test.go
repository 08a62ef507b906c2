package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSet(t *testing.T) {
	c := New(time.Minute)
	c.Set("k", []byte("v"))

	data, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), data)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", []byte("v"))

	now = now.Add(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	// 过期条目惰性剔除
	assert.Equal(t, 0, c.Len())
}

func TestCacheZeroTTLDisables(t *testing.T) {
	c := New(0)
	c.Set("k", []byte("v"))
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestKeyDeterministicAndOrderInsensitive(t *testing.T) {
	k1 := Key("/a", map[string]string{"x": "1", "y": "2"})
	k2 := Key("/a", map[string]string{"y": "2", "x": "1"})
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 32)

	k3 := Key("/a", map[string]string{"x": "1"})
	assert.NotEqual(t, k1, k3)
	k4 := Key("/b", map[string]string{"x": "1", "y": "2"})
	assert.NotEqual(t, k1, k4)
}

func TestCachePurge(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", nil)
	c.Set("b", nil)
	require.Equal(t, 2, c.Len())
	c.Purge()
	assert.Equal(t, 0, c.Len())
}
