package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedCache(max int, ttl time.Duration) (*LRUCache[string], *time.Time) {
	c := NewLRUCache[string](max, ttl)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUGetSet(t *testing.T) {
	c, _ := newClockedCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	// "b" is now least recently used
	c.Set("c", "3")
	_, ok = c.Get("b")
	assert.False(t, ok, "expected b to be evicted")
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	c, now := newClockedCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	*now = now.Add(2 * time.Minute)
	c.Set("c", "3")

	_, ok := c.Get("a")
	assert.False(t, ok, "expected a to be expired")
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
}

func TestLRUDeletePrefix(t *testing.T) {
	c, _ := newClockedCache(10, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("ana|%d", i), "x")
	}
	c.Set("anabel|0", "x")
	assert.Equal(t, 3, c.DeletePrefix("ana|"))
	_, ok := c.Get("anabel|0")
	assert.True(t, ok, "unrelated key removed")
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	c, now := newClockedCache(10, time.Second)
	c.Set("a", "1")
	*now = now.Add(time.Hour)

	m := NewManager()
	m.Register(c)
	assert.Equal(t, 1, m.CleanNow())
	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewManager().Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "Stop blocked without StartCleanup")
	}
}
