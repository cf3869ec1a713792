package ttlcache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"safespace/pkg/ttlcache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCache(t *testing.T, ttl time.Duration) (*ttlcache.Cache[string], *clock) {
	t.Helper()

	clk := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return ttlcache.New[string](ttl, ttlcache.WithClock(clk.Now)), clk
}

func TestCache_GetSet(t *testing.T) {
	t.Parallel()

	t.Run("hit before ttl", func(t *testing.T) {
		t.Parallel()

		c, clk := newCache(t, time.Minute)
		c.Set("posts:list:1:10", "v")

		v, ok := c.Get("posts:list:1:10")
		require.True(t, ok)
		require.Equal(t, "v", v)

		clk.Advance(59 * time.Second)
		_, ok = c.Get("posts:list:1:10")
		require.True(t, ok)
	})

	t.Run("miss at ttl", func(t *testing.T) {
		t.Parallel()

		c, clk := newCache(t, time.Minute)
		c.Set("k", "v")

		clk.Advance(time.Minute)

		_, ok := c.Get("k")
		require.False(t, ok)
		require.Equal(t, 0, c.Len())
	})

	t.Run("set refreshes timestamp", func(t *testing.T) {
		t.Parallel()

		c, clk := newCache(t, time.Minute)
		c.Set("k", "old")
		clk.Advance(50 * time.Second)
		c.Set("k", "new")
		clk.Advance(50 * time.Second)

		v, ok := c.Get("k")
		require.True(t, ok)
		require.Equal(t, "new", v)
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache(t, time.Minute)
		_, ok := c.Get("nope")
		require.False(t, ok)
	})
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	fill := func(c *ttlcache.Cache[string]) {
		c.Set("posts:list:1:10", "a")
		c.Set("posts:list:2:10", "b")
		c.Set("posts:pagination:1:10", "c")
		c.Set("post:42", "d")
		c.Set("me", "e")
	}

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache(t, time.Minute)
		fill(c)

		c.Invalidate("posts:")

		require.Equal(t, 2, c.Len())
		_, ok := c.Get("post:42")
		require.True(t, ok)
		_, ok = c.Get("me")
		require.True(t, ok)
	})

	t.Run("exact", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache(t, time.Minute)
		fill(c)

		c.Invalidate("me")

		_, ok := c.Get("me")
		require.False(t, ok)
		require.Equal(t, 4, c.Len())
	})

	t.Run("several patterns", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache(t, time.Minute)
		fill(c)

		c.Invalidate("posts:", "post:42")

		require.Equal(t, 1, c.Len())
	})

	t.Run("delete matches whole keys", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache(t, time.Minute)
		c.Set("post:4", "a")
		c.Set("post:42", "b")

		c.Delete("post:4", "post:missing")

		_, ok := c.Get("post:4")
		require.False(t, ok)
		_, ok = c.Get("post:42")
		require.True(t, ok)
	})

	t.Run("everything", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache(t, time.Minute)
		fill(c)

		c.Invalidate()

		require.Equal(t, 0, c.Len())
	})
}
