package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(4)
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", []byte("v"), time.Minute)
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(4)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	current := base
	c.now = func() time.Time { return current }

	c.Set(ctx, "k", []byte("v"), time.Minute)

	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	current = base.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCacheEvictsClosestToExpiry(t *testing.T) {
	c := NewMemoryCache(2)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set(ctx, "short", []byte("1"), time.Minute)
	c.Set(ctx, "long", []byte("2"), time.Hour)
	c.Set(ctx, "new", []byte("3"), time.Hour)

	_, ok := c.Get(ctx, "short")
	assert.False(t, ok, "entry closest to expiry should be evicted")

	_, ok = c.Get(ctx, "long")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "new")
	assert.True(t, ok)
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(64)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%16)
				c.Set(ctx, key, []byte{byte(n)}, time.Minute)
				c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()
}
