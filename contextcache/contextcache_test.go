package contextcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/contextcache"
)

func TestScopedPerUserAndFeature(t *testing.T) {
	ctx := context.Background()
	shared := cache.New(cache.Options{})

	marks := contextcache.New[[]string](shared, contextcache.FeatureBookmarks)
	filters := contextcache.New[[]string](shared, contextcache.FeatureContentFilters)

	marks.Set(ctx, "u1", []string{"p1"})

	v, ok := marks.Get("u1")
	assert.True(t, ok)
	assert.Equal(t, []string{"p1"}, v)

	assert.False(t, marks.IsValid("u2"))
	assert.False(t, filters.IsValid("u1"))
}

func TestContextExpiresAfterTwoMinutes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := contextcache.New[int](cache.New(cache.Options{Now: func() time.Time { return now }}), "x")

	c.Set(ctx, "u1", 7)
	now = now.Add(119 * time.Second)
	assert.True(t, c.IsValid("u1"))

	now = now.Add(time.Second)
	assert.False(t, c.IsValid("u1"))
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	c := contextcache.New[int](cache.New(cache.Options{}), "x")

	c.Set(ctx, "u1", 7)
	c.Invalidate(ctx, "u1")
	c.Invalidate(ctx, "u1")

	_, ok := c.Get("u1")
	assert.False(t, ok)
}

func TestWrongTypeIsAMiss(t *testing.T) {
	ctx := context.Background()
	shared := cache.New(cache.Options{})

	contextcache.New[string](shared, "x").Set(ctx, "u1", "text")

	_, ok := contextcache.New[int](shared, "x").Get("u1")
	assert.False(t, ok)
}
