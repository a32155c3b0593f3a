package feedcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/feedcache"
	"github.com/krisalay/clientsync/model"
)

func newFeedCache(now *time.Time) *feedcache.Cache {
	return feedcache.New(cache.New(cache.Options{Now: func() time.Time { return *now }}))
}

func TestSetThenGet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newFeedCache(&now)

	c.Set(ctx, []model.Post{{ID: "p1"}, {ID: "p2"}})

	snap, ok := c.Get()
	require.True(t, ok)
	assert.Len(t, snap.Posts, 2)
	assert.Equal(t, now, snap.StoredAt)
	assert.True(t, c.IsValid())
}

func TestFeedExpiresAfterFiveMinutes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newFeedCache(&now)

	c.Set(ctx, []model.Post{{ID: "p1"}})

	now = now.Add(4*time.Minute + 59*time.Second)
	assert.True(t, c.IsValid())

	now = now.Add(time.Second)
	assert.False(t, c.IsValid())
	_, ok := c.Get()
	assert.False(t, ok)
}

func TestClearInvalidates(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := newFeedCache(&now)

	c.Set(ctx, []model.Post{{ID: "p1"}})
	c.Clear(ctx)

	assert.False(t, c.IsValid())
	_, ok := c.Get()
	assert.False(t, ok)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := newFeedCache(&now)

	posts := []model.Post{{ID: "p1"}}
	c.Set(ctx, posts)
	posts[0].ID = "changed"

	snap, _ := c.Get()
	snap.Posts[0].ID = "also-changed"

	again, _ := c.Get()
	assert.Equal(t, "p1", again.Posts[0].ID)
}
