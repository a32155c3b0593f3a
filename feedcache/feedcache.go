package feedcache

import (
	"context"
	"time"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/api"
	"github.com/krisalay/clientsync/model"
)

const homeKey = "home"

// Snapshot is the cached home feed and the moment it was fetched.
type Snapshot struct {
	Posts    []model.Post
	StoredAt time.Time
}

/*
Cache is a single-slot view over the keyed cache holding the home feed.

The feed is user-scoped: a session must Clear it on logout so the next
user never sees the previous user's timeline.
*/
type Cache struct {
	store api.Cache
}

func New(store api.Cache) *Cache {
	return &Cache{store: store}
}

// Get returns a copy of the cached feed, or false if absent or stale.
func (c *Cache) Get() (Snapshot, bool) {
	ent, ok := c.store.Entry(cache.NamespaceFeed, homeKey)
	if !ok {
		return Snapshot{}, false
	}
	posts, ok := ent.Value.([]model.Post)
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{Posts: model.ClonePosts(posts), StoredAt: ent.StoredAt}, true
}

func (c *Cache) Set(ctx context.Context, posts []model.Post) {
	c.store.Set(ctx, cache.NamespaceFeed, homeKey, model.ClonePosts(posts))
}

func (c *Cache) IsValid() bool {
	_, ok := c.store.Get(cache.NamespaceFeed, homeKey)
	return ok
}

func (c *Cache) Clear(ctx context.Context) {
	c.store.Invalidate(ctx, cache.NamespaceFeed, homeKey)
}
