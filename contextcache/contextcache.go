package contextcache

import (
	"context"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/api"
)

// Features sharing the context namespace.
const (
	FeatureBookmarks      = "bookmarks"
	FeatureContentFilters = "content-filters"
)

/*
Cache[T] is the per-user, per-feature slot a synchronizer consults before going
to the network. Keys are "feature:userID", so two users signed in one after the
other never share a slot.
*/
type Cache[T any] struct {
	store   api.Cache
	feature string
}

func New[T any](store api.Cache, feature string) *Cache[T] {
	return &Cache[T]{store: store, feature: feature}
}

func (c *Cache[T]) key(userID string) string {
	return c.feature + ":" + userID
}

func (c *Cache[T]) Get(userID string) (T, bool) {
	var zero T
	v, ok := c.store.Get(cache.NamespaceContext, c.key(userID))
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

func (c *Cache[T]) Set(ctx context.Context, userID string, value T) {
	c.store.Set(ctx, cache.NamespaceContext, c.key(userID), value)
}

func (c *Cache[T]) Invalidate(ctx context.Context, userID string) {
	c.store.Invalidate(ctx, cache.NamespaceContext, c.key(userID))
}

func (c *Cache[T]) IsValid(userID string) bool {
	_, ok := c.Get(userID)
	return ok
}
