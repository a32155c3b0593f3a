package cache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/clientsync/api"
	"github.com/krisalay/clientsync/engine"
	"github.com/krisalay/clientsync/shard"
	"github.com/krisalay/clientsync/types"
)

var _ api.Cache = (*KeyedCache)(nil)

/*
KeyedCache is the process-wide (namespace, key) → (value, storedAt) store.
The feed, ticker and context caches are thin typed views over one shared instance.

It connects:
- shards (storage)
- engine (TTL, snapshot persistence, metrics, clock)

There is no size bound and no LRU: the key space is one feed, one watchlist per user,
N tickers and two context features per user, so TTL alone keeps it small.
*/
type KeyedCache struct {
	shards   []*shard.Shard
	engine   *engine.CacheEngine
	selector shard.Selector

	// sf collapses concurrent snapshot loads of the same key into one store call.
	sf singleflight.Group
}

func NewKeyedCache(shards int, engine *engine.CacheEngine) *KeyedCache {
	return &KeyedCache{
		shards:   shard.New(shards),
		engine:   engine,
		selector: shard.HashSelector{},
	}
}

// storeKey joins namespace and key with a separator that cannot appear in either.
func storeKey(namespace, key string) string {
	return namespace + "\x00" + key
}

func (c *KeyedCache) shardFor(sk string) *shard.Shard {
	return c.selector.Select(sk, c.shards)
}

func (c *KeyedCache) Get(namespace, key string) (any, bool) {
	ent, ok := c.Entry(namespace, key)
	if !ok {
		return nil, false
	}
	return ent.Value, true
}

func (c *KeyedCache) Entry(namespace, key string) (*types.CacheEntry, bool) {
	sk := storeKey(namespace, key)
	sh := c.shardFor(sk)

	ent, ok := sh.Store.Get(sk)
	if !ok {
		c.engine.Metrics.Miss(namespace)
		return nil, false
	}

	if c.engine.IsExpired(ent) {
		c.engine.Metrics.Expire(namespace)
		c.engine.Metrics.Miss(namespace)
		c.evictStale(sh, sk, ent)
		return nil, false
	}

	c.engine.Metrics.Hit(namespace)
	return ent, true
}

// evictStale removes sk only if it still holds the stale entry we saw;
// a concurrent Set may already have replaced it with a fresh one.
func (c *KeyedCache) evictStale(sh *shard.Shard, sk string, stale *types.CacheEntry) {
	sh.WriteMu.Lock()
	defer sh.WriteMu.Unlock()

	if cur, ok := sh.Store.Get(sk); ok && cur == stale {
		sh.Store.Delete(sk)
	}
}

func (c *KeyedCache) Set(ctx context.Context, namespace, key string, value any) {
	c.put(ctx, c.engine.Stamp(namespace, key, value))
}

func (c *KeyedCache) put(ctx context.Context, ent *types.CacheEntry) {
	sk := storeKey(ent.Namespace, ent.Key)
	sh := c.shardFor(sk)

	sh.WriteMu.Lock()
	sh.Store.Put(sk, ent)
	sh.WriteMu.Unlock()

	c.engine.OnWrite(ctx, ent)
}

func (c *KeyedCache) Invalidate(ctx context.Context, namespace, key string) {
	sk := storeKey(namespace, key)
	sh := c.shardFor(sk)

	sh.WriteMu.Lock()
	sh.Store.Delete(sk)
	sh.WriteMu.Unlock()

	c.engine.OnInvalidate(ctx, namespace, key)
}

func (c *KeyedCache) Clear(ctx context.Context, namespace string) {
	for _, sh := range c.shards {
		var removed []string

		sh.WriteMu.Lock()
		sh.Store.DeleteFunc(func(ent *types.CacheEntry) bool {
			if ent.Namespace != namespace {
				return false
			}
			removed = append(removed, ent.Key)
			return true
		})
		sh.WriteMu.Unlock()

		for _, key := range removed {
			c.engine.OnInvalidate(ctx, namespace, key)
		}
	}
}

/*
Fetch serves from memory, then falls back to the snapshot store.

singleflight ensures that if many goroutines miss the same ticker at once,
only ONE of them reads the snapshot store; the others share its result.
*/
func (c *KeyedCache) Fetch(ctx context.Context, namespace, key string) (any, bool, error) {
	if v, ok := c.Get(namespace, key); ok {
		return v, true, nil
	}

	sk := storeKey(namespace, key)
	res, err, _ := c.sf.Do(sk, func() (any, error) {
		return c.engine.Load(ctx, namespace, key)
	})
	if err != nil {
		return nil, false, err
	}

	ent, _ := res.(*types.CacheEntry)
	if ent == nil || c.engine.IsExpired(ent) {
		return nil, false, nil
	}

	// keep the snapshot's StoredAt so a reload never extends the TTL window
	sh := c.shardFor(sk)
	sh.WriteMu.Lock()
	if cur, ok := sh.Store.Get(sk); !ok || cur.StoredAt.Before(ent.StoredAt) {
		sh.Store.Put(sk, ent)
	}
	sh.WriteMu.Unlock()

	c.engine.Metrics.Hit(namespace)
	return ent.Value, true, nil
}

// Close flushes pending snapshot writes.
func (c *KeyedCache) Close() {
	if c.engine.WritePolicy != nil {
		c.engine.WritePolicy.Close()
	}
}
