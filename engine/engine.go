package engine

import (
	"context"
	"time"

	"github.com/krisalay/clientsync/expiration"
	"github.com/krisalay/clientsync/types"
	"github.com/krisalay/clientsync/writepolicy"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the behavior of the cache, NOT storage.

It decides:
- When an entry is stale (per-namespace TTL)
- Which namespaces are mirrored to the snapshot store
- How writes and invalidations reach that store
- How metrics are recorded
- What "now" is

It does NOT:
- Store data
- Handle sharding
- Handle locking
*/
type CacheEngine struct {

	// Expiration decides when an entry is too old. If nil, entries never expire.
	Expiration expiration.Strategy

	// Snapshot is an optional second-level store consulted on memory misses
	// of persistent namespaces. If nil, the cache is memory-only.
	Snapshot types.SnapshotStore

	// WritePolicy propagates writes of persistent namespaces to Snapshot.
	// If nil, writes stay in memory.
	WritePolicy writepolicy.WritePolicy

	// Persistent lists the namespaces mirrored to the snapshot store.
	// User-scoped namespaces (feed, context) must never be listed here.
	Persistent map[string]bool

	Metrics types.Metrics

	// Now is the clock. Tests replace it to move time forward.
	Now types.Clock
}

func NewCacheEngine(
	exp expiration.Strategy,
	snapshot types.SnapshotStore,
	writePolicy writepolicy.WritePolicy,
	metrics types.Metrics,
	persistent ...string,
) *CacheEngine {

	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	p := make(map[string]bool, len(persistent))
	for _, ns := range persistent {
		p[ns] = true
	}

	return &CacheEngine{
		Expiration:  exp,
		Snapshot:    snapshot,
		WritePolicy: writePolicy,
		Persistent:  p,
		Metrics:     metrics,
		Now:         time.Now,
	}
}

// IsExpired delegates to the expiration strategy using the engine clock.
func (e *CacheEngine) IsExpired(ent *types.CacheEntry) bool {
	return e.Expiration != nil && e.Expiration.IsExpired(ent, e.Now())
}

// Stamp builds the entry for a fresh write.
func (e *CacheEngine) Stamp(namespace, key string, value any) *types.CacheEntry {
	return &types.CacheEntry{
		Namespace: namespace,
		Key:       key,
		Value:     value,
		StoredAt:  e.Now(),
	}
}

func (e *CacheEngine) persists(namespace string) bool {
	return e.Persistent[namespace]
}

// OnWrite forwards a write of a persistent namespace to the write policy.
func (e *CacheEngine) OnWrite(ctx context.Context, ent *types.CacheEntry) {
	if e.WritePolicy != nil && e.persists(ent.Namespace) {
		e.WritePolicy.OnWrite(ctx, ent)
	}
}

// OnInvalidate records the invalidation and drops the snapshot copy.
func (e *CacheEngine) OnInvalidate(ctx context.Context, namespace, key string) {
	e.Metrics.Invalidate(namespace)
	if e.WritePolicy != nil && e.persists(namespace) {
		e.WritePolicy.OnDelete(ctx, namespace, key)
	}
}

/*
Load asks the snapshot store for an entry after a memory miss.

Returns (nil, nil) when:
- no snapshot store is configured
- the namespace is not persistent
- the store has nothing for the key
*/
func (e *CacheEngine) Load(ctx context.Context, namespace, key string) (*types.CacheEntry, error) {
	if e.Snapshot == nil || !e.persists(namespace) {
		return nil, nil
	}
	return e.Snapshot.Load(ctx, namespace, key)
}
