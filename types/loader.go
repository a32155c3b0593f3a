package types

import "context"

// SnapshotStore is the contract between the cache and an optional second-level store
// that outlives the process (Redis in production).
type SnapshotStore interface {

	/*
		Load is called when the in-memory cache misses on a persistent namespace.
		1. Cache checks memory → key not found
		2. Cache calls Load(namespace, key)
		3. Store returns the last written entry, with its original StoredAt
		4. Cache re-checks the TTL against StoredAt and keeps it in memory if still valid

		A missing key is reported as (nil, nil).
	*/
	Load(ctx context.Context, namespace, key string) (*CacheEntry, error)

	/*
		Put is called by write policies when an entry of a persistent namespace is written.
		It does NOT store data in the in-memory cache.
	*/
	Put(ctx context.Context, ent *CacheEntry) error

	// Delete drops an entry so an invalidated value cannot be resurrected by Load.
	Delete(ctx context.Context, namespace, key string) error
}
