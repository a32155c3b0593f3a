package api

import (
	"context"

	"github.com/krisalay/clientsync/types"
)

/*
Cache defines the PUBLIC API of the keyed TTL cache.

Every entry lives under a (namespace, key) pair. Each namespace has its own TTL
(feed, ticker, context), and a namespace is the unit the higher-level caches own.
Sharding, copy-on-write storage and snapshot persistence stay hidden behind this interface.
*/
type Cache interface {

	/*
		Get returns the value stored under (namespace, key).

		BEHAVIOR:
		---------
		1. Entry exists and now − StoredAt < TTL(namespace) → value, true
		2. Entry exists but is stale → the entry is evicted, then absent
		3. No entry → absent

		Get never talks to the network or the snapshot store.
	*/
	Get(namespace, key string) (any, bool)

	// Entry is Get but returns the whole entry, including StoredAt.
	Entry(namespace, key string) (*types.CacheEntry, bool)

	/*
		Set replaces the entry under (namespace, key) with a new one stamped "now".
		Last write wins: there is no compare-and-swap.
	*/
	Set(ctx context.Context, namespace, key string, value any)

	/*
		Invalidate removes (namespace, key). Idempotent: removing a missing key is safe.
	*/
	Invalidate(ctx context.Context, namespace, key string)

	// Clear removes every entry of a namespace.
	Clear(ctx context.Context, namespace string)

	/*
		Fetch is Get with read-through to the snapshot store on persistent namespaces.
		A snapshot entry is only served if it is still valid by its own StoredAt.
	*/
	Fetch(ctx context.Context, namespace, key string) (any, bool, error)

	// Close flushes pending snapshot writes.
	Close()
}
