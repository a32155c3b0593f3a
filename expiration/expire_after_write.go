package expiration

import (
	"time"

	"github.com/krisalay/clientsync/types"
)

/*
ExpireAfterWrite measures age from the moment an entry was stored. Reads never push
the deadline forward: a feed fetched five minutes ago is stale no matter how often it
was looked at since.

Each namespace carries its own TTL (feed: 5m, ticker: 3m, context: 2m).
Namespaces missing from the map fall back to Default.
*/
type ExpireAfterWrite struct {
	TTLs    map[string]time.Duration
	Default time.Duration
}

// IsExpired is true once now − StoredAt has reached the namespace TTL.
func (e *ExpireAfterWrite) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	ttl := e.TTL(ent.Namespace)
	if ttl <= 0 {
		return false
	}
	return ent.Age(now) >= ttl
}

func (e *ExpireAfterWrite) TTL(namespace string) time.Duration {
	if ttl, ok := e.TTLs[namespace]; ok {
		return ttl
	}
	return e.Default
}
