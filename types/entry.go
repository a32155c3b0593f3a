package types

import "time"

// CacheEntry is one stored value together with the moment it was stored.
// Entries are never mutated in place: a refresh replaces the whole entry.
type CacheEntry struct {
	Namespace string
	Key       string
	Value     any
	StoredAt  time.Time
}

// Age returns how old the entry is at the given instant.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Clock returns the current time. Caches take one so tests can move time forward.
type Clock func() time.Time
