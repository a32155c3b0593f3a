// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/clientsync/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
expiration logic into the cache, we define a strategy so expiration behavior can be swapped easily.
*/
type Strategy interface {

	// IsExpired reports whether the entry is no longer valid at now.
	IsExpired(*types.CacheEntry, time.Time) bool

	// TTL returns the time-to-live configured for a namespace.
	// Zero means entries of that namespace never expire.
	TTL(namespace string) time.Duration
}
