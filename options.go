package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/clientsync/engine"
	"github.com/krisalay/clientsync/expiration"
	"github.com/krisalay/clientsync/types"
	"github.com/krisalay/clientsync/writepolicy"
)

// Namespaces owned by the typed caches.
const (
	NamespaceFeed    = "feed"
	NamespaceTicker  = "ticker"
	NamespaceContext = "context"
)

const (
	DefaultFeedTTL    = 5 * time.Minute
	DefaultTickerTTL  = 3 * time.Minute
	DefaultContextTTL = 2 * time.Minute
)

// DefaultTTLs returns a fresh map of the per-namespace TTLs.
func DefaultTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		NamespaceFeed:    DefaultFeedTTL,
		NamespaceTicker:  DefaultTickerTTL,
		NamespaceContext: DefaultContextTTL,
	}
}

type Options struct {
	Shards int

	// TTLs overrides DefaultTTLs per namespace.
	TTLs map[string]time.Duration

	// Snapshot enables read-through and write propagation for Persistent namespaces.
	Snapshot    types.SnapshotStore
	WriteMode   writepolicy.Mode
	WriteBuffer int
	Persistent  []string

	Metrics types.Metrics
	Logger  *zap.Logger
	Now     types.Clock
}

// New assembles a KeyedCache from options. Missing pieces fall back to
// a memory-only cache with the default TTLs and the wall clock.
func New(opts Options) *KeyedCache {
	ttls := DefaultTTLs()
	for ns, ttl := range opts.TTLs {
		ttls[ns] = ttl
	}
	exp := &expiration.ExpireAfterWrite{TTLs: ttls}

	var policy writepolicy.WritePolicy
	if opts.Snapshot != nil {
		switch opts.WriteMode {
		case writepolicy.ModeWriteBack:
			buffer := opts.WriteBuffer
			if buffer <= 0 {
				buffer = 256
			}
			policy = writepolicy.NewWriteBackPolicy(opts.Snapshot, buffer, opts.Logger)
		case writepolicy.ModeWriteThrough:
			policy = writepolicy.NewWriteThroughPolicy(opts.Snapshot, opts.Logger)
		}
	}

	eng := engine.NewCacheEngine(exp, opts.Snapshot, policy, opts.Metrics, opts.Persistent...)
	if opts.Now != nil {
		eng.Now = opts.Now
	}

	shards := opts.Shards
	if shards <= 0 {
		shards = 16
	}
	return NewKeyedCache(shards, eng)
}
