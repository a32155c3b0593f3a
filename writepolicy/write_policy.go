package writepolicy

import (
	"context"

	"github.com/krisalay/clientsync/types"
)

/*
WritePolicy decides how writes to persistent namespaces reach the snapshot store.

- Write-through: the cache write waits for the store
- Write-back: the write is queued and a background worker pushes it later

The cache engine does not care which policy is used. It simply calls these methods.
*/
type WritePolicy interface {

	// OnWrite is called after an entry of a persistent namespace was stored in memory.
	OnWrite(ctx context.Context, ent *types.CacheEntry)

	// OnDelete is called after an entry of a persistent namespace was invalidated.
	OnDelete(ctx context.Context, namespace, key string)

	// Close is called when the cache is shutting down.
	Close()
}

// Mode names a write policy in configuration.
type Mode string

const (
	ModeNone         Mode = ""
	ModeWriteThrough Mode = "write-through"
	ModeWriteBack    Mode = "write-back"
)
