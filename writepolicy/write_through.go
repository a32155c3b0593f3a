package writepolicy

import (
	"context"

	"go.uber.org/zap"

	"github.com/krisalay/clientsync/types"
)

/*
WriteThroughPolicy forwards every cache write to the snapshot store synchronously.

Cache write → store write. If the store is slow, cache writes become slow.
Store failures are logged and otherwise ignored: the in-memory entry is the one
callers read, the snapshot only saves a refetch after a restart.
*/
type WriteThroughPolicy struct {
	store  types.SnapshotStore
	logger *zap.Logger
}

func NewWriteThroughPolicy(store types.SnapshotStore, logger *zap.Logger) *WriteThroughPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WriteThroughPolicy{store: store, logger: logger}
}

func (w *WriteThroughPolicy) OnWrite(ctx context.Context, ent *types.CacheEntry) {
	if err := w.store.Put(ctx, ent); err != nil {
		w.logger.Warn("snapshot write failed",
			zap.String("namespace", ent.Namespace),
			zap.String("key", ent.Key),
			zap.Error(err),
		)
	}
}

func (w *WriteThroughPolicy) OnDelete(ctx context.Context, namespace, key string) {
	if err := w.store.Delete(ctx, namespace, key); err != nil {
		w.logger.Warn("snapshot delete failed",
			zap.String("namespace", namespace),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Close has nothing to flush for write-through.
func (w *WriteThroughPolicy) Close() {}
