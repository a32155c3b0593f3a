package writepolicy

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/krisalay/clientsync/types"
)

// writeReq is one pending operation for the snapshot store.
// ent == nil means delete namespace/key.
type writeReq struct {
	ctx       context.Context
	ent       *types.CacheEntry
	namespace string
	key       string
}

/*
WriteBackPolicy pushes snapshot writes asynchronously.

A single worker drains a buffered channel, so writes and deletes for the same key
reach the store in the order the cache issued them.
*/
type WriteBackPolicy struct {
	store  types.SnapshotStore
	logger *zap.Logger

	ch chan writeReq
	wg sync.WaitGroup

	// mu guards closed so a late write never sends on a closed channel.
	mu     sync.RWMutex
	closed bool
}

func NewWriteBackPolicy(store types.SnapshotStore, buffer int, logger *zap.Logger) *WriteBackPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &WriteBackPolicy{
		store:  store,
		logger: logger,
		ch:     make(chan writeReq, buffer),
	}

	w.wg.Add(1)
	go w.worker()

	return w
}

// OnWrite queues the entry. If the queue is full the write is dropped:
// blocking here would stall the cache read/write path.
func (w *WriteBackPolicy) OnWrite(ctx context.Context, ent *types.CacheEntry) {
	w.enqueue(writeReq{ctx: context.WithoutCancel(ctx), ent: ent, namespace: ent.Namespace, key: ent.Key})
}

func (w *WriteBackPolicy) OnDelete(ctx context.Context, namespace, key string) {
	w.enqueue(writeReq{ctx: context.WithoutCancel(ctx), namespace: namespace, key: key})
}

func (w *WriteBackPolicy) enqueue(req writeReq) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.ch <- req:
	default:
		w.logger.Debug("snapshot queue full, dropping",
			zap.String("namespace", req.namespace),
			zap.String("key", req.key),
		)
	}
}

func (w *WriteBackPolicy) worker() {
	defer w.wg.Done()

	for req := range w.ch {
		var err error
		if req.ent != nil {
			err = w.store.Put(req.ctx, req.ent)
		} else {
			err = w.store.Delete(req.ctx, req.namespace, req.key)
		}
		if err != nil {
			w.logger.Warn("snapshot write-back failed",
				zap.String("namespace", req.namespace),
				zap.String("key", req.key),
				zap.Error(err),
			)
		}
	}
}

/*
Close stops accepting writes and waits for the queue to drain.
Without this, pending writes could be lost at shutdown. Safe to call more than once.
*/
func (w *WriteBackPolicy) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()

	w.wg.Wait()
}
