package shard

import (
	"sync/atomic"

	"github.com/krisalay/clientsync/types"
)

// ShardStore is used by a shard to store and retrieve cache entries.
type ShardStore interface {
	Get(string) (*types.CacheEntry, bool)
	Put(string, *types.CacheEntry)
	Delete(string)

	// DeleteFunc removes every entry for which match returns true and reports how many went.
	DeleteFunc(match func(*types.CacheEntry) bool) int

	Size() int64
}

/*
cowStore is a Copy-On-Write implementation of ShardStore.

- Readers always see an immutable snapshot of the map
- Writers build a new map and swap it in atomically

Writers must be serialized by the owning shard's WriteMu.
*/
type cowStore struct {
	data atomic.Value // map[string]*types.CacheEntry
	size atomic.Int64
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	s.data.Store(make(map[string]*types.CacheEntry))
	return s
}

func (s *cowStore) snapshot() map[string]*types.CacheEntry {
	return s.data.Load().(map[string]*types.CacheEntry)
}

func (s *cowStore) swap(n map[string]*types.CacheEntry) {
	s.data.Store(n)
	s.size.Store(int64(len(n)))
}

func (s *cowStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.snapshot()[key]
	return ent, ok
}

// Put replaces the entry for key. The previous entry object is left untouched,
// so a reader holding it still sees a consistent value.
func (s *cowStore) Put(key string, ent *types.CacheEntry) {
	old := s.snapshot()
	n := make(map[string]*types.CacheEntry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent
	s.swap(n)
}

func (s *cowStore) Delete(key string) {
	old := s.snapshot()
	if _, ok := old[key]; !ok {
		return
	}
	n := make(map[string]*types.CacheEntry, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}
	s.swap(n)
}

func (s *cowStore) DeleteFunc(match func(*types.CacheEntry) bool) int {
	old := s.snapshot()
	n := make(map[string]*types.CacheEntry, len(old))
	for k, v := range old {
		if !match(v) {
			n[k] = v
		}
	}
	removed := len(old) - len(n)
	if removed > 0 {
		s.swap(n)
	}
	return removed
}

func (s *cowStore) Size() int64 {
	return s.size.Load()
}
