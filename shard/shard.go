package shard

import "sync"

/*
A Shard is a small, independent piece of the cache. Instead of one map guarded by
one lock, entries are spread over several shards so that writes to the ticker
namespace do not serialize behind writes to the feed or context namespaces.

Each shard:
- Holds some portion of the entries
- Has its own lock for writes
*/
type Shard struct {

	// Store holds the entries of this shard. Reads are lock-free (copy-on-write).
	Store ShardStore

	// WriteMu serializes writers. Readers never take it.
	WriteMu sync.Mutex
}

func NewShard() *Shard {
	return &Shard{Store: NewCOWStore()}
}

// New builds n shards. n < 1 is treated as 1.
func New(n int) []*Shard {
	if n < 1 {
		n = 1
	}
	s := make([]*Shard, n)
	for i := range s {
		s[i] = NewShard()
	}
	return s
}
