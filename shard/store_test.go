package shard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/clientsync/shard"
	"github.com/krisalay/clientsync/types"
)

func TestCOWStoreReadersKeepOldEntry(t *testing.T) {
	s := shard.NewCOWStore()

	first := &types.CacheEntry{Namespace: "ticker", Key: "BTC", Value: 1}
	s.Put("ticker\x00BTC", first)

	held, ok := s.Get("ticker\x00BTC")
	require.True(t, ok)

	s.Put("ticker\x00BTC", &types.CacheEntry{Namespace: "ticker", Key: "BTC", Value: 2})

	// the replaced entry object is never mutated
	assert.Equal(t, 1, held.Value)

	cur, _ := s.Get("ticker\x00BTC")
	assert.Equal(t, 2, cur.Value)
	assert.EqualValues(t, 1, s.Size())
}

func TestCOWStoreDeleteFunc(t *testing.T) {
	s := shard.NewCOWStore()
	s.Put("a", &types.CacheEntry{Namespace: "feed", Key: "a"})
	s.Put("b", &types.CacheEntry{Namespace: "ticker", Key: "b"})
	s.Put("c", &types.CacheEntry{Namespace: "ticker", Key: "c"})

	n := s.DeleteFunc(func(e *types.CacheEntry) bool { return e.Namespace == "ticker" })

	assert.Equal(t, 2, n)
	assert.EqualValues(t, 1, s.Size())
	_, ok := s.Get("a")
	assert.True(t, ok)
}

func TestHashSelectorIsStable(t *testing.T) {
	shards := shard.New(4)
	sel := shard.HashSelector{}

	assert.Same(t, sel.Select("context\x00bookmarks:u1", shards), sel.Select("context\x00bookmarks:u1", shards))
	assert.Len(t, shard.New(0), 1)
}
