package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/engine"
	"github.com/krisalay/clientsync/expiration"
)

func newBenchmarkCache() *cache.KeyedCache {
	exp := &expiration.ExpireAfterWrite{TTLs: map[string]time.Duration{"ticker": 3 * time.Minute}}
	return cache.NewKeyedCache(8, engine.NewCacheEngine(exp, nil, nil, nil))
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkCacheGetHit(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()

	c.Set(ctx, "ticker", "BTC", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("ticker", "BTC")
	}
}

func BenchmarkCacheGetMiss(b *testing.B) {
	c := newBenchmarkCache()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("ticker", fmt.Sprintf("miss-%d", i))
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkCacheParallelGet(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()

	// a realistic ticker universe: a few hundred symbols
	for i := 0; i < 500; i++ {
		c.Set(ctx, "ticker", fmt.Sprintf("SYM%d", i), i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Get("ticker", "SYM42")
		}
	})
}

//
// ================= WRITE BENCH =================
//

func BenchmarkCacheSet(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(ctx, "ticker", fmt.Sprintf("SYM%d", i%500), i)
	}
}
