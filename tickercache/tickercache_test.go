package tickercache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/model"
	"github.com/krisalay/clientsync/tickercache"
	"github.com/krisalay/clientsync/types"
	"github.com/krisalay/clientsync/writepolicy"
)

type memSnapshots struct {
	data map[string]*types.CacheEntry
}

func (m *memSnapshots) Load(_ context.Context, ns, key string) (*types.CacheEntry, error) {
	return m.data[ns+"/"+key], nil
}

func (m *memSnapshots) Put(_ context.Context, ent *types.CacheEntry) error {
	m.data[ent.Namespace+"/"+ent.Key] = ent
	return nil
}

func (m *memSnapshots) Delete(_ context.Context, ns, key string) error {
	delete(m.data, ns+"/"+key)
	return nil
}

func TestKeysAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	c := tickercache.New(cache.New(cache.Options{}))

	c.Set(ctx, "btc", model.TickerDetail{Ticker: "BTC", CurrentPrice: 64000})

	d, ok := c.Get("BTC")
	require.True(t, ok)
	assert.Equal(t, 64000.0, d.CurrentPrice)
	assert.True(t, c.IsValid(" Btc "))
}

func TestTickerExpiresAfterThreeMinutes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := tickercache.New(cache.New(cache.Options{Now: func() time.Time { return now }}))

	c.Set(ctx, "AAPL", model.TickerDetail{Ticker: "AAPL"})
	now = now.Add(3 * time.Minute)

	assert.False(t, c.IsValid("AAPL"))
}

func TestInvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	c := tickercache.New(cache.New(cache.Options{}))

	c.Set(ctx, "AAPL", model.TickerDetail{Ticker: "AAPL"})
	c.Set(ctx, "MSFT", model.TickerDetail{Ticker: "MSFT"})

	c.Invalidate(ctx, "aapl")
	assert.False(t, c.IsValid("AAPL"))
	assert.True(t, c.IsValid("MSFT"))

	c.Clear(ctx)
	assert.False(t, c.IsValid("MSFT"))
}

func TestFetchReadsSnapshotWrittenByAnotherCache(t *testing.T) {
	ctx := context.Background()
	store := &memSnapshots{data: map[string]*types.CacheEntry{}}
	opts := cache.Options{
		Snapshot:   store,
		WriteMode:  writepolicy.ModeWriteThrough,
		Persistent: []string{cache.NamespaceTicker},
	}

	writer := tickercache.New(cache.New(opts))
	writer.Set(ctx, "ETH", model.TickerDetail{Ticker: "ETH", Name: "Ethereum"})

	reader := tickercache.New(cache.New(opts))
	_, ok := reader.Get("ETH")
	assert.False(t, ok)

	d, ok, err := reader.Fetch(ctx, "eth")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ethereum", d.Name)

	// now in memory
	_, ok = reader.Get("ETH")
	assert.True(t, ok)
}
