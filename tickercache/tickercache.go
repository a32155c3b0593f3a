package tickercache

import (
	"context"
	"fmt"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/api"
	"github.com/krisalay/clientsync/model"
)

// Cache holds ticker details keyed by uppercase symbol. It is the only
// namespace that may be mirrored to a snapshot store: market data is not user-scoped.
type Cache struct {
	store api.Cache
}

func New(store api.Cache) *Cache {
	return &Cache{store: store}
}

func (c *Cache) Get(symbol string) (model.TickerDetail, bool) {
	v, ok := c.store.Get(cache.NamespaceTicker, model.NormalizeSymbol(symbol))
	if !ok {
		return model.TickerDetail{}, false
	}
	return asDetail(v)
}

func (c *Cache) Set(ctx context.Context, symbol string, detail model.TickerDetail) {
	c.store.Set(ctx, cache.NamespaceTicker, model.NormalizeSymbol(symbol), detail)
}

func (c *Cache) Invalidate(ctx context.Context, symbol string) {
	c.store.Invalidate(ctx, cache.NamespaceTicker, model.NormalizeSymbol(symbol))
}

func (c *Cache) IsValid(symbol string) bool {
	_, ok := c.Get(symbol)
	return ok
}

func (c *Cache) Clear(ctx context.Context) {
	c.store.Clear(ctx, cache.NamespaceTicker)
}

// Fetch is Get with read-through to the snapshot store, if one is configured.
func (c *Cache) Fetch(ctx context.Context, symbol string) (model.TickerDetail, bool, error) {
	v, ok, err := c.store.Fetch(ctx, cache.NamespaceTicker, model.NormalizeSymbol(symbol))
	if err != nil {
		return model.TickerDetail{}, false, fmt.Errorf("ticker snapshot %s: %w", symbol, err)
	}
	if !ok {
		return model.TickerDetail{}, false, nil
	}
	d, ok := asDetail(v)
	return d, ok, nil
}

func asDetail(v any) (model.TickerDetail, bool) {
	switch d := v.(type) {
	case model.TickerDetail:
		return d, true
	case *model.TickerDetail:
		if d == nil {
			return model.TickerDetail{}, false
		}
		return *d, true
	default:
		return model.TickerDetail{}, false
	}
}
