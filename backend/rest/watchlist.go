package rest

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/krisalay/clientsync/model"
)

func (c *Client) ListWatchlist(ctx context.Context) ([]model.WatchlistEntry, error) {
	var out envelope[[]model.WatchlistEntry]
	if err := c.do(ctx, c.api(http.MethodGet, "/watchlist"), &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) AddToWatchlist(ctx context.Context, symbol string) error {
	r := c.api(http.MethodPost, "/watchlist")
	r.body = map[string]string{"symbol": symbol}
	return c.do(ctx, r, nil)
}

func (c *Client) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	return c.do(ctx, c.api(http.MethodDelete, "/watchlist/"+url.PathEscape(symbol)), nil)
}

func (c *Client) BatchTickerLookup(ctx context.Context, symbols []string) ([]model.BatchResult, error) {
	if len(symbols) == 0 {
		return []model.BatchResult{}, nil
	}
	r := c.market("/api/ticker/batch")
	r.query = url.Values{"symbols": {strings.Join(symbols, ",")}}

	var out envelope[[]model.BatchResult]
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) FetchTickerDetail(ctx context.Context, symbol string) (model.TickerDetail, error) {
	var out envelope[model.TickerDetail]
	if err := c.do(ctx, c.market("/api/ticker/"+url.PathEscape(symbol)), &out); err != nil {
		return model.TickerDetail{}, err
	}
	return out.Data, nil
}

func (c *Client) FetchTickerChart(ctx context.Context, symbol string, rng model.Range) ([]model.ChartPoint, error) {
	r := c.market("/api/ticker/" + url.PathEscape(symbol) + "/chart")
	r.query = url.Values{"range": {string(model.NormalizeRange(rng))}}

	var out envelope[[]model.ChartPoint]
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
