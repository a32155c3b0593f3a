// Package backendtest provides an in-memory backend for synchronizer tests.
package backendtest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/model"
)

var _ backend.Backend = (*Backend)(nil)

/*
Backend keeps the state of record in plain fields and counts calls per method.

Failures are injected per method name with Fail; a hook registered with OnCall
runs inside the call, after it was counted and before it returns, which lets
a test look at optimistic state while the request is "in flight".
*/
type Backend struct {
	mu sync.Mutex

	FeedPosts  []model.Post
	PostsFunc  func(q model.PostQuery) ([]model.Post, error)
	Bookmarked []model.BookmarkedPost
	Watchlist  []model.WatchlistEntry
	Tickers    map[string]model.TickerDetail
	ChartFunc  func(symbol string, rng model.Range) ([]model.ChartPoint, error)
	Filters    model.ContentFilters

	// Batches records the symbols of every batch lookup.
	Batches [][]string

	errs  map[string]error
	hooks map[string]func()
	calls map[string]int
}

func New() *Backend {
	return &Backend{
		Tickers: make(map[string]model.TickerDetail),
		errs:    make(map[string]error),
		hooks:   make(map[string]func()),
		calls:   make(map[string]int),
	}
}

// Fail makes every later call of method return err. A nil err clears it.
func (b *Backend) Fail(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.errs, method)
		return
	}
	b.errs[method] = err
}

func (b *Backend) OnCall(method string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[method] = fn
}

func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *Backend) enter(method string) error {
	b.mu.Lock()
	b.calls[method]++
	hook := b.hooks[method]
	err := b.errs[method]
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (b *Backend) ListFeed(ctx context.Context) ([]model.Post, error) {
	if err := b.enter("ListFeed"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.ClonePosts(b.FeedPosts), nil
}

func (b *Backend) ListPosts(ctx context.Context, q model.PostQuery) ([]model.Post, error) {
	if err := b.enter("ListPosts"); err != nil {
		return nil, err
	}
	if b.PostsFunc == nil {
		return []model.Post{}, nil
	}
	return b.PostsFunc(q)
}

func (b *Backend) ListBookmarks(ctx context.Context, page, perPage int) ([]model.BookmarkedPost, error) {
	if err := b.enter("ListBookmarks"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Bookmarked), nil
}

func (b *Backend) AddBookmark(ctx context.Context, postID string) error {
	if err := b.enter("AddBookmark"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !slices.ContainsFunc(b.Bookmarked, func(p model.BookmarkedPost) bool { return p.ID == postID }) {
		b.Bookmarked = append(b.Bookmarked, model.BookmarkedPost{ID: postID})
	}
	return nil
}

func (b *Backend) RemoveBookmark(ctx context.Context, postID string) error {
	if err := b.enter("RemoveBookmark"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Bookmarked = slices.DeleteFunc(b.Bookmarked, func(p model.BookmarkedPost) bool { return p.ID == postID })
	return nil
}

// ListWatchlist reads the list before running the hook, so a blocked call
// answers with the list as it was when the request arrived.
func (b *Backend) ListWatchlist(ctx context.Context) ([]model.WatchlistEntry, error) {
	b.mu.Lock()
	list := slices.Clone(b.Watchlist)
	b.mu.Unlock()

	if err := b.enter("ListWatchlist"); err != nil {
		return nil, err
	}
	return list, nil
}

func (b *Backend) AddToWatchlist(ctx context.Context, symbol string) error {
	if err := b.enter("AddToWatchlist"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Watchlist = append(b.Watchlist, model.WatchlistEntry{Ticker: symbol})
	return nil
}

func (b *Backend) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	if err := b.enter("RemoveFromWatchlist"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Watchlist = slices.DeleteFunc(b.Watchlist, func(e model.WatchlistEntry) bool {
		return strings.EqualFold(e.Ticker, symbol)
	})
	return nil
}

func (b *Backend) BatchTickerLookup(ctx context.Context, symbols []string) ([]model.BatchResult, error) {
	if err := b.enter("BatchTickerLookup"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Batches = append(b.Batches, slices.Clone(symbols))
	out := make([]model.BatchResult, 0, len(symbols))
	for _, s := range symbols {
		r := model.BatchResult{Ticker: s}
		if d, ok := b.Tickers[s]; ok {
			r.Data = &d
		}
		out = append(out, r)
	}
	return out, nil
}

func (b *Backend) FetchTickerDetail(ctx context.Context, symbol string) (model.TickerDetail, error) {
	if err := b.enter("FetchTickerDetail"); err != nil {
		return model.TickerDetail{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.Tickers[symbol]
	if !ok {
		return model.TickerDetail{}, &backend.APIError{Status: 404, Message: "ticker not found"}
	}
	return d, nil
}

func (b *Backend) FetchTickerChart(ctx context.Context, symbol string, rng model.Range) ([]model.ChartPoint, error) {
	if err := b.enter("FetchTickerChart"); err != nil {
		return nil, err
	}
	if b.ChartFunc == nil {
		return []model.ChartPoint{}, nil
	}
	return b.ChartFunc(symbol, rng)
}

func (b *Backend) ListContentFilters(ctx context.Context) (model.ContentFilters, error) {
	if err := b.enter("ListContentFilters"); err != nil {
		return model.ContentFilters{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Filters.Clone(), nil
}

func (b *Backend) MuteUser(ctx context.Context, userID string) error {
	return b.filter("MuteUser", &b.Filters.MutedUsers, userID, true)
}

func (b *Backend) UnmuteUser(ctx context.Context, userID string) error {
	return b.filter("UnmuteUser", &b.Filters.MutedUsers, userID, false)
}

func (b *Backend) BlockUser(ctx context.Context, userID string) error {
	return b.filter("BlockUser", &b.Filters.BlockedUsers, userID, true)
}

func (b *Backend) UnblockUser(ctx context.Context, userID string) error {
	return b.filter("UnblockUser", &b.Filters.BlockedUsers, userID, false)
}

func (b *Backend) filter(method string, list *[]model.FilteredUser, userID string, add bool) error {
	if err := b.enter(method); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	*list = slices.DeleteFunc(*list, func(u model.FilteredUser) bool { return u.ID == userID })
	if add {
		*list = append(*list, model.FilteredUser{ID: userID})
	}
	return nil
}
