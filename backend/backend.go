package backend

import (
	"context"

	"github.com/krisalay/clientsync/model"
)

// Identity is the signed-in user as the backend knows them.
type Identity struct {
	Token  string
	UserID string
	Handle string
}

// SignedIn is true when a token and a user id are both present.
func (i Identity) SignedIn() bool {
	return i.Token != "" && i.UserID != ""
}

// IdentitySource returns the current identity. Implementations must be safe
// for concurrent use; the identity may change between two calls.
type IdentitySource interface {
	Identity() Identity
}

// StaticIdentity is a fixed IdentitySource.
type StaticIdentity Identity

func (s StaticIdentity) Identity() Identity { return Identity(s) }

// IdentityFunc adapts a function to IdentitySource.
type IdentityFunc func() Identity

func (f IdentityFunc) Identity() Identity { return f() }

type Feed interface {
	ListFeed(ctx context.Context) ([]model.Post, error)
	ListPosts(ctx context.Context, q model.PostQuery) ([]model.Post, error)
}

type Bookmarks interface {
	ListBookmarks(ctx context.Context, page, perPage int) ([]model.BookmarkedPost, error)
	AddBookmark(ctx context.Context, postID string) error
	RemoveBookmark(ctx context.Context, postID string) error
}

type Watchlist interface {
	ListWatchlist(ctx context.Context) ([]model.WatchlistEntry, error)
	AddToWatchlist(ctx context.Context, symbol string) error
	RemoveFromWatchlist(ctx context.Context, symbol string) error
}

type MarketData interface {
	// BatchTickerLookup returns one result per requested symbol, Data nil when unknown.
	BatchTickerLookup(ctx context.Context, symbols []string) ([]model.BatchResult, error)
	FetchTickerDetail(ctx context.Context, symbol string) (model.TickerDetail, error)
	FetchTickerChart(ctx context.Context, symbol string, rng model.Range) ([]model.ChartPoint, error)
}

type ContentFilters interface {
	ListContentFilters(ctx context.Context) (model.ContentFilters, error)
	MuteUser(ctx context.Context, userID string) error
	UnmuteUser(ctx context.Context, userID string) error
	BlockUser(ctx context.Context, userID string) error
	UnblockUser(ctx context.Context, userID string) error
}

// Backend bundles every collaborator. rest.Client implements it.
type Backend interface {
	Feed
	Bookmarks
	Watchlist
	MarketData
	ContentFilters
}
