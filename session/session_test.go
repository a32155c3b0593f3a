package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/backend/backendtest"
	"github.com/krisalay/clientsync/model"
	"github.com/krisalay/clientsync/session"
	"github.com/krisalay/clientsync/types"
)

var ada = backend.Identity{Token: "T1", UserID: "u1", Handle: "ada"}

// countingMetrics counts invalidations per namespace.
type countingMetrics struct {
	types.NoopMetrics
	invalidated map[string]int
}

func (m *countingMetrics) Invalidate(ns string) { m.invalidated[ns]++ }

func newSession(t *testing.T) (*session.Session, *backendtest.Backend, *countingMetrics) {
	t.Helper()
	be := backendtest.New()
	m := &countingMetrics{invalidated: make(map[string]int)}
	s := session.New(context.Background(), session.Options{
		Backend: be,
		Store:   cache.New(cache.Options{Metrics: m}),
	})
	t.Cleanup(s.Close)
	return s, be, m
}

func TestSignedOutByDefault(t *testing.T) {
	s, _, _ := newSession(t)
	assert.False(t, s.SignedIn())
	assert.False(t, s.Logout(context.Background()))
}

func TestLogoutClearsFeedCacheOnce(t *testing.T) {
	ctx := context.Background()
	s, be, m := newSession(t)
	be.FeedPosts = []model.Post{{ID: "p1"}}

	s.SignIn(ctx, ada)
	require.NoError(t, s.Timeline.Load(ctx, model.PostQuery{}, false))
	require.True(t, s.Feed.IsValid())

	sessionCtx := s.Context()
	assert.True(t, s.Logout(ctx))
	assert.False(t, s.Logout(ctx), "second logout is a no-op")

	assert.False(t, s.Feed.IsValid())
	_, ok := s.Feed.Get()
	assert.False(t, ok)
	assert.Equal(t, 1, m.invalidated[cache.NamespaceFeed])

	assert.ErrorIs(t, sessionCtx.Err(), context.Canceled)
	assert.NoError(t, s.Context().Err(), "a fresh context serves the next sign-in")

	assert.False(t, s.SignedIn())
	assert.Empty(t, s.Timeline.State().Posts)
}

func TestLogoutKeepsTickerCache(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newSession(t)
	s.SignIn(ctx, ada)
	s.Tickers.Set(ctx, "BTC", model.TickerDetail{Ticker: "BTC"})

	s.Logout(ctx)

	assert.True(t, s.Tickers.IsValid("BTC"))
}

func TestNextUserRefetchesBookmarks(t *testing.T) {
	ctx := context.Background()
	s, be, _ := newSession(t)
	be.Bookmarked = []model.BookmarkedPost{{ID: "p1"}}

	s.SignIn(ctx, ada)
	require.NoError(t, s.Bookmarks.Fetch(ctx))
	require.NoError(t, s.Bookmarks.Fetch(ctx))
	assert.Equal(t, 1, be.Calls("ListBookmarks"), "second fetch served by the context cache")

	s.Logout(ctx)
	assert.False(t, s.Bookmarks.IsBookmarked("p1"))

	s.SignIn(ctx, ada)
	require.NoError(t, s.Bookmarks.Fetch(ctx))
	assert.Equal(t, 2, be.Calls("ListBookmarks"))
	assert.True(t, s.Bookmarks.IsBookmarked("p1"))
}

func TestSwitchingUserTearsDown(t *testing.T) {
	ctx := context.Background()
	s, be, _ := newSession(t)
	be.FeedPosts = []model.Post{{ID: "p1"}}

	s.SignIn(ctx, ada)
	require.NoError(t, s.Timeline.Load(ctx, model.PostQuery{}, false))

	s.SignIn(ctx, backend.Identity{Token: "T2", UserID: "u2", Handle: "bob"})

	assert.False(t, s.Feed.IsValid())
	assert.Equal(t, "u2", s.Identity().UserID)
}

func TestHandleChangeReconcilesShownPosts(t *testing.T) {
	ctx := context.Background()
	s, be, _ := newSession(t)
	be.FeedPosts = []model.Post{
		{ID: "p1", Author: model.User{Handle: "bob"}},
		{ID: "r1", Author: model.User{Handle: "ada"}, RepostType: model.RepostNormal, OriginalPostID: "p1"},
	}

	s.SignIn(ctx, backend.Identity{Token: "T1", UserID: "u1"})
	require.NoError(t, s.Timeline.Load(ctx, model.PostQuery{}, false))
	require.False(t, s.Timeline.State().Posts[0].UserInteractions.Reposted)

	s.SignIn(ctx, ada)

	assert.True(t, s.Timeline.State().Posts[0].UserInteractions.Reposted)
}

func TestSyncLoadsUserState(t *testing.T) {
	ctx := context.Background()
	s, be, _ := newSession(t)
	be.Bookmarked = []model.BookmarkedPost{{ID: "p1"}}
	be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC"}}
	be.Tickers["BTC"] = model.TickerDetail{Ticker: "BTC", Name: "Bitcoin"}
	be.Filters = model.ContentFilters{BlockedUsers: []model.FilteredUser{{ID: "u9", Username: "spam"}}}

	s.SignIn(ctx, ada)
	require.NoError(t, s.Sync(ctx))

	assert.True(t, s.Bookmarks.IsBookmarked("p1"))
	assert.True(t, s.Watchlist.Contains("BTC"))
	assert.True(t, s.Filters.IsBlockedByID("u9"))
}

func TestLogoutDropsUserStateStillLoading(t *testing.T) {
	ctx := context.Background()
	s, be, _ := newSession(t)
	be.Bookmarked = []model.BookmarkedPost{{ID: "p1"}}
	be.Filters = model.ContentFilters{MutedUsers: []model.FilteredUser{{ID: "u9", Username: "spam"}}}
	be.OnCall("ListBookmarks", func() { s.Logout(ctx) })
	be.OnCall("ListContentFilters", func() { s.Logout(ctx) })

	s.SignIn(ctx, ada)
	require.NoError(t, s.Bookmarks.Fetch(ctx))
	assert.Empty(t, s.Bookmarks.State().IDs)

	s.SignIn(ctx, ada)
	require.NoError(t, s.Filters.Load(ctx))
	assert.False(t, s.Filters.IsMutedByID("u9"))

	assert.False(t, s.SignedIn())
}

func TestUserSwitchDropsPreviousUserBookmarks(t *testing.T) {
	ctx := context.Background()
	s, be, _ := newSession(t)
	be.Bookmarked = []model.BookmarkedPost{{ID: "p1"}}
	be.OnCall("ListBookmarks", func() {
		be.OnCall("ListBookmarks", nil)
		s.SignIn(ctx, backend.Identity{Token: "T2", UserID: "u2", Handle: "bob"})
	})

	s.SignIn(ctx, ada)
	require.NoError(t, s.Bookmarks.Fetch(ctx))

	assert.Equal(t, "u2", s.Identity().UserID)
	assert.False(t, s.Bookmarks.IsBookmarked("p1"))
}
