package session

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/api"
	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/bookmarks"
	"github.com/krisalay/clientsync/chart"
	"github.com/krisalay/clientsync/contentfilter"
	"github.com/krisalay/clientsync/contextcache"
	"github.com/krisalay/clientsync/events"
	"github.com/krisalay/clientsync/feed"
	"github.com/krisalay/clientsync/feedcache"
	"github.com/krisalay/clientsync/logger"
	"github.com/krisalay/clientsync/model"
	"github.com/krisalay/clientsync/mutation"
	"github.com/krisalay/clientsync/ticker"
	"github.com/krisalay/clientsync/tickercache"
	"github.com/krisalay/clientsync/watchlist"
)

type Options struct {
	Backend backend.Backend

	// Store backs every typed cache. Required.
	Store api.Cache

	// Bus receives every state change. Nil means a private bus.
	Bus *events.Bus

	Mutations mutation.Recorder
	Charts    chart.Recorder

	Watchlist watchlist.Config
	Chart     chart.Config

	Logger *zap.Logger
}

/*
Session owns the caches and synchronizers of one client for its lifetime.

It is also the identity source every synchronizer reads, so signing in
or out is seen by all of them at once. Work started with Context() is
cancelled by Logout.

The feed cache is user-scoped and is cleared exactly once per logout.
The ticker cache is shared market data and survives logout.
*/
type Session struct {
	Store   api.Cache
	Feed    *feedcache.Cache
	Tickers *tickercache.Cache
	Bus     *events.Bus

	Timeline  *feed.Timeline
	Watchlist *watchlist.Synchronizer
	Bookmarks *bookmarks.Synchronizer
	Filters   *contentfilter.Synchronizer
	Ticker    *ticker.Loader
	Charts    *chart.Fetcher
	Mutations *mutation.Tracker

	logger   *zap.Logger
	identity atomic.Pointer[backend.Identity]

	parent context.Context
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

func New(parent context.Context, opts Options) *Session {
	log := logger.OrNop(opts.Logger)
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus(log)
	}

	s := &Session{
		Store:   opts.Store,
		Feed:    feedcache.New(opts.Store),
		Tickers: tickercache.New(opts.Store),
		Bus:     bus,
		logger:  log.With(zap.String("component", "session")),
		parent:  parent,
	}
	s.ctx, s.cancel = context.WithCancel(parent)

	be := opts.Backend
	s.Mutations = mutation.NewTracker(opts.Mutations, log)
	s.Timeline = feed.NewTimeline(be, s.Feed, s, bus, log)
	s.Watchlist = watchlist.New(be, be, s.Tickers, s, bus, log, opts.Watchlist)
	s.Bookmarks = bookmarks.New(be, s,
		contextcache.New[bookmarks.Entry](opts.Store, contextcache.FeatureBookmarks),
		s.Mutations, bus, log)
	s.Filters = contentfilter.New(be, s,
		contextcache.New[model.ContentFilters](opts.Store, contextcache.FeatureContentFilters),
		s.Mutations, bus, log)
	s.Ticker = ticker.NewLoader(be, s.Tickers, log)
	s.Charts = chart.NewFetcher(be, opts.Chart, opts.Charts, log)
	return s
}

// Identity implements backend.IdentitySource.
func (s *Session) Identity() backend.Identity {
	if id := s.identity.Load(); id != nil {
		return *id
	}
	return backend.Identity{}
}

func (s *Session) SignedIn() bool {
	return s.Identity().SignedIn()
}

// Context is cancelled on the next Logout or Close.
func (s *Session) Context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

/*
SignIn installs id as the current identity.

Switching to a different user tears the previous user's state down first,
as Logout would. A changed handle reruns the repost reconciliation of the
posts already shown.
*/
func (s *Session) SignIn(ctx context.Context, id backend.Identity) {
	prev := s.Identity()
	if prev.SignedIn() && prev.UserID != id.UserID {
		s.Logout(ctx)
		prev = backend.Identity{}
	}

	s.identity.Store(&id)
	s.logger.Info("signed in", zap.String("user_id", id.UserID), zap.String("handle", id.Handle))

	if id.Handle != prev.Handle {
		s.Timeline.Reconcile(ctx)
	}
}

/*
Logout ends the signed-in session:
- the feed cache and the user-scoped context caches are cleared
- session work in flight is cancelled
- every synchronizer drops its state

Returns false, doing nothing, when no one is signed in.
*/
func (s *Session) Logout(ctx context.Context) bool {
	prev := s.identity.Swap(nil)
	if prev == nil || !prev.SignedIn() {
		return false
	}

	s.Feed.Clear(ctx)
	s.Store.Clear(ctx, cache.NamespaceContext)
	s.restart()

	s.Timeline.Reset()
	s.Watchlist.Reset()
	s.Bookmarks.Reset()
	s.Filters.Reset()
	s.Ticker.Reset()

	s.logger.Info("signed out", zap.String("user_id", prev.UserID))
	return true
}

func (s *Session) restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	if !s.closed {
		s.ctx, s.cancel = context.WithCancel(s.parent)
	}
}

// Sync loads the per-user state a client shows right after sign-in.
// All three loads run even when one fails; the first error is returned.
func (s *Session) Sync(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Bookmarks.Fetch(ctx) })
	g.Go(func() error { return s.Filters.Load(ctx) })
	g.Go(func() error { return s.Watchlist.Refresh(ctx) })
	return g.Wait()
}

// Close cancels session work and flushes the store.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.Store.Close()
}
