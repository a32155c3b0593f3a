package feed

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/events"
	"github.com/krisalay/clientsync/feedcache"
	"github.com/krisalay/clientsync/model"
	"github.com/krisalay/clientsync/reconcile"
	"github.com/krisalay/clientsync/request"
)

type State struct {
	Query   model.PostQuery
	Posts   []model.Post
	Loading bool
	Error   string
	// FromCache is true when Posts came from the feed cache without a network call.
	FromCache bool
}

/*
Timeline is the post list a feed view shows: the home feed or one filtered listing.

The home feed goes through the feed cache. Every load begins a new request, and a
response that arrives after a newer load began is dropped. The reposted flags are
reconciled after every change of the collection.
*/
type Timeline struct {
	api      backend.Feed
	cache    *feedcache.Cache
	identity backend.IdentitySource
	bus      *events.Bus
	logger   *zap.Logger

	req request.Tracker

	mu    sync.Mutex
	state State
}

func NewTimeline(api backend.Feed, cache *feedcache.Cache, identity backend.IdentitySource, bus *events.Bus, logger *zap.Logger) *Timeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Timeline{
		api:      api,
		cache:    cache,
		identity: identity,
		bus:      bus,
		logger:   logger.With(zap.String("component", "timeline")),
	}
}

func (t *Timeline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.state
	st.Posts = model.ClonePosts(st.Posts)
	return st
}

// Load shows q. With force the feed cache is bypassed.
func (t *Timeline) Load(ctx context.Context, q model.PostQuery, force bool) error {
	reqCtx, tok := t.req.Begin(ctx)
	defer t.req.Done(tok)

	home := q.IsHomeFeed()
	id := t.identity.Identity()

	if home && id.Token == "" {
		t.settle(ctx, tok, q, []model.Post{}, "", false)
		return nil
	}

	if home && !force {
		if snap, ok := t.cache.Get(); ok {
			t.settle(ctx, tok, q, snap.Posts, "", true)
			return nil
		}
	}

	t.mu.Lock()
	t.state.Loading = true
	t.state.Error = ""
	t.mu.Unlock()

	var (
		posts []model.Post
		err   error
	)
	if home {
		posts, err = t.api.ListFeed(reqCtx)
	} else {
		posts, err = t.api.ListPosts(reqCtx, q)
	}

	if !t.req.Current(tok) {
		t.logger.Debug("dropping superseded timeline response",
			zap.String("user_id", q.UserID),
			zap.String("ticker", q.Ticker),
		)
		return nil
	}

	if err != nil {
		if backend.IsSilent(err) {
			t.settle(ctx, tok, q, []model.Post{}, "", false)
			return nil
		}
		t.logger.Warn("load timeline failed", zap.Error(err))
		t.settle(ctx, tok, q, []model.Post{}, backend.UserMessage(err, "Failed to load posts"), false)
		return fmt.Errorf("load timeline: %w", err)
	}

	if out, ok := t.settle(ctx, tok, q, posts, "", false); ok && home {
		t.cache.Set(ctx, out)
	}
	return nil
}

// settle installs posts if tok is still the current request and returns
// a copy of what it installed.
func (t *Timeline) settle(ctx context.Context, tok request.Token, q model.PostQuery, posts []model.Post, errMsg string, fromCache bool) ([]model.Post, bool) {
	t.mu.Lock()
	if !t.req.Current(tok) {
		t.mu.Unlock()
		return nil, false
	}
	reconcile.Reposts(posts, t.identity.Identity().Handle)
	t.state.Query = q
	t.state.Posts = posts
	t.state.Loading = false
	t.state.Error = errMsg
	t.state.FromCache = fromCache
	out := model.ClonePosts(posts)
	t.mu.Unlock()

	events.Publish(ctx, t.bus, events.FeedUpdatedTopic, events.FeedUpdated{Posts: out})
	return out, true
}

// Prepend puts a post the user just created at the top. The home feed cache
// is refreshed so the next cached read sees it.
func (t *Timeline) Prepend(ctx context.Context, p model.Post) {
	t.mu.Lock()
	posts := append([]model.Post{p}, t.state.Posts...)
	t.mu.Unlock()
	t.Replace(ctx, posts)
}

// Replace swaps the whole collection, for example after a local edit.
func (t *Timeline) Replace(ctx context.Context, posts []model.Post) {
	posts = model.ClonePosts(posts)

	t.mu.Lock()
	reconcile.Reposts(posts, t.identity.Identity().Handle)
	t.state.Posts = posts
	home := t.state.Query.IsHomeFeed()
	out := model.ClonePosts(posts)
	t.mu.Unlock()

	if home && t.identity.Identity().Token != "" {
		t.cache.Set(ctx, out)
	}
	events.Publish(ctx, t.bus, events.FeedUpdatedTopic, events.FeedUpdated{Posts: out})
}

// Reconcile reruns the repost pass, for example after the handle changed.
// It publishes only when a flag was corrected.
func (t *Timeline) Reconcile(ctx context.Context) bool {
	t.mu.Lock()
	changed := reconcile.Reposts(t.state.Posts, t.identity.Identity().Handle)
	out := model.ClonePosts(t.state.Posts)
	t.mu.Unlock()

	if changed {
		events.Publish(ctx, t.bus, events.FeedUpdatedTopic, events.FeedUpdated{Posts: out})
	}
	return changed
}

// Reset drops the posts and cancels any load in flight.
func (t *Timeline) Reset() {
	t.req.Cancel()
	t.mu.Lock()
	t.state = State{}
	t.mu.Unlock()
}
