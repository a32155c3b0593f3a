package bookmarks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/contextcache"
	"github.com/krisalay/clientsync/events"
	"github.com/krisalay/clientsync/model"
	"github.com/krisalay/clientsync/mutation"
)

// PerPage is how many bookmarks one Fetch loads.
const PerPage = 50

const (
	KindAdd    = "bookmark.add"
	KindRemove = "bookmark.remove"
)

// Entry is what the context cache holds for one user.
type Entry struct {
	IDs   []string
	Posts []model.Post
}

type State struct {
	IDs     []string
	Posts   []model.Post
	Loading bool
	Error   string
}

/*
Synchronizer keeps the bookmarked post ids and the bookmarked posts.

Both are updated optimistically. They may disagree while a request is in
flight and agree again once it settled.
*/
type Synchronizer struct {
	api       backend.Bookmarks
	identity  backend.IdentitySource
	cache     *contextcache.Cache[Entry]
	mutations *mutation.Tracker
	bus       *events.Bus
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	ids     map[string]struct{}
	posts   []model.Post
	loading bool
	err     string
	// gen is bumped by Reset; a fetch started under an older gen is dropped.
	gen uint64
}

func New(
	api backend.Bookmarks,
	identity backend.IdentitySource,
	cache *contextcache.Cache[Entry],
	mutations *mutation.Tracker,
	bus *events.Bus,
	logger *zap.Logger,
) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mutations == nil {
		mutations = mutation.NewTracker(nil, logger)
	}
	return &Synchronizer{
		api:       api,
		identity:  identity,
		cache:     cache,
		mutations: mutations,
		bus:       bus,
		logger:    logger.With(zap.String("component", "bookmarks")),
		now:       time.Now,
		ids:       make(map[string]struct{}),
	}
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		IDs:     s.sortedIDs(),
		Posts:   model.ClonePosts(s.posts),
		Loading: s.loading,
		Error:   s.err,
	}
}

func (s *Synchronizer) IsBookmarked(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[postID]
	return ok
}

// sortedIDs must be called with mu held.
func (s *Synchronizer) sortedIDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Synchronizer) replace(ids []string, posts []model.Post) {
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	s.posts = posts
}

// Fetch loads the bookmarks, from the context cache when it is still valid.
func (s *Synchronizer) Fetch(ctx context.Context) error {
	id := s.identity.Identity()
	if !id.SignedIn() {
		s.mu.Lock()
		s.replace(nil, []model.Post{})
		s.mu.Unlock()
		return nil
	}

	if cached, ok := s.cache.Get(id.UserID); ok {
		s.mu.Lock()
		s.replace(cached.IDs, model.ClonePosts(cached.Posts))
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.loading = true
	s.err = ""
	gen := s.gen
	s.mu.Unlock()

	rows, err := s.api.ListBookmarks(ctx, 0, PerPage)
	if !s.current(gen, id.UserID) {
		s.logger.Debug("dropping bookmarks of a finished session", zap.String("user_id", id.UserID))
		return nil
	}
	if err != nil {
		msg := ""
		if !backend.IsSilent(err) {
			msg = backend.UserMessage(err, "Failed to load bookmarks")
			if backend.IsValidation(err) {
				msg = "Please retry"
			}
			s.logger.Warn("list bookmarks failed", zap.Error(err))
		}

		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return nil
		}
		s.replace(nil, []model.Post{})
		s.loading = false
		s.err = msg
		s.mu.Unlock()

		s.publish(ctx, id.UserID)
		if msg == "" {
			return nil
		}
		return fmt.Errorf("list bookmarks: %w", err)
	}

	now := s.now()
	entry := Entry{IDs: make([]string, 0, len(rows)), Posts: make([]model.Post, 0, len(rows))}
	for _, r := range rows {
		entry.IDs = append(entry.IDs, r.ID)
		entry.Posts = append(entry.Posts, r.ToPost(now))
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil
	}
	s.replace(entry.IDs, model.ClonePosts(entry.Posts))
	s.loading = false
	s.mu.Unlock()

	s.cache.Set(ctx, id.UserID, entry)
	s.publish(ctx, id.UserID)
	return nil
}

// current reports whether a fetch started under gen for userID may still apply.
func (s *Synchronizer) current(gen uint64, userID string) bool {
	if s.identity.Identity().UserID != userID {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// Add bookmarks postID at once and undoes it if the backend refuses.
func (s *Synchronizer) Add(ctx context.Context, postID string) error {
	id := s.identity.Identity()
	if !id.SignedIn() || postID == "" {
		return nil
	}

	var present bool
	err := s.mutations.Run(ctx, KindAdd, postID, mutation.Steps{
		Apply: func() {
			s.mu.Lock()
			_, present = s.ids[postID]
			s.ids[postID] = struct{}{}
			s.mu.Unlock()
			s.publish(ctx, id.UserID)
		},
		Call: func(ctx context.Context) error {
			return s.api.AddBookmark(ctx, postID)
		},
		OnConfirm: func(ctx context.Context) {
			s.cache.Invalidate(ctx, id.UserID)
			if err := s.Fetch(ctx); err != nil {
				s.logger.Warn("reload after bookmark failed", zap.String("post_id", postID), zap.Error(err))
			}
		},
		OnRollback: func(ctx context.Context, err error) {
			if present {
				return
			}
			s.mu.Lock()
			delete(s.ids, postID)
			s.mu.Unlock()
			s.publish(ctx, id.UserID)
		},
	})
	if err != nil && !backend.IsSilent(err) {
		return fmt.Errorf("add bookmark %s: %w", postID, err)
	}
	return nil
}

/*
Remove drops postID from the ids and the list at once. If the backend refuses,
the state is reloaded from the backend instead of being patched back.
*/
func (s *Synchronizer) Remove(ctx context.Context, postID string) error {
	id := s.identity.Identity()
	if !id.SignedIn() || postID == "" {
		return nil
	}

	err := s.mutations.Run(ctx, KindRemove, postID, mutation.Steps{
		Apply: func() {
			s.mu.Lock()
			delete(s.ids, postID)
			s.posts = slices.DeleteFunc(model.ClonePosts(s.posts), func(p model.Post) bool { return p.ID == postID })
			s.mu.Unlock()
			s.publish(ctx, id.UserID)
		},
		Call: func(ctx context.Context) error {
			return s.api.RemoveBookmark(ctx, postID)
		},
		OnConfirm: func(ctx context.Context) {
			s.cache.Invalidate(ctx, id.UserID)
		},
		OnRollback: func(ctx context.Context, _ error) {
			s.cache.Invalidate(ctx, id.UserID)
			if err := s.Fetch(ctx); err != nil {
				s.logger.Warn("reload after failed unbookmark failed", zap.String("post_id", postID), zap.Error(err))
			}
		},
	})
	if err != nil && !backend.IsSilent(err) {
		return fmt.Errorf("remove bookmark %s: %w", postID, err)
	}
	return nil
}

func (s *Synchronizer) publish(ctx context.Context, userID string) {
	s.mu.Lock()
	ids := s.sortedIDs()
	s.mu.Unlock()
	events.Publish(ctx, s.bus, events.BookmarksUpdatedTopic, events.BookmarksUpdated{UserID: userID, IDs: ids})
}

// Reset drops all state. Used on logout.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.replace(nil, nil)
	s.loading = false
	s.err = ""
}
