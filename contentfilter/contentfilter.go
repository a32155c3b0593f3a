package contentfilter

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

const (
	KindMute    = "filter.mute"
	KindUnmute  = "filter.unmute"
	KindBlock   = "filter.block"
	KindUnblock = "filter.unblock"
)

// Target is the account being muted or blocked.
type Target struct {
	ID          string
	Username    string
	DisplayName string
}

type State struct {
	Filters model.ContentFilters
	Loading bool
	Error   string
}

// Synchronizer owns the user's muted and blocked accounts.
type Synchronizer struct {
	api       backend.ContentFilters
	identity  backend.IdentitySource
	cache     *contextcache.Cache[model.ContentFilters]
	mutations *mutation.Tracker
	bus       *events.Bus
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	filters model.ContentFilters
	loading bool
	err     string
	// gen is bumped by Reset; a load started under an older gen is dropped.
	gen uint64
}

func New(
	api backend.ContentFilters,
	identity backend.IdentitySource,
	cache *contextcache.Cache[model.ContentFilters],
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
		logger:    logger.With(zap.String("component", "contentfilter")),
		now:       time.Now,
	}
}

func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Filters: s.filters.Clone(), Loading: s.loading, Error: s.err}
}

// Load reads the filters, from the context cache while it is valid.
// A failed load keeps whatever was loaded before.
func (s *Synchronizer) Load(ctx context.Context) error {
	id := s.identity.Identity()
	if !id.SignedIn() {
		s.set(ctx, "", model.ContentFilters{})
		return nil
	}

	if cached, ok := s.cache.Get(id.UserID); ok {
		s.set(ctx, id.UserID, cached.Clone())
		return nil
	}

	s.mu.Lock()
	s.loading = true
	s.err = ""
	gen := s.gen
	s.mu.Unlock()

	filters, err := s.api.ListContentFilters(ctx)

	s.mu.Lock()
	if s.gen != gen || s.identity.Identity().UserID != id.UserID {
		s.mu.Unlock()
		s.logger.Debug("dropping content filters of a finished session", zap.String("user_id", id.UserID))
		return nil
	}
	s.loading = false
	if err != nil {
		if backend.IsSilent(err) {
			s.mu.Unlock()
			return nil
		}
		s.err = backend.UserMessage(err, "Failed to load content filters")
		s.mu.Unlock()
		s.logger.Warn("list content filters failed", zap.Error(err))
		return fmt.Errorf("list content filters: %w", err)
	}
	s.filters = filters.Clone()
	s.mu.Unlock()

	s.cache.Set(ctx, id.UserID, filters.Clone())
	s.publish(ctx, id.UserID)
	return nil
}

func (s *Synchronizer) set(ctx context.Context, userID string, f model.ContentFilters) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
	s.publish(ctx, userID)
}

func (s *Synchronizer) Mute(ctx context.Context, t Target) error {
	if s.IsMutedByID(t.ID) {
		return nil
	}
	entry := model.FilteredUser{ID: t.ID, Username: t.Username, DisplayName: t.DisplayName, MutedAt: s.now().UTC().Format(time.RFC3339)}
	return s.mutate(ctx, KindMute, t.ID, func(f *model.ContentFilters) {
		f.MutedUsers = append(f.MutedUsers, entry)
	}, s.api.MuteUser)
}

func (s *Synchronizer) Unmute(ctx context.Context, userID string) error {
	if !s.IsMutedByID(userID) {
		return nil
	}
	return s.mutate(ctx, KindUnmute, userID, func(f *model.ContentFilters) {
		f.MutedUsers = withoutUser(f.MutedUsers, userID)
	}, s.api.UnmuteUser)
}

func (s *Synchronizer) Block(ctx context.Context, t Target) error {
	if s.IsBlockedByID(t.ID) {
		return nil
	}
	entry := model.FilteredUser{ID: t.ID, Username: t.Username, DisplayName: t.DisplayName, BlockedAt: s.now().UTC().Format(time.RFC3339)}
	return s.mutate(ctx, KindBlock, t.ID, func(f *model.ContentFilters) {
		f.BlockedUsers = append(f.BlockedUsers, entry)
	}, s.api.BlockUser)
}

func (s *Synchronizer) Unblock(ctx context.Context, userID string) error {
	if !s.IsBlockedByID(userID) {
		return nil
	}
	return s.mutate(ctx, KindUnblock, userID, func(f *model.ContentFilters) {
		f.BlockedUsers = withoutUser(f.BlockedUsers, userID)
	}, s.api.UnblockUser)
}

func withoutUser(users []model.FilteredUser, id string) []model.FilteredUser {
	return slices.DeleteFunc(users, func(u model.FilteredUser) bool { return u.ID == id })
}

/*
mutate applies change at once, calls the backend, then either invalidates the
cached filters or restores the exact filters seen before the change. The backend
error is returned to the caller.
*/
func (s *Synchronizer) mutate(
	ctx context.Context,
	kind, userID string,
	change func(*model.ContentFilters),
	call func(context.Context, string) error,
) error {
	id := s.identity.Identity()
	if !id.SignedIn() {
		return nil
	}

	var previous model.ContentFilters
	err := s.mutations.Run(ctx, kind, userID, mutation.Steps{
		Apply: func() {
			s.mu.Lock()
			previous = s.filters.Clone()
			next := s.filters.Clone()
			change(&next)
			s.filters = next
			s.mu.Unlock()
			s.publish(ctx, id.UserID)
		},
		Call: func(ctx context.Context) error {
			return call(ctx, userID)
		},
		OnConfirm: func(ctx context.Context) {
			s.cache.Invalidate(ctx, id.UserID)
		},
		OnRollback: func(ctx context.Context, _ error) {
			s.set(ctx, id.UserID, previous)
		},
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, userID, err)
	}
	return nil
}

func (s *Synchronizer) IsMutedByID(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasID(s.filters.MutedUsers, userID)
}

func (s *Synchronizer) IsBlockedByID(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasID(s.filters.BlockedUsers, userID)
}

func (s *Synchronizer) IsMutedByHandle(handle string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasHandle(s.filters.MutedUsers, handle)
}

func (s *Synchronizer) IsBlockedByHandle(handle string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasHandle(s.filters.BlockedUsers, handle)
}

func hasID(users []model.FilteredUser, id string) bool {
	return slices.ContainsFunc(users, func(u model.FilteredUser) bool { return u.ID == id })
}

func hasHandle(users []model.FilteredUser, handle string) bool {
	return slices.ContainsFunc(users, func(u model.FilteredUser) bool { return u.Username == handle })
}

// FilterPosts drops posts by blocked or muted authors, matched by id or handle.
func (s *Synchronizer) FilterPosts(posts []model.Post) []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if s.hiddenLocked(p.Author, true) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterComments drops comments by blocked authors. Muted authors stay visible in threads.
func (s *Synchronizer) FilterComments(comments []model.Comment) []model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Comment, 0, len(comments))
	for _, c := range comments {
		if s.hiddenLocked(c.Author, false) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Synchronizer) hiddenLocked(u model.User, includeMuted bool) bool {
	if hasID(s.filters.BlockedUsers, u.ID) || hasHandle(s.filters.BlockedUsers, u.Handle) {
		return true
	}
	return includeMuted && (hasID(s.filters.MutedUsers, u.ID) || hasHandle(s.filters.MutedUsers, u.Handle))
}

func (s *Synchronizer) publish(ctx context.Context, userID string) {
	s.mu.RLock()
	ev := events.ContentFiltersUpdated{UserID: userID}
	for _, u := range s.filters.MutedUsers {
		ev.Muted = append(ev.Muted, u.ID)
	}
	for _, u := range s.filters.BlockedUsers {
		ev.Blocked = append(ev.Blocked, u.ID)
	}
	s.mu.RUnlock()

	events.Publish(ctx, s.bus, events.ContentFiltersUpdatedTopic, ev)
}

// Reset drops all state. Used on logout.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.filters = model.ContentFilters{}
	s.loading = false
	s.err = ""
}
