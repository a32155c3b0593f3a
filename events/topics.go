package events

import "github.com/krisalay/clientsync/model"

type FeedUpdated struct {
	Posts []model.Post `json:"posts"`
}

type BookmarksUpdated struct {
	UserID string   `json:"userId"`
	IDs    []string `json:"ids"`
}

type ContentFiltersUpdated struct {
	UserID  string   `json:"userId"`
	Muted   []string `json:"muted"`
	Blocked []string `json:"blocked"`
}

type WatchlistUpdated struct {
	Items []model.WatchlistItem `json:"items"`
}

var (
	FeedUpdatedTopic           = Topic[FeedUpdated]{Name: "feed.updated"}
	BookmarksUpdatedTopic      = Topic[BookmarksUpdated]{Name: "bookmarks.updated"}
	ContentFiltersUpdatedTopic = Topic[ContentFiltersUpdated]{Name: "content-filters.updated"}
	WatchlistUpdatedTopic      = Topic[WatchlistUpdated]{Name: "watchlist.updated"}
)
