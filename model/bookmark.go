package model

import "time"

// BookmarkAuthor is the author shape returned by the bookmarks listing.
type BookmarkAuthor struct {
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// BookmarkedPost is one row of the backend bookmarks listing.
type BookmarkedPost struct {
	ID           string         `json:"id"`
	Author       BookmarkAuthor `json:"author"`
	Content      string         `json:"content"`
	CreatedAt    string         `json:"created_at"`
	BookmarkedAt string         `json:"bookmarked_at"`
}

/*
ToPost projects a bookmark row into a Post for the bookmarks view.

- the author handle doubles as its id (the listing carries no user id)
- the timestamp is the post creation time, falling back to the bookmark time
- stats and interactions are zeroed: the bookmarks view does not show live counts
*/
func (b BookmarkedPost) ToPost(now time.Time) Post {
	raw := b.CreatedAt
	if raw == "" {
		raw = b.BookmarkedAt
	}

	display := "now"
	var at time.Time
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		at = t
		display = FormatRelativeTime(t, now)
	}

	return Post{
		ID: b.ID,
		Author: User{
			ID:          b.Author.Username,
			DisplayName: b.Author.DisplayName,
			Handle:      b.Author.Username,
			Avatar:      b.Author.ProfilePictureURL,
		},
		Content:      b.Content,
		CreatedAt:    display,
		CreatedAtRaw: at,
	}
}
