package rest

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/krisalay/clientsync/model"
)

type authorResponse struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	ProfilePictureURL string `json:"profile_picture_url"`
	Badge             string `json:"badge"`
}

type originalPostResponse struct {
	ID        string         `json:"id"`
	Author    authorResponse `json:"author"`
	Content   string         `json:"content"`
	MediaURLs []string       `json:"media_urls"`
	GifURL    string         `json:"gif_url"`
	CreatedAt string         `json:"created_at"`
}

type postResponse struct {
	originalPostResponse

	Stats struct {
		Likes    int `json:"likes"`
		Comments int `json:"comments"`
		Reposts  int `json:"reposts"`
	} `json:"stats"`
	UserInteractions struct {
		Liked    bool `json:"liked"`
		Reposted bool `json:"reposted"`
	} `json:"user_interactions"`

	OriginalPostID string                `json:"original_post_id"`
	RepostType     string                `json:"repost_type"`
	OriginalPost   *originalPostResponse `json:"original_post"`
}

func (a authorResponse) toUser() model.User {
	u := model.User{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Handle:      a.Username,
		Avatar:      a.ProfilePictureURL,
	}
	if a.Badge == model.BadgeVerified || a.Badge == model.BadgePublic {
		u.Badge = a.Badge
	}
	return u
}

func (o originalPostResponse) toPost(now time.Time) model.Post {
	p := model.Post{
		ID:      o.ID,
		Author:  o.Author.toUser(),
		Content: o.Content,
		GifURL:  o.GifURL,
	}
	if len(o.MediaURLs) > 0 {
		p.Media = o.MediaURLs
	}
	if t, err := time.Parse(time.RFC3339, o.CreatedAt); err == nil {
		p.CreatedAtRaw = t
		p.CreatedAt = model.FormatRelativeTime(t, now)
	}
	return p
}

// toPost maps a feed row. An original post id without a repost type is a quote.
func (r postResponse) toPost(now time.Time) model.Post {
	p := r.originalPostResponse.toPost(now)
	p.Stats = model.Stats{Likes: r.Stats.Likes, Comments: r.Stats.Comments, Reposts: r.Stats.Reposts}
	p.UserInteractions = model.Interactions{Liked: r.UserInteractions.Liked, Reposted: r.UserInteractions.Reposted}

	if r.RepostType == model.RepostNormal || r.RepostType == model.RepostQuote {
		p.RepostType = r.RepostType
	}
	if r.OriginalPostID != "" {
		p.OriginalPostID = r.OriginalPostID
		if p.RepostType == "" {
			p.RepostType = model.RepostQuote
		}
	}
	if r.OriginalPost != nil && r.OriginalPost.ID != "" {
		quoted := r.OriginalPost.toPost(now)
		p.QuotedPost = &quoted
	}
	return p
}

func (c *Client) mapPosts(rows []postResponse) []model.Post {
	now := c.now()
	posts := make([]model.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toPost(now))
	}
	return posts
}

func (c *Client) ListFeed(ctx context.Context) ([]model.Post, error) {
	var out envelope[[]postResponse]
	if err := c.do(ctx, c.api(http.MethodGet, "/feed"), &out); err != nil {
		return nil, err
	}
	return c.mapPosts(out.Data), nil
}

// ListPosts lists one user's posts or a ticker's posts. It works signed out.
func (c *Client) ListPosts(ctx context.Context, q model.PostQuery) ([]model.Post, error) {
	r := c.api(http.MethodGet, "/posts")
	r.auth = false
	r.query = pageQuery(q.Page, q.PerPage)
	if q.UserID != "" {
		r.query.Set("user_id", q.UserID)
	}
	if q.Ticker != "" {
		r.query.Set("ticker", q.Ticker)
	}

	var out envelope[[]postResponse]
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return c.mapPosts(out.Data), nil
}

func (c *Client) ListBookmarks(ctx context.Context, page, perPage int) ([]model.BookmarkedPost, error) {
	r := c.api(http.MethodGet, "/bookmarks")
	r.query = pageQuery(page, perPage)

	var out envelope[[]model.BookmarkedPost]
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) AddBookmark(ctx context.Context, postID string) error {
	return c.do(ctx, c.api(http.MethodPost, "/posts/"+url.PathEscape(postID)+"/bookmarks"), nil)
}

func (c *Client) RemoveBookmark(ctx context.Context, postID string) error {
	return c.do(ctx, c.api(http.MethodDelete, "/posts/"+url.PathEscape(postID)+"/bookmarks"), nil)
}
