package model

import "time"

// Badge values the backend may attach to an author.
const (
	BadgeVerified = "Verified"
	BadgePublic   = "Public"
)

// Repost kinds. An empty RepostType means an ordinary post.
const (
	RepostNormal = "normal"
	RepostQuote  = "quote"
)

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Handle      string `json:"handle"`
	Avatar      string `json:"avatar"`
	Badge       string `json:"badge,omitempty"`
}

type Stats struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Reposts  int `json:"reposts"`
}

// Interactions are the current user's own interactions with a post.
// Reposted is derived state; see package reconcile.
type Interactions struct {
	Liked    bool `json:"liked"`
	Reposted bool `json:"reposted"`
}

type Post struct {
	ID      string `json:"id"`
	Author  User   `json:"author"`
	Content string `json:"content"`

	// CreatedAt is the display form ("5m", "3h", "Jan 2"); CreatedAtRaw the backend timestamp.
	CreatedAt    string    `json:"createdAt"`
	CreatedAtRaw time.Time `json:"createdAtRaw,omitempty"`

	Media  []string `json:"media,omitempty"`
	GifURL string   `json:"gifUrl,omitempty"`

	RepostType     string `json:"repostType,omitempty"`
	OriginalPostID string `json:"originalPostId,omitempty"`
	QuotedPost     *Post  `json:"quotedPost,omitempty"`

	Stats            Stats        `json:"stats"`
	UserInteractions Interactions `json:"userInteractions"`
}

// IsRepost reports whether p is a normal or quote repost of another post.
func (p *Post) IsRepost() bool {
	return p.RepostType == RepostNormal || p.RepostType == RepostQuote
}

// ClonePosts copies the slice so callers can never reach into a cached or
// synchronizer-owned collection.
func ClonePosts(posts []Post) []Post {
	if posts == nil {
		return nil
	}
	out := make([]Post, len(posts))
	copy(out, posts)
	return out
}

type Comment struct {
	ID      string `json:"id"`
	PostID  string `json:"postId"`
	Author  User   `json:"author"`
	Content string `json:"content"`
}

// PostQuery selects a non-home listing: one user's posts or posts mentioning a ticker.
type PostQuery struct {
	UserID  string
	Ticker  string
	Page    int
	PerPage int
}

// IsHomeFeed is true when no filter is set.
func (q PostQuery) IsHomeFeed() bool {
	return q.UserID == "" && q.Ticker == ""
}
