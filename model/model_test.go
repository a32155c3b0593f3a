package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/clientsync/model"
)

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "now"},
		{12 * time.Minute, "12m"},
		{5 * time.Hour, "5h"},
		{3 * 24 * time.Hour, "3d"},
		{10 * 24 * time.Hour, "May 10"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, model.FormatRelativeTime(now.Add(-tc.ago), now))
	}
}

func TestBookmarkedPostToPost(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	row := model.BookmarkedPost{
		ID:           "p1",
		Author:       model.BookmarkAuthor{Username: "ada", DisplayName: "Ada", ProfilePictureURL: "https://img/ada.png"},
		Content:      "hello",
		BookmarkedAt: now.Add(-2 * time.Hour).Format(time.RFC3339),
	}

	p := row.ToPost(now)

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "ada", p.Author.ID)
	assert.Equal(t, "ada", p.Author.Handle)
	assert.Equal(t, "https://img/ada.png", p.Author.Avatar)
	assert.Equal(t, "2h", p.CreatedAt)
	assert.Equal(t, model.Stats{}, p.Stats)
	assert.False(t, p.UserInteractions.Reposted)
}

func TestBookmarkedPostBadTimestamp(t *testing.T) {
	p := model.BookmarkedPost{ID: "p1", CreatedAt: "yesterday"}.ToPost(time.Now())
	assert.Equal(t, "now", p.CreatedAt)
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, "BTC", model.NormalizeSymbol("  btc "))
	assert.Equal(t, model.Range1Y, model.NormalizeRange("1y"))
	assert.Equal(t, model.Range30D, model.NormalizeRange("2w"))
	assert.True(t, model.PostQuery{}.IsHomeFeed())
	assert.False(t, model.PostQuery{Ticker: "BTC"}.IsHomeFeed())
}
