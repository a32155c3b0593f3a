package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/krisalay/clientsync/model"
)

func (c *Client) ListContentFilters(ctx context.Context) (model.ContentFilters, error) {
	var out envelope[model.ContentFilters]
	if err := c.do(ctx, c.api(http.MethodGet, "/content-filters"), &out); err != nil {
		return model.ContentFilters{}, err
	}
	return out.Data, nil
}

func (c *Client) userAction(ctx context.Context, method, userID, action string) error {
	r := c.api(method, "/users/"+url.PathEscape(userID)+"/"+action)
	if method == http.MethodPost {
		r.body = struct{}{}
	}
	return c.do(ctx, r, nil)
}

func (c *Client) MuteUser(ctx context.Context, userID string) error {
	return c.userAction(ctx, http.MethodPost, userID, "mute")
}

func (c *Client) UnmuteUser(ctx context.Context, userID string) error {
	return c.userAction(ctx, http.MethodDelete, userID, "mute")
}

func (c *Client) BlockUser(ctx context.Context, userID string) error {
	return c.userAction(ctx, http.MethodPost, userID, "block")
}

func (c *Client) UnblockUser(ctx context.Context, userID string) error {
	return c.userAction(ctx, http.MethodDelete, userID, "block")
}
