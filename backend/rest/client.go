package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/clientsync/backend"
)

const apiPrefix = "/api/v1"

var _ backend.Backend = (*Client)(nil)

type Config struct {
	// BaseURL is the backend of record. Empty means not configured.
	BaseURL string

	// MarketURL serves /api/ticker routes. Defaults to BaseURL.
	MarketURL string

	Timeout time.Duration
}

/*
Client talks to the backend of record and to the market-data proxy over HTTP.

Every call reads the identity at call time, so a logout or a user switch
takes effect on the next request without rebuilding the client.
*/
type Client struct {
	baseURL   string
	marketURL string

	http     *http.Client
	identity backend.IdentitySource
	logger   *zap.Logger

	now func() time.Time
}

func NewClient(cfg Config, identity backend.IdentitySource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if identity == nil {
		identity = backend.StaticIdentity{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	market := cfg.MarketURL
	if market == "" {
		market = cfg.BaseURL
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		marketURL: strings.TrimRight(market, "/"),
		http:      &http.Client{Timeout: timeout},
		identity:  identity,
		logger:    logger,
		now:       time.Now,
	}
}

// envelope is the {"data": ...} wrapper every route responds with.
type envelope[T any] struct {
	Data T `json:"data"`
}

type request struct {
	method string
	base   string
	path   string
	query  url.Values
	body   any

	// auth requires a signed-in identity; otherwise the token is sent if present.
	auth bool
}

func (c *Client) api(method, path string) request {
	return request{method: method, base: c.baseURL, path: apiPrefix + path, auth: true}
}

func (c *Client) market(path string) request {
	return request{method: http.MethodGet, base: c.marketURL, path: path}
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if r.base == "" {
		return backend.ErrNotConfigured
	}

	id := c.identity.Identity()
	if r.auth && id.Token == "" {
		return backend.ErrUnauthenticated
	}

	target := r.base + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if id.Token != "" {
		req.Header.Set("Authorization", "Bearer "+id.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", r.method, r.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &backend.APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
		c.logger.Debug("backend error",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// errorMessage pulls the user-facing text out of an error body:
// error.message, then detail, then message, then the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if body.Error.Message != "" {
		return body.Error.Message
	}
	if s, ok := body.Detail.(string); ok && s != "" {
		return s
	}
	return body.Message
}

func pageQuery(page, perPage int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if perPage > 0 {
		q.Set("per_page", fmt.Sprint(perPage))
	}
	return q
}
