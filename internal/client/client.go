// Package client implements the HTTP client for the wardwatch
// notification feed API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wardwatch/wardwatch/internal/core/config"
	"github.com/wardwatch/wardwatch/internal/core/feed"
	"github.com/wardwatch/wardwatch/internal/core/logging"
)

// Client speaks the notification feed API of the upstream server.
// All requests carry the session cookie jar; state-changing requests
// echo the CSRF token from the csrftoken cookie in the X-CSRFToken
// header (double-submit).
type Client struct {
	baseURL    *url.URL
	csrfCookie string
	http       *http.Client
	log        zerolog.Logger
}

// PublishRequest is the body for Publish.
type PublishRequest struct {
	Level   string `json:"level"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// PublishResponse is the body returned by Publish.
type PublishResponse struct {
	ID        int64  `json:"id"`
	VisibleAt string `json:"visible_at,omitempty"`
}

// New creates a client for the configured server. The cookie jar is
// seeded with the configured CSRF token so the first state-changing
// request already carries it.
func New(cfg config.ServerConfig, timeout time.Duration) (*Client, error) {
	// trailing slashes would double up against the request paths
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	if cfg.CSRFToken != "" {
		jar.SetCookies(base, []*http.Cookie{{
			Name:  cfg.CSRFCookie,
			Value: cfg.CSRFToken,
			Path:  "/",
		}})
	}

	return &Client{
		baseURL:    base,
		csrfCookie: cfg.CSRFCookie,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		log: logging.Component("client"),
	}, nil
}

// Feed fetches notifications newer than sinceID. A sinceID of zero
// requests the full visible feed; the since_id parameter is omitted.
func (c *Client) Feed(ctx context.Context, sinceID int64) (feed.Feed, error) {
	path := "/api/notifications/"
	if sinceID > 0 {
		path = fmt.Sprintf("%s?since_id=%d", path, sinceID)
	}

	var out feed.Feed
	if err := c.get(ctx, path, &out); err != nil {
		return feed.Feed{}, err
	}
	return out, nil
}

// Status fetches the unread counter.
func (c *Client) Status(ctx context.Context) (feed.Status, error) {
	var out feed.Status
	if err := c.get(ctx, "/api/notifications/status/", &out); err != nil {
		return feed.Status{}, err
	}
	return out, nil
}

// Ack acknowledges a notification. The response body is ignored;
// callers on the poll path treat errors as best-effort.
func (c *Client) Ack(ctx context.Context, id int64) error {
	return c.post(ctx, fmt.Sprintf("/notifications/%d/ack/", id), nil, nil)
}

// MarkRead stamps a notification read on the server.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	return c.post(ctx, fmt.Sprintf("/notifications/%d/read/", id), nil, nil)
}

// MarkUnread clears a notification's read stamp on the server.
func (c *Client) MarkUnread(ctx context.Context, id int64) error {
	return c.post(ctx, fmt.Sprintf("/notifications/%d/unread/", id), nil, nil)
}

// MarkAllRead marks every visible notification read on the server.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.post(ctx, "/notifications/mark-all-read/", nil, nil)
}

// Publish creates a notification on the server and returns its id.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (int64, error) {
	var out PublishResponse
	if err := c.post(ctx, "/api/notifications/", req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: unexpected status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.csrfToken(); token != "" {
		req.Header.Set("X-CSRFToken", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: unexpected status %d: %s", path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("POST %s: decode response: %w", path, err)
		}
	}
	return nil
}

// csrfToken reads the CSRF token from the cookie jar. The jar is
// seeded from config and refreshed by any Set-Cookie the server sends.
func (c *Client) csrfToken() string {
	for _, cookie := range c.http.Jar.Cookies(c.baseURL) {
		if cookie.Name == c.csrfCookie {
			return cookie.Value
		}
	}
	return ""
}
