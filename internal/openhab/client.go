package openhab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes bounds the item tree response body.
const maxResponseBytes = 32 << 20

// Config holds openHAB client settings.
type Config struct {
	// BaseURL is the openHAB root, e.g. "https://myopenhab.org".
	BaseURL string

	// Timeout bounds each request. Zero means 10 seconds.
	Timeout time.Duration

	// UserAgent is sent on every request.
	UserAgent string
}

// Client talks to the openHAB REST API on behalf of a linked Alexa account.
// The bearer token comes from each directive; the client itself is
// stateless and safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

// NewClient creates a client.
//
// Parameters:
//   - cfg: Client configuration
//
// Returns:
//   - *Client: Ready-to-use client
//   - error: ErrInvalidConfig if BaseURL is missing or malformed
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q", ErrInvalidConfig, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		base:      base,
		http:      &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
	}, nil
}

// GetItem reads a single item with its current state.
func (c *Client) GetItem(ctx context.Context, token, name string) (Item, error) {
	var item Item
	path := "/rest/items/" + name
	if err := c.getJSON(ctx, token, path, nil, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// GetItemsRecursively reads every item, with group members nested and Alexa
// metadata attached, in one call.
func (c *Client) GetItemsRecursively(ctx context.Context, token string) ([]Item, error) {
	q := url.Values{}
	q.Set("metadata", MetadataNamespace)
	q.Set("recursive", "true")

	var items []Item
	if err := c.getJSON(ctx, token, "/rest/items", q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// PostItemCommand sends a command to an item.
func (c *Client) PostItemCommand(ctx context.Context, token, name, command string) error {
	path := "/rest/items/" + name
	req, err := c.newRequest(ctx, http.MethodPost, token, path, nil, strings.NewReader(command))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
	return nil
}

func (c *Client) getJSON(ctx context.Context, token, path string, q url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, token, path, q, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, token, path string, q url.Values, body io.Reader) (*http.Request, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	u := *c.base
	u.Path += path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// do executes req and converts non-2xx responses into *StatusError. The
// caller closes the body of a successful response.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Method: req.Method, Path: req.URL.Path}
	}
	return resp, nil
}
