package jikan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL points at the public Jikan v4 API.
const DefaultBaseURL = "https://api.jikan.moe/v4"

// Kind selects one of the two upstream resource collections.
type Kind string

const (
	KindAnime Kind = "anime"
	KindManga Kind = "manga"
)

// Response is any HTTP answer the upstream produced, 2xx or not. A nil
// Response means the upstream could not be reached at all.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is a thin read-only consumer of the upstream metadata service.
// The embedded http.Client timeout bounds upstream hangs.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New builds a client for baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Search runs a keyword search on one collection, forwarding the caller's
// query parameters untouched.
func (c *Client) Search(ctx context.Context, kind Kind, query url.Values) (*Response, error) {
	u := fmt.Sprintf("%s/%s", c.BaseURL, kind)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.get(ctx, u)
}

// Details fetches the full record for one entry by its MAL id.
func (c *Client) Details(ctx context.Context, kind Kind, id int) (*Response, error) {
	return c.get(ctx, fmt.Sprintf("%s/%s/%d/full", c.BaseURL, kind, id))
}

func (c *Client) get(ctx context.Context, u string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
