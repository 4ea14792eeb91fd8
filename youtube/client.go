// Package youtube talks to the YouTube Data API v3: it resolves video ids from
// URLs and pages through a video's top-level comments.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	DefaultMaxComments = 50
	DefaultTimeout     = 15 * time.Second

	// maxPageSize is the largest maxResults commentThreads.list accepts
	maxPageSize = 100
)

// ErrMissingAPIKey is returned by New when no API key is configured
var ErrMissingAPIKey = errors.New("youtube: api key required")

// APIError is a non-2xx answer from the YouTube API
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube api: %d %s: %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube api: %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	http    *http.Client
	baseURL *url.URL
	apiKey  string

	maxComments int
	limiter     *rate.Limiter // optional; nil means unlimited
	logger      zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

// WithMaxComments sets the ceiling applied to every FetchComments call
func WithMaxComments(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxComments = n
		}
	}
}

// WithRateLimit caps outgoing API requests to r per second
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		if r > 0 {
			c.limiter = rate.NewLimiter(r, max(burst, 1))
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewHTTPClient returns an http.Client with a bounded in-memory response
// cache and the given timeout
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: httpcache.NewTransport(newResponseCache(DefaultResponseCacheEntries)),
		Timeout:   timeout,
	}
}

func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:        NewHTTPClient(DefaultTimeout),
		baseURL:     u,
		apiKey:      apiKey,
		maxComments: DefaultMaxComments,
		logger:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// MaxComments returns the configured ceiling
func (c *Client) MaxComments() int {
	return c.maxComments
}

func (c *Client) newReq(ctx context.Context, p string, q map[string]string) (*http.Request, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	qq := u.Query()
	for k, v := range q {
		if v != "" {
			qq.Set(k, v)
		}
	}
	qq.Set("key", c.apiKey)
	u.RawQuery = qq.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, p string, q map[string]string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := c.newReq(ctx, p, q)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		apiErr.Message = er.Error.Message
		if len(er.Error.Errors) > 0 {
			apiErr.Reason = er.Error.Errors[0].Reason
		}
	}
	return apiErr
}

// ListCommentThreads returns one page of top-level comments for videoID.
// pageToken is empty for the first page.
func (c *Client) ListCommentThreads(ctx context.Context, videoID string, pageSize int, pageToken string) (Page, error) {
	var r commentThreadsResponse
	err := c.doJSON(ctx, "/commentThreads", map[string]string{
		"part":       "snippet",
		"videoId":    videoID,
		"textFormat": "plainText",
		"maxResults": strconv.Itoa(pageSize),
		"pageToken":  pageToken,
	}, &r)
	if err != nil {
		return Page{}, err
	}

	page := Page{
		Comments:      make([]string, 0, len(r.Items)),
		NextPageToken: r.NextPageToken,
	}
	for _, item := range r.Items {
		page.Comments = append(page.Comments, item.Snippet.TopLevelComment.Snippet.TextDisplay)
	}
	return page, nil
}
