package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCommentsServer serves canned commentThreads pages keyed by pageToken
// and records the query of every request it receives.
type mockCommentsServer struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []map[string]string
}

type mockPage struct {
	comments []string
	next     string
}

func newMockCommentsServer(t *testing.T, pages map[string]mockPage) *mockCommentsServer {
	t.Helper()
	m := &mockCommentsServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		m.mu.Lock()
		m.requests = append(m.requests, map[string]string{
			"videoId":    q.Get("videoId"),
			"maxResults": q.Get("maxResults"),
			"pageToken":  q.Get("pageToken"),
			"key":        q.Get("key"),
			"part":       q.Get("part"),
			"textFormat": q.Get("textFormat"),
		})
		m.mu.Unlock()

		page, ok := pages[q.Get("pageToken")]
		if !ok {
			http.Error(w, "unknown page", http.StatusBadRequest)
			return
		}

		items := make([]map[string]any, 0, len(page.comments))
		for _, c := range page.comments {
			items = append(items, map[string]any{
				"snippet": map[string]any{
					"topLevelComment": map[string]any{
						"snippet": map[string]any{"textDisplay": c},
					},
				},
			})
		}
		resp := map[string]any{"items": items}
		if page.next != "" {
			resp["nextPageToken"] = page.next
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockCommentsServer) Requests() []map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]string(nil), m.requests...)
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := New("FAKE_KEY", append([]Option{WithBaseURL(baseURL)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestFetchCommentsPaginates(t *testing.T) {
	m := newMockCommentsServer(t, map[string]mockPage{
		"":      {comments: []string{"Comment 1"}, next: "PAGE2"},
		"PAGE2": {comments: []string{"Comment 2"}},
	})
	c := newTestClient(t, m.server.URL)

	comments, err := c.FetchComments(context.Background(), "abcd1234", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Comment 1", "Comment 2"}, comments)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "5", reqs[0]["maxResults"])
	assert.Equal(t, "", reqs[0]["pageToken"])
	assert.Equal(t, "4", reqs[1]["maxResults"])
	assert.Equal(t, "PAGE2", reqs[1]["pageToken"])
	for _, r := range reqs {
		assert.Equal(t, "abcd1234", r["videoId"])
		assert.Equal(t, "FAKE_KEY", r["key"])
		assert.Equal(t, "snippet", r["part"])
		assert.Equal(t, "plainText", r["textFormat"])
	}
}

func TestFetchCommentsStopsAtTarget(t *testing.T) {
	m := newMockCommentsServer(t, map[string]mockPage{
		// server ignores maxResults and returns more than asked
		"":      {comments: []string{"a", "b", "c", "d"}, next: "PAGE2"},
		"PAGE2": {comments: []string{"e"}},
	})
	c := newTestClient(t, m.server.URL)

	comments, err := c.FetchComments(context.Background(), "vid", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, comments)
	assert.Len(t, m.Requests(), 1)
}

func TestFetchCommentsClampsToCeiling(t *testing.T) {
	m := newMockCommentsServer(t, map[string]mockPage{
		"":      {comments: []string{"a", "b"}, next: "PAGE2"},
		"PAGE2": {comments: []string{"c", "d"}, next: "PAGE3"},
	})
	c := newTestClient(t, m.server.URL, WithMaxComments(3))
	assert.Equal(t, 3, c.MaxComments())

	comments, err := c.FetchComments(context.Background(), "vid", 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, comments)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "3", reqs[0]["maxResults"])
	assert.Equal(t, "1", reqs[1]["maxResults"])
}

func TestFetchCommentsPageSizeCappedByAPILimit(t *testing.T) {
	first := make([]string, maxPageSize)
	for i := range first {
		first[i] = "c" + strconv.Itoa(i)
	}
	m := newMockCommentsServer(t, map[string]mockPage{
		"":      {comments: first, next: "PAGE2"},
		"PAGE2": {comments: []string{"last"}},
	})
	c := newTestClient(t, m.server.URL, WithMaxComments(500))

	comments, err := c.FetchComments(context.Background(), "vid", 150)
	require.NoError(t, err)
	assert.Len(t, comments, maxPageSize+1)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, strconv.Itoa(maxPageSize), reqs[0]["maxResults"])
	assert.Equal(t, "50", reqs[1]["maxResults"])
}

func TestFetchCommentsEmpty(t *testing.T) {
	m := newMockCommentsServer(t, map[string]mockPage{
		"": {},
	})
	c := newTestClient(t, m.server.URL)

	comments, err := c.FetchComments(context.Background(), "vid", 10)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestFetchCommentsZeroTargetMakesNoRequest(t *testing.T) {
	m := newMockCommentsServer(t, map[string]mockPage{"": {comments: []string{"a"}}})
	c := newTestClient(t, m.server.URL)

	comments, err := c.FetchComments(context.Background(), "vid", 0)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Empty(t, m.Requests())
}

func TestFetchCommentsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"The video has disabled comments.","errors":[{"reason":"commentsDisabled"}]}}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.FetchComments(context.Background(), "vid", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "commentsDisabled", apiErr.Reason)
	assert.Equal(t, "The video has disabled comments.", apiErr.Message)
}

func TestFetchCommentsNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.FetchComments(context.Background(), "vid", 10)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Reason)
}

func TestFetchCommentsCanceledContext(t *testing.T) {
	m := newMockCommentsServer(t, map[string]mockPage{"": {comments: []string{"a"}}})
	c := newTestClient(t, m.server.URL, WithRateLimit(1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchComments(ctx, "vid", 10)
	assert.Error(t, err)
	assert.Empty(t, m.Requests())
}
