package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hobbitResponse = `{
  "numFound": 2,
  "docs": [
    {"key": "/works/OL27482W", "title": "The Hobbit", "author_name": ["J.R.R. Tolkien"], "cover_i": 6979861, "first_publish_year": 1937, "isbn": ["9780261102217"]},
    {"key": "/works/OL1W", "title": "The Hobbit Companion"},
    {"key": "", "title": "no key"}
  ]
}`

func newTestClient(t *testing.T, ttl time.Duration, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := New(Config{BaseURL: server.URL + "/", CacheTTL: ttl}, nil)
	client.http = server.Client()
	t.Cleanup(client.Close)
	return client, &calls
}

func TestClient_Search(t *testing.T) {
	client, _ := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "hobbit", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hobbitResponse))
	})

	refs := client.Search(context.Background(), " hobbit ")
	require.Len(t, refs, 2)

	first := refs[0]
	assert.Equal(t, "/works/OL27482W", first.Key)
	assert.Equal(t, "The Hobbit", first.Title)
	assert.Equal(t, []string{"J.R.R. Tolkien"}, first.AuthorNames)
	require.NotNil(t, first.CoverID)
	assert.Equal(t, 6979861, *first.CoverID)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/6979861-L.jpg", first.CoverURL)
	require.NotNil(t, first.FirstPublishYear)
	assert.Equal(t, 1937, *first.FirstPublishYear)

	assert.Nil(t, refs[1].CoverID)
	assert.Empty(t, refs[1].CoverURL)
}

func TestClient_Search_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests},
		{name: "server error", status: http.StatusBadGateway},
		{name: "not found", status: http.StatusNotFound},
		{name: "bad json", status: http.StatusOK, body: "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, 0, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			refs := client.Search(context.Background(), "anything")
			assert.NotNil(t, refs)
			assert.Empty(t, refs)
		})
	}
}

func TestClient_Search_BlankQuerySkipsRequest(t *testing.T) {
	client, calls := newTestClient(t, 0, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(hobbitResponse))
	})

	assert.Empty(t, client.Search(context.Background(), "   "))
	assert.Zero(t, calls.Load())
}

func TestClient_Search_Cached(t *testing.T) {
	client, calls := newTestClient(t, time.Minute, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(hobbitResponse))
	})

	ctx := context.Background()
	first := client.Search(ctx, "hobbit")
	second := client.Search(ctx, "hobbit")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	client.Search(ctx, "dune")
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Search_FailuresNotCached(t *testing.T) {
	fail := atomic.Bool{}
	fail.Store(true)
	client, calls := newTestClient(t, time.Minute, func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(hobbitResponse))
	})

	ctx := context.Background()
	assert.Empty(t, client.Search(ctx, "hobbit"))
	fail.Store(false)
	assert.Len(t, client.Search(ctx, "hobbit"), 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ByISBN(t *testing.T) {
	client, _ := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("isbn") {
		case "9780261102217":
			_, _ = w.Write([]byte(hobbitResponse))
		default:
			_, _ = w.Write([]byte(`{"numFound": 0, "docs": []}`))
		}
	})

	ctx := context.Background()
	ref := client.ByISBN(ctx, "9780261102217")
	require.NotNil(t, ref)
	assert.Equal(t, "/works/OL27482W", ref.Key)

	assert.Nil(t, client.ByISBN(ctx, "0000000000"))
	assert.Nil(t, client.ByISBN(ctx, ""))
}

func TestClient_ByISBN_Failure(t *testing.T) {
	client, _ := newTestClient(t, 0, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Nil(t, client.ByISBN(context.Background(), "9780261102217"))
}

func TestClient_CanceledContext(t *testing.T) {
	client, _ := newTestClient(t, 0, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(hobbitResponse))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, client.Search(ctx, "hobbit"))
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Nil(t, c.cache)
	c.Close()
}
