package api

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/readerboard/readerboard-server/internal/domain"
	"github.com/readerboard/readerboard-server/internal/logger"
	"github.com/readerboard/readerboard-server/internal/notify"
	"github.com/readerboard/readerboard-server/internal/search"
	"github.com/readerboard/readerboard-server/internal/service"
	"github.com/readerboard/readerboard-server/internal/store"
	"github.com/readerboard/readerboard-server/internal/validation"
)

// testEnvelope decodes a successful response.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testErrorEnvelope decodes a coded error response.
type testErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// testServer is a Server over an in-memory store.
type testServer struct {
	*Server
	api     humatest.TestAPI
	store   *store.Store
	lookup  *stubLookup
	cleanup func()
}

// stepClock advances one minute per reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

// stubLookup is a canned external catalog.
type stubLookup struct{}

var dune = domain.BookRef{
	Key:         "/works/OL893415W",
	Title:       "Dune",
	AuthorNames: []string{"Frank Herbert"},
}

func (stubLookup) Search(_ context.Context, query string) []domain.BookRef {
	if query == "dune" {
		return []domain.BookRef{dune}
	}
	return []domain.BookRef{}
}

func (stubLookup) ByISBN(_ context.Context, isbn string) *domain.BookRef {
	if isbn == "9780441013593" {
		ref := dune
		return &ref
	}
	return nil
}

// setupTestServer creates a test server with all dependencies.
func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWithOptions(t, Options{})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()

	clock := &stepClock{now: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}
	log := logger.Discard().Logger

	st, err := store.New("", log, store.Options{InMemory: true, Clock: clock.Now})
	require.NoError(t, err)

	v := validation.New()
	searcher := search.NewScanSearcher(st)
	lookup := &stubLookup{}
	policy := service.PointsPolicy{Daily: 10, Location: time.UTC, Now: clock.Now}
	points := service.NewPointsService(st, policy, log)

	services := &Services{
		Catalog:       service.NewCatalogService(st, searcher, lookup, v, log),
		Profile:       service.NewProfileService(st, searcher, v, log),
		Library:       service.NewLibraryService(st, points, v, log),
		Points:        points,
		Social:        service.NewSocialService(st, log),
		Admin:         service.NewAdminService(st, log),
		Notifications: service.NewNotificationService(st, notify.NewNoopSender(log), policy, 2, log),
		Search:        searcher,
	}

	server := NewServer(st, services, opts, log)

	return &testServer{
		Server: server,
		api:    humatest.Wrap(t, server.API()),
		store:  st,
		lookup: lookup,
		cleanup: func() {
			_ = st.Close() //nolint:errcheck // test cleanup
		},
	}
}

// decodeData unmarshals a success envelope and returns its data.
func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success, "expected success envelope: %s", body)
	require.Equal(t, EnvelopeVersion, envelope.Version)
	return envelope.Data
}

// decodeError unmarshals a coded error envelope.
func decodeError(t *testing.T, body []byte) testErrorEnvelope {
	t.Helper()
	var envelope testErrorEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.False(t, envelope.Success, "expected error envelope: %s", body)
	return envelope
}

func (ts *testServer) createProfile(t *testing.T, fid int64, username string) {
	t.Helper()
	resp := ts.api.Put("/api/v1/users/"+domain.FIDString(fid), map[string]any{
		"username":    username,
		"displayName": "Display " + username,
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())
}

func (ts *testServer) shelve(t *testing.T, fid int64, book domain.BookRef, status domain.BookStatus) *domain.UserBook {
	t.Helper()
	resp := ts.api.Put("/api/v1/users/"+domain.FIDString(fid)+"/books", map[string]any{
		"book":   book,
		"status": status,
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())
	return decodeData[*domain.UserBook](t, resp.Body.Bytes())
}
