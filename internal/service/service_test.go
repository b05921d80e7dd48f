package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readerboard/readerboard-server/internal/domain"
	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
	"github.com/readerboard/readerboard-server/internal/logger"
	"github.com/readerboard/readerboard-server/internal/search"
	"github.com/readerboard/readerboard-server/internal/store"
	"github.com/readerboard/readerboard-server/internal/validation"
)

// testClock advances one minute per reading, starting at 2025-06-10 08:00 UTC.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

// Advance moves the clock forward by d.
func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testServices is every service wired over one in-memory store.
type testServices struct {
	store         *store.Store
	clock         *testClock
	catalog       *CatalogService
	profiles      *ProfileService
	library       *LibraryService
	points        *PointsService
	social        *SocialService
	admin         *AdminService
	notifications *NotificationService
	sender        *fakeSender
	lookup        *fakeLookup
}

func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	clock := newTestClock()
	st, err := store.New("", nil, store.Options{InMemory: true, Clock: clock.Now})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log := logger.Discard().Logger
	v := validation.New()
	searcher := search.NewScanSearcher(st)
	policy := PointsPolicy{Daily: 10, Location: time.UTC, Now: clock.Now}
	points := NewPointsService(st, policy, log)
	sender := newFakeSender()
	lookup := &fakeLookup{}

	return &testServices{
		store:         st,
		clock:         clock,
		catalog:       NewCatalogService(st, searcher, lookup, v, log),
		profiles:      NewProfileService(st, searcher, v, log),
		library:       NewLibraryService(st, points, v, log),
		points:        points,
		social:        NewSocialService(st, log),
		admin:         NewAdminService(st, log),
		notifications: NewNotificationService(st, sender, policy, 4, log),
		sender:        sender,
		lookup:        lookup,
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func createProfile(t *testing.T, ts *testServices, fid int64, username string) *domain.UserProfile {
	t.Helper()
	p, err := ts.profiles.SaveProfile(context.Background(), domain.ProfileUpdate{
		FID:         fid,
		Username:    strPtr(username),
		DisplayName: strPtr("Display " + username),
		PfpURL:      strPtr("https://img.example.com/" + username + ".png"),
	})
	require.NoError(t, err)
	return p
}

var hobbit = domain.BookRef{
	Key:         "/works/OL27482W",
	Title:       "The Hobbit",
	AuthorNames: []string{"J.R.R. Tolkien"},
}

func shelve(t *testing.T, ts *testServices, fid int64, book domain.BookRef, status domain.BookStatus) *domain.UserBook {
	t.Helper()
	ub, err := ts.library.SaveRelationship(context.Background(), fid, SaveRelationshipRequest{Book: book, Status: status})
	require.NoError(t, err)
	return ub
}

func requireCode(t *testing.T, err error, code domainerrors.Code) {
	t.Helper()
	require.Error(t, err)
	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr), "expected domain error, got %T: %v", err, err)
	require.Equal(t, code, domainErr.Code)
}

// fakeSender records deliveries and fails for chosen fids.
type fakeSender struct {
	mu     sync.Mutex
	sent   []int64
	failOn map[int64]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{failOn: make(map[int64]bool)}
}

func (s *fakeSender) Send(_ context.Context, fid int64, _ string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[fid] {
		return false
	}
	s.sent = append(s.sent, fid)
	return true
}

func (s *fakeSender) sentTo() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.sent...)
}

// fakeLookup is a canned external catalog.
type fakeLookup struct {
	queries []string
}

func (f *fakeLookup) Search(_ context.Context, query string) []domain.BookRef {
	f.queries = append(f.queries, query)
	return []domain.BookRef{hobbit}
}

func (f *fakeLookup) ByISBN(_ context.Context, isbn string) *domain.BookRef {
	if isbn == "9780261102217" {
		ref := hobbit
		return &ref
	}
	return nil
}

// flakyProfiles fails lookups for chosen fids and otherwise reads the store.
type flakyProfiles struct {
	next   profileLookup
	failOn map[int64]bool
}

func (f *flakyProfiles) GetUserProfile(ctx context.Context, fid int64) (*domain.UserProfile, error) {
	if f.failOn[fid] {
		return nil, errors.New("profile backend unavailable")
	}
	return f.next.GetUserProfile(ctx, fid)
}
