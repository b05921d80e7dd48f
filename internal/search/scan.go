package search

import (
	"cmp"
	"context"
	"slices"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// ScanSearcher lists the whole collection and filters it in memory on every
// query. Cost grows linearly with the collection; switch to BleveIndex once
// that matters.
type ScanSearcher struct {
	source Source
}

// NewScanSearcher creates a scanning searcher over source.
func NewScanSearcher(source Source) *ScanSearcher {
	return &ScanSearcher{source: source}
}

// SearchCustomBooks returns custom books whose title or an author contains
// text, ordered by title.
func (s *ScanSearcher) SearchCustomBooks(ctx context.Context, text string) ([]*domain.CustomBook, error) {
	needle := Normalize(text)
	if needle == "" {
		return nil, nil
	}

	all, err := s.source.ListCustomBooks(ctx)
	if err != nil {
		return nil, err
	}
	hits := slices.DeleteFunc(all, func(b *domain.CustomBook) bool {
		return !customBookMatches(b, needle)
	})
	sortCustomBooks(hits)
	return hits, nil
}

// SearchUsers returns users whose username or display name contains text,
// ordered by username.
func (s *ScanSearcher) SearchUsers(ctx context.Context, text string) ([]*domain.UserProfile, error) {
	needle := Normalize(text)
	if needle == "" {
		return nil, nil
	}

	all, err := s.source.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	hits := slices.DeleteFunc(all, func(u *domain.UserProfile) bool {
		return !userMatches(u, needle)
	})
	sortUsers(hits)
	return hits, nil
}

// IndexCustomBook is a no-op.
func (s *ScanSearcher) IndexCustomBook(*domain.CustomBook) error { return nil }

// IndexUser is a no-op.
func (s *ScanSearcher) IndexUser(*domain.UserProfile) error { return nil }

// Ping is a no-op; the scan backend has no state of its own.
func (s *ScanSearcher) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *ScanSearcher) Close() error { return nil }

func sortCustomBooks(books []*domain.CustomBook) {
	slices.SortFunc(books, func(a, b *domain.CustomBook) int {
		if c := cmp.Compare(Normalize(a.Title), Normalize(b.Title)); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}

func sortUsers(users []*domain.UserProfile) {
	slices.SortFunc(users, func(a, b *domain.UserProfile) int {
		if c := cmp.Compare(Normalize(a.Username), Normalize(b.Username)); c != 0 {
			return c
		}
		return cmp.Compare(a.FID, b.FID)
	})
}
