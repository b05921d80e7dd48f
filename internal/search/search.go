// Package search finds custom books and users by free text.
//
// Two backends implement Searcher: ScanSearcher filters a full listing of
// the store on every call, BleveIndex keeps a bleve index next to the
// database and uses it only to narrow the candidates. Both return the same
// results in the same order.
package search

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// Searcher answers free-text queries over custom books and users.
//
// A custom book matches when the normalized query is a substring of its
// normalized title or of one normalized author name; a user matches on
// username or display name. Normalization folds case and strips
// diacritics. Books are ordered by title, users by username.
type Searcher interface {
	SearchCustomBooks(ctx context.Context, text string) ([]*domain.CustomBook, error)
	SearchUsers(ctx context.Context, text string) ([]*domain.UserProfile, error)

	// IndexCustomBook and IndexUser are called after every write so an
	// index can follow the store. The scan backend ignores them.
	IndexCustomBook(book *domain.CustomBook) error
	IndexUser(user *domain.UserProfile) error

	Ping(ctx context.Context) error
	Close() error
}

// Source is the store the searchers read from. Getters return nil, nil for
// records that do not exist.
type Source interface {
	ListCustomBooks(ctx context.Context) ([]*domain.CustomBook, error)
	ListUsers(ctx context.Context) ([]*domain.UserProfile, error)
	GetCustomBook(ctx context.Context, key string) (*domain.CustomBook, error)
	GetUserProfile(ctx context.Context, fid int64) (*domain.UserProfile, error)
}

var folder = cases.Fold()

// Normalize folds case and strips combining marks, so "Émile" and "emile"
// compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return folder.String(strings.TrimSpace(out))
}

// terms splits normalized text into letter and digit runs.
func terms(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func containsNormalized(field, needle string) bool {
	return needle != "" && strings.Contains(Normalize(field), needle)
}

func customBookMatches(b *domain.CustomBook, needle string) bool {
	if containsNormalized(b.Title, needle) {
		return true
	}
	for _, a := range b.AuthorNames {
		if containsNormalized(a, needle) {
			return true
		}
	}
	return false
}

func userMatches(u *domain.UserProfile, needle string) bool {
	return containsNormalized(u.Username, needle) || containsNormalized(u.DisplayName, needle)
}
