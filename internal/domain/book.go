// Package domain contains the entities of the Readerboard reading tracker.
package domain

import (
	"strings"
	"time"
)

const (
	// WorksKeyPrefix is the prefix of external catalog work keys ("/works/OL123W").
	WorksKeyPrefix = "/works/"

	// CustomKeyPrefix marks books that were submitted by users rather than found in the catalog.
	CustomKeyPrefix = "custom_"
)

// Book is the catalog record for a book, keyed by its normalized external key.
// Field names follow the external catalog payload so merged documents stay compatible.
type Book struct {
	ID               string    `json:"id,omitempty"`
	Key              string    `json:"key"`
	Title            string    `json:"title"`
	AuthorNames      []string  `json:"author_name,omitempty"`
	CoverID          *int      `json:"cover_i,omitempty"`
	FirstPublishYear *int      `json:"first_publish_year,omitempty"`
	ISBN             []string  `json:"isbn,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CustomBook is a user-submitted book. Its Key is written back into the
// record after creation so lookups mirror catalog lookups.
type CustomBook struct {
	Book
	Description string    `json:"description,omitempty"`
	Subjects    []string  `json:"subjects,omitempty"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	CreatedBy   int64     `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	IsCustom    bool      `json:"isCustom"`
}

// NormalizeBookKey strips the works prefix from an external key.
// Custom keys and already-stripped ids pass through unchanged.
func NormalizeBookKey(key string) string {
	return strings.TrimPrefix(strings.TrimSpace(key), WorksKeyPrefix)
}

// maxDocumentIDLen bounds ids that end up inside store keys.
const maxDocumentIDLen = 128

// ValidDocumentID reports whether s can be used as one segment of a store
// key: non-empty, bounded, and made of letters, digits, '_' and '-' only.
// A '/' would let a book id address another record's nested documents.
func ValidDocumentID(s string) bool {
	if s == "" || len(s) > maxDocumentIDLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// ValidBookKey reports whether a full or stripped key normalizes to a
// valid book id.
func ValidBookKey(key string) bool {
	return ValidDocumentID(NormalizeBookKey(key))
}

// IsCustomKey reports whether a key belongs to the custom catalog namespace.
func IsCustomKey(key string) bool {
	return strings.HasPrefix(NormalizeBookKey(key), CustomKeyPrefix)
}

// CustomKey derives the public key of a custom book from its internal id.
func CustomKey(internalID string) string {
	return CustomKeyPrefix + internalID
}

// CustomInternalID is the inverse of CustomKey.
func CustomInternalID(key string) string {
	return strings.TrimPrefix(NormalizeBookKey(key), CustomKeyPrefix)
}

// CoverURL returns the catalog cover image URL for a cover id.
func CoverURL(coverID int) string {
	return "https://covers.openlibrary.org/b/id/" + itoa(coverID) + "-L.jpg"
}
