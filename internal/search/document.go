package search

import (
	"strconv"
	"strings"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// DocType discriminates documents in the shared index.
type DocType string

// Document types for the search index.
const (
	DocTypeCustomBook DocType = "custom_book"
	DocTypeUser       DocType = "user"
)

// indexDocument is what the bleve index stores for one record. Text holds
// the normalized searchable fields; Ref is the key used to load the record
// back from the store.
type indexDocument struct {
	ID   string
	Type DocType
	Ref  string
	Text string
}

// toMap converts the document to a map whose keys match the index mapping.
func (d *indexDocument) toMap() map[string]any {
	return map[string]any{
		"type": string(d.Type),
		"ref":  d.Ref,
		"text": d.Text,
	}
}

func documentID(t DocType, ref string) string {
	return string(t) + ":" + ref
}

// parseDocumentID splits an index id back into type and store reference.
func parseDocumentID(id string) (DocType, string, bool) {
	t, ref, ok := strings.Cut(id, ":")
	return DocType(t), ref, ok
}

func customBookDocument(b *domain.CustomBook) *indexDocument {
	parts := append([]string{b.Title}, b.AuthorNames...)
	return &indexDocument{
		ID:   documentID(DocTypeCustomBook, b.Key),
		Type: DocTypeCustomBook,
		Ref:  b.Key,
		Text: Normalize(strings.Join(parts, " ")),
	}
}

func userDocument(u *domain.UserProfile) *indexDocument {
	ref := strconv.FormatInt(u.FID, 10)
	return &indexDocument{
		ID:   documentID(DocTypeUser, ref),
		Type: DocTypeUser,
		Ref:  ref,
		Text: Normalize(u.Username + " " + u.DisplayName),
	}
}
