package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// maxHits caps a single query. Both collections are small enough that a
// cap this size only guards against runaway results.
const maxHits = 1000

// buildQuery requires every term of text to appear as a substring of some
// indexed word, restricted to one document type. Any record whose field
// contains text also satisfies this query, so the hits are a superset of
// the matches and callers filter them with the substring predicate. It
// returns nil when text has no searchable terms.
func buildQuery(docType DocType, text string) query.Query {
	ts := terms(text)
	if len(ts) == 0 {
		return nil
	}

	typeQuery := bleve.NewTermQuery(string(docType))
	typeQuery.SetField("type")

	must := []query.Query{typeQuery}
	for _, t := range ts {
		wq := bleve.NewWildcardQuery("*" + t + "*")
		wq.SetField("text")
		must = append(must, wq)
	}
	return bleve.NewConjunctionQuery(must...)
}

// refs runs q and returns the store references of the hits.
func (b *BleveIndex) refs(ctx context.Context, q query.Query) ([]string, error) {
	req := bleve.NewSearchRequestOptions(q, maxHits, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	b.mu.RLock()
	result, err := b.index.SearchInContext(ctx, req)
	b.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	refs := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if _, ref, ok := parseDocumentID(hit.ID); ok {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// SearchCustomBooks returns custom books whose title or an author contains
// text, ordered by title.
func (b *BleveIndex) SearchCustomBooks(ctx context.Context, text string) ([]*domain.CustomBook, error) {
	needle := Normalize(text)
	q := buildQuery(DocTypeCustomBook, text)
	if q == nil || needle == "" {
		return nil, nil
	}
	refs, err := b.refs(ctx, q)
	if err != nil {
		return nil, err
	}

	books := make([]*domain.CustomBook, 0, len(refs))
	for _, key := range refs {
		book, err := b.source.GetCustomBook(ctx, key)
		if err != nil {
			return nil, err
		}
		if book == nil || !customBookMatches(book, needle) {
			// gone from the store, or words matched but not as one run
			continue
		}
		books = append(books, book)
	}
	sortCustomBooks(books)
	return books, nil
}

// SearchUsers returns users whose username or display name contains text,
// ordered by username.
func (b *BleveIndex) SearchUsers(ctx context.Context, text string) ([]*domain.UserProfile, error) {
	needle := Normalize(text)
	q := buildQuery(DocTypeUser, text)
	if q == nil || needle == "" {
		return nil, nil
	}
	refs, err := b.refs(ctx, q)
	if err != nil {
		return nil, err
	}

	users := make([]*domain.UserProfile, 0, len(refs))
	for _, ref := range refs {
		fid, err := strconv.ParseInt(ref, 10, 64)
		if err != nil {
			continue
		}
		user, err := b.source.GetUserProfile(ctx, fid)
		if err != nil {
			return nil, err
		}
		if user == nil || !userMatches(user, needle) {
			continue
		}
		users = append(users, user)
	}
	sortUsers(users)
	return users, nil
}
