package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// UpsertBook merge-writes catalog metadata for a book and returns its id.
// Fields the caller does not know are left as previously stored, so many
// users logging the same book never erase each other's metadata.
func (s *Store) UpsertBook(ctx context.Context, ref domain.BookRef) (string, error) {
	var bookID string
	err := s.update(ctx, func(txn *badger.Txn) error {
		var err error
		bookID, err = s.upsertBookTxn(txn, ref)
		return err
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to save book", "key", ref.Key, "error", err)
		}
		return "", fmt.Errorf("saving book %q: %w", ref.Key, err)
	}
	return bookID, nil
}

func (s *Store) upsertBookTxn(txn *badger.Txn, ref domain.BookRef) (string, error) {
	bookID, err := bookIDOf(ref.Key)
	if err != nil {
		return "", err
	}

	patch := Fields{
		"id":        bookID,
		"key":       ref.Key,
		"updatedAt": s.now(),
	}
	patch.Set("title", nonEmpty(ref.Title)).
		Set("author_name", ref.AuthorNames).
		Set("cover_i", ref.CoverID).
		Set("coverUrl", nonEmpty(ref.CoverURL)).
		Set("first_publish_year", ref.FirstPublishYear).
		Set("isbn", ref.ISBN)

	if _, err := s.books.mergeTxn(txn, bookID, patch); err != nil {
		return "", err
	}
	return bookID, nil
}

// GetBook returns the catalog record for a key or id.
// Returns nil, nil if the book is not in the catalog, including for keys
// that no book could be stored under.
func (s *Store) GetBook(ctx context.Context, key string) (*domain.Book, error) {
	bookID, err := bookIDOf(key)
	if err != nil {
		return nil, nil
	}
	book, err := s.books.Get(ctx, bookID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting book %q: %w", key, err)
	}
	return book, nil
}

// BookExists reports whether the catalog has a record for key.
func (s *Store) BookExists(ctx context.Context, key string) (bool, error) {
	bookID, err := bookIDOf(key)
	if err != nil {
		return false, nil
	}
	return s.books.Exists(ctx, bookID)
}
