package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// RelationshipInput is a status assignment for a (user, book) pair.
type RelationshipInput struct {
	FID    int64
	Book   domain.BookRef
	Status domain.BookStatus
	Review *string
}

// SaveRelationship records a user's status (and optional review) for a book.
// The catalog record is upserted in the same transaction, and the
// relationship id is derived from the pair, so there is at most one
// relationship per user and book without any uniqueness check.
func (s *Store) SaveRelationship(ctx context.Context, in RelationshipInput) (*domain.UserBook, error) {
	if in.FID <= 0 {
		return nil, ErrInvalidInput.WithMessage("fid must be positive")
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidInput.WithMessage("invalid status")
	}

	var saved *domain.UserBook
	err := s.update(ctx, func(txn *badger.Txn) error {
		bookID, err := s.upsertBookTxn(txn, in.Book)
		if err != nil {
			return err
		}
		relID := domain.RelationshipID(in.FID, bookID)

		found, err := s.userBooks.existsTxn(txn, relID)
		if err != nil {
			return err
		}

		now := s.now()
		patch := Fields{
			"id":        relID,
			"userFid":   in.FID,
			"bookKey":   in.Book.Key,
			"bookTitle": in.Book.Title,
			"status":    in.Status,
			"updatedAt": now,
		}
		patch.Set("bookAuthors", in.Book.AuthorNames).
			Set("coverId", in.Book.CoverID).
			Set("coverUrl", nonEmpty(in.Book.CoverURL)).
			Set("review", in.Review)

		if !found {
			patch["loggedAt"] = now
			patch["likeCount"] = 0
		}
		if in.Status == domain.StatusCurrent {
			patch["startedReadingAt"] = now
		}

		saved, err = s.userBooks.mergeTxn(txn, relID, patch)
		return err
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to save relationship",
				"fid", in.FID,
				"book_key", in.Book.Key,
				"error", err,
			)
		}
		return nil, fmt.Errorf("saving relationship: %w", err)
	}
	return saved, nil
}

// UpdateStatus changes only the status of an existing relationship.
func (s *Store) UpdateStatus(ctx context.Context, fid int64, bookKey string, status domain.BookStatus) (*domain.UserBook, error) {
	if !status.Valid() {
		return nil, ErrInvalidInput.WithMessage("invalid status")
	}
	now := s.now()
	patch := Fields{
		"status":    status,
		"updatedAt": now,
	}
	if status == domain.StatusCurrent {
		patch["startedReadingAt"] = now
	}
	return s.patchRelationship(ctx, fid, bookKey, patch)
}

// UpdateReview replaces the review text of an existing relationship.
func (s *Store) UpdateReview(ctx context.Context, fid int64, bookKey, review string) (*domain.UserBook, error) {
	return s.patchRelationship(ctx, fid, bookKey, Fields{
		"review":    review,
		"updatedAt": s.now(),
	})
}

func (s *Store) patchRelationship(ctx context.Context, fid int64, bookKey string, patch Fields) (*domain.UserBook, error) {
	relID, err := relationshipIDOf(fid, bookKey)
	if err != nil {
		return nil, err
	}

	var saved *domain.UserBook
	err = s.update(ctx, func(txn *badger.Txn) error {
		found, err := s.userBooks.existsTxn(txn, relID)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound.WithMessage("relationship not found")
		}
		saved, err = s.userBooks.mergeTxn(txn, relID, patch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating relationship %s: %w", relID, err)
	}
	return saved, nil
}

// DeleteRelationship removes a relationship together with its reading logs
// and likes. Returns false if there was nothing to delete.
func (s *Store) DeleteRelationship(ctx context.Context, fid int64, bookKey string) (bool, error) {
	relID, err := relationshipIDOf(fid, bookKey)
	if err != nil {
		return false, err
	}

	deleted := false
	err = s.update(ctx, func(txn *badger.Txn) error {
		var err error
		deleted, err = s.userBooks.deleteTxn(txn, relID)
		if err != nil {
			return err
		}
		return deletePrefixTxn(txn, parentPrefix(userBooksCollection, relID))
	})
	if err != nil {
		return false, fmt.Errorf("deleting relationship %s: %w", relID, err)
	}
	return deleted, nil
}

// GetRelationship returns the relationship of a (user, book) pair.
// Returns nil, nil if it does not exist.
func (s *Store) GetRelationship(ctx context.Context, fid int64, bookKey string) (*domain.UserBook, error) {
	relID, err := relationshipIDOf(fid, bookKey)
	if err != nil {
		return nil, nil
	}
	return s.GetRelationshipByID(ctx, relID)
}

// GetRelationshipByID returns a relationship by composite id.
// Returns nil, nil if it does not exist.
func (s *Store) GetRelationshipByID(ctx context.Context, relID string) (*domain.UserBook, error) {
	if checkRelationshipID(relID) != nil {
		return nil, nil
	}
	ub, err := s.userBooks.Get(ctx, relID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting relationship %s: %w", relID, err)
	}
	return ub, nil
}

// GetUserBooks returns a user's library, most recently updated first.
func (s *Store) GetUserBooks(ctx context.Context, fid int64) ([]*domain.UserBook, error) {
	books, err := s.userBooks.ListByIndex(ctx, userFidIndex, fidKey(fid))
	if err != nil {
		return nil, fmt.Errorf("listing books of %d: %w", fid, err)
	}
	sortByUpdatedDesc(books)
	return books, nil
}

// GetBookUsers returns every relationship for a book, most recent first.
// bookKey may be the full external key or the stripped id.
func (s *Store) GetBookUsers(ctx context.Context, bookKey string) ([]*domain.UserBook, error) {
	bookID, err := bookIDOf(bookKey)
	if err != nil {
		return []*domain.UserBook{}, nil
	}
	books, err := s.userBooks.ListByIndex(ctx, bookKeyIndex, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing readers of %q: %w", bookKey, err)
	}
	sortByUpdatedDesc(books)
	return books, nil
}

// ListReviews returns up to limit relationships that carry a review,
// newest first.
func (s *Store) ListReviews(ctx context.Context, limit int) ([]*domain.UserBook, error) {
	all, err := s.userBooks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	reviews := slices.DeleteFunc(all, func(ub *domain.UserBook) bool {
		return ub.Review == ""
	})
	sortByUpdatedDesc(reviews)
	if limit > 0 && len(reviews) > limit {
		reviews = reviews[:limit]
	}
	return reviews, nil
}

func sortByUpdatedDesc(books []*domain.UserBook) {
	slices.SortFunc(books, func(a, b *domain.UserBook) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// deletePrefixTxn deletes every key under prefix.
func deletePrefixTxn(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}
