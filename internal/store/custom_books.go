package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/readerboard/readerboard-server/internal/domain"
	"github.com/readerboard/readerboard-server/internal/id"
)

// CustomBookInput is a user submission for the custom catalog.
type CustomBookInput struct {
	Title            string
	AuthorNames      []string
	Description      string
	Subjects         []string
	CoverURL         string
	FirstPublishYear *int
	CreatedBy        int64
}

// CustomBookPatch changes fields of a custom book. Nil fields are kept.
type CustomBookPatch struct {
	Title            *string
	AuthorNames      []string
	Description      *string
	Subjects         []string
	CoverURL         *string
	FirstPublishYear *int
}

// AddCustomBook stores a user-submitted book and returns its public key.
// The record is created under a generated id first, then its derived key
// (custom_{id}) is written back into the record, so key lookups behave
// like catalog lookups.
func (s *Store) AddCustomBook(ctx context.Context, in CustomBookInput) (string, error) {
	if in.Title == "" {
		return "", ErrInvalidInput.WithMessage("title is required")
	}

	internalID, err := id.Auto()
	if err != nil {
		return "", err
	}
	key := domain.CustomKey(internalID)

	err = s.update(ctx, func(txn *badger.Txn) error {
		now := s.now()
		created := Fields{
			"title":     in.Title,
			"createdBy": in.CreatedBy,
			"createdAt": now,
			"updatedAt": now,
			"isCustom":  true,
		}
		created.Set("author_name", in.AuthorNames).
			Set("description", nonEmpty(in.Description)).
			Set("subjects", in.Subjects).
			Set("coverUrl", nonEmpty(in.CoverURL)).
			Set("first_publish_year", in.FirstPublishYear)

		if _, err := s.customBooks.mergeTxn(txn, internalID, created); err != nil {
			return err
		}
		_, err := s.customBooks.mergeTxn(txn, internalID, Fields{
			"id":  key,
			"key": key,
		})
		return err
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to add custom book", "title", in.Title, "error", err)
		}
		return "", fmt.Errorf("adding custom book: %w", err)
	}
	return key, nil
}

// GetCustomBook returns a custom book by its public key.
// Returns nil, nil if there is no such book.
func (s *Store) GetCustomBook(ctx context.Context, key string) (*domain.CustomBook, error) {
	if !domain.IsCustomKey(key) || !domain.ValidBookKey(key) {
		return nil, ErrInvalidInput.WithMessage("not a custom book key")
	}
	book, err := s.customBooks.Get(ctx, domain.CustomInternalID(key))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting custom book %q: %w", key, err)
	}
	return book, nil
}

// UpdateCustomBook merge-writes a patch onto an existing custom book.
func (s *Store) UpdateCustomBook(ctx context.Context, key string, patch CustomBookPatch) (*domain.CustomBook, error) {
	if !domain.IsCustomKey(key) || !domain.ValidBookKey(key) {
		return nil, ErrInvalidInput.WithMessage("not a custom book key")
	}
	internalID := domain.CustomInternalID(key)

	var updated *domain.CustomBook
	err := s.update(ctx, func(txn *badger.Txn) error {
		found, err := s.customBooks.existsTxn(txn, internalID)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound.WithMessage("custom book not found")
		}

		fields := Fields{"updatedAt": s.now()}
		fields.Set("title", patch.Title).
			Set("author_name", patch.AuthorNames).
			Set("description", patch.Description).
			Set("subjects", patch.Subjects).
			Set("coverUrl", patch.CoverURL).
			Set("first_publish_year", patch.FirstPublishYear)

		updated, err = s.customBooks.mergeTxn(txn, internalID, fields)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating custom book %q: %w", key, err)
	}
	return updated, nil
}

// ListCustomBooks returns the whole custom catalog.
func (s *Store) ListCustomBooks(ctx context.Context) ([]*domain.CustomBook, error) {
	books, err := s.customBooks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing custom books: %w", err)
	}
	return books, nil
}
