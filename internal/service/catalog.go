package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/readerboard/readerboard-server/internal/domain"
	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
	"github.com/readerboard/readerboard-server/internal/search"
	"github.com/readerboard/readerboard-server/internal/store"
	"github.com/readerboard/readerboard-server/internal/validation"
)

// BookLookup is the external catalog. Both calls are best-effort and never
// fail; they return empty results instead.
type BookLookup interface {
	Search(ctx context.Context, query string) []domain.BookRef
	ByISBN(ctx context.Context, isbn string) *domain.BookRef
}

// CatalogService manages catalog and custom catalog books.
type CatalogService struct {
	store     *store.Store
	searcher  search.Searcher
	lookup    BookLookup
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	store *store.Store,
	searcher search.Searcher,
	lookup BookLookup,
	validator *validation.Validator,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		store:     store,
		searcher:  searcher,
		lookup:    lookup,
		validator: validator,
		logger:    logger,
	}
}

// AddCustomBookRequest is a user submission for the custom catalog.
type AddCustomBookRequest struct {
	Title            string   `json:"title" validate:"required,max=300"`
	AuthorNames      []string `json:"author_name,omitempty" validate:"omitempty,dive,max=200"`
	Description      string   `json:"description,omitempty" validate:"max=5000"`
	Subjects         []string `json:"subjects,omitempty" validate:"omitempty,dive,max=100"`
	CoverURL         string   `json:"coverUrl,omitempty" validate:"omitempty,url"`
	FirstPublishYear *int     `json:"first_publish_year,omitempty"`
	CreatedBy        int64    `json:"createdBy" validate:"required,gt=0"`
}

// UpdateCustomBookRequest changes fields of a custom book. Nil fields are
// left as stored.
type UpdateCustomBookRequest struct {
	Title            *string  `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	AuthorNames      []string `json:"author_name,omitempty" validate:"omitempty,dive,max=200"`
	Description      *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Subjects         []string `json:"subjects,omitempty" validate:"omitempty,dive,max=100"`
	CoverURL         *string  `json:"coverUrl,omitempty" validate:"omitempty,url"`
	FirstPublishYear *int     `json:"first_publish_year,omitempty"`
}

// UpsertBook merge-writes catalog metadata and returns the book id.
func (s *CatalogService) UpsertBook(ctx context.Context, ref domain.BookRef) (string, error) {
	if err := s.validator.Validate(ref); err != nil {
		return "", err
	}
	id, err := s.store.UpsertBook(ctx, ref)
	if err != nil {
		return "", mapStoreError(err, "failed to save book")
	}
	return id, nil
}

// GetBook returns a catalog book, or nil if it is unknown or unreadable.
func (s *CatalogService) GetBook(ctx context.Context, key string) *domain.Book {
	book, err := s.store.GetBook(ctx, key)
	if err != nil {
		s.logger.Warn("failed to get book", "key", key, "error", err)
		return nil
	}
	return book
}

// BookExists reports whether the catalog knows key. Read failures report
// false.
func (s *CatalogService) BookExists(ctx context.Context, key string) bool {
	ok, err := s.store.BookExists(ctx, key)
	if err != nil {
		s.logger.Warn("failed to check book", "key", key, "error", err)
		return false
	}
	return ok
}

// AddCustomBook stores a submission and returns the created record.
func (s *CatalogService) AddCustomBook(ctx context.Context, req AddCustomBookRequest) (*domain.CustomBook, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	key, err := s.store.AddCustomBook(ctx, store.CustomBookInput{
		Title:            req.Title,
		AuthorNames:      req.AuthorNames,
		Description:      req.Description,
		Subjects:         req.Subjects,
		CoverURL:         req.CoverURL,
		FirstPublishYear: req.FirstPublishYear,
		CreatedBy:        req.CreatedBy,
	})
	if err != nil {
		return nil, mapStoreError(err, "failed to add custom book")
	}

	book, err := s.store.GetCustomBook(ctx, key)
	if err != nil {
		return nil, mapStoreError(err, "failed to load custom book")
	}
	if book == nil {
		return nil, domainerrors.Internal("custom book vanished after create")
	}

	s.index(book)
	s.logger.Info("custom book added", "key", key, "created_by", req.CreatedBy)
	return book, nil
}

// GetCustomBookDetails returns a custom book, or nil if there is none.
func (s *CatalogService) GetCustomBookDetails(ctx context.Context, key string) (*domain.CustomBook, error) {
	if !domain.IsCustomKey(key) {
		return nil, domainerrors.Validationf("%q is not a custom book key", key)
	}
	book, err := s.store.GetCustomBook(ctx, key)
	if err != nil {
		s.logger.Warn("failed to get custom book", "key", key, "error", err)
		return nil, nil
	}
	return book, nil
}

// UpdateCustomBook applies a partial update to a custom book.
func (s *CatalogService) UpdateCustomBook(ctx context.Context, key string, req UpdateCustomBookRequest) (*domain.CustomBook, error) {
	if !domain.IsCustomKey(key) {
		return nil, domainerrors.Validationf("%q is not a custom book key", key)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.UpdateCustomBook(ctx, key, store.CustomBookPatch{
		Title:            req.Title,
		AuthorNames:      req.AuthorNames,
		Description:      req.Description,
		Subjects:         req.Subjects,
		CoverURL:         req.CoverURL,
		FirstPublishYear: req.FirstPublishYear,
	})
	if err != nil {
		return nil, mapStoreError(err, "failed to update custom book")
	}
	s.index(book)
	return book, nil
}

// SearchCustomBooks finds custom books by title or author substring. A
// search failure yields no results.
func (s *CatalogService) SearchCustomBooks(ctx context.Context, text string) ([]*domain.CustomBook, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domainerrors.Validation("search text is required")
	}
	books, err := s.searcher.SearchCustomBooks(ctx, text)
	if err != nil {
		s.logger.Warn("custom book search failed", "query", text, "error", err)
		return []*domain.CustomBook{}, nil
	}
	if books == nil {
		books = []*domain.CustomBook{}
	}
	return books, nil
}

// SearchExternal queries the external catalog.
func (s *CatalogService) SearchExternal(ctx context.Context, query string) ([]domain.BookRef, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domainerrors.Validation("query is required")
	}
	return s.lookup.Search(ctx, query), nil
}

// LookupISBN returns the first external catalog match for isbn, or nil.
func (s *CatalogService) LookupISBN(ctx context.Context, isbn string) (*domain.BookRef, error) {
	if strings.TrimSpace(isbn) == "" {
		return nil, domainerrors.Validation("isbn is required")
	}
	return s.lookup.ByISBN(ctx, isbn), nil
}

func (s *CatalogService) index(book *domain.CustomBook) {
	if err := s.searcher.IndexCustomBook(book); err != nil {
		s.logger.Warn("failed to index custom book", "key", book.Key, "error", err)
	}
}
