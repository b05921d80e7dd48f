package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readerboard/readerboard-server/internal/domain"
	"github.com/readerboard/readerboard-server/internal/service"
)

func (s *Server) registerCustomBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addCustomBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/custom-books",
		Summary:       "Submit a custom book",
		Description:   "Adds a book that the external catalog does not know",
		Tags:          []string{"Custom Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddCustomBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchCustomBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/custom-books",
		Summary:     "Search custom books",
		Description: "Case-insensitive match on title or author",
		Tags:        []string{"Custom Books"},
	}, s.handleSearchCustomBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCustomBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/custom-books/{key}",
		Summary:     "Get a custom book",
		Tags:        []string{"Custom Books"},
	}, s.handleGetCustomBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCustomBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/custom-books/{key}",
		Summary:     "Update a custom book",
		Tags:        []string{"Custom Books"},
	}, s.handleUpdateCustomBook)
}

// === DTOs ===

// AddCustomBookInput carries a custom book submission.
type AddCustomBookInput struct {
	Body service.AddCustomBookRequest
}

// CustomBookOutput wraps one custom book.
type CustomBookOutput struct {
	Body *domain.CustomBook
}

// SearchCustomBooksInput contains the search text.
type SearchCustomBooksInput struct {
	Query string `query:"q" doc:"Title or author substring"`
}

// CustomBooksOutput lists custom books.
type CustomBooksOutput struct {
	Body []*domain.CustomBook
}

// CustomBookKeyInput addresses a custom book.
type CustomBookKeyInput struct {
	Key string `path:"key" doc:"Custom book key, e.g. custom_V1StGXR8Z5jdHi6B"`
}

// UpdateCustomBookInput carries a partial update.
type UpdateCustomBookInput struct {
	Key  string `path:"key"`
	Body service.UpdateCustomBookRequest
}

// === Handlers ===

func (s *Server) handleAddCustomBook(ctx context.Context, input *AddCustomBookInput) (*CustomBookOutput, error) {
	book, err := s.services.Catalog.AddCustomBook(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &CustomBookOutput{Body: book}, nil
}

func (s *Server) handleSearchCustomBooks(ctx context.Context, input *SearchCustomBooksInput) (*CustomBooksOutput, error) {
	books, err := s.services.Catalog.SearchCustomBooks(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	return &CustomBooksOutput{Body: books}, nil
}

func (s *Server) handleGetCustomBook(ctx context.Context, input *CustomBookKeyInput) (*CustomBookOutput, error) {
	book, err := s.services.Catalog.GetCustomBookDetails(ctx, input.Key)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, notFound("custom book")
	}
	return &CustomBookOutput{Body: book}, nil
}

func (s *Server) handleUpdateCustomBook(ctx context.Context, input *UpdateCustomBookInput) (*CustomBookOutput, error) {
	book, err := s.services.Catalog.UpdateCustomBook(ctx, input.Key, input.Body)
	if err != nil {
		return nil, err
	}
	return &CustomBookOutput{Body: book}, nil
}
