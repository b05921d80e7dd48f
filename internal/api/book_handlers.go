package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readerboard/readerboard-server/internal/domain"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchExternalBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search the external catalog",
		Description: "Best-effort search of the external book catalog. Failures yield an empty list.",
		Tags:        []string{"Books"},
	}, s.handleSearchExternalBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "lookupISBN",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/isbn/{isbn}",
		Summary:     "Look up a book by ISBN",
		Tags:        []string{"Books"},
	}, s.handleLookupISBN)

	huma.Register(s.api, huma.Operation{
		OperationID: "upsertBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/books",
		Summary:     "Save catalog metadata",
		Description: "Merge-writes the catalog record of a book. Absent fields keep their stored values.",
		Tags:        []string{"Books"},
	}, s.handleUpsertBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{bookId}",
		Summary:     "Get a catalog book",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "bookExists",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{bookId}/exists",
		Summary:     "Check whether a book is in the catalog",
		Tags:        []string{"Books"},
	}, s.handleBookExists)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookReaders",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{bookId}/readers",
		Summary:     "List a book's readers",
		Description: "Returns every relationship with the book, joined with the reader's display fields",
		Tags:        []string{"Books"},
	}, s.handleGetBookReaders)
}

// === DTOs ===

// SearchBooksInput contains the external search query.
type SearchBooksInput struct {
	Query string `query:"q" doc:"Free-text query"`
}

// SearchBooksOutput wraps external search hits.
type SearchBooksOutput struct {
	Body []domain.BookRef
}

// ISBNInput identifies a book by ISBN.
type ISBNInput struct {
	ISBN string `path:"isbn" doc:"ISBN-10 or ISBN-13"`
}

// ISBNResponse holds the first catalog match, or null.
type ISBNResponse struct {
	Book *domain.BookRef `json:"book" doc:"First match, null when nothing matched"`
}

// ISBNOutput wraps the ISBN lookup for Huma.
type ISBNOutput struct {
	Body ISBNResponse
}

// UpsertBookInput carries a client's view of a book.
type UpsertBookInput struct {
	Body domain.BookRef
}

// UpsertBookResponse reports the stored book id.
type UpsertBookResponse struct {
	ID string `json:"id" doc:"Normalized book id"`
}

// UpsertBookOutput wraps the upsert result for Huma.
type UpsertBookOutput struct {
	Body UpsertBookResponse
}

// BookIDInput addresses a catalog book by its stripped id.
type BookIDInput struct {
	BookID string `path:"bookId" doc:"Book id without the /works/ prefix, e.g. OL27482W"`
}

// BookOutput wraps a catalog book.
type BookOutput struct {
	Body *domain.Book
}

// BookExistsResponse reports catalog membership.
type BookExistsResponse struct {
	Exists bool `json:"exists"`
}

// BookExistsOutput wraps the existence check for Huma.
type BookExistsOutput struct {
	Body BookExistsResponse
}

// ReadersOutput lists the readers of a book.
type ReadersOutput struct {
	Body []*domain.UserBookWithProfile
}

// === Handlers ===

func (s *Server) handleSearchExternalBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	refs, err := s.services.Catalog.SearchExternal(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []domain.BookRef{}
	}
	return &SearchBooksOutput{Body: refs}, nil
}

func (s *Server) handleLookupISBN(ctx context.Context, input *ISBNInput) (*ISBNOutput, error) {
	ref, err := s.services.Catalog.LookupISBN(ctx, input.ISBN)
	if err != nil {
		return nil, err
	}
	return &ISBNOutput{Body: ISBNResponse{Book: ref}}, nil
}

func (s *Server) handleUpsertBook(ctx context.Context, input *UpsertBookInput) (*UpsertBookOutput, error) {
	id, err := s.services.Catalog.UpsertBook(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &UpsertBookOutput{Body: UpsertBookResponse{ID: id}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book := s.services.Catalog.GetBook(ctx, input.BookID)
	if book == nil {
		return nil, notFound("book")
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleBookExists(ctx context.Context, input *BookIDInput) (*BookExistsOutput, error) {
	return &BookExistsOutput{
		Body: BookExistsResponse{Exists: s.services.Catalog.BookExists(ctx, input.BookID)},
	}, nil
}

func (s *Server) handleGetBookReaders(ctx context.Context, input *BookIDInput) (*ReadersOutput, error) {
	return &ReadersOutput{Body: s.services.Library.GetBookUsers(ctx, input.BookID)}, nil
}
