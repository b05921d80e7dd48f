package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readerboard/readerboard-server/internal/domain"
	"github.com/readerboard/readerboard-server/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getUserBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{fid}/books",
		Summary:     "List a user's library",
		Tags:        []string{"Library"},
	}, s.handleGetUserBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveRelationship",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/{fid}/books",
		Summary:     "Add or update a book in a user's library",
		Description: "Saves the book's catalog record and the user's status in one write",
		Tags:        []string{"Library"},
	}, s.handleSaveRelationship)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRelationship",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{fid}/books/{bookId}",
		Summary:     "Get one library entry",
		Tags:        []string{"Library"},
	}, s.handleGetRelationship)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateStatus",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/{fid}/books/{bookId}/status",
		Summary:     "Change a library entry's status",
		Tags:        []string{"Library"},
	}, s.handleUpdateStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReview",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/{fid}/books/{bookId}/review",
		Summary:     "Write or replace a review",
		Tags:        []string{"Library"},
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRelationship",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{fid}/books/{bookId}",
		Summary:     "Remove a book from a user's library",
		Description: "Also removes the entry's reading logs and likes",
		Tags:        []string{"Library"},
	}, s.handleDeleteRelationship)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addLog",
		Method:        http.MethodPost,
		Path:          "/api/v1/users/{fid}/books/{bookId}/logs",
		Summary:       "Log reading progress",
		Description:   "Appends a progress entry. The first log of a points day earns the daily points.",
		Tags:          []string{"Library"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddLog)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLogs",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{fid}/books/{bookId}/logs",
		Summary:     "List reading logs",
		Description: "Oldest first",
		Tags:        []string{"Library"},
	}, s.handleGetLogs)
}

// === DTOs ===

// UserBooksOutput lists library entries.
type UserBooksOutput struct {
	Body []*domain.UserBook
}

// SaveRelationshipInput carries a library save.
type SaveRelationshipInput struct {
	FID  int64 `path:"fid"`
	Body service.SaveRelationshipRequest
}

// UserBookOutput wraps one library entry.
type UserBookOutput struct {
	Body *domain.UserBook
}

// RelationshipInput addresses one (user, book) pair.
type RelationshipInput struct {
	FID    int64  `path:"fid"`
	BookID string `path:"bookId" doc:"Book id without the /works/ prefix"`
}

// UpdateStatusRequest holds the new status.
type UpdateStatusRequest struct {
	Status domain.BookStatus `json:"status" enum:"desired,current,completed,abandoned"`
}

// UpdateStatusInput carries a status change.
type UpdateStatusInput struct {
	FID    int64  `path:"fid"`
	BookID string `path:"bookId"`
	Body   UpdateStatusRequest
}

// UpdateReviewRequest holds the review text.
type UpdateReviewRequest struct {
	Review string `json:"review" maxLength:"5000"`
}

// UpdateReviewInput carries a review change.
type UpdateReviewInput struct {
	FID    int64  `path:"fid"`
	BookID string `path:"bookId"`
	Body   UpdateReviewRequest
}

// DeleteRelationshipResponse confirms a removal.
type DeleteRelationshipResponse struct {
	Deleted bool `json:"deleted"`
}

// DeleteRelationshipOutput wraps the removal for Huma.
type DeleteRelationshipOutput struct {
	Body DeleteRelationshipResponse
}

// AddLogRequest is one progress entry.
type AddLogRequest struct {
	Page     int    `json:"page,omitempty" minimum:"0"`
	Thoughts string `json:"thoughts,omitempty" maxLength:"2000"`
	Unit     string `json:"unit,omitempty" doc:"pages, percent or chapter"`
	Skipped  bool   `json:"skipped,omitempty" doc:"Marks a day without reading"`
}

// AddLogInput carries a progress entry.
type AddLogInput struct {
	FID    int64  `path:"fid"`
	BookID string `path:"bookId"`
	Body   AddLogRequest
}

// AddLogOutput wraps the saved entry.
type AddLogOutput struct {
	Body *service.AddLogResult
}

// LogsOutput lists reading logs.
type LogsOutput struct {
	Body []*domain.ReadingLog
}

// === Handlers ===

func (s *Server) handleGetUserBooks(ctx context.Context, input *FIDInput) (*UserBooksOutput, error) {
	return &UserBooksOutput{Body: s.services.Library.GetUserBooks(ctx, input.FID)}, nil
}

func (s *Server) handleSaveRelationship(ctx context.Context, input *SaveRelationshipInput) (*UserBookOutput, error) {
	ub, err := s.services.Library.SaveRelationship(ctx, input.FID, input.Body)
	if err != nil {
		return nil, err
	}
	return &UserBookOutput{Body: ub}, nil
}

func (s *Server) handleGetRelationship(ctx context.Context, input *RelationshipInput) (*UserBookOutput, error) {
	ub := s.services.Library.GetRelationship(ctx, input.FID, input.BookID)
	if ub == nil {
		return nil, notFound("library entry")
	}
	return &UserBookOutput{Body: ub}, nil
}

func (s *Server) handleUpdateStatus(ctx context.Context, input *UpdateStatusInput) (*UserBookOutput, error) {
	ub, err := s.services.Library.UpdateStatus(ctx, input.FID, input.BookID, input.Body.Status)
	if err != nil {
		return nil, err
	}
	return &UserBookOutput{Body: ub}, nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*UserBookOutput, error) {
	ub, err := s.services.Library.UpdateReview(ctx, input.FID, input.BookID, input.Body.Review)
	if err != nil {
		return nil, err
	}
	return &UserBookOutput{Body: ub}, nil
}

func (s *Server) handleDeleteRelationship(ctx context.Context, input *RelationshipInput) (*DeleteRelationshipOutput, error) {
	if err := s.services.Library.DeleteRelationship(ctx, input.FID, input.BookID); err != nil {
		return nil, err
	}
	return &DeleteRelationshipOutput{Body: DeleteRelationshipResponse{Deleted: true}}, nil
}

func (s *Server) handleAddLog(ctx context.Context, input *AddLogInput) (*AddLogOutput, error) {
	result, err := s.services.Library.AddLog(ctx, input.FID, input.BookID, domain.LogEntryInput{
		Page:     input.Body.Page,
		Thoughts: input.Body.Thoughts,
		Unit:     domain.LogUnit(input.Body.Unit),
		Skipped:  input.Body.Skipped,
	})
	if err != nil {
		return nil, err
	}
	return &AddLogOutput{Body: result}, nil
}

func (s *Server) handleGetLogs(ctx context.Context, input *RelationshipInput) (*LogsOutput, error) {
	return &LogsOutput{Body: s.services.Library.GetLogs(ctx, input.FID, input.BookID)}, nil
}
