package service

import (
	"context"
	"log/slog"

	"github.com/readerboard/readerboard-server/internal/domain"
	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
	"github.com/readerboard/readerboard-server/internal/store"
	"github.com/readerboard/readerboard-server/internal/validation"
)

// LibraryService manages users' book relationships and reading logs.
type LibraryService struct {
	store     *store.Store
	points    *PointsService
	profiles  profileLookup
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	store *store.Store,
	points *PointsService,
	validator *validation.Validator,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		store:     store,
		points:    points,
		profiles:  store,
		validator: validator,
		logger:    logger,
	}
}

// SaveRelationshipRequest assigns a status (and optionally a review) to a
// book in the caller's library.
type SaveRelationshipRequest struct {
	Book   domain.BookRef    `json:"book"`
	Status domain.BookStatus `json:"status" validate:"required,bookstatus"`
	Review *string           `json:"review,omitempty" validate:"omitempty,max=5000"`
}

// AddLogResult is a saved log entry and whether it earned today's points.
type AddLogResult struct {
	Log           *domain.ReadingLog `json:"log"`
	PointsAwarded bool               `json:"pointsAwarded"`
}

func validFID(fid int64) error {
	if fid <= 0 {
		return domainerrors.Validation("fid must be positive")
	}
	return nil
}

// SaveRelationship records fid's status for a book, refreshing the catalog
// record from the caller's view of the book.
func (s *LibraryService) SaveRelationship(ctx context.Context, fid int64, req SaveRelationshipRequest) (*domain.UserBook, error) {
	if err := validFID(fid); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	ub, err := s.store.SaveRelationship(ctx, store.RelationshipInput{
		FID:    fid,
		Book:   req.Book,
		Status: req.Status,
		Review: req.Review,
	})
	if err != nil {
		return nil, mapStoreError(err, "failed to save book")
	}
	s.logger.Info("relationship saved", "fid", fid, "book_key", req.Book.Key, "status", req.Status)
	return ub, nil
}

// UpdateStatus changes only the status of an existing relationship.
func (s *LibraryService) UpdateStatus(ctx context.Context, fid int64, bookKey string, status domain.BookStatus) (*domain.UserBook, error) {
	if err := validFID(fid); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domainerrors.Validationf("invalid status %q", status)
	}
	ub, err := s.store.UpdateStatus(ctx, fid, bookKey, status)
	if err != nil {
		return nil, mapStoreError(err, "failed to update status")
	}
	return ub, nil
}

// UpdateReview replaces the review text of an existing relationship.
func (s *LibraryService) UpdateReview(ctx context.Context, fid int64, bookKey, review string) (*domain.UserBook, error) {
	if err := validFID(fid); err != nil {
		return nil, err
	}
	if len(review) > 5000 {
		return nil, domainerrors.Validation("review must not exceed 5000 characters")
	}
	ub, err := s.store.UpdateReview(ctx, fid, bookKey, review)
	if err != nil {
		return nil, mapStoreError(err, "failed to update review")
	}
	return ub, nil
}

// DeleteRelationship removes a book from fid's library along with its logs
// and likes.
func (s *LibraryService) DeleteRelationship(ctx context.Context, fid int64, bookKey string) error {
	if err := validFID(fid); err != nil {
		return err
	}
	deleted, err := s.store.DeleteRelationship(ctx, fid, bookKey)
	if err != nil {
		return mapStoreError(err, "failed to remove book")
	}
	if !deleted {
		return domainerrors.NotFound("relationship not found")
	}
	s.logger.Info("relationship deleted", "fid", fid, "book_key", bookKey)
	return nil
}

// GetRelationship returns fid's relationship to a book, or nil.
func (s *LibraryService) GetRelationship(ctx context.Context, fid int64, bookKey string) *domain.UserBook {
	ub, err := s.store.GetRelationship(ctx, fid, bookKey)
	if err != nil {
		s.logger.Warn("failed to get relationship", "fid", fid, "book_key", bookKey, "error", err)
		return nil
	}
	return ub
}

// GetUserBooks returns fid's library, most recently updated first. A read
// failure yields an empty library.
func (s *LibraryService) GetUserBooks(ctx context.Context, fid int64) []*domain.UserBook {
	books, err := s.store.GetUserBooks(ctx, fid)
	if err != nil {
		s.logger.Warn("failed to get user books", "fid", fid, "error", err)
		return []*domain.UserBook{}
	}
	return books
}

// GetBookUsers returns everyone who has the book in their library, with
// their display fields where the owner lookup succeeds.
func (s *LibraryService) GetBookUsers(ctx context.Context, bookKey string) []*domain.UserBookWithProfile {
	books, err := s.store.GetBookUsers(ctx, bookKey)
	if err != nil {
		s.logger.Warn("failed to get book readers", "book_key", bookKey, "error", err)
		return []*domain.UserBookWithProfile{}
	}
	return joinProfiles(ctx, s.profiles, s.logger, books)
}

// AddLog appends a progress entry to fid's relationship with a book. The
// first log of a points day, skipped or not, earns the daily points.
func (s *LibraryService) AddLog(ctx context.Context, fid int64, bookKey string, in domain.LogEntryInput) (*AddLogResult, error) {
	if err := validFID(fid); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	entry, err := s.store.AddLog(ctx, fid, bookKey, in)
	if err != nil {
		return nil, mapStoreError(err, "failed to add log")
	}

	awarded, err := s.points.AwardPoints(ctx, fid, 0)
	if err != nil {
		// the log is saved; points can be earned by the next log
		s.logger.Warn("log saved but points not awarded", "fid", fid, "error", err)
	}
	return &AddLogResult{Log: entry, PointsAwarded: awarded}, nil
}

// GetLogs returns the reading log of a relationship, oldest first. A read
// failure yields an empty log.
func (s *LibraryService) GetLogs(ctx context.Context, fid int64, bookKey string) []*domain.ReadingLog {
	logs, err := s.store.GetLogs(ctx, fid, bookKey)
	if err != nil {
		s.logger.Warn("failed to get logs", "fid", fid, "book_key", bookKey, "error", err)
		return []*domain.ReadingLog{}
	}
	return logs
}
