package service

import (
	"context"
	"log/slog"

	"github.com/readerboard/readerboard-server/internal/domain"
	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
	"github.com/readerboard/readerboard-server/internal/store"
)

// Review feed limits.
const (
	DefaultReviewLimit = 20
	MaxReviewLimit     = 100
)

// SocialService provides likes and the review feed.
type SocialService struct {
	store    *store.Store
	profiles profileLookup
	logger   *slog.Logger
}

// NewSocialService creates a new social service.
func NewSocialService(store *store.Store, logger *slog.Logger) *SocialService {
	return &SocialService{
		store:    store,
		profiles: store,
		logger:   logger,
	}
}

// ToggleLike flips whether likerFID likes a review and returns the new
// state.
func (s *SocialService) ToggleLike(ctx context.Context, relID string, likerFID int64) (bool, error) {
	if relID == "" {
		return false, domainerrors.Validation("review id is required")
	}
	if likerFID <= 0 {
		return false, domainerrors.Validation("fid must be positive")
	}
	liked, err := s.store.ToggleLike(ctx, relID, likerFID)
	if err != nil {
		return false, mapStoreError(err, "failed to toggle like")
	}
	return liked, nil
}

// CheckLikeStatus reports whether likerFID likes a review. A read failure
// reports false.
func (s *SocialService) CheckLikeStatus(ctx context.Context, relID string, likerFID int64) bool {
	liked, err := s.store.CheckLikeStatus(ctx, relID, likerFID)
	if err != nil {
		s.logger.Warn("failed to check like", "relationship_id", relID, "fid", likerFID, "error", err)
		return false
	}
	return liked
}

// GetLikes returns who liked a review. A read failure yields no likes.
func (s *SocialService) GetLikes(ctx context.Context, relID string) []*domain.Like {
	likes, err := s.store.GetLikes(ctx, relID)
	if err != nil {
		s.logger.Warn("failed to list likes", "relationship_id", relID, "error", err)
		return []*domain.Like{}
	}
	if likes == nil {
		return []*domain.Like{}
	}
	return likes
}

// GetGlobalReviews returns the newest reviews across all users, joined with
// reviewer display fields. limit defaults to DefaultReviewLimit and is
// capped at MaxReviewLimit.
func (s *SocialService) GetGlobalReviews(ctx context.Context, limit int) []*domain.UserBookWithProfile {
	switch {
	case limit <= 0:
		limit = DefaultReviewLimit
	case limit > MaxReviewLimit:
		limit = MaxReviewLimit
	}

	reviews, err := s.store.ListReviews(ctx, limit)
	if err != nil {
		s.logger.Warn("failed to list reviews", "error", err)
		return []*domain.UserBookWithProfile{}
	}
	return joinProfiles(ctx, s.profiles, s.logger, reviews)
}
