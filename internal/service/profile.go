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

// ProfileService manages user profiles.
type ProfileService struct {
	store     *store.Store
	searcher  search.Searcher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(
	store *store.Store,
	searcher search.Searcher,
	validator *validation.Validator,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		store:     store,
		searcher:  searcher,
		validator: validator,
		logger:    logger,
	}
}

// SaveProfile merge-writes the caller's profile fields. The first save
// assigns the profile its sequence number.
func (s *ProfileService) SaveProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	if err := s.validator.Validate(update); err != nil {
		return nil, err
	}

	profile, err := s.store.SaveProfile(ctx, update)
	if err != nil {
		return nil, mapStoreError(err, "failed to save profile")
	}

	if err := s.searcher.IndexUser(profile); err != nil {
		s.logger.Warn("failed to index user", "fid", profile.FID, "error", err)
	}
	return profile, nil
}

// GetUserProfile returns the profile of fid, or nil if there is none or it
// cannot be read.
func (s *ProfileService) GetUserProfile(ctx context.Context, fid int64) (*domain.UserProfile, error) {
	if fid <= 0 {
		return nil, domainerrors.Validation("fid must be positive")
	}
	profile, err := s.store.GetUserProfile(ctx, fid)
	if err != nil {
		s.logger.Warn("failed to get profile", "fid", fid, "error", err)
		return nil, nil
	}
	return profile, nil
}

// SetNotifications stores whether fid wants daily reminders.
func (s *ProfileService) SetNotifications(ctx context.Context, fid int64, enabled bool) (*domain.UserProfile, error) {
	if fid <= 0 {
		return nil, domainerrors.Validation("fid must be positive")
	}
	profile, err := s.store.SetNotifications(ctx, fid, enabled)
	if err != nil {
		return nil, mapStoreError(err, "failed to update notification preference")
	}
	s.logger.Info("notification preference changed", "fid", fid, "enabled", enabled)
	return profile, nil
}

// ListNotificationUsers returns users who opted into reminders. A read
// failure yields an empty list.
func (s *ProfileService) ListNotificationUsers(ctx context.Context) []*domain.UserProfile {
	users, err := s.store.ListNotificationUsers(ctx)
	if err != nil {
		s.logger.Warn("failed to list notification users", "error", err)
		return []*domain.UserProfile{}
	}
	return users
}

// SearchUsers finds users by username or display name substring.
func (s *ProfileService) SearchUsers(ctx context.Context, text string) ([]*domain.UserProfile, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domainerrors.Validation("search text is required")
	}
	users, err := s.searcher.SearchUsers(ctx, text)
	if err != nil {
		s.logger.Warn("user search failed", "query", text, "error", err)
		return []*domain.UserProfile{}, nil
	}
	if users == nil {
		users = []*domain.UserProfile{}
	}
	return users, nil
}
