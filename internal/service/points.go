package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/readerboard/readerboard-server/internal/domain"
	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
	"github.com/readerboard/readerboard-server/internal/store"
)

// Leaderboard limits.
const (
	DefaultLeaderboardLimit = 100
	MaxLeaderboardLimit     = 500
)

// PointsPolicy decides how many points a day is worth and where a day
// starts.
type PointsPolicy struct {
	Daily    int64
	Location *time.Location
	Now      func() time.Time
}

// Today returns the current points day as an ISO date.
func (p PointsPolicy) Today() string {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return domain.CalendarDay(now(), p.Location)
}

// PointsService awards daily points and ranks users by them.
type PointsService struct {
	store  *store.Store
	policy PointsPolicy
	logger *slog.Logger
}

// NewPointsService creates a new points service.
func NewPointsService(store *store.Store, policy PointsPolicy, logger *slog.Logger) *PointsService {
	if policy.Daily <= 0 {
		policy.Daily = 10
	}
	return &PointsService{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// Policy returns the points policy in use.
func (s *PointsService) Policy() PointsPolicy {
	return s.policy
}

// AwardPoints grants amount points to fid unless fid already received
// points today. A non-positive amount means the daily amount.
func (s *PointsService) AwardPoints(ctx context.Context, fid, amount int64) (bool, error) {
	if fid <= 0 {
		return false, domainerrors.Validation("fid must be positive")
	}
	if amount <= 0 {
		amount = s.policy.Daily
	}

	day := s.policy.Today()
	awarded, err := s.store.AwardPoints(ctx, fid, amount, day)
	if err != nil {
		s.logger.Error("failed to award points", "fid", fid, "day", day, "error", err)
		return false, mapStoreError(err, "failed to award points")
	}
	if awarded {
		s.logger.Info("points awarded", "fid", fid, "amount", amount, "day", day)
	}
	return awarded, nil
}

// GetLeaderboard returns the top users by points. limit defaults to
// DefaultLeaderboardLimit and is capped at MaxLeaderboardLimit. A store
// failure yields an empty board.
func (s *PointsService) GetLeaderboard(ctx context.Context, limit int) []domain.LeaderboardEntry {
	switch {
	case limit <= 0:
		limit = DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		limit = MaxLeaderboardLimit
	}

	users, err := s.store.GetLeaderboard(ctx, limit)
	if err != nil {
		s.logger.Warn("failed to load leaderboard", "error", err)
		return []domain.LeaderboardEntry{}
	}

	entries := make([]domain.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = domain.LeaderboardEntry{Rank: i + 1, UserProfile: *u}
	}
	return entries
}
