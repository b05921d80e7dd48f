package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/readerboard/readerboard-server/internal/domain"
	"github.com/readerboard/readerboard-server/internal/notify"
	"github.com/readerboard/readerboard-server/internal/store"
)

// NotificationService runs the daily reminder job.
type NotificationService struct {
	store       *store.Store
	profiles    profileLookup
	sender      notify.Sender
	policy      PointsPolicy
	concurrency int
	logger      *slog.Logger
}

// NewNotificationService creates a new notification service. concurrency
// bounds parallel sends.
func NewNotificationService(
	store *store.Store,
	sender notify.Sender,
	policy PointsPolicy,
	concurrency int,
	logger *slog.Logger,
) *NotificationService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &NotificationService{
		store:       store,
		profiles:    store,
		sender:      sender,
		policy:      policy,
		concurrency: concurrency,
		logger:      logger,
	}
}

// SendDailyNotifications reminds every opted-in user who has not earned
// points today. A failed send counts as not sent and never stops the run.
func (s *NotificationService) SendDailyNotifications(ctx context.Context) (*domain.NotificationRunResult, error) {
	log := s.logger.With("run_id", uuid.NewString(), "operation", "daily_notifications")

	users, err := s.store.ListNotificationUsers(ctx)
	if err != nil {
		log.Error("failed to list notification users", "error", err)
		return nil, mapStoreError(err, "failed to list notification users")
	}
	log.Info("sending daily notifications", "enabled", len(users))

	today := s.policy.Today()
	var sent, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, user := range users {
		g.Go(func() error {
			// re-read so a log made since the listing is seen
			lastPointsDate := user.LastPointsDate
			fresh, err := s.profiles.GetUserProfile(gctx, user.FID)
			if err != nil {
				log.Warn("failed to refresh profile, using listed copy", "fid", user.FID, "error", err)
			} else if fresh != nil {
				lastPointsDate = fresh.LastPointsDate
			}

			if lastPointsDate == today {
				skipped.Inc()
				return nil
			}
			if s.sender.Send(gctx, user.FID, notify.DailyReminder) {
				sent.Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.NotificationRunResult{
		Success:      true,
		SentCount:    sent.Load(),
		TotalEnabled: len(users),
		Skipped:      skipped.Load(),
	}
	log.Info("daily notifications complete",
		"sent", result.SentCount,
		"skipped", result.Skipped,
		"enabled", result.TotalEnabled,
	)
	return result, nil
}
