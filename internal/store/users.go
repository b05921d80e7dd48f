package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// SaveProfile merge-writes a profile. A profile without a goodsID gets the
// next sequence number in the same transaction as the write, so two racing
// first saves cannot both allocate, and an aborted save leaks no number.
func (s *Store) SaveProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	if update.FID <= 0 {
		return nil, ErrInvalidInput.WithMessage("fid must be positive")
	}
	id := fidKey(update.FID)

	var saved *domain.UserProfile
	err := s.update(ctx, func(txn *badger.Txn) error {
		existing, err := s.users.getTxn(txn, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		now := s.now()
		patch := Fields{
			"fid":       update.FID,
			"updatedAt": now,
		}
		patch.Set("username", update.Username).
			Set("displayName", update.DisplayName).
			Set("pfpUrl", update.PfpURL).
			Set("notificationsEnabled", update.NotificationsEnabled)

		if existing == nil {
			patch["createdAt"] = now
		}
		if !existing.HasGoodsID() {
			next, err := s.nextSequenceTxn(txn)
			if err != nil {
				return err
			}
			patch["goodsID"] = next
		}

		saved, err = s.users.mergeTxn(txn, id, patch)
		return err
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to save profile", "fid", update.FID, "error", err)
		}
		return nil, fmt.Errorf("saving profile %d: %w", update.FID, err)
	}
	return saved, nil
}

// GetUserProfile returns the profile of fid.
// Returns nil, nil if the profile does not exist.
func (s *Store) GetUserProfile(ctx context.Context, fid int64) (*domain.UserProfile, error) {
	p, err := s.users.Get(ctx, fidKey(fid))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile %d: %w", fid, err)
	}
	return p, nil
}

// SetNotifications stores the notification preference of an existing profile.
func (s *Store) SetNotifications(ctx context.Context, fid int64, enabled bool) (*domain.UserProfile, error) {
	id := fidKey(fid)

	var saved *domain.UserProfile
	err := s.update(ctx, func(txn *badger.Txn) error {
		found, err := s.users.existsTxn(txn, id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound.WithMessage("profile not found")
		}
		saved, err = s.users.mergeTxn(txn, id, Fields{
			"notificationsEnabled": enabled,
			"updatedAt":            s.now(),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("setting notifications for %d: %w", fid, err)
	}
	return saved, nil
}

// AwardPoints adds amount to the user's points unless points were already
// awarded on day. The date check and the increment share one transaction,
// so concurrent awards on the same day grant points once.
func (s *Store) AwardPoints(ctx context.Context, fid int64, amount int64, day string) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidInput.WithMessage("amount must be positive")
	}
	if day == "" {
		return false, ErrInvalidInput.WithMessage("day is required")
	}
	id := fidKey(fid)

	awarded := false
	err := s.update(ctx, func(txn *badger.Txn) error {
		awarded = false

		profile, err := s.users.getTxn(txn, id)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound.WithMessage("profile not found")
		}
		if err != nil {
			return err
		}
		if profile.LastPointsDate == day {
			return nil
		}

		if _, err := s.users.mergeTxn(txn, id, Fields{
			"currentPoints":  profile.CurrentPoints + amount,
			"lastPointsDate": day,
			"updatedAt":      s.now(),
		}); err != nil {
			return err
		}
		awarded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("awarding points to %d: %w", fid, err)
	}
	return awarded, nil
}

// ListUsers returns every profile.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.UserProfile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// ListNotificationUsers returns the profiles that opted into notifications.
func (s *Store) ListNotificationUsers(ctx context.Context) ([]*domain.UserProfile, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(users, func(u *domain.UserProfile) bool {
		return !u.NotificationsEnabled
	}), nil
}

// GetLeaderboard returns up to limit profiles ordered by points descending.
// Ties are broken by fid ascending so the order is stable between calls.
func (s *Store) GetLeaderboard(ctx context.Context, limit int) ([]*domain.UserProfile, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(users, func(a, b *domain.UserProfile) int {
		if c := cmp.Compare(b.CurrentPoints, a.CurrentPoints); c != 0 {
			return c
		}
		return cmp.Compare(a.FID, b.FID)
	})

	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
