package service

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// profileLookup resolves the owner of a relationship.
type profileLookup interface {
	GetUserProfile(ctx context.Context, fid int64) (*domain.UserProfile, error)
}

// maxProfileLookups bounds concurrent owner lookups of one join.
const maxProfileLookups = 8

// joinProfiles attaches each relationship's owner display fields. Every
// distinct owner is looked up once. A failed or missing lookup leaves the
// display fields empty and keeps the relationship.
func joinProfiles(ctx context.Context, lookup profileLookup, logger *slog.Logger, books []*domain.UserBook) []*domain.UserBookWithProfile {
	fids := make(map[int64]struct{}, len(books))
	for _, ub := range books {
		fids[ub.UserFID] = struct{}{}
	}

	var mu sync.Mutex
	profiles := make(map[int64]*domain.UserProfile, len(fids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProfileLookups)
	for fid := range fids {
		g.Go(func() error {
			profile, err := lookup.GetUserProfile(gctx, fid)
			if err != nil {
				logger.Warn("failed to load relationship owner", "fid", fid, "error", err)
				return nil
			}
			if profile != nil {
				mu.Lock()
				profiles[fid] = profile
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	joined := make([]*domain.UserBookWithProfile, 0, len(books))
	for _, ub := range books {
		entry := &domain.UserBookWithProfile{UserBook: *ub}
		if p, ok := profiles[ub.UserFID]; ok {
			entry.Username = p.Username
			entry.DisplayName = p.DisplayName
			entry.PfpURL = p.PfpURL
		}
		joined = append(joined, entry)
	}
	return joined
}
