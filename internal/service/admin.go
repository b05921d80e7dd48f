package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/readerboard/readerboard-server/internal/domain"
	"github.com/readerboard/readerboard-server/internal/store"
)

// AdminService runs the one-shot data repairs over the profile collection.
// Each repair is a single store transaction; runs are tagged with an id in
// the logs.
type AdminService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(store *store.Store, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:  store,
		logger: logger,
	}
}

// BackfillSequenceNumbers assigns sequence numbers to profiles that have
// none, in join order.
func (s *AdminService) BackfillSequenceNumbers(ctx context.Context) (*domain.BackfillResult, error) {
	log := s.logger.With("run_id", uuid.NewString(), "operation", "backfill_goods_ids")
	log.Info("starting backfill")

	result, err := s.store.BackfillSequenceNumbers(ctx)
	if err != nil {
		log.Error("backfill failed", "error", err)
		return nil, mapStoreError(err, "backfill failed")
	}

	log.Info("backfill complete", "count", result.Count, "last_id", result.LastID)
	return result, nil
}

// RemoveJoinNumber deletes the deprecated joinNumber field from every
// profile.
func (s *AdminService) RemoveJoinNumber(ctx context.Context) (*domain.RemoveFieldResult, error) {
	log := s.logger.With("run_id", uuid.NewString(), "operation", "remove_join_number")
	log.Info("starting legacy field removal")

	result, err := s.store.RemoveLegacyField(ctx, domain.LegacyJoinNumberField)
	if err != nil {
		log.Error("legacy field removal failed", "error", err)
		return nil, mapStoreError(err, "field removal failed")
	}

	log.Info("legacy field removal complete", "removed", result.Removed, "scanned", result.Scanned)
	return result, nil
}

// ResetSequenceNumbers pins the identities in mapping to fixed numbers and
// renumbers everyone else chronologically after them. An empty mapping
// uses domain.DefaultGoodsIDMapping. This overwrites every existing
// sequence number.
func (s *AdminService) ResetSequenceNumbers(ctx context.Context, mapping map[int64]int64) (*domain.ResetResult, error) {
	if len(mapping) == 0 {
		mapping = domain.DefaultGoodsIDMapping
	}

	log := s.logger.With("run_id", uuid.NewString(), "operation", "reset_goods_ids")
	log.Warn("starting sequence number reset", "manual_mappings", len(mapping))

	result, err := s.store.ResetSequenceNumbers(ctx, mapping)
	if err != nil {
		log.Error("sequence number reset failed", "error", err)
		return nil, mapStoreError(err, "reset failed")
	}

	log.Info("sequence number reset complete",
		"manual", result.ManualAssignments,
		"auto", result.AutoAssignments,
		"total", result.TotalUsers,
		"max_id", result.MaxID,
	)
	return result, nil
}
