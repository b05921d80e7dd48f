package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/readerboard/readerboard-server/internal/logger"
	"github.com/readerboard/readerboard-server/internal/service"
)

// BackfillSequenceNumbersIfNeeded gives every profile without a sequence
// number one at startup. Profiles imported before numbering existed are the
// only ones that can lack it.
func BackfillSequenceNumbersIfNeeded(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	admin := do.MustInvoke[*service.AdminService](i)

	ctx, cancel := context.WithTimeout(context.Background(), startupTaskTimeout)
	defer cancel()

	result, err := admin.BackfillSequenceNumbers(ctx)
	if err != nil {
		log.Error("Failed to backfill sequence numbers", "error", err)
		return
	}
	if result.Count > 0 {
		log.Info("Backfilled sequence numbers", "count", result.Count, "last_id", result.LastID)
	}
}
