package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
)

func TestAdminService_Backfill_NothingToDo(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	createProfile(t, ts, 1, "a")

	result, err := ts.admin.BackfillSequenceNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Equal(t, "No users need backfill", result.Message)
}

func TestAdminService_RemoveJoinNumber_Idempotent(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	createProfile(t, ts, 1, "a")
	createProfile(t, ts, 2, "b")

	first, err := ts.admin.RemoveJoinNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "joinNumber", first.Field)
	assert.Equal(t, 2, first.Scanned)

	second, err := ts.admin.RemoveJoinNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Removed)
}

func TestAdminService_ResetSequenceNumbers(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	createProfile(t, ts, 1, "first")
	createProfile(t, ts, 2, "second")
	createProfile(t, ts, 3, "third")

	result, err := ts.admin.ResetSequenceNumbers(ctx, map[int64]int64{2: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ManualAssignments)
	assert.Equal(t, 2, result.AutoAssignments)
	assert.Equal(t, 3, result.TotalUsers)
	assert.Equal(t, int64(2), result.MaxID)

	want := map[int64]int64{1: 1, 2: 0, 3: 2}
	for fid, goods := range want {
		p, err := ts.store.GetUserProfile(ctx, fid)
		require.NoError(t, err)
		require.NotNil(t, p.GoodsID)
		assert.Equal(t, goods, *p.GoodsID, "fid %d", fid)
	}

	count, err := ts.store.CurrentSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// the next new profile continues after the reset
	p := createProfile(t, ts, 4, "fourth")
	assert.Equal(t, int64(3), *p.GoodsID)
}

func TestAdminService_ResetSequenceNumbers_DefaultMapping(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	createProfile(t, ts, 1020698, "pinned")
	createProfile(t, ts, 5, "other")

	result, err := ts.admin.ResetSequenceNumbers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ManualAssignments)
	assert.Equal(t, int64(3), result.MaxID)

	p, err := ts.store.GetUserProfile(ctx, 1020698)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *p.GoodsID)
}

func TestAdminService_ResetSequenceNumbers_RejectsBadMapping(t *testing.T) {
	ts := setupTestServices(t)

	_, err := ts.admin.ResetSequenceNumbers(context.Background(), map[int64]int64{1: 3, 2: 3})
	requireCode(t, err, domainerrors.CodeValidation)
}
