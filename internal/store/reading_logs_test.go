package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readerboard/readerboard-server/internal/domain"
)

func TestAddLog_MovesProgressPointer(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	_, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusCurrent})
	require.NoError(t, err)

	entry, err := s.AddLog(ctx, 1, foxRef.Key, domain.LogEntryInput{Page: 42, Thoughts: "tense", Unit: domain.UnitPages})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, 42, entry.Page)

	ub, err := s.GetRelationship(ctx, 1, foxRef.Key)
	require.NoError(t, err)
	require.NotNil(t, ub.LastPageRead)
	assert.Equal(t, 42, *ub.LastPageRead)
	assert.Equal(t, entry.Date, ub.UpdatedAt)
}

func TestAddLog_SkippedLeavesPointer(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	_, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusCurrent})
	require.NoError(t, err)
	_, err = s.AddLog(ctx, 1, foxRef.Key, domain.LogEntryInput{Page: 10})
	require.NoError(t, err)

	before, err := s.GetRelationship(ctx, 1, foxRef.Key)
	require.NoError(t, err)

	_, err = s.AddLog(ctx, 1, foxRef.Key, domain.LogEntryInput{Page: 99, Skipped: true})
	require.NoError(t, err)

	after, err := s.GetRelationship(ctx, 1, foxRef.Key)
	require.NoError(t, err)
	require.NotNil(t, after.LastPageRead)
	assert.Equal(t, 10, *after.LastPageRead)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)

	logs, err := s.GetLogs(ctx, 1, foxRef.Key)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAddLog_RequiresRelationship(t *testing.T) {
	s, _ := setupClockedStore(t)

	_, err := s.AddLog(context.Background(), 1, foxRef.Key, domain.LogEntryInput{Page: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddLog_RejectsUnknownUnit(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	_, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusCurrent})
	require.NoError(t, err)

	_, err = s.AddLog(ctx, 1, foxRef.Key, domain.LogEntryInput{Page: 1, Unit: "lines"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetLogs_OldestFirst(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	_, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusCurrent})
	require.NoError(t, err)
	for _, page := range []int{5, 15, 25} {
		_, err := s.AddLog(ctx, 1, foxRef.Key, domain.LogEntryInput{Page: page})
		require.NoError(t, err)
	}

	logs, err := s.GetLogs(ctx, 1, "OL45804W")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, 5, logs[0].Page)
	assert.Equal(t, 15, logs[1].Page)
	assert.Equal(t, 25, logs[2].Page)
}

func TestAddLog_PointerUpdateDoesNotRecreateDeletedRelationship(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	ub, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusCurrent})
	require.NoError(t, err)

	// The relationship is deleted between the log append and the pointer update.
	entry := &domain.ReadingLog{ID: "log1", Page: 12, Date: s.now()}
	deleted, err := s.DeleteRelationship(ctx, 1, foxRef.Key)
	require.NoError(t, err)
	require.True(t, deleted)

	require.NoError(t, s.moveProgressPointer(ctx, ub.ID, entry))

	got, err := s.GetRelationshipByID(ctx, ub.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	books, err := s.GetUserBooks(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, books)
}
