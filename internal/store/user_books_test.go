package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readerboard/readerboard-server/internal/domain"
)

var foxRef = domain.BookRef{
	Key:         "/works/OL45804W",
	Title:       "Fantastic Mr Fox",
	AuthorNames: []string{"Roald Dahl"},
}

func TestSaveRelationship_CreateAndOverwrite(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	first, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusDesired})
	require.NoError(t, err)
	assert.Equal(t, "1_OL45804W", first.ID)
	assert.Equal(t, domain.StatusDesired, first.Status)
	assert.Zero(t, first.LikeCount)
	assert.False(t, first.LoggedAt.IsZero())
	assert.Nil(t, first.StartedReadingAt)

	second, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusCompleted, Review: strPtr("great")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, second.Status)
	assert.Equal(t, "great", second.Review)
	assert.Equal(t, first.LoggedAt, second.LoggedAt)

	books, err := s.GetUserBooks(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, books, 1, "one relationship per user and book")

	book, err := s.GetBook(ctx, "OL45804W")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "Fantastic Mr Fox", book.Title)
}

func TestSaveRelationship_CurrentStampsStart(t *testing.T) {
	s, _ := setupClockedStore(t)

	ub, err := s.SaveRelationship(context.Background(), RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusCurrent})
	require.NoError(t, err)
	assert.NotNil(t, ub.StartedReadingAt)
}

func TestSaveRelationship_Validation(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	_, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: "reading"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.SaveRelationship(ctx, RelationshipInput{FID: 0, Book: foxRef, Status: domain.StatusDesired})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateStatus(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	_, err := s.UpdateStatus(ctx, 1, foxRef.Key, domain.StatusCurrent)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusDesired, Review: strPtr("soon")})
	require.NoError(t, err)

	ub, err := s.UpdateStatus(ctx, 1, "OL45804W", domain.StatusCurrent)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCurrent, ub.Status)
	assert.Equal(t, "soon", ub.Review)
	assert.NotNil(t, ub.StartedReadingAt)
}

func TestUpdateReview(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	_, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusCompleted})
	require.NoError(t, err)

	ub, err := s.UpdateReview(ctx, 1, foxRef.Key, "loved it")
	require.NoError(t, err)
	assert.Equal(t, "loved it", ub.Review)
	assert.Equal(t, domain.StatusCompleted, ub.Status)
}

func TestGetBookUsers_NormalizesKey(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	_, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusDesired})
	require.NoError(t, err)
	other := foxRef
	other.Key = "OL45804W"
	_, err = s.SaveRelationship(ctx, RelationshipInput{FID: 2, Book: other, Status: domain.StatusCurrent})
	require.NoError(t, err)

	for _, key := range []string{"/works/OL45804W", "OL45804W"} {
		users, err := s.GetBookUsers(ctx, key)
		require.NoError(t, err)
		require.Len(t, users, 2, key)
		// most recently updated first
		assert.Equal(t, int64(2), users[0].UserFID)
	}
}

func TestGetUserBooks_NewestFirst(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	for _, key := range []string{"OL1W", "OL2W", "OL3W"} {
		_, err := s.SaveRelationship(ctx, RelationshipInput{
			FID:    1,
			Book:   domain.BookRef{Key: key, Title: key},
			Status: domain.StatusDesired,
		})
		require.NoError(t, err)
	}
	_, err := s.SaveRelationship(ctx, RelationshipInput{FID: 2, Book: domain.BookRef{Key: "OL1W", Title: "x"}, Status: domain.StatusDesired})
	require.NoError(t, err)

	books, err := s.GetUserBooks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "OL3W", books[0].BookKey)
	assert.Equal(t, "OL1W", books[2].BookKey)
}

func TestDeleteRelationship_Cascades(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	ub, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: foxRef, Status: domain.StatusCurrent})
	require.NoError(t, err)
	_, err = s.AddLog(ctx, 1, foxRef.Key, domain.LogEntryInput{Page: 10})
	require.NoError(t, err)
	_, err = s.ToggleLike(ctx, ub.ID, 2)
	require.NoError(t, err)

	deleted, err := s.DeleteRelationship(ctx, 1, foxRef.Key)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := s.GetRelationship(ctx, 1, foxRef.Key)
	require.NoError(t, err)
	assert.Nil(t, got)

	logs, err := s.GetLogs(ctx, 1, foxRef.Key)
	require.NoError(t, err)
	assert.Empty(t, logs)

	likes, err := s.GetLikes(ctx, ub.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)

	books, err := s.GetBookUsers(ctx, foxRef.Key)
	require.NoError(t, err)
	assert.Empty(t, books)

	deleted, err = s.DeleteRelationship(ctx, 1, foxRef.Key)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListReviews(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	_, err := s.SaveRelationship(ctx, RelationshipInput{FID: 1, Book: domain.BookRef{Key: "OL1W", Title: "a"}, Status: domain.StatusCompleted, Review: strPtr("first")})
	require.NoError(t, err)
	_, err = s.SaveRelationship(ctx, RelationshipInput{FID: 2, Book: domain.BookRef{Key: "OL1W", Title: "a"}, Status: domain.StatusDesired})
	require.NoError(t, err)
	_, err = s.SaveRelationship(ctx, RelationshipInput{FID: 3, Book: domain.BookRef{Key: "OL2W", Title: "b"}, Status: domain.StatusCompleted, Review: strPtr("second")})
	require.NoError(t, err)

	reviews, err := s.ListReviews(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "second", reviews[0].Review)

	reviews, err = s.ListReviews(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestSaveRelationship_RejectsKeysThatNestIntoOtherDocuments(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()

	ub, err := s.SaveRelationship(ctx, RelationshipInput{FID: 42, Book: foxRef, Status: domain.StatusCompleted})
	require.NoError(t, err)

	for _, key := range []string{
		foxRef.Key + "/likes/99",
		foxRef.Key + "/logs/abc",
		"/works/OL1W x",
		"/works/",
	} {
		t.Run(key, func(t *testing.T) {
			_, err := s.SaveRelationship(ctx, RelationshipInput{
				FID:    42,
				Book:   domain.BookRef{Key: key, Title: "forged"},
				Status: domain.StatusDesired,
			})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	liked, err := s.CheckLikeStatus(ctx, ub.ID, 99)
	require.NoError(t, err)
	assert.False(t, liked)

	likes, err := s.GetLikes(ctx, ub.ID)
	require.NoError(t, err)
	got, err := s.GetRelationshipByID(ctx, ub.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(likes)), got.LikeCount)

	logs, err := s.GetLogs(ctx, 42, foxRef.Key)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRelationshipOperations_RejectInvalidBookKeys(t *testing.T) {
	s, _ := setupClockedStore(t)
	ctx := context.Background()
	bad := foxRef.Key + "/likes/7"

	_, err := s.UpdateStatus(ctx, 1, bad, domain.StatusCurrent)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.UpdateReview(ctx, 1, bad, "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.DeleteRelationship(ctx, 1, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.AddLog(ctx, 1, bad, domain.LogEntryInput{Page: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.GetLogs(ctx, 1, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.ToggleLike(ctx, "1_OL45804W/likes/7", 2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CheckLikeStatus(ctx, "1_OL45804W/likes/7", 2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := s.GetRelationship(ctx, 1, bad)
	require.NoError(t, err)
	assert.Nil(t, got)

	book, err := s.GetBook(ctx, bad)
	require.NoError(t, err)
	assert.Nil(t, book)
}
