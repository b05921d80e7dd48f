package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readerboard/readerboard-server/internal/domain"
)

func (s *Server) registerSocialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "toggleLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/reviews/{relationshipId}/likes",
		Summary:     "Like or unlike a review",
		Description: "Flips the caller's like and keeps the review's like count in step",
		Tags:        []string{"Social"},
	}, s.handleToggleLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkLikeStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/{relationshipId}/likes/{fid}",
		Summary:     "Check whether a user liked a review",
		Tags:        []string{"Social"},
	}, s.handleCheckLikeStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReviewLikes",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/{relationshipId}/likes",
		Summary:     "List who liked a review",
		Tags:        []string{"Social"},
	}, s.handleGetReviewLikes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGlobalReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews",
		Summary:     "Get the global review feed",
		Description: "Newest reviews across all users, with reviewer display fields",
		Tags:        []string{"Social"},
	}, s.handleGetGlobalReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLeaderboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/leaderboard",
		Summary:     "Get leaderboard",
		Description: "Users ranked by points, ties broken by fid",
		Tags:        []string{"Social"},
	}, s.handleGetLeaderboard)
}

// === DTOs ===

// ToggleLikeRequest identifies the liker.
type ToggleLikeRequest struct {
	FID int64 `json:"fid" doc:"Platform identity of the liker"`
}

// ToggleLikeInput carries a like toggle.
type ToggleLikeInput struct {
	RelationshipID string `path:"relationshipId" doc:"Review id, {fid}_{bookId}"`
	Body           ToggleLikeRequest
}

// LikeStatusResponse reports the liker's state after the call.
type LikeStatusResponse struct {
	Liked bool `json:"liked"`
}

// LikeStatusOutput wraps the like state for Huma.
type LikeStatusOutput struct {
	Body LikeStatusResponse
}

// CheckLikeStatusInput addresses one like.
type CheckLikeStatusInput struct {
	RelationshipID string `path:"relationshipId"`
	FID            int64  `path:"fid"`
}

// ReviewLikesInput addresses a review.
type ReviewLikesInput struct {
	RelationshipID string `path:"relationshipId"`
}

// ReviewLikesOutput lists the likes of a review.
type ReviewLikesOutput struct {
	Body []*domain.Like
}

// GetReviewsInput bounds the review feed.
type GetReviewsInput struct {
	Limit int `query:"limit" minimum:"0" doc:"Max reviews (default 20, max 100)"`
}

// ReviewsOutput lists reviews.
type ReviewsOutput struct {
	Body []*domain.UserBookWithProfile
}

// GetLeaderboardInput bounds the leaderboard.
type GetLeaderboardInput struct {
	Limit int `query:"limit" minimum:"0" doc:"Max entries (default 100, max 500)"`
}

// LeaderboardOutput lists ranked users.
type LeaderboardOutput struct {
	Body []domain.LeaderboardEntry
}

// === Handlers ===

func (s *Server) handleToggleLike(ctx context.Context, input *ToggleLikeInput) (*LikeStatusOutput, error) {
	liked, err := s.services.Social.ToggleLike(ctx, input.RelationshipID, input.Body.FID)
	if err != nil {
		return nil, err
	}
	return &LikeStatusOutput{Body: LikeStatusResponse{Liked: liked}}, nil
}

func (s *Server) handleCheckLikeStatus(ctx context.Context, input *CheckLikeStatusInput) (*LikeStatusOutput, error) {
	liked := s.services.Social.CheckLikeStatus(ctx, input.RelationshipID, input.FID)
	return &LikeStatusOutput{Body: LikeStatusResponse{Liked: liked}}, nil
}

func (s *Server) handleGetReviewLikes(ctx context.Context, input *ReviewLikesInput) (*ReviewLikesOutput, error) {
	return &ReviewLikesOutput{Body: s.services.Social.GetLikes(ctx, input.RelationshipID)}, nil
}

func (s *Server) handleGetGlobalReviews(ctx context.Context, input *GetReviewsInput) (*ReviewsOutput, error) {
	return &ReviewsOutput{Body: s.services.Social.GetGlobalReviews(ctx, input.Limit)}, nil
}

func (s *Server) handleGetLeaderboard(ctx context.Context, input *GetLeaderboardInput) (*LeaderboardOutput, error) {
	return &LeaderboardOutput{Body: s.services.Points.GetLeaderboard(ctx, input.Limit)}, nil
}
