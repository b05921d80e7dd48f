package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readerboard/readerboard-server/internal/domain"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "saveProfile",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/{fid}",
		Summary:     "Save a user profile",
		Description: "Merge-writes profile fields. The first save assigns the user's sequence number.",
		Tags:        []string{"Users"},
	}, s.handleSaveProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{fid}",
		Summary:     "Get a user profile",
		Tags:        []string{"Users"},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "setNotifications",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/{fid}/notifications",
		Summary:     "Set the daily reminder preference",
		Tags:        []string{"Users"},
	}, s.handleSetNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "Search users",
		Description: "Case-insensitive match on username or display name",
		Tags:        []string{"Users"},
	}, s.handleSearchUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "awardPoints",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{fid}/points",
		Summary:     "Award daily points",
		Description: "Grants points at most once per points day",
		Tags:        []string{"Users"},
	}, s.handleAwardPoints)
}

// === DTOs ===

// FIDInput addresses a user by platform identity.
type FIDInput struct {
	FID int64 `path:"fid" doc:"Platform identity"`
}

// SaveProfileRequest holds the profile fields to write. Absent fields are kept.
type SaveProfileRequest struct {
	Username             *string `json:"username,omitempty" maxLength:"64"`
	DisplayName          *string `json:"displayName,omitempty" maxLength:"128"`
	PfpURL               *string `json:"pfpUrl,omitempty"`
	NotificationsEnabled *bool   `json:"notificationsEnabled,omitempty"`
}

// SaveProfileInput carries a profile save.
type SaveProfileInput struct {
	FID  int64 `path:"fid"`
	Body SaveProfileRequest
}

// ProfileOutput wraps one profile.
type ProfileOutput struct {
	Body *domain.UserProfile
}

// SetNotificationsRequest holds the reminder preference.
type SetNotificationsRequest struct {
	Enabled bool `json:"enabled"`
}

// SetNotificationsInput carries a preference change.
type SetNotificationsInput struct {
	FID  int64 `path:"fid"`
	Body SetNotificationsRequest
}

// SearchUsersInput contains the search text.
type SearchUsersInput struct {
	Query string `query:"q" doc:"Username or display name substring"`
}

// ProfilesOutput lists profiles.
type ProfilesOutput struct {
	Body []*domain.UserProfile
}

// AwardPointsRequest optionally overrides the daily amount.
type AwardPointsRequest struct {
	Amount int64 `json:"amount,omitempty" minimum:"0" doc:"Points to grant; 0 grants the daily amount"`
}

// AwardPointsInput carries a points award.
type AwardPointsInput struct {
	FID  int64               `path:"fid"`
	Body *AwardPointsRequest `required:"false"`
}

// AwardPointsResponse reports whether the award applied.
type AwardPointsResponse struct {
	Awarded bool `json:"awarded" doc:"False when the user already earned points today"`
}

// AwardPointsOutput wraps the award result for Huma.
type AwardPointsOutput struct {
	Body AwardPointsResponse
}

// === Handlers ===

func (s *Server) handleSaveProfile(ctx context.Context, input *SaveProfileInput) (*ProfileOutput, error) {
	profile, err := s.services.Profile.SaveProfile(ctx, domain.ProfileUpdate{
		FID:                  input.FID,
		Username:             input.Body.Username,
		DisplayName:          input.Body.DisplayName,
		PfpURL:               input.Body.PfpURL,
		NotificationsEnabled: input.Body.NotificationsEnabled,
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}

func (s *Server) handleGetProfile(ctx context.Context, input *FIDInput) (*ProfileOutput, error) {
	profile, err := s.services.Profile.GetUserProfile(ctx, input.FID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, notFound("user")
	}
	return &ProfileOutput{Body: profile}, nil
}

func (s *Server) handleSetNotifications(ctx context.Context, input *SetNotificationsInput) (*ProfileOutput, error) {
	profile, err := s.services.Profile.SetNotifications(ctx, input.FID, input.Body.Enabled)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}

func (s *Server) handleSearchUsers(ctx context.Context, input *SearchUsersInput) (*ProfilesOutput, error) {
	users, err := s.services.Profile.SearchUsers(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	return &ProfilesOutput{Body: users}, nil
}

func (s *Server) handleAwardPoints(ctx context.Context, input *AwardPointsInput) (*AwardPointsOutput, error) {
	var amount int64
	if input.Body != nil {
		amount = input.Body.Amount
	}
	awarded, err := s.services.Points.AwardPoints(ctx, input.FID, amount)
	if err != nil {
		return nil, err
	}
	return &AwardPointsOutput{Body: AwardPointsResponse{Awarded: awarded}}, nil
}
