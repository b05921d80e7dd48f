package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readerboard/readerboard-server/internal/domain"
	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
)

func (s *Server) registerAdminRoutes() {
	security := []map[string][]string{{"bearer": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "backfillUsers",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/backfill-users",
		Summary:     "Backfill sequence numbers",
		Description: "Assigns a sequence number to every user that lacks one, oldest first",
		Tags:        []string{"Admin"},
		Security:    security,
	}, s.handleBackfillUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeJoinNumber",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/remove-join-number",
		Summary:     "Remove the legacy joinNumber field",
		Tags:        []string{"Admin"},
		Security:    security,
	}, s.handleRemoveJoinNumber)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetGoodsIDs",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reset-goods-ids",
		Summary:     "Reset sequence numbers",
		Description: "Pins mapped users to fixed numbers and renumbers everyone else chronologically after them",
		Tags:        []string{"Admin"},
		Security:    security,
	}, s.handleResetGoodsIDs)

	huma.Register(s.api, huma.Operation{
		OperationID: "sendDailyNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/cron/send-daily-notifications",
		Summary:     "Send daily reminders",
		Description: "Reminds every opted-in user who has not earned today's points",
		Tags:        []string{"Cron"},
		Security:    security,
	}, s.handleSendDailyNotifications)
}

// === DTOs ===

// AdminInput carries the admin bearer token.
type AdminInput struct {
	Authorization string `header:"Authorization"`
}

// BackfillOutput wraps a backfill summary.
type BackfillOutput struct {
	Body *domain.BackfillResult
}

// RemoveFieldOutput wraps a field removal summary.
type RemoveFieldOutput struct {
	Body *domain.RemoveFieldResult
}

// ResetGoodsIDsRequest overrides the default pinned mapping.
type ResetGoodsIDsRequest struct {
	Mapping map[string]int64 `json:"mapping,omitempty" doc:"fid to sequence number; empty uses the built-in mapping"`
}

// ResetGoodsIDsInput carries a reset.
type ResetGoodsIDsInput struct {
	Authorization string                `header:"Authorization"`
	Body          *ResetGoodsIDsRequest `required:"false"`
}

// ResetOutput wraps a reset summary.
type ResetOutput struct {
	Body *domain.ResetResult
}

// NotificationRunOutput wraps a notification run summary.
type NotificationRunOutput struct {
	Body *domain.NotificationRunResult
}

// === Handlers ===

func (s *Server) handleBackfillUsers(ctx context.Context, input *AdminInput) (*BackfillOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}
	result, err := s.services.Admin.BackfillSequenceNumbers(ctx)
	if err != nil {
		return nil, err
	}
	return &BackfillOutput{Body: result}, nil
}

func (s *Server) handleRemoveJoinNumber(ctx context.Context, input *AdminInput) (*RemoveFieldOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}
	result, err := s.services.Admin.RemoveJoinNumber(ctx)
	if err != nil {
		return nil, err
	}
	return &RemoveFieldOutput{Body: result}, nil
}

func (s *Server) handleResetGoodsIDs(ctx context.Context, input *ResetGoodsIDsInput) (*ResetOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	var mapping map[int64]int64
	if input.Body != nil {
		var err error
		if mapping, err = parseMapping(input.Body.Mapping); err != nil {
			return nil, err
		}
	}

	result, err := s.services.Admin.ResetSequenceNumbers(ctx, mapping)
	if err != nil {
		return nil, err
	}
	return &ResetOutput{Body: result}, nil
}

func (s *Server) handleSendDailyNotifications(ctx context.Context, input *AdminInput) (*NotificationRunOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}
	result, err := s.services.Notifications.SendDailyNotifications(ctx)
	if err != nil {
		return nil, err
	}
	return &NotificationRunOutput{Body: result}, nil
}

// parseMapping converts JSON object keys to fids.
func parseMapping(raw map[string]int64) (map[int64]int64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	mapping := make(map[int64]int64, len(raw))
	for k, v := range raw {
		fid, err := strconv.ParseInt(k, 10, 64)
		if err != nil || fid <= 0 {
			return nil, domainerrors.Validationf("mapping key %q is not a fid", k)
		}
		mapping[fid] = v
	}
	return mapping, nil
}
