package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readerboard/readerboard-server/internal/domain"
)

const testAdminToken = "s3cret"

func TestAdmin_RequiresToken(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{AdminToken: testAdminToken})
	defer ts.cleanup()

	for _, path := range []string{
		"/api/v1/admin/backfill-users",
		"/api/v1/admin/remove-join-number",
		"/api/v1/admin/reset-goods-ids",
	} {
		resp := ts.api.Post(path)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)

		resp = ts.api.Post(path, "Authorization: Bearer wrong")
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp.Body.Bytes()).Code)
	}

	resp := ts.api.Get("/api/v1/cron/send-daily-notifications")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/admin/backfill-users", "Authorization: Bearer "+testAdminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 0, decodeData[domain.BackfillResult](t, resp.Body.Bytes()).Count)
}

func TestAdmin_OpenWithoutToken(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createProfile(t, 1, "a")

	resp := ts.api.Post("/api/v1/admin/remove-join-number")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decodeData[domain.RemoveFieldResult](t, resp.Body.Bytes())
	assert.Equal(t, "joinNumber", result.Field)
	assert.Equal(t, 1, result.Scanned)
}

func TestAdmin_ResetGoodsIDs(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createProfile(t, 10, "ten")
	ts.createProfile(t, 20, "twenty")

	resp := ts.api.Post("/api/v1/admin/reset-goods-ids", map[string]any{
		"mapping": map[string]int64{"20": 0},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decodeData[domain.ResetResult](t, resp.Body.Bytes())
	assert.Equal(t, 1, result.ManualAssignments)
	assert.Equal(t, 1, result.AutoAssignments)
	assert.Equal(t, int64(1), result.MaxID)

	resp = ts.api.Get("/api/v1/users/20")
	assert.Equal(t, int64(0), *decodeData[domain.UserProfile](t, resp.Body.Bytes()).GoodsID)
	resp = ts.api.Get("/api/v1/users/10")
	assert.Equal(t, int64(1), *decodeData[domain.UserProfile](t, resp.Body.Bytes()).GoodsID)

	resp = ts.api.Post("/api/v1/admin/reset-goods-ids", map[string]any{
		"mapping": map[string]int64{"not-a-fid": 0},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCron_SendDailyNotifications(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createProfile(t, 1, "one")
	ts.createProfile(t, 2, "two")
	for _, fid := range []string{"1", "2"} {
		resp := ts.api.Put("/api/v1/users/"+fid+"/notifications", map[string]any{"enabled": true})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}
	resp := ts.api.Post("/api/v1/users/2/points")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/cron/send-daily-notifications")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decodeData[domain.NotificationRunResult](t, resp.Body.Bytes())
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalEnabled)
	assert.Equal(t, int64(1), result.SentCount)
}
