package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readerboard/readerboard-server/internal/ratelimit"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, remote: "10.0.0.2:1234", want: "203.0.113.9"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.4"}, remote: "10.0.0.2:1234", want: "198.51.100.4"},
		{name: "remote addr", remote: "192.0.2.7:5555", want: "192.0.2.7"},
		{name: "remote addr without port", remote: "192.0.2.8", want: "192.0.2.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func TestRateLimitMiddleware_RejectsBurstOverflow(t *testing.T) {
	limiter := ratelimit.New(0.001, 1)
	defer limiter.Stop()

	ts := setupTestServerWithOptions(t, Options{RateLimiter: limiter})
	defer ts.cleanup()

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/health")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	errEnv := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "RATE_LIMITED", errEnv.Code)
	assert.Equal(t, EnvelopeVersion, errEnv.Version)
}
