package api

import (
	"crypto/subtle"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
)

// requireAdmin checks the bearer token of admin and cron operations. With
// no token configured the operations are open.
func (s *Server) requireAdmin(authHeader string) error {
	if s.adminToken == "" {
		return nil
	}
	if authHeader == "" {
		return domainerrors.Unauthorized("Missing authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" {
		return domainerrors.Unauthorized("Invalid authorization header format")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		return domainerrors.Unauthorized("Invalid admin token")
	}
	return nil
}

// notFound is returned by single-record reads that found nothing.
func notFound(what string) error {
	return huma.Error404NotFound(what + " not found")
}
