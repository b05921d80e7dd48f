package api

import (
	"github.com/readerboard/readerboard-server/internal/search"
	"github.com/readerboard/readerboard-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Catalog       *service.CatalogService
	Profile       *service.ProfileService
	Library       *service.LibraryService
	Points        *service.PointsService
	Social        *service.SocialService
	Admin         *service.AdminService
	Notifications *service.NotificationService
	Search        search.Searcher // health checks only
}
