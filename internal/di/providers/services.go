package providers

import (
	"github.com/samber/do/v2"

	"github.com/readerboard/readerboard-server/internal/config"
	"github.com/readerboard/readerboard-server/internal/logger"
	"github.com/readerboard/readerboard-server/internal/service"
	"github.com/readerboard/readerboard-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvidePointsService provides the points and leaderboard service.
func ProvidePointsService(i do.Injector) (*service.PointsService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	policy := service.PointsPolicy{
		Daily:    cfg.Points.Daily,
		Location: cfg.Points.Location(),
	}
	return service.NewPointsService(storeHandle.Store, policy, log.Component("points")), nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searcher := do.MustInvoke[*SearcherHandle](i)
	openLibrary := do.MustInvoke[*OpenLibraryHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, searcher.Searcher, openLibrary.Client, validator, log.Component("catalog")), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searcher := do.MustInvoke[*SearcherHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, searcher.Searcher, validator, log.Component("profile")), nil
}

// ProvideLibraryService provides the library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	points := do.MustInvoke[*service.PointsService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, points, validator, log.Component("library")), nil
}

// ProvideSocialService provides the likes and review feed service.
func ProvideSocialService(i do.Injector) (*service.SocialService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSocialService(storeHandle.Store, log.Component("social")), nil
}

// ProvideAdminService provides the migration service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAdminService(storeHandle.Store, log.Component("admin")), nil
}

// ProvideNotificationService provides the daily reminder service.
func ProvideNotificationService(i do.Injector) (*service.NotificationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sender := do.MustInvoke[notifySender](i)
	points := do.MustInvoke[*service.PointsService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNotificationService(
		storeHandle.Store,
		sender,
		points.Policy(),
		cfg.Notify.Concurrency,
		log.Component("notifications"),
	), nil
}
