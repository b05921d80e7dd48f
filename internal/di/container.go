// Package di provides dependency injection configuration for the Readerboard server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readerboard/readerboard-server/internal/config"
	"github.com/readerboard/readerboard-server/internal/di/providers"
	"github.com/readerboard/readerboard-server/internal/logger"
	"github.com/readerboard/readerboard-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearcher)

	// External clients
	do.Provide(injector, providers.ProvideOpenLibraryClient)
	do.Provide(injector, providers.ProvideNotifySender)

	// Business services
	do.Provide(injector, providers.ProvidePointsService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideProfileService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideSocialService)
	do.Provide(injector, providers.ProvideAdminService)
	do.Provide(injector, providers.ProvideNotificationService)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearcherHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.SocialService](injector)
	_ = do.MustInvoke[*service.AdminService](injector)
	_ = do.MustInvoke[*service.NotificationService](injector)

	providers.BackfillSequenceNumbersIfNeeded(injector)

	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
