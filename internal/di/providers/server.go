package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/readerboard/readerboard-server/internal/api"
	"github.com/readerboard/readerboard-server/internal/config"
	"github.com/readerboard/readerboard-server/internal/logger"
	"github.com/readerboard/readerboard-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searcher := do.MustInvoke[*SearcherHandle](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Catalog:       do.MustInvoke[*service.CatalogService](i),
		Profile:       do.MustInvoke[*service.ProfileService](i),
		Library:       do.MustInvoke[*service.LibraryService](i),
		Points:        do.MustInvoke[*service.PointsService](i),
		Social:        do.MustInvoke[*service.SocialService](i),
		Admin:         do.MustInvoke[*service.AdminService](i),
		Notifications: do.MustInvoke[*service.NotificationService](i),
		Search:        searcher.Searcher,
	}

	if cfg.Admin.Token == "" {
		if cfg.IsProduction() {
			log.Error("ADMIN_TOKEN is not set in production, admin and cron operations are open")
		} else {
			log.Warn("ADMIN_TOKEN is not set, admin and cron operations are open")
		}
	}

	handler := api.NewServer(storeHandle.Store, services, api.Options{
		AdminToken:  cfg.Admin.Token,
		RateLimiter: limiter.KeyedRateLimiter,
	}, log.Component("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
