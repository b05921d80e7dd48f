package providers

import (
	"github.com/samber/do/v2"

	"github.com/readerboard/readerboard-server/internal/config"
	"github.com/readerboard/readerboard-server/internal/logger"
	"github.com/readerboard/readerboard-server/internal/notify"
	"github.com/readerboard/readerboard-server/internal/openlibrary"
)

// OpenLibraryHandle wraps the external catalog client with shutdown capability.
type OpenLibraryHandle struct {
	*openlibrary.Client
}

// Shutdown implements do.Shutdownable.
func (h *OpenLibraryHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideOpenLibraryClient provides the external catalog client.
func ProvideOpenLibraryClient(i do.Injector) (*OpenLibraryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := openlibrary.New(openlibrary.Config{
		BaseURL:  cfg.OpenLibrary.BaseURL,
		CacheTTL: cfg.OpenLibrary.CacheTTL,
	}, log.Component("openlibrary"))

	log.Info("OpenLibrary client initialized", "base_url", cfg.OpenLibrary.BaseURL)

	return &OpenLibraryHandle{Client: client}, nil
}

// notifySender is registered by interface so the service never sees which
// sender was chosen.
type notifySender = notify.Sender

// ProvideNotifySender provides the webhook sender, or the noop sender when
// no webhook is configured.
func ProvideNotifySender(i do.Injector) (notifySender, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Notify.WebhookURL == "" {
		log.Info("Notification webhook not configured, reminders are dropped")
	}
	return notify.New(cfg.Notify.WebhookURL, log.Component("notify")), nil
}
