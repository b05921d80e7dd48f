package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/readerboard/readerboard-server/internal/config"
	"github.com/readerboard/readerboard-server/internal/logger"
	"github.com/readerboard/readerboard-server/internal/search"
)

// SearcherHandle wraps the configured search backend with shutdown capability.
type SearcherHandle struct {
	search.Searcher
}

// Shutdown implements do.Shutdownable.
func (h *SearcherHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearcher provides the custom book and user search backend.
func ProvideSearcher(i do.Injector) (*SearcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if cfg.Search.Backend != config.SearchBackendBleve {
		log.Info("Search backend initialized", "backend", config.SearchBackendScan)
		return &SearcherHandle{Searcher: search.NewScanSearcher(storeHandle.Store)}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTaskTimeout)
	defer cancel()

	indexPath := cfg.SearchIndexPath()
	index, err := search.NewBleveIndex(ctx, search.Options{
		Path:   indexPath,
		Source: storeHandle.Store,
		Logger: log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search backend initialized",
		"backend", config.SearchBackendBleve,
		"path", indexPath,
		"documents", docCount,
	)

	return &SearcherHandle{Searcher: index}, nil
}
