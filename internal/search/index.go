package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/readerboard/readerboard-server/internal/domain"
	"github.com/readerboard/readerboard-server/internal/logger"
)

// BleveIndex keeps a bleve index of custom books and users alongside the
// store. Hits are loaded back from the store so results always reflect the
// stored record.
//
// All public methods are safe for concurrent use. Reindex takes the write
// lock and blocks queries while it runs.
type BleveIndex struct {
	index  bleve.Index
	path   string
	source Source
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the bleve backend.
type Options struct {
	Path   string // index directory
	Source Source
	Logger *slog.Logger // discard if nil
}

// mappingVersion is bumped whenever buildIndexMapping changes. A mismatch
// forces a rebuild on open.
const mappingVersion = "1"

// batchSize bounds memory while reindexing large collections.
const batchSize = 500

// NewBleveIndex opens or creates the index at opts.Path and fills it from
// opts.Source. A corrupt index or one with an outdated mapping is removed
// and recreated.
func NewBleveIndex(ctx context.Context, opts Options) (*BleveIndex, error) {
	if opts.Path == "" {
		return nil, errors.New("search index path is required")
	}
	if opts.Source == nil {
		return nil, errors.New("search index source is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard().Logger
	}

	index, err := openIndex(opts.Path, log)
	if err != nil {
		return nil, err
	}

	b := &BleveIndex{
		index:  index,
		path:   opts.Path,
		source: opts.Source,
		logger: log,
	}
	if err := b.Reindex(ctx); err != nil {
		_ = index.Close()
		return nil, err
	}
	return b, nil
}

func versionPath(indexPath string) string {
	return filepath.Join(filepath.Dir(indexPath), filepath.Base(indexPath)+".version")
}

func openIndex(indexPath string, log *slog.Logger) (bleve.Index, error) {
	needsRebuild := false
	indexExists := false
	if _, err := os.Stat(indexPath); err == nil {
		indexExists = true
	}

	if indexExists {
		existing, err := os.ReadFile(versionPath(indexPath))
		switch {
		case err != nil:
			log.Info("search index has no version file, rebuilding", "new_version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			log.Info("search index mapping version changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	var index bleve.Index
	if indexExists && !needsRebuild {
		var err error
		index, err = bleve.Open(indexPath)
		if err == nil {
			log.Info("opened existing search index", "path", indexPath)
			return index, nil
		}
		log.Warn("failed to open existing index, recreating", "path", indexPath, "error", err)
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}
	return createIndex(indexPath, log)
}

func createIndex(indexPath string, log *slog.Logger) (bleve.Index, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("build index mapping: %w", err)
	}
	index, err := bleve.New(indexPath, indexMapping)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(versionPath(indexPath), []byte(mappingVersion), 0o644); err != nil {
		log.Warn("failed to write search version file", "error", err)
	}
	log.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	return index, nil
}

// Reindex drops every document and indexes the current contents of the
// source.
func (b *BleveIndex) Reindex(ctx context.Context) error {
	books, err := b.source.ListCustomBooks(ctx)
	if err != nil {
		return fmt.Errorf("list custom books: %w", err)
	}
	users, err := b.source.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	docs := make([]*indexDocument, 0, len(books)+len(users))
	for _, book := range books {
		docs = append(docs, customBookDocument(book))
	}
	for _, user := range users {
		docs = append(docs, userDocument(user))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(b.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}
	index, err := createIndex(b.path, b.logger)
	if err != nil {
		return err
	}
	b.index = index

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		batch := b.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	b.logger.Info("search index rebuilt", "books", len(books), "users", len(users))
	return nil
}

// IndexCustomBook adds or replaces one custom book.
func (b *BleveIndex) IndexCustomBook(book *domain.CustomBook) error {
	doc := customBookDocument(book)
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Index(doc.ID, doc.toMap())
}

// IndexUser adds or replaces one user.
func (b *BleveIndex) IndexUser(user *domain.UserProfile) error {
	doc := userDocument(user)
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Index(doc.ID, doc.toMap())
}

// DocumentCount returns the number of indexed documents.
func (b *BleveIndex) DocumentCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Ping checks that the index answers.
func (b *BleveIndex) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.DocumentCount()
	return err
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}
