// Package store is the document persistence layer of Readerboard on top of badger.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v4"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// Collection names. They match the original document layout so migrated
// data keeps its keys.
const (
	usersCollection       = "users"
	userBooksCollection   = "userBooks"
	booksCollection       = "books"
	customBooksCollection = "custom_books"
	countersCollection    = "counters"

	logsSubcollection  = "logs"
	likesSubcollection = "likes"

	usersCounterID = "users"
)

// DefaultTxnRetries is how often a conflicting transaction is retried.
const DefaultTxnRetries = 5

// Options configures a Store.
type Options struct {
	// InMemory opens badger without touching disk. Path is ignored.
	InMemory bool
	// TxnRetries bounds retries of transactions that lose a write conflict.
	TxnRetries int
	// Clock overrides time.Now for timestamps.
	Clock func() time.Time
}

// Store wraps a badger database holding JSON documents.
type Store struct {
	db         *badger.DB
	logger     *slog.Logger
	now        func() time.Time
	txnRetries int

	users       *Entity[domain.UserProfile]
	userBooks   *Entity[domain.UserBook]
	books       *Entity[domain.Book]
	customBooks *Entity[domain.CustomBook]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger, opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil // badger's own logging is too chatty
	bopts.SyncWrites = !opts.InMemory
	bopts.CompactL0OnClose = true

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:         db,
		logger:     logger,
		now:        time.Now,
		txnRetries: opts.TxnRetries,
	}
	if opts.Clock != nil {
		s.now = opts.Clock
	}
	if s.txnRetries <= 0 {
		s.txnRetries = DefaultTxnRetries
	}

	s.initEntities()

	if logger != nil {
		logger.Info("Badger database opened", "path", path, "in_memory", opts.InMemory)
	}

	return s, nil
}

// initEntities wires the collections and their field indexes.
func (s *Store) initEntities() {
	s.users = NewEntity[domain.UserProfile](s, usersCollection)
	s.userBooks = NewEntity[domain.UserBook](s, userBooksCollection).
		WithIndex(userFidIndex, func(ub *domain.UserBook) []string {
			if ub.UserFID == 0 {
				return nil
			}
			return []string{fidKey(ub.UserFID)}
		}).
		WithIndex(bookKeyIndex, func(ub *domain.UserBook) []string {
			bookID := domain.NormalizeBookKey(ub.BookKey)
			if bookID == "" {
				return nil
			}
			return []string{bookID}
		})
	s.books = NewEntity[domain.Book](s, booksCollection)
	s.customBooks = NewEntity[domain.CustomBook](s, customBooksCollection)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping verifies the database answers a read transaction.
func (s *Store) Ping(ctx context.Context) error {
	return s.view(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(docKey(countersCollection, usersCounterID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// update runs fn in a read-write transaction. Transactions that lose an
// optimistic conflict are retried with exponential backoff, so fn must not
// have side effects outside txn.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newTxnBackOff(), uint64(s.txnRetries)),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			if s.logger != nil {
				s.logger.Debug("transaction conflict, retrying", "attempt", attempt)
			}
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, policy)

	return translateTxnError(err)
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func newTxnBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return b
}

func translateTxnError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrTxnTooBig):
		return ErrTxnTooBig.WithCause(err)
	case errors.Is(err, badger.ErrConflict):
		return ErrConflict.WithCause(err)
	default:
		return err
	}
}
