package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/readerboard/readerboard-server/internal/domain"
	"github.com/readerboard/readerboard-server/internal/id"
)

// AddLog appends a reading log entry to a relationship. Unless the entry is
// skipped, the relationship's lastPageRead is then moved to the entry's page.
//
// The append and the pointer update are separate writes. If the second one
// fails the entry is still returned: the log is the history of record and
// lastPageRead is only a cache of its latest non-skipped page.
func (s *Store) AddLog(ctx context.Context, fid int64, bookKey string, in domain.LogEntryInput) (*domain.ReadingLog, error) {
	if !in.Unit.Valid() {
		return nil, ErrInvalidInput.WithMessage("invalid unit")
	}
	relID, err := relationshipIDOf(fid, bookKey)
	if err != nil {
		return nil, err
	}

	logID, err := id.Auto()
	if err != nil {
		return nil, err
	}
	entry := &domain.ReadingLog{
		ID:       logID,
		Page:     in.Page,
		Thoughts: in.Thoughts,
		Unit:     in.Unit,
		Skipped:  in.Skipped,
		Date:     s.now(),
	}

	err = s.update(ctx, func(txn *badger.Txn) error {
		found, err := s.userBooks.existsTxn(txn, relID)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound.WithMessage("relationship not found")
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return txn.Set(subDocKey(userBooksCollection, relID, logsSubcollection, logID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("adding log to %s: %w", relID, err)
	}

	if entry.Skipped {
		return entry, nil
	}

	if err := s.moveProgressPointer(ctx, relID, entry); err != nil && s.logger != nil {
		s.logger.Warn("log saved but progress pointer not updated",
			"relationship_id", relID,
			"log_id", logID,
			"error", err,
		)
	}
	return entry, nil
}

// moveProgressPointer sets lastPageRead from a log entry. A relationship
// deleted since the entry was appended is left deleted.
func (s *Store) moveProgressPointer(ctx context.Context, relID string, entry *domain.ReadingLog) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		found, err := s.userBooks.existsTxn(txn, relID)
		if err != nil {
			return err
		}
		if !found {
			if s.logger != nil {
				s.logger.Info("relationship deleted before progress update",
					"relationship_id", relID,
					"log_id", entry.ID,
				)
			}
			return nil
		}
		_, err = s.userBooks.mergeTxn(txn, relID, Fields{
			"lastPageRead": entry.Page,
			"updatedAt":    entry.Date,
		})
		return err
	})
}

// GetLogs returns a relationship's reading log, oldest first. Entries with
// the same timestamp are ordered by id.
func (s *Store) GetLogs(ctx context.Context, fid int64, bookKey string) ([]*domain.ReadingLog, error) {
	relID, err := relationshipIDOf(fid, bookKey)
	if err != nil {
		return nil, err
	}

	var logs []*domain.ReadingLog
	err = s.view(ctx, func(txn *badger.Txn) error {
		var err error
		logs, err = listSubDocsTxn[domain.ReadingLog](txn, subCollectionPrefix(userBooksCollection, relID, logsSubcollection))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing logs of %s: %w", relID, err)
	}

	slices.SortFunc(logs, func(a, b *domain.ReadingLog) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return logs, nil
}

// listSubDocsTxn decodes every document directly under prefix.
func listSubDocsTxn[T any](txn *badger.Txn, prefix []byte) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = true

	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*T
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if !isDirectChild(item.Key(), prefix) {
			continue
		}
		v := new(T)
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		}); err != nil {
			return nil, fmt.Errorf("decode %s: %w", item.Key(), err)
		}
		out = append(out, v)
	}
	return out, nil
}
