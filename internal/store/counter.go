package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// counterDoc is the singleton high-water mark of allocated sequence numbers.
type counterDoc struct {
	Count int64 `json:"count"`
}

// NextSequence allocates the next user sequence number. The read and the
// increment happen in one transaction, so concurrent callers never observe
// the same count.
func (s *Store) NextSequence(ctx context.Context) (int64, error) {
	var next int64
	err := s.update(ctx, func(txn *badger.Txn) error {
		var err error
		next, err = s.nextSequenceTxn(txn)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("allocating sequence number: %w", err)
	}
	return next, nil
}

// CurrentSequence returns the allocator's high-water mark (0 if unset).
func (s *Store) CurrentSequence(ctx context.Context) (int64, error) {
	var count int64
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		count, err = s.readSequenceTxn(txn)
		return err
	})
	return count, err
}

// nextSequenceTxn allocates inside the caller's transaction. The number only
// becomes visible if that transaction commits, so a failed caller leaks nothing.
func (s *Store) nextSequenceTxn(txn *badger.Txn) (int64, error) {
	count, err := s.readSequenceTxn(txn)
	if err != nil {
		return 0, err
	}
	next := count + 1
	if err := s.setSequenceTxn(txn, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Store) readSequenceTxn(txn *badger.Txn) (int64, error) {
	item, err := txn.Get(counterKey(usersCounterID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}

	var c counterDoc
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &c)
	}); err != nil {
		return 0, fmt.Errorf("decode counter: %w", err)
	}
	return c.Count, nil
}

func (s *Store) setSequenceTxn(txn *badger.Txn, count int64) error {
	data, err := json.Marshal(counterDoc{Count: count})
	if err != nil {
		return err
	}
	return txn.Set(counterKey(usersCounterID), data)
}
