package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// The migrations below each run as one transaction over the whole users
// collection. badger bounds a transaction's size; past that bound they fail
// with ErrTxnTooBig and write nothing, and would need to become paginated
// batch jobs.

// profileRow is the part of a stored profile the migrations order by.
type profileRow struct {
	fid       int64
	createdAt time.Time
	doc       rawDocument
}

// BackfillSequenceNumbers gives every profile without a goodsID the next
// sequence number, oldest profile first, and advances the allocator.
// A second run finds nothing to do and writes nothing.
func (s *Store) BackfillSequenceNumbers(ctx context.Context) (*domain.BackfillResult, error) {
	result := &domain.BackfillResult{}

	err := s.update(ctx, func(txn *badger.Txn) error {
		*result = domain.BackfillResult{}

		rows, err := s.profileRowsTxn(txn)
		if err != nil {
			return err
		}
		pending := slices.DeleteFunc(rows, func(r profileRow) bool {
			return r.doc.Fields["goodsID"] != nil
		})
		if len(pending) == 0 {
			result.Message = "No users need backfill"
			return nil
		}
		sortChronologically(pending)

		next, err := s.readSequenceTxn(txn)
		if err != nil {
			return err
		}
		for _, r := range pending {
			next++
			if err := s.users.patchRawTxn(txn, r.doc, Fields{"goodsID": next}); err != nil {
				return err
			}
		}
		if err := s.setSequenceTxn(txn, next); err != nil {
			return err
		}

		result.Count = len(pending)
		result.LastID = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("backfilling sequence numbers: %w", err)
	}
	return result, nil
}

// RemoveLegacyField deletes field from every profile that still has it.
// A second run reports zero removals.
func (s *Store) RemoveLegacyField(ctx context.Context, field string) (*domain.RemoveFieldResult, error) {
	if field == "" {
		return nil, ErrInvalidInput.WithMessage("field is required")
	}
	result := &domain.RemoveFieldResult{Field: field}

	err := s.update(ctx, func(txn *badger.Txn) error {
		result.Removed, result.Scanned = 0, 0

		docs, err := s.users.listRawTxn(txn)
		if err != nil {
			return err
		}
		result.Scanned = len(docs)

		for _, d := range docs {
			if _, ok := d.Fields[field]; !ok {
				continue
			}
			if err := s.users.patchRawTxn(txn, d, Fields{}.Delete(field)); err != nil {
				return err
			}
			result.Removed++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("removing field %q: %w", field, err)
	}
	return result, nil
}

// ResetSequenceNumbers pins the identities in mapping to fixed sequence
// numbers, renumbers everyone else contiguously after the largest pinned
// number in join order, and sets the allocator to the largest number used.
// Every earlier goodsID is overwritten.
func (s *Store) ResetSequenceNumbers(ctx context.Context, mapping map[int64]int64) (*domain.ResetResult, error) {
	var maxPinned int64
	for _, v := range mapping {
		if v < 0 {
			return nil, ErrInvalidInput.WithMessage("mapped sequence numbers must not be negative")
		}
		maxPinned = max(maxPinned, v)
	}
	if err := checkDistinct(mapping); err != nil {
		return nil, err
	}

	result := &domain.ResetResult{}
	err := s.update(ctx, func(txn *badger.Txn) error {
		*result = domain.ResetResult{}

		rows, err := s.profileRowsTxn(txn)
		if err != nil {
			return err
		}
		result.TotalUsers = len(rows)

		var rest []profileRow
		for _, r := range rows {
			pinned, ok := mapping[r.fid]
			if !ok {
				rest = append(rest, r)
				continue
			}
			if err := s.users.patchRawTxn(txn, r.doc, Fields{"goodsID": pinned}); err != nil {
				return err
			}
			result.ManualAssignments++
		}

		sortChronologically(rest)
		maxID := maxPinned
		next := maxPinned + 1
		for _, r := range rest {
			if err := s.users.patchRawTxn(txn, r.doc, Fields{"goodsID": next}); err != nil {
				return err
			}
			maxID = next
			next++
		}
		result.AutoAssignments = len(rest)
		result.MaxID = maxID

		return s.setSequenceTxn(txn, maxID)
	})
	if err != nil {
		return nil, fmt.Errorf("resetting sequence numbers: %w", err)
	}
	return result, nil
}

func (s *Store) profileRowsTxn(txn *badger.Txn) ([]profileRow, error) {
	docs, err := s.users.listRawTxn(txn)
	if err != nil {
		return nil, err
	}
	rows := make([]profileRow, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, profileRow{
			fid:       rowFID(d),
			createdAt: rowCreatedAt(d.Fields["createdAt"]),
			doc:       d,
		})
	}
	return rows, nil
}

// sortChronologically orders rows by creation time, then fid. Rows without
// a creation time sort first, as the oldest.
func sortChronologically(rows []profileRow) {
	slices.SortFunc(rows, func(a, b profileRow) int {
		if c := a.createdAt.Compare(b.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(a.fid, b.fid)
	})
}

func rowFID(d rawDocument) int64 {
	if n, ok := d.Fields["fid"].(json.Number); ok {
		if fid, err := n.Int64(); err == nil {
			return fid
		}
	}
	fid, _ := strconv.ParseInt(d.ID, 10, 64)
	return fid
}

// rowCreatedAt parses a stored creation time. Missing or unparsable
// values give the zero time.
func rowCreatedAt(v any) time.Time {
	raw, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func checkDistinct(mapping map[int64]int64) error {
	seen := make(map[int64]bool, len(mapping))
	for _, fid := range slices.Sorted(maps.Keys(mapping)) {
		v := mapping[fid]
		if seen[v] {
			return ErrInvalidInput.WithMessage("mapped sequence numbers must be distinct")
		}
		seen[v] = true
	}
	return nil
}
