package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/readerboard/readerboard-server/internal/domain"
)

// ToggleLike flips whether likerFID likes the review relID and returns the
// new state. The like record and the parent's likeCount change in the same
// transaction, so likeCount always equals the number of like records.
func (s *Store) ToggleLike(ctx context.Context, relID string, likerFID int64) (bool, error) {
	if err := checkRelationshipID(relID); err != nil {
		return false, err
	}
	if likerFID <= 0 {
		return false, ErrInvalidInput.WithMessage("liker fid must be positive")
	}
	likeKey := subDocKey(userBooksCollection, relID, likesSubcollection, fidKey(likerFID))

	liked := false
	err := s.update(ctx, func(txn *badger.Txn) error {
		review, err := s.userBooks.getTxn(txn, relID)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound.WithMessage("review not found")
		}
		if err != nil {
			return err
		}

		_, err = txn.Get(likeKey)
		switch {
		case err == nil:
			if err := txn.Delete(likeKey); err != nil {
				return err
			}
			liked = false
			_, err = s.userBooks.mergeTxn(txn, relID, Fields{
				"likeCount": max(review.LikeCount-1, 0),
			})
			return err

		case errors.Is(err, badger.ErrKeyNotFound):
			data, err := json.Marshal(domain.Like{LikerFID: likerFID, LikedAt: s.now()})
			if err != nil {
				return err
			}
			if err := txn.Set(likeKey, data); err != nil {
				return err
			}
			liked = true
			_, err = s.userBooks.mergeTxn(txn, relID, Fields{
				"likeCount": review.LikeCount + 1,
			})
			return err

		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("toggling like on %s: %w", relID, err)
	}
	return liked, nil
}

// CheckLikeStatus reports whether likerFID currently likes relID.
func (s *Store) CheckLikeStatus(ctx context.Context, relID string, likerFID int64) (bool, error) {
	if err := checkRelationshipID(relID); err != nil {
		return false, err
	}
	key := buildKey(userBooksCollection, relID, likesSubcollection, fidKey(likerFID))
	defer releaseKey(key)

	found := false
	err := s.view(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking like on %s: %w", relID, err)
	}
	return found, nil
}

// GetLikes returns the like records of a review.
func (s *Store) GetLikes(ctx context.Context, relID string) ([]*domain.Like, error) {
	if err := checkRelationshipID(relID); err != nil {
		return nil, err
	}
	var likes []*domain.Like
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		likes, err = listSubDocsTxn[domain.Like](txn, subCollectionPrefix(userBooksCollection, relID, likesSubcollection))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing likes of %s: %w", relID, err)
	}
	return likes, nil
}
