package service

import (
	"context"
	"errors"

	domainerrors "github.com/readerboard/readerboard-server/internal/errors"
	"github.com/readerboard/readerboard-server/internal/store"
)

// mapStoreError converts a store failure into a domain error the API layer
// can render. msg is used when the store error carries no message of its
// own. Context errors pass through unchanged.
func mapStoreError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		message := storeErr.Message
		if message == "" {
			message = msg
		}
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domainerrors.Wrap(err, domainerrors.CodeNotFound, message)
		case errors.Is(err, store.ErrInvalidInput):
			return domainerrors.Wrap(err, domainerrors.CodeValidation, message)
		case errors.Is(err, store.ErrConflict):
			return domainerrors.Wrap(err, domainerrors.CodeConflict, message)
		case errors.Is(err, store.ErrTxnTooBig):
			return domainerrors.Wrap(err, domainerrors.CodeTooLarge, message)
		}
	}

	return domainerrors.Wrap(err, domainerrors.CodeInternal, msg)
}
