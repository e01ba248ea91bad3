package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-engine-api/internal/models"
	"github.com/noah-isme/booking-engine-api/internal/repository"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
)

// txRunner runs read-decide-write sequences inside one transaction.
type txRunner interface {
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
	Lock(ctx context.Context, exec sqlx.ExtContext, keys ...string) error
}

// storageError maps infrastructure failures onto the retryable taxonomy.
// Typed application errors pass through unchanged.
func storageError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case repository.IsTxAborted(err):
		return appErrors.Wrap(err, appErrors.ErrTxAborted.Code, appErrors.ErrTxAborted.Status, appErrors.ErrTxAborted.Message)
	case repository.IsUnavailable(err):
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, appErrors.ErrUnavailable.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

// notFoundOr returns a NOT_FOUND error for missing rows and a storage error otherwise.
func notFoundOr(err error, what, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return storageError(err, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func refKeys(refs []models.ResourceRef) []string {
	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = ref.Key()
	}
	return keys
}
