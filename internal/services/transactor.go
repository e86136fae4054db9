package services

import (
	"context"
	"errors"
	"time"

	"barbershop_backend/internal/loyalty"
	"barbershop_backend/internal/repositories"
)

// Transactor runs fn as one atomic unit: every repository write made through exec commits together or not at all.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// notFoundOr maps a repository ErrNotFound to a loyalty NotFoundError and passes everything else through.
func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return loyalty.NotFoundError(format, args...)
	}
	return err
}

// conflictOr maps an optimistic-lock failure to a loyalty ConflictError.
func conflictOr(err error, clientID int64) error {
	if errors.Is(err, repositories.ErrVersionConflict) {
		return loyalty.ConflictError("client %d was modified concurrently", clientID)
	}
	return err
}
