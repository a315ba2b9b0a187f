package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

func asConflict(err error, target **domain.ConflictError) bool {
	return errors.As(err, target)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// isCancellation reports whether err came from the caller's context
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
