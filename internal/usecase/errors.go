package usecase

import (
	"context"
	"errors"

	"github.com/iho/smsledger/internal/domain"
)

// errorType turns an error into a low-cardinality metric label.
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrDuplicateReservation):
		return "duplicate_reservation"
	case errors.Is(err, domain.ErrConflictingResolution):
		return "conflicting_resolution"
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrFreezeNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTransientStore):
		return "transient_store"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "context"
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPurposeRef),
		errors.Is(err, domain.ErrInvalidAccountID),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidExpiry),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrAmountTooSmall):
		return "validation"
	default:
		return "internal"
	}
}
