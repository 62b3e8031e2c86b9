package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountExists     = errors.New("account already exists")

	// Freeze errors
	ErrFreezeNotFound        = errors.New("freeze not found")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidOutcome        = errors.New("invalid resolution outcome")
	ErrConflictingResolution = errors.New("conflicting resolution")
	ErrDuplicateReservation  = errors.New("a pending freeze already exists for this purpose")
	ErrInvalidExpiry         = errors.New("freeze deadline must be in the future")

	// Infrastructure errors
	ErrProviderTimeout     = errors.New("provider did not answer in time")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrTransientStore      = errors.New("transient store error, retry later")
)
