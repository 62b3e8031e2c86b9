package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultFreezeTTL is used when a reservation carries no deadline.
	DefaultFreezeTTL = 15 * time.Minute

	// DefaultProviderTimeout bounds a single purchase attempt.
	DefaultProviderTimeout = 30 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
