package usecase

import (
	"context"
	"time"

	"github.com/iho/smsledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// UpdateBalances persists Balance and FrozenBalance, bumping Version.
	UpdateBalances(ctx context.Context, tx Transaction, account *domain.Account) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// FreezeRepository defines data access for freezes.
type FreezeRepository interface {
	// Create returns domain.ErrDuplicateReservation when a PENDING freeze
	// with the same purpose ref already exists.
	Create(ctx context.Context, tx Transaction, freeze *domain.Freeze) error
	GetByID(ctx context.Context, id string) (*domain.Freeze, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Freeze, error)
	GetPendingByPurposeRef(ctx context.Context, tx Transaction, purposeRef string) (*domain.Freeze, error)
	// GetLatestByPurposeRef prefers the PENDING freeze, then the most recent terminal one.
	GetLatestByPurposeRef(ctx context.Context, purposeRef string) (*domain.Freeze, error)
	// TransitionState moves a PENDING freeze to target. It reports false when
	// the row was no longer PENDING.
	TransitionState(ctx context.Context, tx Transaction, id string, target domain.FreezeState, reason domain.ResolutionReason, resolvedAt time.Time) (bool, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Freeze, error)
	// ListExpiredPending pages PENDING freezes with expires_at < now ordered by id, starting after afterID.
	ListExpiredPending(ctx context.Context, now time.Time, afterID string, limit int) ([]*domain.Freeze, error)
}

// EntryRepository defines data access for the account journal.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.AccountEntry) error
	GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AccountEntry, error)
	GetByFreeze(ctx context.Context, freezeID string) ([]*domain.AccountEntry, error)
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	// FreezeTotals returns, per account, its balances and the sum of its PENDING freezes.
	FreezeTotals(ctx context.Context) ([]*domain.FreezeTotals, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
	// CountUnpublished reports the relay backlog.
	CountUnpublished(ctx context.Context) (int64, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient store errors (deadlocks,
// serialization failures).
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique, lexicographically sortable IDs.
type IDGenerator interface {
	Generate() string
}

// ProviderGateway is the upstream SMS-number provider.
type ProviderGateway interface {
	// AttemptPurchase performs the purchase. It honours ctx deadlines and
	// returns domain.ErrProviderTimeout when no answer arrived in time.
	AttemptPurchase(ctx context.Context, spec domain.PurchaseSpec) (domain.PurchaseResult, error)
	// CheckStatus reports the provider-side state of an earlier attempt.
	CheckStatus(ctx context.Context, purposeRef string) (domain.ProviderStatus, error)
}

// ClaimStore hands out short-lived best-effort claims on work items.
type ClaimStore interface {
	// Claim reports whether the caller obtained the claim on key.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release forgets key so the request can be retried.
	Release(ctx context.Context, key string) error
}
