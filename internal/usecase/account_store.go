package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
)

// AccountStore is the only code allowed to change Balance or FrozenBalance.
// Every method runs inside the caller's transaction, locks the account row,
// re-checks 0 <= frozen <= balance before persisting and journals the change.
type AccountStore struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(accountRepo AccountRepository, entryRepo EntryRepository, idGen IDGenerator) *AccountStore {
	return &AccountStore{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
	}
}

// GetAccount reads an account outside of any transaction.
func (s *AccountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// AdjustFrozen moves FrozenBalance by delta. A positive delta reserves funds
// for freezeID, a negative one releases them.
func (s *AccountStore) AdjustFrozen(ctx context.Context, tx Transaction, id string, delta decimal.Decimal, freezeID string) (*domain.Account, error) {
	kind := domain.EntryKindFreeze
	if delta.IsNegative() {
		kind = domain.EntryKindRefund
	}

	return s.mutate(ctx, tx, id, kind, delta.Abs(), freezeID, func(a *domain.Account) error {
		return a.AdjustFrozen(delta)
	})
}

// CommitBalance permanently removes amount from Balance.
func (s *AccountStore) CommitBalance(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, freezeID string) (*domain.Account, error) {
	return s.mutate(ctx, tx, id, domain.EntryKindCommit, amount, freezeID, func(a *domain.Account) error {
		return a.CommitBalance(amount)
	})
}

// Capture settles a freeze: the amount leaves Balance and is released from
// FrozenBalance in a single write.
func (s *AccountStore) Capture(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, freezeID string) (*domain.Account, error) {
	return s.mutate(ctx, tx, id, domain.EntryKindCommit, amount, freezeID, func(a *domain.Account) error {
		if err := a.CommitBalance(amount); err != nil {
			return err
		}
		return a.AdjustFrozen(amount.Neg())
	})
}

// Deposit records externally received funds.
func (s *AccountStore) Deposit(ctx context.Context, tx Transaction, id string, amount decimal.Decimal) (*domain.Account, error) {
	return s.mutate(ctx, tx, id, domain.EntryKindDeposit, amount, "", func(a *domain.Account) error {
		return a.Deposit(amount)
	})
}

func (s *AccountStore) mutate(
	ctx context.Context,
	tx Transaction,
	id string,
	kind domain.EntryKind,
	amount decimal.Decimal,
	freezeID string,
	apply func(*domain.Account) error,
) (*domain.Account, error) {
	current, err := s.accountRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := apply(next); err != nil {
		return nil, err
	}

	if err := next.CheckInvariant(); err != nil {
		return nil, fmt.Errorf("account %s after %s: %w", id, kind, err)
	}

	now := time.Now().UTC()
	next.Version = current.Version + 1
	next.UpdatedAt = now

	if err := s.accountRepo.UpdateBalances(ctx, tx, next); err != nil {
		return nil, err
	}

	entry := &domain.AccountEntry{
		ID:             s.idGen.Generate(),
		AccountID:      id,
		FreezeID:       freezeID,
		Kind:           kind,
		Amount:         amount,
		BalanceAfter:   next.Balance,
		FrozenAfter:    next.FrozenBalance,
		AccountVersion: next.Version,
		CreatedAt:      now,
	}
	if err := s.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	return next, nil
}
