package usecase

import (
	"context"

	"github.com/iho/smsledger/internal/domain"
)

// EntryUseCase reads the account journal. Lookups of an unknown account or
// freeze fail with the matching not-found error instead of an empty page.
type EntryUseCase struct {
	entryRepo   EntryRepository
	accountRepo AccountRepository
	freezeRepo  FreezeRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(entryRepo EntryRepository, accountRepo AccountRepository, freezeRepo FreezeRepository) *EntryUseCase {
	return &EntryUseCase{
		entryRepo:   entryRepo,
		accountRepo: accountRepo,
		freezeRepo:  freezeRepo,
	}
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// GetEntriesByAccount lists entries for an account, newest first.
func (uc *EntryUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.AccountEntry, error) {
	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.entryRepo.GetByAccount(ctx, input.AccountID, limit, offset)
}

// GetEntriesByFreeze lists the balance movements caused by one freeze: the
// freeze entry and, once resolved, its commit or refund.
func (uc *EntryUseCase) GetEntriesByFreeze(ctx context.Context, freezeID string) ([]*domain.AccountEntry, error) {
	if _, err := uc.freezeRepo.GetByID(ctx, freezeID); err != nil {
		return nil, err
	}

	return uc.entryRepo.GetByFreeze(ctx, freezeID)
}
