package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/postgres/generated"
	"github.com/iho/smsledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
	}
}

// Create creates a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.AccountEntry) error {
	return txQueries(tx).CreateEntry(ctx, generated.CreateEntryParams{
		ID:             entry.ID,
		AccountID:      entry.AccountID,
		FreezeID:       pgtype.Text{String: entry.FreezeID, Valid: entry.FreezeID != ""},
		Kind:           string(entry.Kind),
		Amount:         decimalToNumeric(entry.Amount),
		BalanceAfter:   decimalToNumeric(entry.BalanceAfter),
		FrozenAfter:    decimalToNumeric(entry.FrozenAfter),
		AccountVersion: entry.AccountVersion,
		CreatedAt:      timeToPgTimestamptz(entry.CreatedAt),
	})
}

// GetByAccount retrieves entries by account ID, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AccountEntry, error) {
	rows, err := r.queries.ListEntriesByAccount(ctx, generated.ListEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// GetByFreeze retrieves the entries a freeze caused, oldest first.
func (r *EntryRepository) GetByFreeze(ctx context.Context, freezeID string) ([]*domain.AccountEntry, error) {
	rows, err := r.queries.ListEntriesByFreeze(ctx, pgtype.Text{String: freezeID, Valid: true})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

func rowsToEntries(rows []generated.AccountEntry) []*domain.AccountEntry {
	entries := make([]*domain.AccountEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &domain.AccountEntry{
			ID:             row.ID,
			AccountID:      row.AccountID,
			FreezeID:       row.FreezeID.String,
			Kind:           domain.EntryKind(row.Kind),
			Amount:         numericToDecimal(row.Amount),
			BalanceAfter:   numericToDecimal(row.BalanceAfter),
			FrozenAfter:    numericToDecimal(row.FrozenAfter),
			AccountVersion: row.AccountVersion,
			CreatedAt:      row.CreatedAt.Time,
		})
	}
	return entries
}
