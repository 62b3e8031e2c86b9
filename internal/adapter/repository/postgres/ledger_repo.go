package postgres

import (
	"context"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// FreezeTotals returns every account with the sum of its PENDING freezes.
func (r *LedgerRepository) FreezeTotals(ctx context.Context) ([]*domain.FreezeTotals, error) {
	rows, err := r.queries.GetFreezeTotals(ctx)
	if err != nil {
		return nil, err
	}

	totals := make([]*domain.FreezeTotals, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, &domain.FreezeTotals{
			AccountID:     row.AccountID,
			Balance:       numericToDecimal(row.Balance),
			FrozenBalance: numericToDecimal(row.FrozenBalance),
			PendingSum:    numericToDecimal(row.PendingSum),
			PendingCount:  row.PendingCount,
		})
	}

	return totals, nil
}
