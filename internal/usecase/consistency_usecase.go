package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
)

// ConsistencyUseCase verifies the two ledger invariants across all accounts:
// 0 <= frozen <= balance, and frozen equals the sum of PENDING freezes.
type ConsistencyUseCase struct {
	ledgerRepo LedgerRepository
	metrics    *metrics.Metrics
}

// NewConsistencyUseCase creates a new ConsistencyUseCase.
func NewConsistencyUseCase(ledgerRepo LedgerRepository, metrics *metrics.Metrics) *ConsistencyUseCase {
	return &ConsistencyUseCase{
		ledgerRepo: ledgerRepo,
		metrics:    metrics,
	}
}

// Discrepancy is one account that breaks an invariant.
type Discrepancy struct {
	AccountID     string
	Balance       decimal.Decimal
	FrozenBalance decimal.Decimal
	PendingSum    decimal.Decimal
	Reason        string
}

// ConsistencyReport represents a full consistency check.
type ConsistencyReport struct {
	TotalAccounts  int
	PendingFreezes int64
	TotalBalance   decimal.Decimal
	TotalFrozen    decimal.Decimal
	Discrepancies  []*Discrepancy
	Consistent     bool
	CheckedAt      time.Time
}

// CheckConsistency scans every account.
func (uc *ConsistencyUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totals, err := uc.ledgerRepo.FreezeTotals(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		TotalAccounts: len(totals),
		TotalBalance:  decimal.Zero,
		TotalFrozen:   decimal.Zero,
		Discrepancies: make([]*Discrepancy, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, t := range totals {
		report.PendingFreezes += t.PendingCount
		report.TotalBalance = report.TotalBalance.Add(t.Balance)
		report.TotalFrozen = report.TotalFrozen.Add(t.FrozenBalance)

		account := domain.Account{Balance: t.Balance, FrozenBalance: t.FrozenBalance}
		reason := ""
		switch {
		case account.CheckInvariant() != nil:
			reason = "frozen balance outside [0, balance]"
		case !t.FrozenBalance.Equal(t.PendingSum):
			reason = "frozen balance differs from pending freezes"
		}
		if reason == "" {
			continue
		}

		report.Discrepancies = append(report.Discrepancies, &Discrepancy{
			AccountID:     t.AccountID,
			Balance:       t.Balance,
			FrozenBalance: t.FrozenBalance,
			PendingSum:    t.PendingSum,
			Reason:        reason,
		})
	}

	report.Consistent = len(report.Discrepancies) == 0

	if uc.metrics != nil {
		uc.metrics.PendingFreezes.Set(float64(report.PendingFreezes))
	}

	return report, nil
}
