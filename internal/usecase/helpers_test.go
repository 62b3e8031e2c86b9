package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
	"github.com/iho/smsledger/internal/usecase"
	"github.com/iho/smsledger/internal/usecase/mocks"
)

// testLedger wires the real usecases over in-memory repositories that
// honour transactions.
type testLedger struct {
	txManager *mocks.MockTransactionManager
	accounts  *mocks.MockAccountRepository
	freezes   *mocks.MockFreezeRepository
	entries   *mocks.MockEntryRepository
	outbox    *mocks.MockOutboxRepository
	audit     *mocks.MockAuditRepository
	ledger    *mocks.MockLedgerRepository
	idGen     *mocks.MockIDGenerator
	metrics   *metrics.Metrics

	store        *usecase.AccountStore
	reservations *usecase.ReservationUseCase
	settlement   *usecase.SettlementUseCase
	consistency  *usecase.ConsistencyUseCase
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()

	txManager, accounts, freezes, entries, outbox, audit := mocks.NewLedgerStore()
	l := &testLedger{
		txManager: txManager,
		accounts:  accounts,
		freezes:   freezes,
		entries:   entries,
		outbox:    outbox,
		audit:     audit,
		ledger:    mocks.NewMockLedgerRepository(accounts, freezes),
		idGen:     mocks.NewMockIDGenerator(),
		metrics:   metrics.NewWithRegisterer(prometheus.NewRegistry()),
	}

	logger := zerolog.Nop()
	l.store = usecase.NewAccountStore(accounts, entries, l.idGen)
	l.reservations = usecase.NewReservationUseCase(txManager, nil, l.store, freezes, outbox, audit, l.idGen, l.metrics, logger, time.Minute)
	l.settlement = usecase.NewSettlementUseCase(txManager, nil, l.store, freezes, outbox, audit, l.idGen, l.metrics, logger)
	l.consistency = usecase.NewConsistencyUseCase(l.ledger, l.metrics)

	return l
}

func (l *testLedger) fund(id string, balance int64) {
	now := time.Now().UTC()
	l.accounts.Seed(&domain.Account{
		ID:            id,
		Balance:       decimal.NewFromInt(balance),
		FrozenBalance: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (l *testLedger) account(t *testing.T, id string) *domain.Account {
	t.Helper()

	acc, err := l.accounts.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load account %s: %v", id, err)
	}
	return acc
}

func (l *testLedger) freeze(t *testing.T, accountID string, amount int64, purposeRef string) *domain.Freeze {
	t.Helper()

	f, err := l.reservations.Freeze(context.Background(), usecase.FreezeInput{
		AccountID:  accountID,
		Amount:     decimal.NewFromInt(amount),
		PurposeRef: purposeRef,
	})
	if err != nil {
		t.Fatalf("freeze %s failed: %v", purposeRef, err)
	}
	return f
}

// requireInvariants checks 0 <= frozen <= balance and frozen == sum(PENDING)
// for every account.
func (l *testLedger) requireInvariants(t *testing.T) {
	t.Helper()

	report, err := l.consistency.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("consistency check failed: %v", err)
	}
	if !report.Consistent {
		for _, d := range report.Discrepancies {
			t.Errorf("account %s: %s (balance=%s frozen=%s pending=%s)", d.AccountID, d.Reason, d.Balance, d.FrozenBalance, d.PendingSum)
		}
		t.FailNow()
	}
}

func requireBalances(t *testing.T, acc *domain.Account, balance, frozen int64) {
	t.Helper()

	if !acc.Balance.Equal(decimal.NewFromInt(balance)) || !acc.FrozenBalance.Equal(decimal.NewFromInt(frozen)) {
		t.Fatalf("expected balance=%d frozen=%d, got balance=%s frozen=%s", balance, frozen, acc.Balance, acc.FrozenBalance)
	}
}
