package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
	"github.com/iho/smsledger/internal/usecase/mocks"
)

func TestSettlement_RefundScenario(t *testing.T) {
	l := newTestLedger(t)
	l.fund("acc-1", 1000)

	f := l.freeze(t, "acc-1", 500, "activation:1")
	requireBalances(t, l.account(t, "acc-1"), 1000, 500)

	refunded, err := l.settlement.Refund(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if refunded.State != domain.FreezeStateRefunded || refunded.ResolvedAt == nil {
		t.Fatalf("expected REFUNDED with resolved_at, got %+v", refunded)
	}

	requireBalances(t, l.account(t, "acc-1"), 1000, 0)
	l.requireInvariants(t)
}

func TestSettlement_CommitScenario(t *testing.T) {
	l := newTestLedger(t)
	l.fund("acc-1", 1000)

	f := l.freeze(t, "acc-1", 500, "activation:1")

	committed, err := l.settlement.Commit(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if committed.State != domain.FreezeStateCommitted {
		t.Fatalf("expected COMMITTED, got %s", committed.State)
	}

	acc := l.account(t, "acc-1")
	requireBalances(t, acc, 500, 0)

	// balance and frozen moved together in one write
	entries, _ := l.entries.GetByFreeze(context.Background(), f.ID)
	if len(entries) != 2 {
		t.Fatalf("expected freeze and commit entries, got %d", len(entries))
	}
	commit := entries[1]
	if commit.Kind != domain.EntryKindCommit || !commit.BalanceAfter.Equal(decimal.NewFromInt(500)) || !commit.FrozenAfter.IsZero() {
		t.Fatalf("unexpected commit entry: %+v", commit)
	}
	if acc.Version != 2 {
		t.Fatalf("expected two account writes, got version %d", acc.Version)
	}

	l.requireInvariants(t)
}

func TestSettlement_Idempotence(t *testing.T) {
	for _, outcome := range []domain.Outcome{domain.OutcomeCommit, domain.OutcomeRefund} {
		t.Run(string(outcome), func(t *testing.T) {
			l := newTestLedger(t)
			l.fund("acc-1", 1000)
			f := l.freeze(t, "acc-1", 300, "activation:1")

			first, err := l.settlement.Resolve(context.Background(), f.ID, outcome)
			if err != nil {
				t.Fatalf("first resolve failed: %v", err)
			}
			after := l.account(t, "acc-1")
			events := len(l.outbox.EventTypes())

			second, err := l.settlement.Resolve(context.Background(), f.ID, outcome)
			if err != nil {
				t.Fatalf("repeat resolve must succeed, got %v", err)
			}

			if second.State != first.State || !second.ResolvedAt.Equal(*first.ResolvedAt) {
				t.Fatalf("expected the existing terminal record, got %+v", second)
			}

			again := l.account(t, "acc-1")
			if !again.Balance.Equal(after.Balance) || !again.FrozenBalance.Equal(after.FrozenBalance) || again.Version != after.Version {
				t.Fatalf("repeat resolve mutated the account: %+v -> %+v", after, again)
			}
			if len(l.outbox.EventTypes()) != events {
				t.Fatal("repeat resolve must not emit events")
			}
			l.requireInvariants(t)
		})
	}
}

func TestSettlement_ConflictingResolution(t *testing.T) {
	tests := []struct {
		name   string
		first  domain.Outcome
		second domain.Outcome
	}{
		{"commit after refund", domain.OutcomeRefund, domain.OutcomeCommit},
		{"refund after commit", domain.OutcomeCommit, domain.OutcomeRefund},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			l.fund("acc-1", 1000)
			f := l.freeze(t, "acc-1", 400, "activation:1")

			if _, err := l.settlement.Resolve(context.Background(), f.ID, tt.first); err != nil {
				t.Fatalf("first resolve failed: %v", err)
			}
			before := l.account(t, "acc-1")

			_, err := l.settlement.Resolve(context.Background(), f.ID, tt.second)
			if !errors.Is(err, domain.ErrConflictingResolution) {
				t.Fatalf("expected ErrConflictingResolution, got %v", err)
			}

			after := l.account(t, "acc-1")
			if !after.Balance.Equal(before.Balance) || !after.FrozenBalance.Equal(before.FrozenBalance) {
				t.Fatalf("conflict mutated the account: %+v -> %+v", before, after)
			}

			stored, _ := l.freezes.GetByID(context.Background(), f.ID)
			if stored.State != tt.first.TargetState() {
				t.Fatalf("conflict changed the freeze state to %s", stored.State)
			}

			if got := testutil.ToFloat64(l.metrics.ResolutionConflicts); got != 1 {
				t.Fatalf("expected conflict metric 1, got %v", got)
			}

			logs, _ := l.audit.List(context.Background(), domain.AuditFilter{ResourceID: f.ID})
			var conflicts int
			for _, log := range logs {
				if log.Status == domain.AuditStatusConflict {
					conflicts++
				}
			}
			if conflicts != 1 {
				t.Fatalf("expected one conflict audit row for review, got %d", conflicts)
			}

			types := l.outbox.EventTypes()
			if types[len(types)-1] != domain.EventTypeFreezeConflict {
				t.Fatalf("expected freeze.conflict event last, got %v", types)
			}

			l.requireInvariants(t)
		})
	}
}

func TestSettlement_NotFoundAndInvalidOutcome(t *testing.T) {
	l := newTestLedger(t)

	if _, err := l.settlement.Commit(context.Background(), "missing"); !errors.Is(err, domain.ErrFreezeNotFound) {
		t.Fatalf("expected ErrFreezeNotFound, got %v", err)
	}
	if _, err := l.settlement.Resolve(context.Background(), "missing", "cancel"); !errors.Is(err, domain.ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome, got %v", err)
	}
}

func TestSettlement_LostCompareAndSwapFollowsIdempotentRule(t *testing.T) {
	l := newTestLedger(t)
	l.fund("acc-1", 1000)
	f := l.freeze(t, "acc-1", 100, "activation:1")

	// Simulate a concurrent refund landing between the read and the CAS.
	l.freezes.TransitionStateFunc = func(ctx context.Context, tx usecase.Transaction, id string, target domain.FreezeState, reason domain.ResolutionReason, at time.Time) (bool, error) {
		l.freezes.TransitionStateFunc = nil
		stored, _ := l.freezes.GetByID(ctx, id)
		stored.State = domain.FreezeStateRefunded
		stored.ResolvedAt = &at
		l.freezes.Seed(stored)
		return false, nil
	}

	got, err := l.settlement.Refund(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("expected idempotent success, got %v", err)
	}
	if got.State != domain.FreezeStateRefunded {
		t.Fatalf("expected REFUNDED, got %s", got.State)
	}

	// Nothing was released by this call.
	requireBalances(t, l.account(t, "acc-1"), 1000, 100)
}

func TestSettlement_ConcurrentResolutionsApplyOnce(t *testing.T) {
	l := newTestLedger(t)
	l.fund("acc-1", 1000)
	f := l.freeze(t, "acc-1", 500, "activation:1")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
		conflicts int
	)

	wg.Add(20)
	for i := range 20 {
		go func() {
			defer wg.Done()
			outcome := domain.OutcomeCommit
			if i%2 == 1 {
				outcome = domain.OutcomeRefund
			}
			_, err := l.settlement.Resolve(context.Background(), f.ID, outcome)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case errors.Is(err, domain.ErrConflictingResolution):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if committed != 10 || conflicts != 10 {
		t.Fatalf("expected one side to win all 10 calls, got %d ok / %d conflicts", committed, conflicts)
	}

	stored, _ := l.freezes.GetByID(context.Background(), f.ID)
	acc := l.account(t, "acc-1")
	if stored.State == domain.FreezeStateCommitted {
		requireBalances(t, acc, 500, 0)
	} else {
		requireBalances(t, acc, 1000, 0)
	}
	l.requireInvariants(t)
}

func TestSettlement_ResolveByPurposeRef(t *testing.T) {
	l := newTestLedger(t)
	l.fund("acc-1", 1000)
	f := l.freeze(t, "acc-1", 100, "rental:77")

	got, err := l.settlement.ResolveByPurposeRef(context.Background(), "rental:77", domain.OutcomeCommit, domain.ReasonCallback)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != f.ID || got.ResolutionReason != domain.ReasonCallback {
		t.Fatalf("unexpected freeze: %+v", got)
	}

	if _, err := l.settlement.ResolveByPurposeRef(context.Background(), "rental:unknown", domain.OutcomeCommit, domain.ReasonCallback); !errors.Is(err, domain.ErrFreezeNotFound) {
		t.Fatalf("expected ErrFreezeNotFound, got %v", err)
	}
}

func TestSettlement_RetriesTransientStoreErrors(t *testing.T) {
	txManager, accounts, freezes, entries, outbox, audit := mocks.NewLedgerStore()
	idGen := mocks.NewMockIDGenerator()
	store := usecase.NewAccountStore(accounts, entries, idGen)

	deadlock := &pgconn.PgError{Code: "40P01"}
	retrier := &mocks.MockRetrier{Attempts: 3, RetryOn: deadlock}
	settlement := usecase.NewSettlementUseCase(txManager, retrier, store, freezes, outbox, audit, idGen, nil, zerolog.Nop())

	now := time.Now().UTC()
	accounts.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), FrozenBalance: decimal.NewFromInt(40)})
	freezes.Seed(&domain.Freeze{ID: "frz-1", AccountID: "acc-1", Amount: decimal.NewFromInt(40), PurposeRef: "activation:1", State: domain.FreezeStatePending, ExpiresAt: now.Add(time.Minute), CreatedAt: now})

	failures := 2
	accounts.UpdateBalancesFunc = func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
		if failures > 0 {
			failures--
			return deadlock
		}
		accounts.UpdateBalancesFunc = nil
		return accounts.UpdateBalances(ctx, tx, account)
	}

	got, err := settlement.Refund(context.Background(), "frz-1")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got.State != domain.FreezeStateRefunded {
		t.Fatalf("expected REFUNDED, got %s", got.State)
	}
	if retrier.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", retrier.Calls())
	}

	acc, _ := accounts.GetByID(context.Background(), "acc-1")
	requireBalances(t, acc, 100, 0)
}

func TestSettlement_RetryExhaustionSurfacesTransientStore(t *testing.T) {
	txManager, accounts, freezes, entries, outbox, audit := mocks.NewLedgerStore()
	idGen := mocks.NewMockIDGenerator()
	store := usecase.NewAccountStore(accounts, entries, idGen)

	deadlock := &pgconn.PgError{Code: "40P01"}
	retrier := &mocks.MockRetrier{Attempts: 2, RetryOn: deadlock}
	settlement := usecase.NewSettlementUseCase(txManager, retrier, store, freezes, outbox, audit, idGen, nil, zerolog.Nop())

	now := time.Now().UTC()
	accounts.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), FrozenBalance: decimal.NewFromInt(40)})
	freezes.Seed(&domain.Freeze{ID: "frz-1", AccountID: "acc-1", Amount: decimal.NewFromInt(40), PurposeRef: "activation:1", State: domain.FreezeStatePending, ExpiresAt: now.Add(time.Minute), CreatedAt: now})

	accounts.UpdateBalancesFunc = func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
		return deadlock
	}

	_, err := settlement.Commit(context.Background(), "frz-1")
	if !errors.Is(err, domain.ErrTransientStore) {
		t.Fatalf("expected ErrTransientStore, got %v", err)
	}

	stored, _ := freezes.GetByID(context.Background(), "frz-1")
	if stored.State != domain.FreezeStatePending {
		t.Fatalf("failed commit must leave the freeze PENDING, got %s", stored.State)
	}
	acc, _ := accounts.GetByID(context.Background(), "acc-1")
	requireBalances(t, acc, 100, 40)
}
