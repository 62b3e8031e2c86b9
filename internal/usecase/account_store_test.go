package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

// withTx runs fn in a transaction of the test ledger, committing on success.
func (l *testLedger) withTx(t *testing.T, fn func(tx usecase.Transaction) error) error {
	t.Helper()

	ctx := context.Background()
	tx, err := l.txManager.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func TestAccountStore_AdjustFrozen(t *testing.T) {
	tests := []struct {
		name       string
		delta      int64
		wantErr    error
		wantFrozen int64
	}{
		{name: "reserve within balance", delta: 400, wantFrozen: 500},
		{name: "reserve the rest", delta: 900, wantFrozen: 1000},
		{name: "reserve beyond balance", delta: 901, wantErr: domain.ErrInsufficientFunds, wantFrozen: 100},
		{name: "release", delta: -100, wantFrozen: 0},
		{name: "release more than frozen", delta: -101, wantErr: domain.ErrInsufficientFunds, wantFrozen: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			l.accounts.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(1000), FrozenBalance: decimal.NewFromInt(100)})

			err := l.withTx(t, func(tx usecase.Transaction) error {
				_, err := l.store.AdjustFrozen(context.Background(), tx, "acc-1", decimal.NewFromInt(tt.delta), "frz-1")
				return err
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			requireBalances(t, l.account(t, "acc-1"), 1000, tt.wantFrozen)
		})
	}
}

func TestAccountStore_JournalsEveryChange(t *testing.T) {
	l := newTestLedger(t)
	l.fund("acc-1", 0)
	ctx := context.Background()

	err := l.withTx(t, func(tx usecase.Transaction) error {
		if _, err := l.store.Deposit(ctx, tx, "acc-1", decimal.NewFromInt(500)); err != nil {
			return err
		}
		if _, err := l.store.AdjustFrozen(ctx, tx, "acc-1", decimal.NewFromInt(200), "frz-1"); err != nil {
			return err
		}
		_, err := l.store.Capture(ctx, tx, "acc-1", decimal.NewFromInt(200), "frz-1")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acc := l.account(t, "acc-1")
	requireBalances(t, acc, 300, 0)
	if acc.Version != 3 {
		t.Errorf("expected version 3, got %d", acc.Version)
	}

	entries, _ := l.entries.GetByAccount(ctx, "acc-1", 10, 0)
	wantKinds := []domain.EntryKind{domain.EntryKindCommit, domain.EntryKindFreeze, domain.EntryKindDeposit}
	if len(entries) != len(wantKinds) {
		t.Fatalf("expected %d entries, got %d", len(wantKinds), len(entries))
	}
	for i, kind := range wantKinds {
		if entries[i].Kind != kind {
			t.Errorf("entry %d: expected %s, got %s", i, kind, entries[i].Kind)
		}
	}
	if !entries[0].BalanceAfter.Equal(decimal.NewFromInt(300)) || entries[0].AccountVersion != 3 {
		t.Errorf("unexpected capture entry: %+v", entries[0])
	}
	if entries[2].FreezeID != "" {
		t.Errorf("deposit must not reference a freeze, got %q", entries[2].FreezeID)
	}
}

func TestAccountStore_CommitBalanceLeavesFrozen(t *testing.T) {
	l := newTestLedger(t)
	l.accounts.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(1000), FrozenBalance: decimal.NewFromInt(100)})
	ctx := context.Background()

	err := l.withTx(t, func(tx usecase.Transaction) error {
		if _, err := l.store.CommitBalance(ctx, tx, "acc-1", decimal.NewFromInt(100), "frz-1"); err != nil {
			return err
		}
		_, err := l.store.AdjustFrozen(ctx, tx, "acc-1", decimal.NewFromInt(-100), "frz-1")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireBalances(t, l.account(t, "acc-1"), 900, 0)

	// committing below the frozen amount would break frozen <= balance
	err = l.withTx(t, func(tx usecase.Transaction) error {
		if _, err := l.store.AdjustFrozen(ctx, tx, "acc-1", decimal.NewFromInt(900), "frz-2"); err != nil {
			return err
		}
		_, err := l.store.CommitBalance(ctx, tx, "acc-1", decimal.NewFromInt(1), "frz-3")
		return err
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	requireBalances(t, l.account(t, "acc-1"), 900, 0)
}

func TestAccountStore_UnknownAccount(t *testing.T) {
	l := newTestLedger(t)

	err := l.withTx(t, func(tx usecase.Transaction) error {
		_, err := l.store.Deposit(context.Background(), tx, "missing", decimal.NewFromInt(1))
		return err
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
