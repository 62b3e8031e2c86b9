package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
)

func beginMockTx(t *testing.T, pool pgxmock.PgxPoolIface) *Tx {
	t.Helper()

	pool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	tx, err := newTxManagerWithPool(pool).WithLockTimeout(0).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	return tx.(*Tx)
}

func TestFreezeRepositoryTransitionState(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "pending row moves", affected: 1, want: true},
		{name: "already resolved", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			tx := beginMockTx(t, pool)

			resolvedAt := time.Now().UTC()
			pool.ExpectExec("UPDATE freezes").
				WithArgs("frz-1", "REFUNDED", "expired", pgxmock.AnyArg()).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			repo := NewFreezeRepository(pool)
			got, err := repo.TransitionState(context.Background(), tx, "frz-1", domain.FreezeStateRefunded, domain.ReasonExpired, resolvedAt)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected swapped=%v, got %v", tt.want, got)
			}

			assertExpectations(t, pool)
		})
	}
}

func TestFreezeRepositoryCreateMapsPendingDuplicate(t *testing.T) {
	pool := newMockPool(t)
	tx := beginMockTx(t, pool)

	pool.ExpectExec("INSERT INTO freezes").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintPendingPurposeRef})

	now := time.Now().UTC()
	err := NewFreezeRepository(pool).Create(context.Background(), tx, &domain.Freeze{
		ID:         "frz-1",
		AccountID:  "acc-1",
		Amount:     decimal.NewFromInt(10),
		PurposeRef: "activation:1",
		Kind:       domain.OperationKindActivation,
		State:      domain.FreezeStatePending,
		ExpiresAt:  now.Add(time.Minute),
		CreatedAt:  now,
	})
	if !errors.Is(err, domain.ErrDuplicateReservation) {
		t.Fatalf("expected ErrDuplicateReservation, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryUpdateBalances(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		wantErr  error
	}{
		{name: "updated", affected: 1},
		{name: "missing row", affected: 0, wantErr: domain.ErrAccountNotFound},
		{
			name:    "check constraint",
			execErr: &pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: constraintFrozenInBalance},
			wantErr: domain.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			tx := beginMockTx(t, pool)

			exp := pool.ExpectExec("UPDATE accounts").
				WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(2), pgxmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))
			}

			err := NewAccountRepository(pool).UpdateBalances(context.Background(), tx, &domain.Account{
				ID:            "acc-1",
				Balance:       decimal.NewFromInt(100),
				FrozenBalance: decimal.NewFromInt(40),
				Version:       2,
				UpdatedAt:     time.Now().UTC(),
			})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			assertExpectations(t, pool)
		})
	}
}

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "account exists", err: &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintAccountsPkey}, want: domain.ErrAccountExists},
		{name: "unknown account", err: &pgconn.PgError{Code: pgErrForeignKeyViolation}, want: domain.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapPgError(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	deadlock := &pgconn.PgError{Code: pgErrDeadlock}
	if got := mapPgError(deadlock); got != deadlock {
		t.Fatalf("retryable errors must pass through unchanged, got %v", got)
	}
	if mapPgError(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "12.5", "0.01", "1000000", "-3.25"} {
		d := decimal.RequireFromString(s)
		if got := numericToDecimal(decimalToNumeric(d)); !got.Equal(d) {
			t.Errorf("%s: got %s", s, got)
		}
	}
}
