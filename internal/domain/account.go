package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a user wallet. Balance is the total owned; FrozenBalance is the
// sum of outstanding freezes. 0 <= FrozenBalance <= Balance must always hold.
type Account struct {
	ID            string
	Balance       decimal.Decimal
	FrozenBalance decimal.Decimal
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Available returns the funds that can still be frozen.
func (a *Account) Available() decimal.Decimal {
	return a.Balance.Sub(a.FrozenBalance)
}

// CheckInvariant reports whether the balance pair is consistent.
func (a *Account) CheckInvariant() error {
	if a.FrozenBalance.IsNegative() || a.FrozenBalance.GreaterThan(a.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// AdjustFrozen moves FrozenBalance by delta.
func (a *Account) AdjustFrozen(delta decimal.Decimal) error {
	next := a.FrozenBalance.Add(delta)
	if next.IsNegative() || next.GreaterThan(a.Balance) {
		return ErrInsufficientFunds
	}
	a.FrozenBalance = next
	return nil
}

// CommitBalance permanently removes amount from Balance.
// FrozenBalance is left for the caller to release.
func (a *Account) CommitBalance(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(a.Balance) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Deposit adds externally received funds.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// Clone returns a copy safe to mutate.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// FreezeTotals pairs an account's stored balances with the sum of its
// PENDING freezes, as read by the consistency check.
type FreezeTotals struct {
	AccountID     string
	Balance       decimal.Decimal
	FrozenBalance decimal.Decimal
	PendingSum    decimal.Decimal
	PendingCount  int64
}
