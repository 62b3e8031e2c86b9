package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind is the balance movement an entry records.
type EntryKind string

const (
	EntryKindDeposit EntryKind = "deposit"
	EntryKindFreeze  EntryKind = "freeze"
	EntryKindCommit  EntryKind = "commit"
	EntryKindRefund  EntryKind = "refund"
)

// AccountEntry is one journal row written alongside every balance mutation.
// It snapshots both balances after the change so history can be replayed.
type AccountEntry struct {
	ID             string
	AccountID      string
	FreezeID       string // empty for deposits
	Kind           EntryKind
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	FrozenAfter    decimal.Decimal
	AccountVersion int64
	CreatedAt      time.Time
}
