package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string          `json:"id"`
	Balance       decimal.Decimal `json:"balance"`
	FrozenBalance decimal.Decimal `json:"frozen_balance"`
	Available     decimal.Decimal `json:"available"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		Balance:       a.Balance,
		FrozenBalance: a.FrozenBalance,
		Available:     a.Available(),
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse is a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// FreezeResponse represents a freeze in API responses.
type FreezeResponse struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	Amount           decimal.Decimal `json:"amount"`
	PurposeRef       string          `json:"purpose_ref"`
	Kind             string          `json:"kind"`
	State            string          `json:"state"`
	ResolutionReason string          `json:"resolution_reason,omitempty"`
	ExpiresAt        time.Time       `json:"expires_at"`
	CreatedAt        time.Time       `json:"created_at"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
}

// FreezeFromDomain converts domain freeze to response.
func FreezeFromDomain(f *domain.Freeze) *FreezeResponse {
	return &FreezeResponse{
		ID:               f.ID,
		AccountID:        f.AccountID,
		Amount:           f.Amount,
		PurposeRef:       f.PurposeRef,
		Kind:             string(f.Kind),
		State:            string(f.State),
		ResolutionReason: string(f.ResolutionReason),
		ExpiresAt:        f.ExpiresAt,
		CreatedAt:        f.CreatedAt,
		ResolvedAt:       f.ResolvedAt,
	}
}

// FreezesFromDomain converts domain freezes to responses.
func FreezesFromDomain(freezes []*domain.Freeze) []*FreezeResponse {
	result := make([]*FreezeResponse, len(freezes))
	for i, f := range freezes {
		result[i] = FreezeFromDomain(f)
	}
	return result
}

// EntryResponse represents a journal entry in API responses.
type EntryResponse struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	FreezeID       string          `json:"freeze_id,omitempty"`
	Kind           string          `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	FrozenAfter    decimal.Decimal `json:"frozen_after"`
	AccountVersion int64           `json:"account_version"`
	CreatedAt      time.Time       `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.AccountEntry) *EntryResponse {
	return &EntryResponse{
		ID:             e.ID,
		AccountID:      e.AccountID,
		FreezeID:       e.FreezeID,
		Kind:           string(e.Kind),
		Amount:         e.Amount,
		BalanceAfter:   e.BalanceAfter,
		FrozenAfter:    e.FrozenAfter,
		AccountVersion: e.AccountVersion,
		CreatedAt:      e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.AccountEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// SweepResponse summarises one expiry pass.
type SweepResponse struct {
	Processed           int                    `json:"processed"`
	RefundedTotalAmount decimal.Decimal        `json:"refunded_total_amount"`
	Errors              int                    `json:"errors"`
	Skipped             int                    `json:"skipped"`
	Failures            []usecase.SweepFailure `json:"failures,omitempty"`
	StartedAt           time.Time              `json:"started_at"`
	FinishedAt          time.Time              `json:"finished_at"`
}

// SweepFromReport converts a sweep report.
func SweepFromReport(r *usecase.SweepReport) *SweepResponse {
	return &SweepResponse{
		Processed:           r.Processed,
		RefundedTotalAmount: r.RefundedTotalAmount,
		Errors:              r.Errors,
		Skipped:             r.Skipped,
		Failures:            r.Failures,
		StartedAt:           r.StartedAt,
		FinishedAt:          r.FinishedAt,
	}
}

// PurchaseResponse is the result of POST /purchases.
type PurchaseResponse struct {
	Freeze      *FreezeResponse `json:"freeze"`
	Pending     bool            `json:"pending"`
	ExternalID  string          `json:"external_id,omitempty"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// PurchaseFromOutcome converts a purchase outcome.
func PurchaseFromOutcome(o *usecase.PurchaseOutcome) *PurchaseResponse {
	resp := &PurchaseResponse{
		Freeze:  FreezeFromDomain(o.Freeze),
		Pending: o.Pending,
	}
	if o.Result != nil {
		resp.ExternalID = o.Result.ExternalID
		resp.PhoneNumber = o.Result.PhoneNumber
		resp.Message = o.Result.Message
	}
	return resp
}

// DiscrepancyResponse is one inconsistent account.
type DiscrepancyResponse struct {
	AccountID     string          `json:"account_id"`
	Balance       decimal.Decimal `json:"balance"`
	FrozenBalance decimal.Decimal `json:"frozen_balance"`
	PendingSum    decimal.Decimal `json:"pending_sum"`
	Reason        string          `json:"reason"`
}

// ConsistencyResponse is the ledger invariant report.
type ConsistencyResponse struct {
	Consistent     bool                   `json:"consistent"`
	TotalAccounts  int                    `json:"total_accounts"`
	PendingFreezes int64                  `json:"pending_freezes"`
	TotalBalance   decimal.Decimal        `json:"total_balance"`
	TotalFrozen    decimal.Decimal        `json:"total_frozen"`
	Discrepancies  []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt      time.Time              `json:"checked_at"`
}

// ConsistencyFromReport converts a consistency report.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	resp := &ConsistencyResponse{
		Consistent:     r.Consistent,
		TotalAccounts:  r.TotalAccounts,
		PendingFreezes: r.PendingFreezes,
		TotalBalance:   r.TotalBalance,
		TotalFrozen:    r.TotalFrozen,
		Discrepancies:  make([]*DiscrepancyResponse, len(r.Discrepancies)),
		CheckedAt:      r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &DiscrepancyResponse{
			AccountID:     d.AccountID,
			Balance:       d.Balance,
			FrozenBalance: d.FrozenBalance,
			PendingSum:    d.PendingSum,
			Reason:        d.Reason,
		}
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}
