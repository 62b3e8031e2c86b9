package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PurchaseSpec is what the ledger asks an upstream SMS provider to deliver.
type PurchaseSpec struct {
	PurposeRef string
	Kind       OperationKind
	Service    string
	Country    string
	MaxPrice   decimal.Decimal
}

// PurchaseResult is the provider's definitive answer.
type PurchaseResult struct {
	Success     bool
	ExternalID  string
	PhoneNumber string
	Message     string
}

// ProviderStatus is what CheckStatus reports about an earlier attempt.
type ProviderStatus string

const (
	ProviderStatusPending   ProviderStatus = "pending"
	ProviderStatusSucceeded ProviderStatus = "succeeded"
	ProviderStatusFailed    ProviderStatus = "failed"
	ProviderStatusExpired   ProviderStatus = "expired"
)

// ParseProviderStatus validates a status reported by a provider.
func ParseProviderStatus(s string) (ProviderStatus, error) {
	switch ProviderStatus(s) {
	case ProviderStatusPending, ProviderStatusSucceeded, ProviderStatusFailed, ProviderStatusExpired:
		return ProviderStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown provider status %q", ErrInvalidOutcome, s)
	}
}

// Outcome maps a final provider status to a resolution.
// ok is false while the provider has not decided yet.
func (s ProviderStatus) Outcome() (Outcome, bool) {
	switch s {
	case ProviderStatusSucceeded:
		return OutcomeCommit, true
	case ProviderStatusFailed, ProviderStatusExpired:
		return OutcomeRefund, true
	default:
		return "", false
	}
}
