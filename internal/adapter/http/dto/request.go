package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	ID             string `json:"id"              validate:"omitempty,max=64"`
	InitialDeposit string `json:"initial_deposit" validate:"omitempty,numeric"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	input := usecase.CreateAccountInput{ID: r.ID}
	if r.InitialDeposit != "" {
		amount, err := parseAmount(r.InitialDeposit)
		if err != nil {
			return usecase.CreateAccountInput{}, err
		}
		input.InitialDeposit = amount
	}
	return input, nil
}

// DepositRequest credits an account.
type DepositRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

// ParseAmount returns the deposit amount.
func (r *DepositRequest) ParseAmount() (decimal.Decimal, error) {
	return parseAmount(r.Amount)
}

// ReserveRequest freezes funds for one purchase or rental. Either expires_at
// or ttl_seconds may be given; neither means the default TTL.
type ReserveRequest struct {
	AccountID  string     `json:"account_id"  validate:"required,max=64"`
	Amount     string     `json:"amount"      validate:"required,numeric"`
	PurposeRef string     `json:"purpose_ref" validate:"required,max=128"`
	Kind       string     `json:"kind"        validate:"omitempty,oneof=activation rental"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	TTLSeconds int        `json:"ttl_seconds" validate:"omitempty,min=1,max=2592000,excluded_with=ExpiresAt"`
}

// ToUseCaseInput converts to use case input.
func (r *ReserveRequest) ToUseCaseInput() (usecase.FreezeInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.FreezeInput{}, err
	}

	input := usecase.FreezeInput{
		AccountID:  r.AccountID,
		Amount:     amount,
		PurposeRef: r.PurposeRef,
		Kind:       domain.OperationKind(r.Kind),
		TTL:        time.Duration(r.TTLSeconds) * time.Second,
	}
	if r.ExpiresAt != nil {
		input.ExpiresAt = *r.ExpiresAt
	}
	return input, nil
}

// ResolveRequest commits or refunds a freeze.
type ResolveRequest struct {
	FreezeID string `json:"freeze_id" validate:"required"`
	Outcome  string `json:"outcome"   validate:"required,oneof=commit refund"`
}

// PurchaseRequest runs the whole reserve, provider, settle flow.
type PurchaseRequest struct {
	ReserveRequest
	Service string `json:"service" validate:"required,max=64"`
	Country string `json:"country" validate:"omitempty,max=8"`
}

// ToUseCaseInput converts to use case input.
func (r *PurchaseRequest) ToUseCaseInput() (usecase.PurchaseInput, error) {
	freeze, err := r.ReserveRequest.ToUseCaseInput()
	if err != nil {
		return usecase.PurchaseInput{}, err
	}
	return usecase.PurchaseInput{
		AccountID:  freeze.AccountID,
		Amount:     freeze.Amount,
		PurposeRef: freeze.PurposeRef,
		Kind:       freeze.Kind,
		Service:    r.Service,
		Country:    r.Country,
		ExpiresAt:  freeze.ExpiresAt,
		TTL:        freeze.TTL,
	}, nil
}

// ProviderCallbackRequest is the provider webhook body.
type ProviderCallbackRequest struct {
	PurposeRef string `json:"purpose_ref" validate:"required,max=128"`
	Status     string `json:"status"      validate:"required,oneof=pending succeeded failed expired"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a decimal", domain.ErrInvalidAmount, s)
	}
	return amount, nil
}
