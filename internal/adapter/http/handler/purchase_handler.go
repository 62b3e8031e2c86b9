package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/smsledger/internal/adapter/http/dto"
	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

// PurchaseService runs purchases and applies provider answers.
type PurchaseService interface {
	Purchase(ctx context.Context, input usecase.PurchaseInput) (*usecase.PurchaseOutcome, error)
	HandleProviderCallback(ctx context.Context, purposeRef string, status domain.ProviderStatus) (*domain.Freeze, error)
	ReconcileFreeze(ctx context.Context, freezeID string) (*domain.Freeze, error)
}

// PurchaseHandler handles purchases, provider callbacks and reconciles.
type PurchaseHandler struct {
	purchases PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(purchases PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// Purchase answers 201 when the freeze was settled and 202 while it waits
// for the provider.
func (h *PurchaseHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req dto.PurchaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	outcome, err := h.purchases.Purchase(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			writeError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error())
			return
		}
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if outcome.Pending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, dto.PurchaseFromOutcome(outcome))
}

// Callback applies a provider webhook. Redeliveries answer 200 with the
// current freeze.
func (h *PurchaseHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req dto.ProviderCallbackRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	status, err := domain.ParseProviderStatus(req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	freeze, err := h.purchases.HandleProviderCallback(r.Context(), req.PurposeRef, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FreezeFromDomain(freeze))
}

// Reconcile polls the provider for a freeze and resolves it when final.
func (h *PurchaseHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	freeze, err := h.purchases.ReconcileFreeze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FreezeFromDomain(freeze))
}
