package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/smsledger/internal/adapter/http/dto"
	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

// ReservationService freezes funds and reads freezes.
type ReservationService interface {
	Freeze(ctx context.Context, input usecase.FreezeInput) (*domain.Freeze, error)
	GetFreeze(ctx context.Context, id string) (*domain.Freeze, error)
	ListFreezesByAccount(ctx context.Context, input usecase.ListFreezesByAccountInput) ([]*domain.Freeze, error)
}

// SettlementService resolves freezes.
type SettlementService interface {
	Resolve(ctx context.Context, freezeID string, outcome domain.Outcome) (*domain.Freeze, error)
}

// FreezeHandler serves /reserve, /resolve and freeze reads.
type FreezeHandler struct {
	reservations ReservationService
	settlement   SettlementService
}

// NewFreezeHandler creates a new FreezeHandler.
func NewFreezeHandler(reservations ReservationService, settlement SettlementService) *FreezeHandler {
	return &FreezeHandler{reservations: reservations, settlement: settlement}
}

// Reserve freezes funds for a purpose ref.
func (h *FreezeHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req dto.ReserveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	freeze, err := h.reservations.Freeze(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.FreezeFromDomain(freeze))
}

// Resolve commits or refunds a freeze. Repeating the same outcome returns
// the freeze unchanged with 200.
func (h *FreezeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := domain.ParseOutcome(req.Outcome)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	freeze, err := h.settlement.Resolve(r.Context(), req.FreezeID, outcome)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FreezeFromDomain(freeze))
}

// Get returns one freeze.
func (h *FreezeHandler) Get(w http.ResponseWriter, r *http.Request) {
	freeze, err := h.reservations.GetFreeze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FreezeFromDomain(freeze))
}

// ListByAccount lists an account's freezes, newest first.
func (h *FreezeHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	freezes, err := h.reservations.ListFreezesByAccount(r.Context(), usecase.ListFreezesByAccountInput{
		AccountID: chi.URLParam(r, "id"),
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FreezesFromDomain(freezes))
}
