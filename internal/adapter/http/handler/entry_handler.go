package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/smsledger/internal/adapter/http/dto"
	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

// EntryService reads the balance journal.
type EntryService interface {
	GetEntriesByAccount(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.AccountEntry, error)
	GetEntriesByFreeze(ctx context.Context, freezeID string) ([]*domain.AccountEntry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// ListByAccount lists entries for an account.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entryUC.GetEntriesByAccount(r.Context(), usecase.GetEntriesByAccountInput{
		AccountID: chi.URLParam(r, "id"),
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// ListByFreeze lists the entries a freeze produced.
func (h *EntryHandler) ListByFreeze(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entryUC.GetEntriesByFreeze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
