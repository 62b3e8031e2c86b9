package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iho/smsledger/internal/adapter/http/dto"
	"github.com/iho/smsledger/internal/domain"
)

// maxBodyBytes bounds request bodies; every payload here is a handful of fields.
const maxBodyBytes = 64 << 10

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// writeDomainError maps err and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Code:    "validation_failed",
			Message: "request validation failed",
			Details: verr.Fields,
		})
		return
	}

	status, code := mapDomainError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeError(w, status, code, message)
}

// mapDomainError maps domain errors to an HTTP status and a machine code.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, domain.ErrDuplicateReservation):
		return http.StatusConflict, "duplicate_reservation"
	case errors.Is(err, domain.ErrConflictingResolution):
		return http.StatusConflict, "conflicting_resolution"
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, "account_exists"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "account_not_found"
	case errors.Is(err, domain.ErrFreezeNotFound):
		return http.StatusNotFound, "freeze_not_found"
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooSmall),
		errors.Is(err, domain.ErrAmountTooLarge):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, domain.ErrInvalidPurposeRef):
		return http.StatusBadRequest, "invalid_purpose_ref"
	case errors.Is(err, domain.ErrInvalidAccountID):
		return http.StatusBadRequest, "invalid_account_id"
	case errors.Is(err, domain.ErrInvalidKind):
		return http.StatusBadRequest, "invalid_kind"
	case errors.Is(err, domain.ErrInvalidOutcome):
		return http.StatusBadRequest, "invalid_outcome"
	case errors.Is(err, domain.ErrInvalidExpiry):
		return http.StatusBadRequest, "invalid_expiry"
	case errors.Is(err, domain.ErrProviderTimeout):
		return http.StatusGatewayTimeout, "provider_timeout"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway, "provider_unavailable"
	case errors.Is(err, domain.ErrTransientStore):
		return http.StatusServiceUnavailable, "transient_store"
	case errors.Is(err, domain.ErrExpiredToken), errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeAndValidate reads a JSON body into req and runs its validation tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := dto.Validate(req); err != nil {
		writeDomainError(w, err)
		return false
	}
	return true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
