package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/smsledger/internal/adapter/http/dto"
	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

type reservationStub struct {
	freezeFn func(ctx context.Context, input usecase.FreezeInput) (*domain.Freeze, error)
	getFn    func(ctx context.Context, id string) (*domain.Freeze, error)
	listFn   func(ctx context.Context, input usecase.ListFreezesByAccountInput) ([]*domain.Freeze, error)
}

func (s *reservationStub) Freeze(ctx context.Context, input usecase.FreezeInput) (*domain.Freeze, error) {
	return s.freezeFn(ctx, input)
}

func (s *reservationStub) GetFreeze(ctx context.Context, id string) (*domain.Freeze, error) {
	return s.getFn(ctx, id)
}

func (s *reservationStub) ListFreezesByAccount(ctx context.Context, input usecase.ListFreezesByAccountInput) ([]*domain.Freeze, error) {
	return s.listFn(ctx, input)
}

type settlementStub struct {
	resolveFn func(ctx context.Context, freezeID string, outcome domain.Outcome) (*domain.Freeze, error)
}

func (s *settlementStub) Resolve(ctx context.Context, freezeID string, outcome domain.Outcome) (*domain.Freeze, error) {
	return s.resolveFn(ctx, freezeID, outcome)
}

func pendingFreeze() *domain.Freeze {
	return &domain.Freeze{
		ID:         "frz-1",
		AccountID:  "acc-1",
		Amount:     decimal.NewFromInt(3),
		PurposeRef: "activation:1",
		Kind:       domain.OperationKindActivation,
		State:      domain.FreezeStatePending,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func TestFreezeHandler_Reserve(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		freezeErr  error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       `{"account_id":"acc-1","amount":"3","purpose_ref":"activation:1","ttl_seconds":300}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "insufficient funds",
			body:       `{"account_id":"acc-1","amount":"3","purpose_ref":"activation:1"}`,
			freezeErr:  domain.ErrInsufficientFunds,
			wantStatus: http.StatusConflict,
			wantCode:   "insufficient_funds",
		},
		{
			name:       "duplicate reservation",
			body:       `{"account_id":"acc-1","amount":"3","purpose_ref":"activation:1"}`,
			freezeErr:  domain.ErrDuplicateReservation,
			wantStatus: http.StatusConflict,
			wantCode:   "duplicate_reservation",
		},
		{
			name:       "missing purpose ref",
			body:       `{"account_id":"acc-1","amount":"3"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured usecase.FreezeInput
			h := NewFreezeHandler(&reservationStub{
				freezeFn: func(ctx context.Context, input usecase.FreezeInput) (*domain.Freeze, error) {
					captured = input
					if tt.freezeErr != nil {
						return nil, tt.freezeErr
					}
					return pendingFreeze(), nil
				},
			}, nil)

			req := httptest.NewRequest(http.MethodPost, "/reserve", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Reserve(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantCode, resp.Code)
				return
			}

			assert.Equal(t, 5*time.Minute, captured.TTL)
			var resp dto.FreezeResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "PENDING", resp.State)
		})
	}
}

func TestFreezeHandler_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		resolveErr error
		wantStatus int
		wantCode   string
	}{
		{name: "commit", body: `{"freeze_id":"frz-1","outcome":"commit"}`, wantStatus: http.StatusOK},
		{
			name:       "conflict",
			body:       `{"freeze_id":"frz-1","outcome":"commit"}`,
			resolveErr: &domain.ConflictError{FreezeID: "frz-1", Current: domain.FreezeStateRefunded, Requested: domain.FreezeStateCommitted},
			wantStatus: http.StatusConflict,
			wantCode:   "conflicting_resolution",
		},
		{
			name:       "not found",
			body:       `{"freeze_id":"frz-x","outcome":"refund"}`,
			resolveErr: domain.ErrFreezeNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "freeze_not_found",
		},
		{name: "bad outcome", body: `{"freeze_id":"frz-1","outcome":"void"}`, wantStatus: http.StatusBadRequest, wantCode: "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewFreezeHandler(nil, &settlementStub{
				resolveFn: func(ctx context.Context, freezeID string, outcome domain.Outcome) (*domain.Freeze, error) {
					if tt.resolveErr != nil {
						return nil, tt.resolveErr
					}
					f := pendingFreeze()
					f.State = outcome.TargetState()
					return f, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/resolve", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Resolve(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantCode, resp.Code)
				return
			}

			var resp dto.FreezeResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "COMMITTED", resp.State)
		})
	}
}

func TestFreezeHandler_GetAndList(t *testing.T) {
	h := NewFreezeHandler(&reservationStub{
		getFn: func(ctx context.Context, id string) (*domain.Freeze, error) {
			if id == "frz-1" {
				return pendingFreeze(), nil
			}
			return nil, domain.ErrFreezeNotFound
		},
		listFn: func(ctx context.Context, input usecase.ListFreezesByAccountInput) ([]*domain.Freeze, error) {
			assert.Equal(t, "acc-1", input.AccountID)
			assert.Equal(t, 5, input.Limit)
			return []*domain.Freeze{pendingFreeze()}, nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	h.Get(rec, setChiURLParam(httptest.NewRequest(http.MethodGet, "/freezes/frz-1", nil), "id", "frz-1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Get(rec, setChiURLParam(httptest.NewRequest(http.MethodGet, "/freezes/nope", nil), "id", "nope"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ListByAccount(rec, setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/freezes?limit=5", nil), "id", "acc-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []dto.FreezeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}
