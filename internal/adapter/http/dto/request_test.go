package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/usecase"
)

func TestReserveRequest_ToUseCaseInput(t *testing.T) {
	deadline := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		request     *ReserveRequest
		want        usecase.FreezeInput
		expectError bool
	}{
		{
			name: "ttl seconds",
			request: &ReserveRequest{
				AccountID:  "acc-1",
				Amount:     "12.34",
				PurposeRef: "activation:1",
				Kind:       "activation",
				TTLSeconds: 600,
			},
			want: usecase.FreezeInput{
				AccountID:  "acc-1",
				Amount:     decimal.RequireFromString("12.34"),
				PurposeRef: "activation:1",
				Kind:       domain.OperationKindActivation,
				TTL:        10 * time.Minute,
			},
		},
		{
			name: "explicit deadline",
			request: &ReserveRequest{
				AccountID:  "acc-1",
				Amount:     "5",
				PurposeRef: "rental:9",
				Kind:       "rental",
				ExpiresAt:  &deadline,
			},
			want: usecase.FreezeInput{
				AccountID:  "acc-1",
				Amount:     decimal.RequireFromString("5"),
				PurposeRef: "rental:9",
				Kind:       domain.OperationKindRental,
				ExpiresAt:  deadline,
			},
		},
		{
			name:        "invalid amount",
			request:     &ReserveRequest{Amount: "bad"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToUseCaseInput()
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Amount.Equal(got.Amount))
			got.Amount = tt.want.Amount
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPurchaseRequest_ToUseCaseInput(t *testing.T) {
	req := &PurchaseRequest{
		ReserveRequest: ReserveRequest{AccountID: "acc-1", Amount: "0.75", PurposeRef: "activation:7"},
		Service:        "telegram",
		Country:        "de",
	}

	got, err := req.ToUseCaseInput()
	require.NoError(t, err)
	assert.Equal(t, "telegram", got.Service)
	assert.Equal(t, "de", got.Country)
	assert.Equal(t, "activation:7", got.PurposeRef)
	assert.True(t, decimal.RequireFromString("0.75").Equal(got.Amount))
}

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	got, err := (&CreateAccountRequest{ID: "wallet-1", InitialDeposit: "100"}).ToUseCaseInput()
	require.NoError(t, err)
	assert.Equal(t, "wallet-1", got.ID)
	assert.True(t, decimal.NewFromInt(100).Equal(got.InitialDeposit))

	got, err = (&CreateAccountRequest{}).ToUseCaseInput()
	require.NoError(t, err)
	assert.True(t, got.InitialDeposit.IsZero())
}

func TestValidate(t *testing.T) {
	deadline := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		request    any
		wantFields []string
	}{
		{
			name:    "valid reserve",
			request: &ReserveRequest{AccountID: "a", Amount: "1.5", PurposeRef: "activation:1"},
		},
		{
			name:       "missing reserve fields",
			request:    &ReserveRequest{},
			wantFields: []string{"account_id", "amount", "purpose_ref"},
		},
		{
			name:       "unknown kind and non numeric amount",
			request:    &ReserveRequest{AccountID: "a", Amount: "ten", PurposeRef: "x", Kind: "subscription"},
			wantFields: []string{"amount", "kind"},
		},
		{
			name:       "deadline and ttl together",
			request:    &ReserveRequest{AccountID: "a", Amount: "1", PurposeRef: "x", ExpiresAt: &deadline, TTLSeconds: 60},
			wantFields: []string{"ttl_seconds"},
		},
		{
			name:       "bad outcome",
			request:    &ResolveRequest{FreezeID: "frz-1", Outcome: "cancel"},
			wantFields: []string{"outcome"},
		},
		{
			name:       "bad callback status",
			request:    &ProviderCallbackRequest{PurposeRef: "activation:1", Status: "done"},
			wantFields: []string{"status"},
		},
		{
			name:       "purchase needs service",
			request:    &PurchaseRequest{ReserveRequest: ReserveRequest{AccountID: "a", Amount: "1", PurposeRef: "x"}},
			wantFields: []string{"service"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.request)
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.wantFields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Len(t, verr.Fields, len(tt.wantFields))
		})
	}
}
