package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/auth"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConsistencyCommand(t *testing.T) {
	t.Run("passes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/ledger/consistency", r.URL.Path)
			_, _ = w.Write([]byte(`{"consistent":true,"total_accounts":3,"pending_freezes":1}`))
		}))
		defer srv.Close()

		out, err := runCLI(t, "--url", srv.URL, "ledger", "consistency")
		require.NoError(t, err)
		assert.Contains(t, out, "Accounts: 3")
		assert.Contains(t, out, "PASSED")
	})

	t.Run("reports discrepancies", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"consistent":false,"discrepancies":[{"account_id":"wallet-1","reason":"frozen_mismatch"}]}`))
		}))
		defer srv.Close()

		out, err := runCLI(t, "--url", srv.URL, "ledger", "consistency")
		require.Error(t, err)
		assert.Contains(t, out, "wallet-1: frozen_mismatch")
	})
}

func TestReserveCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/reserve", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "wallet-1", req["account_id"])
		assert.Equal(t, "2.50", req["amount"])
		assert.Equal(t, "rental:1", req["purpose_ref"])
		assert.Equal(t, "rental", req["kind"])
		assert.EqualValues(t, 120, req["ttl_seconds"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"frz-1","state":"PENDING"}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--url", srv.URL, "--token", "tok", "reserve", "wallet-1", "2.50", "rental:1", "--kind", "rental", "--ttl", "2m")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "frz-1"`)
}

func TestResolveCommand(t *testing.T) {
	t.Run("rejects unknown outcome locally", func(t *testing.T) {
		_, err := runCLI(t, "--url", "http://127.0.0.1:1", "resolve", "frz-1", "maybe")
		assert.ErrorIs(t, err, domain.ErrInvalidOutcome)
	})

	t.Run("surfaces api errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"Conflict","code":"conflicting_resolution","message":"conflicting resolution"}`))
		}))
		defer srv.Close()

		_, err := runCLI(t, "--url", srv.URL, "resolve", "frz-1", "refund")
		var apiErr *apiError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.Status)
		assert.Equal(t, "conflicting_resolution", apiErr.Code)
	})
}

func TestSweepAndFreezeGetCommands(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "--url", srv.URL, "sweep")
	require.NoError(t, err)
	_, err = runCLI(t, "--url", srv.URL, "freeze", "get", "frz-9")
	require.NoError(t, err)

	assert.Equal(t, []string{"POST /api/v1/sweep", "GET /api/v1/freezes/frz-9"}, paths)
}

func TestTokenCommand(t *testing.T) {
	out, err := runCLI(t, "token", "billing-service", "--secret", "s3cret", "--role", "service", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.NewJWTManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "billing-service", claims.Subject)
	assert.Equal(t, domain.RoleService, claims.Role)

	_, err = runCLI(t, "token", "someone", "--secret", "s3cret", "--role", "root")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	_, err := runCLI(t, "migrate", "down", "zero", "--database-url", "postgres://x")
	assert.Error(t, err)
}
