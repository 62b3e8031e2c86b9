package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/auth"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
)

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	operatorToken, err := manager.Generate(domain.Actor{Subject: "ops-1", Role: domain.RoleOperator})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantActor  string
	}{
		{name: "valid token", header: "Bearer " + operatorToken, wantStatus: http.StatusOK, wantActor: "ops-1"},
		{name: "lowercase scheme", header: "bearer " + operatorToken, wantStatus: http.StatusOK, wantActor: "ops-1"},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewWithRegisterer(prometheus.NewRegistry())
			var actor domain.Actor
			h := AuthMiddleware(manager, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				actor = domain.ActorFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/resolve", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantActor, actor.Subject)
				assert.Equal(t, domain.RoleOperator, actor.Role)
			} else {
				failures := testutil.ToFloat64(m.AuthFailures.WithLabelValues("missing_token")) +
					testutil.ToFloat64(m.AuthFailures.WithLabelValues("invalid_token"))
				assert.Equal(t, float64(1), failures)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	h := RequirePermission(domain.Role.CanSweep)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for role, want := range map[domain.Role]int{
		domain.RoleAdmin:    http.StatusOK,
		domain.RoleOperator: http.StatusOK,
		domain.RoleService:  http.StatusForbidden,
		domain.RoleViewer:   http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sweep", nil)
		req = req.WithContext(domain.ContextWithActor(req.Context(), domain.Actor{Subject: "x", Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %s", role)
	}

	// no auth middleware: the system actor is an admin
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sweep", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
