package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency that answers a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler creates a new HealthHandler. deps maps a name such as
// "postgres" to its probe.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if every dependency answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result := map[string]string{"status": "ready"}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, name+"_unhealthy", err.Error())
			return
		}
		result[name] = "ok"
	}

	writeJSON(w, http.StatusOK, result)
}
