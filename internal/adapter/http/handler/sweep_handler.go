package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/smsledger/internal/adapter/http/dto"
	"github.com/iho/smsledger/internal/usecase"
)

// Sweeper runs one expiry pass.
type Sweeper interface {
	Sweep(ctx context.Context) (*usecase.SweepReport, error)
}

// SweepHandler triggers an on-demand sweep.
type SweepHandler struct {
	sweeper Sweeper
	logger  zerolog.Logger
}

// NewSweepHandler creates a new SweepHandler.
func NewSweepHandler(sweeper Sweeper, logger zerolog.Logger) *SweepHandler {
	return &SweepHandler{sweeper: sweeper, logger: logger}
}

// Sweep refunds expired freezes. Per-freeze failures still answer 200.
func (h *SweepHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if report.Errors > 0 {
		h.logger.Warn().
			Int("errors", report.Errors).
			Int("processed", report.Processed).
			Interface("failures", report.Failures).
			Msg("manual sweep finished with errors")
	}

	writeJSON(w, http.StatusOK, dto.SweepFromReport(report))
}
