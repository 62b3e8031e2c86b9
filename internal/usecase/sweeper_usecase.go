package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
)

// SweeperConfig tunes an expiry sweep.
type SweeperConfig struct {
	Interval    time.Duration
	BatchSize   int
	Concurrency int
	ClaimTTL    time.Duration
}

// SweepFailure describes one freeze the pass could not refund.
type SweepFailure struct {
	FreezeID string `json:"freeze_id"`
	Error    string `json:"error"`
}

// SweepReport summarises one pass.
type SweepReport struct {
	// Processed counts freezes whose refund was attempted without error,
	// including ones another actor had already refunded.
	Processed int
	// RefundedTotalAmount only includes refunds this pass performed.
	RefundedTotalAmount decimal.Decimal
	Errors              int
	Skipped             int
	Failures            []SweepFailure
	StartedAt           time.Time
	FinishedAt          time.Time
}

// SweeperUseCase refunds PENDING freezes whose operation deadline passed.
type SweeperUseCase struct {
	freezeRepo FreezeRepository
	settlement *SettlementUseCase
	claims     ClaimStore
	config     SweeperConfig
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSweeperUseCase creates a new SweeperUseCase. claims may be nil.
func NewSweeperUseCase(
	freezeRepo FreezeRepository,
	settlement *SettlementUseCase,
	claims ClaimStore,
	config SweeperConfig,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SweeperUseCase {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.ClaimTTL <= 0 {
		config.ClaimTTL = time.Minute
	}

	return &SweeperUseCase{
		freezeRepo: freezeRepo,
		settlement: settlement,
		claims:     claims,
		config:     config,
		metrics:    metrics,
		logger:     logger.With().Str("component", "sweeper").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source used to decide what has expired.
func (uc *SweeperUseCase) WithClock(now func() time.Time) *SweeperUseCase {
	uc.now = now
	return uc
}

// Start runs Sweep every configured interval until ctx is done.
func (uc *SweeperUseCase) Start(ctx context.Context) error {
	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	uc.logger.Info().Dur("interval", uc.config.Interval).Msg("expiry sweeper started")

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info().Msg("expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			report, err := uc.Sweep(ctx)
			if err != nil {
				uc.logger.Error().Err(err).Msg("sweep pass aborted")
				continue
			}
			if report.Processed > 0 || report.Errors > 0 {
				uc.logger.Info().
					Int("processed", report.Processed).
					Int("errors", report.Errors).
					Int("skipped", report.Skipped).
					Str("refunded_total", report.RefundedTotalAmount.String()).
					Msg("sweep pass finished")
			}
		}
	}
}

// Sweep refunds every expired PENDING freeze once. Individual failures are
// collected in the report and never stop the pass; only a failure to list
// candidates returns an error, together with the work done so far.
func (uc *SweeperUseCase) Sweep(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{
		RefundedTotalAmount: decimal.Zero,
		Failures:            []SweepFailure{},
		StartedAt:           uc.now(),
	}
	now := report.StartedAt

	defer func() {
		report.FinishedAt = uc.now()
		if uc.metrics != nil {
			uc.metrics.SweepRuns.Inc()
			uc.metrics.SweepDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
		}
	}()

	var (
		mu      sync.Mutex
		afterID string
		seen    = make(map[string]struct{})
	)

	for {
		batch, err := uc.freezeRepo.ListExpiredPending(ctx, now, afterID, uc.config.BatchSize)
		if err != nil {
			return report, err
		}

		var g errgroup.Group
		g.SetLimit(uc.config.Concurrency)

		for _, freeze := range batch {
			afterID = freeze.ID
			if _, ok := seen[freeze.ID]; ok {
				continue
			}
			seen[freeze.ID] = struct{}{}

			g.Go(func() error {
				amount, skipped, err := uc.refundOne(ctx, freeze)

				mu.Lock()
				defer mu.Unlock()

				switch {
				case skipped:
					report.Skipped++
				case err != nil:
					report.Errors++
					report.Failures = append(report.Failures, SweepFailure{FreezeID: freeze.ID, Error: err.Error()})
				default:
					report.Processed++
					report.RefundedTotalAmount = report.RefundedTotalAmount.Add(amount)
				}
				return nil
			})
		}

		_ = g.Wait()

		if len(batch) < uc.config.BatchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	if uc.metrics != nil {
		uc.metrics.SweepProcessed.Add(float64(report.Processed))
		uc.metrics.SweepErrors.Add(float64(report.Errors))
	}

	return report, nil
}

// refundOne returns the amount this call actually released.
func (uc *SweeperUseCase) refundOne(ctx context.Context, freeze *domain.Freeze) (decimal.Decimal, bool, error) {
	key := "sweep:freeze:" + freeze.ID

	if uc.claims != nil {
		claimed, err := uc.claims.Claim(ctx, key, uc.config.ClaimTTL)
		switch {
		case err != nil:
			uc.logger.Warn().Err(err).Str("freeze_id", freeze.ID).Msg("claim store unavailable, refunding anyway")
		case !claimed:
			if uc.metrics != nil {
				uc.metrics.SweepClaimMisses.Inc()
			}
			return decimal.Zero, true, nil
		}
	}

	resolved, applied, err := uc.settlement.resolve(ctx, freeze.ID, domain.OutcomeRefund, domain.ReasonExpired)
	if err != nil {
		uc.logger.Warn().Err(err).Str("freeze_id", freeze.ID).Msg("failed to refund expired freeze")
		if uc.claims != nil {
			if relErr := uc.claims.Release(context.WithoutCancel(ctx), key); relErr != nil {
				uc.logger.Debug().Err(relErr).Str("freeze_id", freeze.ID).Msg("claim release failed")
			}
		}
		return decimal.Zero, false, err
	}

	if !applied {
		return decimal.Zero, false, nil
	}

	return resolved.Amount, false, nil
}
