package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
)

// PurchaseUseCase runs the reserve -> provider -> settle flow and accepts
// late provider answers.
type PurchaseUseCase struct {
	reservations    *ReservationUseCase
	settlement      *SettlementUseCase
	freezeRepo      FreezeRepository
	gateway         ProviderGateway
	providerTimeout time.Duration
	metrics         *metrics.Metrics
	logger          zerolog.Logger
}

// NewPurchaseUseCase creates a new PurchaseUseCase.
func NewPurchaseUseCase(
	reservations *ReservationUseCase,
	settlement *SettlementUseCase,
	freezeRepo FreezeRepository,
	gateway ProviderGateway,
	providerTimeout time.Duration,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *PurchaseUseCase {
	if providerTimeout <= 0 {
		providerTimeout = DefaultProviderTimeout
	}

	return &PurchaseUseCase{
		reservations:    reservations,
		settlement:      settlement,
		freezeRepo:      freezeRepo,
		gateway:         gateway,
		providerTimeout: providerTimeout,
		metrics:         metrics,
		logger:          logger.With().Str("component", "purchase").Logger(),
	}
}

// PurchaseInput represents input for a full purchase.
type PurchaseInput struct {
	AccountID  string
	Amount     decimal.Decimal
	PurposeRef string
	Kind       domain.OperationKind
	Service    string
	Country    string
	ExpiresAt  time.Time
	TTL        time.Duration
}

// PurchaseOutcome is the ledger view of a purchase attempt. Pending means the
// provider did not answer definitively; the freeze waits for a callback,
// a reconcile or the sweeper.
type PurchaseOutcome struct {
	Freeze  *domain.Freeze
	Result  *domain.PurchaseResult
	Pending bool
}

// Purchase freezes funds, calls the provider and settles the freeze.
func (uc *PurchaseUseCase) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseOutcome, error) {
	freeze, err := uc.reservations.Freeze(ctx, FreezeInput{
		AccountID:  input.AccountID,
		Amount:     input.Amount,
		PurposeRef: input.PurposeRef,
		Kind:       input.Kind,
		ExpiresAt:  input.ExpiresAt,
		TTL:        input.TTL,
	})
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.providerTimeout)
	start := time.Now()
	result, err := uc.gateway.AttemptPurchase(callCtx, domain.PurchaseSpec{
		PurposeRef: freeze.PurposeRef,
		Kind:       freeze.Kind,
		Service:    input.Service,
		Country:    input.Country,
		MaxPrice:   freeze.Amount,
	})
	cancel()
	uc.observeProvider("attempt_purchase", start, err)

	if err != nil {
		// The provider may still have delivered; only a definitive answer
		// resolves the freeze.
		uc.logger.Warn().
			Err(err).
			Str("freeze_id", freeze.ID).
			Str("purpose_ref", freeze.PurposeRef).
			Bool("timeout", errors.Is(err, domain.ErrProviderTimeout) || errors.Is(err, context.DeadlineExceeded)).
			Msg("provider gave no definitive answer, freeze left pending")

		return &PurchaseOutcome{Freeze: freeze, Pending: true}, nil
	}

	// The caller may be gone by now; the provider's answer still has to land.
	settleCtx := context.WithoutCancel(ctx)

	outcome, reason := domain.OutcomeRefund, domain.ReasonProviderFailure
	if result.Success {
		outcome, reason = domain.OutcomeCommit, domain.ReasonProviderSuccess
	}

	settled, _, err := uc.settlement.resolve(settleCtx, freeze.ID, outcome, reason)
	if err != nil {
		return &PurchaseOutcome{Freeze: freeze, Result: &result}, err
	}

	return &PurchaseOutcome{Freeze: settled, Result: &result}, nil
}

// HandleProviderCallback applies an asynchronous provider answer. Callbacks
// are delivered at least once, so repeats are no-ops. Non-final statuses
// return the current freeze unchanged.
func (uc *PurchaseUseCase) HandleProviderCallback(ctx context.Context, purposeRef string, status domain.ProviderStatus) (*domain.Freeze, error) {
	if err := domain.ValidatePurposeRef(purposeRef); err != nil {
		return nil, err
	}

	outcome, final := status.Outcome()
	if !final {
		return uc.freezeRepo.GetLatestByPurposeRef(ctx, purposeRef)
	}

	return uc.settlement.ResolveByPurposeRef(ctx, purposeRef, outcome, domain.ReasonCallback)
}

// ReconcileFreeze asks the provider about a PENDING freeze and applies the
// answer when it is final.
func (uc *PurchaseUseCase) ReconcileFreeze(ctx context.Context, freezeID string) (*domain.Freeze, error) {
	freeze, err := uc.freezeRepo.GetByID(ctx, freezeID)
	if err != nil {
		return nil, err
	}
	if freeze.State.IsTerminal() {
		return freeze, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.providerTimeout)
	defer cancel()

	start := time.Now()
	status, err := uc.gateway.CheckStatus(callCtx, freeze.PurposeRef)
	uc.observeProvider("check_status", start, err)
	if err != nil {
		return nil, err
	}

	outcome, final := status.Outcome()
	if !final {
		return freeze, nil
	}

	reason := domain.ReasonProviderFailure
	if outcome == domain.OutcomeCommit {
		reason = domain.ReasonProviderSuccess
	}

	resolved, _, err := uc.settlement.resolve(context.WithoutCancel(ctx), freeze.ID, outcome, reason)
	return resolved, err
}

func (uc *PurchaseUseCase) observeProvider(method string, start time.Time, err error) {
	if uc.metrics == nil {
		return
	}

	result := "ok"
	switch {
	case errors.Is(err, domain.ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	case err != nil:
		result = "error"
	}

	uc.metrics.ProviderCalls.WithLabelValues(method, result).Inc()
	uc.metrics.ProviderDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
