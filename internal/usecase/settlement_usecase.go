package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
)

// SettlementUseCase moves freezes out of PENDING. Each freeze reaches exactly
// one terminal state; repeating the same outcome is a no-op and asking for the
// opposite one fails with domain.ErrConflictingResolution.
type SettlementUseCase struct {
	txManager  TransactionManager
	retrier    Retrier
	store      *AccountStore
	freezeRepo FreezeRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	retrier Retrier,
	store *AccountStore,
	freezeRepo FreezeRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:  txManager,
		retrier:    retrier,
		store:      store,
		freezeRepo: freezeRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger.With().Str("component", "settlement").Logger(),
	}
}

// Commit captures a freeze: the amount permanently leaves the balance.
func (uc *SettlementUseCase) Commit(ctx context.Context, freezeID string) (*domain.Freeze, error) {
	freeze, _, err := uc.resolve(ctx, freezeID, domain.OutcomeCommit, domain.ReasonManual)
	return freeze, err
}

// Refund releases a freeze. The balance is untouched.
func (uc *SettlementUseCase) Refund(ctx context.Context, freezeID string) (*domain.Freeze, error) {
	freeze, _, err := uc.resolve(ctx, freezeID, domain.OutcomeRefund, domain.ReasonManual)
	return freeze, err
}

// Resolve dispatches to Commit or Refund.
func (uc *SettlementUseCase) Resolve(ctx context.Context, freezeID string, outcome domain.Outcome) (*domain.Freeze, error) {
	if _, err := domain.ParseOutcome(string(outcome)); err != nil {
		return nil, err
	}

	freeze, _, err := uc.resolve(ctx, freezeID, outcome, domain.ReasonManual)
	return freeze, err
}

// ResolveByPurposeRef resolves the freeze backing purposeRef. The PENDING
// freeze wins; otherwise the most recent terminal one is used, so a late
// provider answer after expiry still meets the conflict rule.
func (uc *SettlementUseCase) ResolveByPurposeRef(ctx context.Context, purposeRef string, outcome domain.Outcome, reason domain.ResolutionReason) (*domain.Freeze, error) {
	if _, err := domain.ParseOutcome(string(outcome)); err != nil {
		return nil, err
	}

	target, err := uc.freezeRepo.GetLatestByPurposeRef(ctx, purposeRef)
	if err != nil {
		return nil, err
	}

	freeze, _, err := uc.resolve(ctx, target.ID, outcome, reason)
	return freeze, err
}

// resolve reports applied=true only when this call performed the transition.
func (uc *SettlementUseCase) resolve(ctx context.Context, freezeID string, outcome domain.Outcome, reason domain.ResolutionReason) (*domain.Freeze, bool, error) {
	start := time.Now()
	target := outcome.TargetState()

	var (
		result  *domain.Freeze
		applied bool
	)

	err := inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		applied = false

		freeze, err := uc.freezeRepo.GetByIDForUpdate(txCtx, tx, freezeID)
		if err != nil {
			return err
		}

		move, err := freeze.Transition(target)
		if err != nil {
			return err
		}
		if !move {
			result = freeze
			return nil
		}

		now := time.Now().UTC()
		swapped, err := uc.freezeRepo.TransitionState(txCtx, tx, freezeID, target, reason, now)
		if err != nil {
			return err
		}
		if !swapped {
			current, err := uc.freezeRepo.GetByIDForUpdate(txCtx, tx, freezeID)
			if err != nil {
				return err
			}
			if _, err := current.Transition(target); err != nil {
				return err
			}
			result = current
			return nil
		}

		before := freeze.Clone()
		switch outcome {
		case domain.OutcomeCommit:
			_, err = uc.store.Capture(txCtx, tx, freeze.AccountID, freeze.Amount, freeze.ID)
		default:
			_, err = uc.store.AdjustFrozen(txCtx, tx, freeze.AccountID, freeze.Amount.Neg(), freeze.ID)
		}
		if err != nil {
			return err
		}

		freeze.State = target
		freeze.ResolutionReason = reason
		freeze.ResolvedAt = &now

		eventType := domain.EventTypeFreezeRefunded
		action := domain.AuditActionFreezeRefund
		if outcome == domain.OutcomeCommit {
			eventType = domain.EventTypeFreezeCommitted
			action = domain.AuditActionFreezeCommit
		}

		if err := uc.outboxRepo.Create(txCtx, tx, domain.NewFreezeEvent(uc.idGen.Generate(), eventType, freeze, now)); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			auditLog := &domain.AuditLog{
				ID:           uc.idGen.Generate(),
				ActorID:      actorID(ctx),
				Action:       action,
				ResourceType: domain.AggregateTypeFreeze,
				ResourceID:   freeze.ID,
				BeforeState:  domain.MarshalState(before),
				AfterState:   domain.MarshalState(freeze),
				Status:       domain.AuditStatusSuccess,
				CreatedAt:    now,
			}
			if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
				return err
			}
		}

		result = freeze
		applied = true
		return nil
	})
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			uc.recordConflict(ctx, conflict, reason)
		}
		if uc.metrics != nil {
			uc.metrics.FreezeErrors.WithLabelValues(string(outcome), errorType(err)).Inc()
		}
		return nil, false, err
	}

	if applied && uc.metrics != nil {
		if outcome == domain.OutcomeCommit {
			uc.metrics.FreezesCommitted.Inc()
		} else {
			uc.metrics.FreezesRefunded.WithLabelValues(string(reason)).Inc()
		}
		uc.metrics.FreezeDuration.Observe(time.Since(start).Seconds())
	}

	uc.logger.Debug().
		Str("freeze_id", freezeID).
		Str("outcome", string(outcome)).
		Str("reason", string(reason)).
		Bool("applied", applied).
		Msg("freeze resolved")

	return result, applied, nil
}

// recordConflict leaves a trail for manual review. The resolving transaction
// was rolled back, so this runs in its own.
func (uc *SettlementUseCase) recordConflict(ctx context.Context, conflict *domain.ConflictError, reason domain.ResolutionReason) {
	uc.logger.Error().
		Str("freeze_id", conflict.FreezeID).
		Str("current_state", string(conflict.Current)).
		Str("requested_state", string(conflict.Requested)).
		Str("reason", string(reason)).
		Msg("conflicting resolution rejected")

	if uc.metrics != nil {
		uc.metrics.ResolutionConflicts.Inc()
	}

	ctx = context.WithoutCancel(ctx)
	now := time.Now().UTC()

	err := inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   conflict.FreezeID,
			AggregateType: domain.AggregateTypeFreeze,
			EventType:     domain.EventTypeFreezeConflict,
			Payload: map[string]any{
				"freeze_id":       conflict.FreezeID,
				"current_state":   string(conflict.Current),
				"requested_state": string(conflict.Requested),
				"reason":          string(reason),
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return err
		}

		if uc.auditRepo == nil {
			return nil
		}

		action := domain.AuditActionFreezeRefund
		if conflict.Requested == domain.FreezeStateCommitted {
			action = domain.AuditActionFreezeCommit
		}

		return uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			ActorID:      actorID(ctx),
			Action:       action,
			ResourceType: domain.AggregateTypeFreeze,
			ResourceID:   conflict.FreezeID,
			Status:       domain.AuditStatusConflict,
			ErrorMessage: conflict.Error(),
			CreatedAt:    now,
		})
	})
	if err != nil {
		uc.logger.Warn().Err(err).Str("freeze_id", conflict.FreezeID).Msg("failed to record conflict")
	}
}
