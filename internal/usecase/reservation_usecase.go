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

// ReservationUseCase creates freezes: funds earmarked for one pending purchase.
type ReservationUseCase struct {
	txManager  TransactionManager
	retrier    Retrier
	store      *AccountStore
	freezeRepo FreezeRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	defaultTTL time.Duration
}

// NewReservationUseCase creates a new ReservationUseCase.
func NewReservationUseCase(
	txManager TransactionManager,
	retrier Retrier,
	store *AccountStore,
	freezeRepo FreezeRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
	defaultTTL time.Duration,
) *ReservationUseCase {
	if defaultTTL <= 0 {
		defaultTTL = DefaultFreezeTTL
	}

	return &ReservationUseCase{
		txManager:  txManager,
		retrier:    retrier,
		store:      store,
		freezeRepo: freezeRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger.With().Str("component", "reservation").Logger(),
		defaultTTL: defaultTTL,
	}
}

// FreezeInput represents input for reserving funds.
type FreezeInput struct {
	AccountID  string
	Amount     decimal.Decimal
	PurposeRef string
	Kind       domain.OperationKind
	// ExpiresAt is the deadline of the backing operation. When zero, TTL
	// (or the configured default) is added to the current time.
	ExpiresAt time.Time
	TTL       time.Duration
}

// Freeze earmarks Amount of the account's available funds for PurposeRef.
// At most one PENDING freeze may exist per purpose ref.
func (uc *ReservationUseCase) Freeze(ctx context.Context, input FreezeInput) (*domain.Freeze, error) {
	start := time.Now()

	freeze, err := uc.freeze(ctx, input)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.FreezeErrors.WithLabelValues("reserve", errorType(err)).Inc()
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.FreezesCreated.Inc()
		uc.metrics.FreezeAmount.Observe(freeze.Amount.InexactFloat64())
		uc.metrics.FreezeDuration.Observe(time.Since(start).Seconds())
	}

	uc.logger.Debug().
		Str("freeze_id", freeze.ID).
		Str("account_id", freeze.AccountID).
		Str("purpose_ref", freeze.PurposeRef).
		Str("amount", freeze.Amount.String()).
		Msg("funds frozen")

	return freeze, nil
}

func (uc *ReservationUseCase) freeze(ctx context.Context, input FreezeInput) (*domain.Freeze, error) {
	if err := domain.ValidateAccountID(input.AccountID); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidatePurposeRef(input.PurposeRef); err != nil {
		return nil, err
	}
	kind, err := domain.ValidateKind(input.Kind)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresAt := input.ExpiresAt.UTC()
	switch {
	case !input.ExpiresAt.IsZero():
	case input.TTL > 0:
		expiresAt = now.Add(input.TTL)
	default:
		expiresAt = now.Add(uc.defaultTTL)
	}
	if !expiresAt.After(now) {
		return nil, domain.ErrInvalidExpiry
	}

	var freeze *domain.Freeze
	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		_, err := uc.freezeRepo.GetPendingByPurposeRef(txCtx, tx, input.PurposeRef)
		if err == nil {
			return domain.ErrDuplicateReservation
		}
		if !errors.Is(err, domain.ErrFreezeNotFound) {
			return err
		}

		freeze = &domain.Freeze{
			ID:         uc.idGen.Generate(),
			AccountID:  input.AccountID,
			Amount:     input.Amount,
			PurposeRef: input.PurposeRef,
			Kind:       kind,
			State:      domain.FreezeStatePending,
			ExpiresAt:  expiresAt,
			CreatedAt:  now,
		}

		// Account row is locked first so the freeze insert never waits on it.
		if _, err := uc.store.AdjustFrozen(txCtx, tx, input.AccountID, input.Amount, freeze.ID); err != nil {
			return err
		}

		if err := uc.freezeRepo.Create(txCtx, tx, freeze); err != nil {
			return err
		}

		event := domain.NewFreezeEvent(uc.idGen.Generate(), domain.EventTypeFreezeCreated, freeze, now)
		event.Payload["expires_at"] = expiresAt.Format(time.RFC3339)
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			auditLog := &domain.AuditLog{
				ID:           uc.idGen.Generate(),
				ActorID:      actorID(ctx),
				Action:       domain.AuditActionFreezeCreate,
				ResourceType: domain.AggregateTypeFreeze,
				ResourceID:   freeze.ID,
				AfterState:   domain.MarshalState(freeze),
				Status:       domain.AuditStatusSuccess,
				CreatedAt:    now,
			}
			if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return freeze, nil
}

// GetFreeze retrieves a freeze by ID.
func (uc *ReservationUseCase) GetFreeze(ctx context.Context, id string) (*domain.Freeze, error) {
	return uc.freezeRepo.GetByID(ctx, id)
}

// ListFreezesByAccountInput represents input for listing freezes by account.
type ListFreezesByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListFreezesByAccount lists an account's freezes, newest first.
func (uc *ReservationUseCase) ListFreezesByAccount(ctx context.Context, input ListFreezesByAccountInput) ([]*domain.Freeze, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.freezeRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}
