package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	retrier     Retrier
	store       *AccountStore
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	retrier Retrier,
	store *AccountStore,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		retrier:     retrier,
		store:       store,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	// ID is optional; a ULID is generated when empty.
	ID             string
	InitialDeposit decimal.Decimal
}

// CreateAccount creates a new wallet, optionally funding it.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	id := input.ID
	if id == "" {
		id = uc.idGen.Generate()
	}
	if err := domain.ValidateAccountID(id); err != nil {
		return nil, err
	}
	if input.InitialDeposit.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            id,
		Balance:       decimal.Zero,
		FrozenBalance: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   account.ID,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeAccountCreated,
			Payload:       map[string]any{"account_id": account.ID},
			CreatedAt:     now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return err
		}

		if input.InitialDeposit.IsPositive() {
			funded, err := uc.store.Deposit(txCtx, tx, account.ID, input.InitialDeposit)
			if err != nil {
				return err
			}
			account = funded
		}

		if uc.auditRepo != nil {
			return uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
				ID:           uc.idGen.Generate(),
				ActorID:      actorID(ctx),
				Action:       domain.AuditActionAccountCreate,
				ResourceType: domain.AggregateTypeAccount,
				ResourceID:   account.ID,
				AfterState:   domain.MarshalState(account),
				Status:       domain.AuditStatusSuccess,
				CreatedAt:    now,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// Deposit credits externally received funds to an account.
func (uc *AccountUseCase) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		var before *domain.Account
		if uc.auditRepo != nil {
			current, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, accountID)
			if err != nil {
				return err
			}
			before = current
		}

		updated, err := uc.store.Deposit(txCtx, tx, accountID, amount)
		if err != nil {
			return err
		}
		account = updated

		now := time.Now().UTC()
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   accountID,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeAccountDeposited,
			Payload: map[string]any{
				"account_id": accountID,
				"amount":     amount.String(),
				"balance":    updated.Balance.String(),
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			return uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
				ID:           uc.idGen.Generate(),
				ActorID:      actorID(ctx),
				Action:       domain.AuditActionAccountDeposit,
				ResourceType: domain.AggregateTypeAccount,
				ResourceID:   accountID,
				BeforeState:  domain.MarshalState(before),
				AfterState:   domain.MarshalState(updated),
				Status:       domain.AuditStatusSuccess,
				CreatedAt:    now,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues(string(domain.EntryKindDeposit)).Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.store.GetAccount(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
