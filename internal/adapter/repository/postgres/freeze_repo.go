package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/postgres/generated"
	"github.com/iho/smsledger/internal/usecase"
)

// FreezeRepository implements usecase.FreezeRepository.
type FreezeRepository struct {
	queries *generated.Queries
}

// NewFreezeRepository creates a new FreezeRepository.
func NewFreezeRepository(db generated.DBTX) *FreezeRepository {
	return &FreezeRepository{
		queries: generated.New(db),
	}
}

// Create inserts a PENDING freeze. The partial unique index on purpose_ref
// rejects a second pending freeze for the same purpose.
func (r *FreezeRepository) Create(ctx context.Context, tx usecase.Transaction, freeze *domain.Freeze) error {
	err := txQueries(tx).CreateFreeze(ctx, generated.CreateFreezeParams{
		ID:               freeze.ID,
		AccountID:        freeze.AccountID,
		Amount:           decimalToNumeric(freeze.Amount),
		PurposeRef:       freeze.PurposeRef,
		Kind:             string(freeze.Kind),
		State:            string(freeze.State),
		ResolutionReason: string(freeze.ResolutionReason),
		ExpiresAt:        timeToPgTimestamptz(freeze.ExpiresAt),
		CreatedAt:        timeToPgTimestamptz(freeze.CreatedAt),
	})

	return mapPgError(err)
}

// GetByID retrieves a freeze by ID.
func (r *FreezeRepository) GetByID(ctx context.Context, id string) (*domain.Freeze, error) {
	return scanFreeze(r.queries.GetFreezeByID(ctx, id))
}

// GetByIDForUpdate retrieves a freeze by ID with a FOR UPDATE lock.
func (r *FreezeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Freeze, error) {
	return scanFreeze(txQueries(tx).GetFreezeByIDForUpdate(ctx, id))
}

// GetPendingByPurposeRef returns the PENDING freeze for purposeRef, if any.
func (r *FreezeRepository) GetPendingByPurposeRef(ctx context.Context, tx usecase.Transaction, purposeRef string) (*domain.Freeze, error) {
	return scanFreeze(txQueries(tx).GetPendingFreezeByPurposeRef(ctx, purposeRef))
}

// GetLatestByPurposeRef prefers the PENDING freeze, then the newest terminal one.
func (r *FreezeRepository) GetLatestByPurposeRef(ctx context.Context, purposeRef string) (*domain.Freeze, error) {
	return scanFreeze(r.queries.GetLatestFreezeByPurposeRef(ctx, purposeRef))
}

// TransitionState is a compare-and-set on state: it only moves a PENDING row.
func (r *FreezeRepository) TransitionState(ctx context.Context, tx usecase.Transaction, id string, target domain.FreezeState, reason domain.ResolutionReason, resolvedAt time.Time) (bool, error) {
	n, err := txQueries(tx).TransitionFreezeState(ctx, generated.TransitionFreezeStateParams{
		ID:               id,
		State:            string(target),
		ResolutionReason: string(reason),
		ResolvedAt:       timeToPgTimestamptz(resolvedAt),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// ListByAccount lists freezes of an account, newest first.
func (r *FreezeRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Freeze, error) {
	rows, err := r.queries.ListFreezesByAccount(ctx, generated.ListFreezesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToFreezes(rows), nil
}

// ListExpiredPending pages expired PENDING freezes by ID.
func (r *FreezeRepository) ListExpiredPending(ctx context.Context, now time.Time, afterID string, limit int) ([]*domain.Freeze, error) {
	rows, err := r.queries.ListExpiredPendingFreezes(ctx, generated.ListExpiredPendingFreezesParams{
		ExpiresAt: timeToPgTimestamptz(now),
		ID:        afterID,
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToFreezes(rows), nil
}

func scanFreeze(row generated.Freeze, err error) (*domain.Freeze, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFreezeNotFound
		}
		return nil, err
	}

	return rowToFreeze(row), nil
}

func rowsToFreezes(rows []generated.Freeze) []*domain.Freeze {
	freezes := make([]*domain.Freeze, 0, len(rows))
	for _, row := range rows {
		freezes = append(freezes, rowToFreeze(row))
	}
	return freezes
}

func rowToFreeze(row generated.Freeze) *domain.Freeze {
	var resolvedAt *time.Time
	if row.ResolvedAt.Valid {
		t := row.ResolvedAt.Time
		resolvedAt = &t
	}

	return &domain.Freeze{
		ID:               row.ID,
		AccountID:        row.AccountID,
		Amount:           numericToDecimal(row.Amount),
		PurposeRef:       row.PurposeRef,
		Kind:             domain.OperationKind(row.Kind),
		State:            domain.FreezeState(row.State),
		ResolutionReason: domain.ResolutionReason(row.ResolutionReason),
		ExpiresAt:        row.ExpiresAt.Time,
		CreatedAt:        row.CreatedAt.Time,
		ResolvedAt:       resolvedAt,
	}
}
