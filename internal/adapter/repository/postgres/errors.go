package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/smsledger/internal/domain"
)

// PostgreSQL error codes.
const (
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
	pgErrCheckViolation       = "23514"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

const (
	constraintPendingPurposeRef = "uq_freezes_pending_purpose_ref"
	constraintAccountsPkey      = "accounts_pkey"
	constraintFrozenInBalance   = "accounts_frozen_within_balance"
)

// mapPgError turns constraint violations into domain errors. Anything else,
// including retryable codes, is returned unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintPendingPurposeRef:
			return domain.ErrDuplicateReservation
		case constraintAccountsPkey:
			return domain.ErrAccountExists
		}
	case pgErrForeignKeyViolation:
		return domain.ErrAccountNotFound
	case pgErrCheckViolation:
		if pgErr.ConstraintName == constraintFrozenInBalance {
			return domain.ErrInsufficientFunds
		}
	}

	return err
}
