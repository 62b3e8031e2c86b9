package usecase

import (
	"context"

	"github.com/iho/smsledger/internal/domain"
)

// inTx runs fn inside one transaction bounded by DefaultTransactionTimeout.
// When retrier is set, the whole transaction is replayed on transient errors,
// so fn must not keep state across attempts.
func inTx(ctx context.Context, txManager TransactionManager, retrier Retrier, fn func(txCtx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if retrier == nil {
		return attempt()
	}

	return retrier.Retry(ctx, attempt)
}

func actorID(ctx context.Context) string {
	return domain.ActorFromContext(ctx).Subject
}
