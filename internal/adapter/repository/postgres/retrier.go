package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
)

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// NewRetrier creates a new PostgreSQL retrier with default settings.
func NewRetrier(logger zerolog.Logger, m *metrics.Metrics) *Retrier {
	return &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          logger,
		metrics:         m,
	}
}

// Retry executes an operation with exponential backoff on deadlocks and
// serialization failures. When retries run out the last error is returned
// wrapped in domain.ErrTransientStore.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0
	exhausted := false

	err := backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		code, ok := retryableCode(err)
		if !ok {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			exhausted = true
			return backoff.Permanent(err)
		}

		if r.metrics != nil {
			r.metrics.DBRetries.WithLabelValues(code).Inc()
		}

		r.logger.Warn().
			Err(err).
			Int("retry", retryCount).
			Str("code", code).
			Msg("retryable database error, retrying")

		return err
	}, backoff.WithContext(b, ctx))

	if err == nil {
		return nil
	}

	// backoff gives up on its own when MaxElapsedTime passes
	if _, ok := retryableCode(err); ok {
		exhausted = true
	}
	if exhausted {
		return fmt.Errorf("%w: %w", domain.ErrTransientStore, err)
	}

	return err
}

// retryableCode reports whether err is a PostgreSQL error worth retrying.
func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
			return pgErr.Code, true
		}
	}
	return "", false
}
