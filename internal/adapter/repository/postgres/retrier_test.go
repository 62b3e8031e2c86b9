package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
)

func fastRetrier(m *metrics.Metrics) *Retrier {
	r := NewRetrier(zerolog.Nop(), m)
	r.maxRetries = 2
	r.initialInterval = 1 * time.Millisecond
	r.maxInterval = 2 * time.Millisecond
	r.maxElapsedTime = time.Second
	return r
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	r := fastRetrier(m)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if got := testutil.ToFloat64(m.DBRetries.WithLabelValues(pgErrDeadlock)); got != 1 {
		t.Fatalf("expected 1 recorded retry, got %v", got)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := fastRetrier(nil)
	attempts := 0
	permanentErr := errors.New("permanent")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return permanentErr
	})

	if !errors.Is(err, permanentErr) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if errors.Is(err, domain.ErrTransientStore) {
		t.Fatalf("permanent errors must not be reported as transient")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierExhaustionIsTransientStore(t *testing.T) {
	r := fastRetrier(nil)
	attempts := 0

	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})

	if !errors.Is(err, domain.ErrTransientStore) {
		t.Fatalf("expected ErrTransientStore, got %v", err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrSerializationFailure {
		t.Fatalf("expected the last pg error to stay wrapped, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryableCode(t *testing.T) {
	if _, ok := retryableCode(&pgconn.PgError{Code: pgErrDeadlock}); !ok {
		t.Fatalf("expected deadlock error to be retryable")
	}

	if code, ok := retryableCode(&pgconn.PgError{Code: pgErrLockNotAvailable}); !ok || code != pgErrLockNotAvailable {
		t.Fatalf("expected lock timeout to be retryable")
	}

	if _, ok := retryableCode(&pgconn.PgError{Code: pgErrUniqueViolation}); ok {
		t.Fatalf("expected unique violation to be non-retryable")
	}

	if _, ok := retryableCode(errors.New("other")); ok {
		t.Fatalf("expected generic error to be non-retryable")
	}
}
