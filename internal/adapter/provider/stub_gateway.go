package provider

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iho/smsledger/internal/domain"
)

// StubConfig configures a StubGateway.
type StubConfig struct {
	Latency     time.Duration
	FailureRate float64
}

// StubGateway simulates a provider in process. Purchases fail at the
// configured rate and every answer waits Latency first.
type StubGateway struct {
	latency     time.Duration
	failureRate float64
	roll        func() float64

	mu       sync.Mutex
	attempts map[string]domain.ProviderStatus
}

// NewStubGateway creates a new StubGateway.
func NewStubGateway(cfg StubConfig) *StubGateway {
	return &StubGateway{
		latency:     cfg.Latency,
		failureRate: cfg.FailureRate,
		roll:        randomFraction,
		attempts:    make(map[string]domain.ProviderStatus),
	}
}

// AttemptPurchase answers after the configured latency, or with
// domain.ErrProviderTimeout when ctx ends first.
func (g *StubGateway) AttemptPurchase(ctx context.Context, spec domain.PurchaseSpec) (domain.PurchaseResult, error) {
	g.record(spec.PurposeRef, domain.ProviderStatusPending)

	if err := g.wait(ctx); err != nil {
		return domain.PurchaseResult{}, err
	}

	if g.shouldFail() {
		g.record(spec.PurposeRef, domain.ProviderStatusFailed)
		return domain.PurchaseResult{Success: false, Message: "no numbers available"}, nil
	}

	g.record(spec.PurposeRef, domain.ProviderStatusSucceeded)
	return domain.PurchaseResult{
		Success:     true,
		ExternalID:  ulid.Make().String(),
		PhoneNumber: stubNumber(spec.Country),
	}, nil
}

// CheckStatus reports the last known state of an attempt. Unknown refs are
// reported as expired.
func (g *StubGateway) CheckStatus(ctx context.Context, purposeRef string) (domain.ProviderStatus, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.attempts[purposeRef]
	if !ok {
		return domain.ProviderStatusExpired, nil
	}
	return status, nil
}

// SetStatus overrides the state reported for purposeRef.
func (g *StubGateway) SetStatus(purposeRef string, status domain.ProviderStatus) {
	g.record(purposeRef, status)
}

func (g *StubGateway) record(purposeRef string, status domain.ProviderStatus) {
	g.mu.Lock()
	g.attempts[purposeRef] = status
	g.mu.Unlock()
}

func (g *StubGateway) wait(ctx context.Context) error {
	if g.latency <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
		}
		return nil
	}

	timer := time.NewTimer(g.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (g *StubGateway) shouldFail() bool {
	switch {
	case g.failureRate <= 0:
		return false
	case g.failureRate >= 1:
		return true
	default:
		return g.roll() < g.failureRate
	}
}

func randomFraction() float64 {
	const precision = 1000000
	n, err := rand.Int(rand.Reader, big.NewInt(precision))
	if err != nil {
		return 1
	}
	return float64(n.Int64()) / precision
}

func stubNumber(country string) string {
	if country == "" {
		country = "xx"
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return "+" + country + "000000000"
	}
	return fmt.Sprintf("+%s%09d", country, n.Int64())
}
