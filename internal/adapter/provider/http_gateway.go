// Package provider contains usecase.ProviderGateway implementations.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/smsledger/internal/domain"
)

// HTTPConfig configures an HTTPGateway.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
	// Timeout bounds a single HTTP call.
	Timeout time.Duration
	// StatusRetries caps CheckStatus retries on transport errors and 5xx answers.
	StatusRetries uint64
}

// HTTPGateway talks JSON to an upstream SMS-number provider.
type HTTPGateway struct {
	baseURL       string
	apiKey        string
	timeout       time.Duration
	statusRetries uint64
	client        *http.Client
	logger        zerolog.Logger
	newBackOff    func() backoff.BackOff
}

// NewHTTPGateway creates a new HTTPGateway.
func NewHTTPGateway(cfg HTTPConfig, logger zerolog.Logger) *HTTPGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.StatusRetries == 0 {
		cfg.StatusRetries = 3
	}

	return &HTTPGateway{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		timeout:       cfg.Timeout,
		statusRetries: cfg.StatusRetries,
		client:        &http.Client{},
		logger:        logger.With().Str("component", "provider_http").Logger(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

type purchaseRequest struct {
	PurposeRef string          `json:"purpose_ref"`
	Kind       string          `json:"kind"`
	Service    string          `json:"service"`
	Country    string          `json:"country,omitempty"`
	MaxPrice   decimal.Decimal `json:"max_price"`
}

type purchaseResponse struct {
	Success     bool   `json:"success"`
	ExternalID  string `json:"external_id"`
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// AttemptPurchase performs a single purchase call. It is never retried: a
// lost answer is settled later by callback, reconcile or expiry.
func (g *HTTPGateway) AttemptPurchase(ctx context.Context, spec domain.PurchaseSpec) (domain.PurchaseResult, error) {
	body, err := json.Marshal(purchaseRequest{
		PurposeRef: spec.PurposeRef,
		Kind:       string(spec.Kind),
		Service:    spec.Service,
		Country:    spec.Country,
		MaxPrice:   spec.MaxPrice,
	})
	if err != nil {
		return domain.PurchaseResult{}, fmt.Errorf("encode purchase: %w", err)
	}

	var resp purchaseResponse
	if err := g.do(ctx, http.MethodPost, "/purchases", body, &resp); err != nil {
		return domain.PurchaseResult{}, err
	}

	return domain.PurchaseResult{
		Success:     resp.Success,
		ExternalID:  resp.ExternalID,
		PhoneNumber: resp.PhoneNumber,
		Message:     resp.Message,
	}, nil
}

// CheckStatus asks for the state of an earlier attempt, retrying transient failures.
func (g *HTTPGateway) CheckStatus(ctx context.Context, purposeRef string) (domain.ProviderStatus, error) {
	path := "/purchases/" + url.PathEscape(purposeRef)

	var status domain.ProviderStatus
	operation := func() error {
		var resp statusResponse
		if err := g.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			if errors.Is(err, domain.ErrProviderUnavailable) || errors.Is(err, domain.ErrProviderTimeout) {
				return err
			}
			return backoff.Permanent(err)
		}

		parsed, err := domain.ParseProviderStatus(resp.Status)
		if err != nil {
			return backoff.Permanent(err)
		}
		status = parsed
		return nil
	}

	notify := func(err error, next time.Duration) {
		g.logger.Debug().Err(err).Str("purpose_ref", purposeRef).Dur("next", next).Msg("retrying provider status check")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), g.statusRetries), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return "", err
	}
	return status, nil
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body []byte, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(callCtx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if isTimeout(callCtx, err) {
			return fmt.Errorf("%w: %s %s", domain.ErrProviderTimeout, method, path)
		}
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if isTimeout(callCtx, err) {
			return fmt.Errorf("%w: reading %s %s", domain.ErrProviderTimeout, method, path)
		}
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s answered %d", domain.ErrProviderUnavailable, method, path, resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("provider rejected %s %s with %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
