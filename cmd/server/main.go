package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/smsledger/internal/adapter/http"
	"github.com/iho/smsledger/internal/adapter/http/handler"
	"github.com/iho/smsledger/internal/adapter/http/middleware"
	"github.com/iho/smsledger/internal/adapter/provider"
	postgresRepo "github.com/iho/smsledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/smsledger/internal/adapter/repository/redis"
	"github.com/iho/smsledger/internal/infrastructure/auth"
	"github.com/iho/smsledger/internal/infrastructure/config"
	"github.com/iho/smsledger/internal/infrastructure/eventpublisher"
	"github.com/iho/smsledger/internal/infrastructure/logger"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
	"github.com/iho/smsledger/internal/infrastructure/postgres"
	"github.com/iho/smsledger/internal/infrastructure/redis"
	"github.com/iho/smsledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "smsledger"})
	log.Logger = lg

	if err := run(cfg, lg); err != nil {
		lg.Fatal().Err(err).Msg("server exited")
	}
	lg.Info().Msg("server stopped")
}

func run(cfg *config.Config, lg zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, lg).Up(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	lg.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, PoolSize: cfg.RedisPoolSize, ConnectTries: 5})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	lg.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	freezeRepo := postgresRepo.NewFreezeRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	retrier := postgresRepo.NewRetrier(lg, m)
	idGen := postgresRepo.NewULIDGenerator()

	hostname, _ := os.Hostname()
	claims := redisRepo.NewClaimStore(redisClient, hostname+"/"+idGen.Generate())
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	gateway, err := newGateway(cfg, lg)
	if err != nil {
		return err
	}

	// Use cases
	store := usecase.NewAccountStore(accountRepo, entryRepo, idGen)
	reservations := usecase.NewReservationUseCase(txManager, retrier, store, freezeRepo, outboxRepo, auditRepo, idGen, m, lg, cfg.DefaultFreezeTTL)
	settlement := usecase.NewSettlementUseCase(txManager, retrier, store, freezeRepo, outboxRepo, auditRepo, idGen, m, lg)
	sweeper := usecase.NewSweeperUseCase(freezeRepo, settlement, claims, usecase.SweeperConfig{
		Interval:    cfg.SweepInterval,
		BatchSize:   cfg.SweepBatchSize,
		Concurrency: cfg.SweepConcurrency,
		ClaimTTL:    cfg.SweepClaimTTL,
	}, m, lg)
	purchases := usecase.NewPurchaseUseCase(reservations, settlement, freezeRepo, gateway, cfg.ProviderTimeout, m, lg)
	accountUC := usecase.NewAccountUseCase(txManager, retrier, store, accountRepo, outboxRepo, auditRepo, idGen, m)
	entryUC := usecase.NewEntryUseCase(entryRepo, accountRepo, freezeRepo)
	consistencyUC := usecase.NewConsistencyUseCase(ledgerRepo, m)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(accountUC),
		FreezeHandler:   handler.NewFreezeHandler(reservations, settlement),
		PurchaseHandler: handler.NewPurchaseHandler(purchases),
		SweepHandler:    handler.NewSweepHandler(sweeper, lg),
		EntryHandler:    handler.NewEntryHandler(entryUC),
		LedgerHandler:   handler.NewLedgerHandler(consistencyUC),
		HealthHandler: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": pool,
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		}),
		MetricsHandler:   promhttp.Handler(),
		Metrics:          m,
		Logger:           lg,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		lg.Info().Msg("bearer authentication enabled")
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		lg.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.SweepEnabled {
		g.Go(func() error {
			return ignoreCanceled(sweeper.Start(gctx))
		})
	}

	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  eventpublisher.NewStreamPublisher(redisClient, cfg.OutboxStream, cfg.OutboxStreamMaxLen),
			Metrics:    m,
			Logger:     lg,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		g.Go(func() error {
			return ignoreCanceled(publisher.Start(gctx))
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := rateLimiter.CleanupLimiters(10 * time.Minute); n > 0 {
					lg.Debug().Int("removed", n).Msg("dropped idle rate limiters")
				}
			}
		}
	})

	return g.Wait()
}

func newGateway(cfg *config.Config, lg zerolog.Logger) (usecase.ProviderGateway, error) {
	switch cfg.ProviderMode {
	case config.ProviderModeHTTP:
		lg.Info().Str("base_url", cfg.ProviderBaseURL).Msg("using HTTP provider gateway")
		return provider.NewHTTPGateway(provider.HTTPConfig{
			BaseURL: cfg.ProviderBaseURL,
			APIKey:  cfg.ProviderAPIKey,
			Timeout: cfg.ProviderTimeout,
		}, lg), nil
	case config.ProviderModeStub:
		lg.Warn().
			Dur("latency", cfg.ProviderStubLatency).
			Float64("failure_rate", cfg.ProviderStubFailureRate).
			Msg("using stub provider gateway")
		return provider.NewStubGateway(provider.StubConfig{
			Latency:     cfg.ProviderStubLatency,
			FailureRate: cfg.ProviderStubFailureRate,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider mode %q", cfg.ProviderMode)
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
