package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/novapay/remit/internal/adapter/http"
	"github.com/novapay/remit/internal/adapter/http/handler"
	"github.com/novapay/remit/internal/adapter/http/middleware"
	"github.com/novapay/remit/internal/adapter/rail"
	postgresRepo "github.com/novapay/remit/internal/adapter/repository/postgres"
	redisRepo "github.com/novapay/remit/internal/adapter/repository/redis"
	"github.com/novapay/remit/internal/infrastructure/config"
	"github.com/novapay/remit/internal/infrastructure/eventpublisher"
	"github.com/novapay/remit/internal/infrastructure/logger"
	"github.com/novapay/remit/internal/infrastructure/metrics"
	"github.com/novapay/remit/internal/infrastructure/notify"
	"github.com/novapay/remit/internal/infrastructure/postgres"
	"github.com/novapay/remit/internal/infrastructure/rates"
	"github.com/novapay/remit/internal/infrastructure/redis"
	"github.com/novapay/remit/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	sagaRepo := postgresRepo.NewSagaRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	balanceCache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Rate conversion. The converter primes its snapshot on startup
	// and refreshes out of band; transaction paths only ever read it.
	var quotes rates.QuoteService
	if cfg.QuoteBaseURL != "" {
		quotes = rates.NewHTTPQuoteService(cfg.QuoteBaseURL, cfg.RailTimeout)
	} else {
		quotes = rates.NewStaticQuoteService()
	}

	converter, err := rates.New(ctx, rates.Config{
		Source:       quotes,
		Pairs:        ratePairs(cfg.SettlementAsset),
		MaxStaleness: cfg.RateMaxStaleness,
		Logger:       appLogger,
	})
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to prime rate snapshot")
	}
	go converter.Start(ctx, cfg.RateRefreshEvery)

	// Settlement rail
	var settlementRail usecase.SettlementRail
	switch cfg.RailDriver {
	case "horizon":
		settlementRail = rail.NewHorizonRail(cfg.RailBaseURL, cfg.RailTimeout, m, appLogger)
	default:
		settlementRail = rail.NewSimulator()
		appLogger.Warn().Msg("using simulator settlement rail")
	}

	// Use cases
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, outboxRepo, converter, balanceCache, idGen, m, cfg.SettlementAsset)
	transferUC := usecase.NewTransferUseCase(txManager, walletRepo, txnRepo, outboxRepo, converter, balanceCache, idGen, m, cfg.SettlementAsset)
	fundingUC := usecase.NewFundingUseCase(txManager, walletRepo, txnRepo, sagaRepo, outboxRepo, settlementRail, converter, balanceCache, idGen, m, appLogger, cfg.SettlementAsset)
	txnUC := usecase.NewTransactionUseCase(txnRepo)
	reconUC := usecase.NewReconciliationUseCase(txManager, walletRepo, txnRepo, sagaRepo, appLogger)

	// Finish any movement a previous process left mid-sequence before
	// taking traffic.
	if resumed, err := reconUC.ResumeSagas(ctx, 0); err != nil {
		appLogger.Error().Err(err).Msg("saga recovery failed")
	} else if len(resumed) > 0 {
		appLogger.Info().Int("count", len(resumed)).Msg("recovered interrupted movements")
	}

	// Outbox publisher with SMS notification fan-out
	notifier := notify.NewSMSNotifier(appLogger)
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewNotifyPublisher(notifier, eventpublisher.NewLogPublisher(nil)),
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && ctx.Err() == nil {
			appLogger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Handlers
	walletHandler := handler.NewWalletHandler(walletUC, txnUC)
	transferHandler := handler.NewTransferHandler(transferUC, txnUC)
	fundingHandler := handler.NewFundingHandler(fundingUC)
	transactionHandler := handler.NewTransactionHandler(txnUC)
	reconHandler := handler.NewReconciliationHandler(reconUC, cfg.PendingCutoff)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Per-IP rate limiting with periodic eviction of idle clients
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(cfg.RateLimitIdleEvict)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rateLimiter.CleanupClients(cfg.RateLimitIdleEvict)
			}
		}
	}()

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:         walletHandler,
		TransferHandler:       transferHandler,
		FundingHandler:        fundingHandler,
		TransactionHandler:    transactionHandler,
		ReconciliationHandler: reconHandler,
		HealthHandler:         healthHandler,
		IdempotencyStore:      idempotencyStore,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           rateLimiter,
		RequestLogger:         middleware.NewLoggingMiddleware(appLogger),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}

// ratePairs lists the currency pairs refreshed into the snapshot:
// each supported mobile currency against the settlement asset, both
// directions.
func ratePairs(asset string) [][2]string {
	currencies := []string{"KES", "UGX", "TZS", "NGN", "USD", "EUR"}

	pairs := make([][2]string, 0, len(currencies)*2)
	for _, c := range currencies {
		pairs = append(pairs, [2]string{c, asset}, [2]string{asset, c})
	}

	return pairs
}
