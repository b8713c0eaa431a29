package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/nexusbank/ledger/internal/adapter/http"
	"github.com/nexusbank/ledger/internal/adapter/http/handler"
	"github.com/nexusbank/ledger/internal/adapter/repository/memory"
	postgresRepo "github.com/nexusbank/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/nexusbank/ledger/internal/adapter/repository/redis"
	"github.com/nexusbank/ledger/internal/infrastructure/config"
	"github.com/nexusbank/ledger/internal/infrastructure/logging"
	"github.com/nexusbank/ledger/internal/infrastructure/metrics"
	"github.com/nexusbank/ledger/internal/infrastructure/notify"
	"github.com/nexusbank/ledger/internal/infrastructure/postgres"
	"github.com/nexusbank/ledger/internal/infrastructure/redis"
	"github.com/nexusbank/ledger/internal/usecase"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Infrastructure components log through slog
	slogger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx := context.Background()

	var (
		pool      *pgxpool.Pool
		txManager usecase.TransactionManager
		accounts  usecase.AccountStore
		records   usecase.TransactionLog
		totals    usecase.LedgerTotals
		retrier   usecase.Retrier
	)

	switch cfg.StoreBackend {
	case "memory":
		store := memory.New()
		txManager, accounts, records, totals = store, store, store, store
		log.Info().Msg("using in-memory store")

	case "postgres":
		pool, err = postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		log.Info().Msg("connected to postgres")

		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		txManager = postgresRepo.NewTxManager(pool)
		accounts = postgresRepo.NewAccountRepository(pool)
		records = postgresRepo.NewRecordRepository(pool)
		totals = postgresRepo.NewLedgerRepository(pool)
		retrier = postgresRepo.NewRetrier()

	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}

	// Connect to Redis when configured
	var (
		redisClient      *redislib.Client
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	// Notification dispatcher
	appMetrics := metrics.New()

	dispatcher := notify.NewDispatcher(notify.Config{
		Logger:  slogger,
		Buffer:  cfg.NotifyBuffer,
		Metrics: appMetrics,
	})
	notifyCtx, stopNotify := context.WithCancel(ctx)
	defer stopNotify()
	go dispatcher.Start(notifyCtx)

	// Initialize the ledger engine
	idGen := postgresRepo.NewULIDGenerator()
	ledgerUC := usecase.NewLedgerUseCase(txManager, accounts, records, totals, idGen, dispatcher, appMetrics)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(ledgerUC)
	transferHandler := handler.NewTransferHandler(ledgerUC, retrier)
	creditHandler := handler.NewCreditHandler(ledgerUC, retrier)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   accountHandler,
		TransferHandler:  transferHandler,
		CreditHandler:    creditHandler,
		LedgerHandler:    ledgerHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Logger:           log.Logger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	stopNotify()
	log.Info().Msg("server stopped")
}
