package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/adapters/cache"
	"github.com/SscSPs/game_currency_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/game_currency_ledger/internal/adapters/database/mongodb"
	"github.com/SscSPs/game_currency_ledger/internal/adapters/database/pgsql"
	"github.com/SscSPs/game_currency_ledger/internal/benchmark"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/game_currency_ledger/internal/core/ports/services"
	"github.com/SscSPs/game_currency_ledger/internal/core/services"
	"github.com/SscSPs/game_currency_ledger/internal/executor"
	"github.com/SscSPs/game_currency_ledger/internal/platform/logging"
	"github.com/SscSPs/game_currency_ledger/pkg/config"
	"github.com/SscSPs/game_currency_ledger/pkg/database"
	"github.com/shopspring/decimal"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	benchMode := flag.Bool("bench", false, "run the benchmark harness and exit")
	flag.Parse()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := logging.WithLogger(context.Background(), logger)

	store, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	if err := store.Initialize(ctx); err != nil {
		logger.Error("Failed to initialize storage backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Construct everything once and pass references explicitly; no globally
	// retrievable instances.
	exec := executor.New(cfg.WorkerPoolSize, cfg.WorkerQueueSize, logger)
	exec.Start()
	defer exec.Stop()

	currencySvc := services.NewCurrencyService(store, defaultCurrency(cfg))
	if err := currencySvc.Initialize(ctx); err != nil {
		logger.Error("Failed to initialize currencies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var ledgerOpts []services.LedgerServiceOption
	if cfg.Backend != config.BackendMemory {
		fallback := memory.NewMemoryLedgerStore("")
		ledgerOpts = append(ledgerOpts, services.WithFallbackStore(fallback))
	}
	ledgerSvc := services.NewLedgerService(store, currencySvc, exec, ledgerOpts...)

	if *benchMode {
		runBenchmark(ctx, cfg, ledgerSvc, logger)
		return
	}

	var leaderboardOpts []services.LeaderboardOption
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rdb.Close()
		leaderboardOpts = append(leaderboardOpts, services.WithSnapshotPublisher(cache.NewRedisSnapshotPublisher(rdb)))
	}
	leaderboardSvc := services.NewLeaderboardService(ledgerSvc, currencySvc, cfg.LeaderboardSize, cfg.LeaderboardInterval, leaderboardOpts...)
	if err := leaderboardSvc.Start(ctx); err != nil {
		logger.Error("Failed to start leaderboard cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer leaderboardSvc.Stop()

	logger.Info("Ledger ready",
		slog.String("backend", cfg.Backend),
		slog.String("default_currency", cfg.DefaultCurrencyID))

	// Block until asked to stop; collaborators drive the services from here.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Shutdown(shutdownCtx); err != nil {
		logger.Error("Storage shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("Ledger stopped")
}

// buildStore selects and constructs the configured storage backend. The
// returned cleanup only releases connection handles; Shutdown is the caller's
// responsibility.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.LedgerStore, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			return nil, nil, err
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, int32(cfg.WorkerPoolSize))
		if err != nil {
			return nil, nil, err
		}
		return pgsql.NewPgxLedgerStore(pool), func() {}, nil
	case config.BackendMongo:
		db, err := database.NewMongoDatabase(ctx, cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return mongodb.NewMongoLedgerStore(db), func() {}, nil
	default:
		return memory.NewMemoryLedgerStore(cfg.MemorySnapshotPath), func() {}, nil
	}
}

// runMigrations applies pending SQL migrations against the relational backend.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	logger.Info("Database migrations applied")
	return nil
}

func defaultCurrency(cfg *config.Config) domain.Currency {
	starting, err := decimal.NewFromString(cfg.DefaultStartingBal)
	if err != nil {
		starting = decimal.Zero
	}
	max, err := decimal.NewFromString(cfg.DefaultMaxBal)
	if err != nil {
		max = decimal.Zero
	}
	now := time.Now().UTC()
	return domain.Currency{
		ID:              cfg.DefaultCurrencyID,
		Name:            cfg.DefaultCurrencyName,
		NameSingular:    cfg.DefaultCurrencyName,
		Symbol:          cfg.DefaultCurrencySymbol,
		IsDecimal:       true,
		StartingBalance: starting,
		MaxBalance:      max,
		Enabled:         true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "system",
			LastUpdatedAt: now,
			LastUpdatedBy: "system",
		},
	}
}

// runBenchmark drives the configured ledger with the synthetic workload and
// prints the report to stdout.
func runBenchmark(ctx context.Context, cfg *config.Config, svc portssvc.LedgerSvcFacade, logger *slog.Logger) {
	runner := benchmark.NewRunner(svc, benchmark.Config{
		Actors:      cfg.BenchActors,
		OpsPerActor: cfg.BenchOps,
		Duration:    cfg.BenchDuration,
	})

	report, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Benchmark failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Benchmark finished",
		slog.Int64("successes", report.Successes),
		slog.Int64("failures", report.Failures),
		slog.Float64("ops_per_second", report.OpsPerSecond()),
		slog.Duration("mean_latency", report.MeanLatency()))
	os.Stdout.WriteString(report.String() + "\n")
}
