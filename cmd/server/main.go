// Package main is the entry point for the stock ledger API server.
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

	"github.com/klauspost/compress/gzhttp"
	"github.com/redis/go-redis/v9"

	"stockledger/internal/config"
	"stockledger/internal/core/security"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/auth"
	"stockledger/internal/infrastructure/cache"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/storage/memory"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/ledger_repo"
	"stockledger/pkg/logger"
)

// storage bundles the ports the service needs from one backend.
type storage struct {
	txManager tx.Manager
	ledger    stock.Ledger
	cells     stock.CellStore
	branches  stock.BranchDirectory
	products  stock.ProductDirectory
	pinger    handlers.Pinger
	close     func()
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting stock ledger server", "storage", cfg.Storage.Driver)

	// --- Storage ---
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer store.close()

	healthChecks := map[string]handlers.Pinger{"storage": store.pinger}

	// --- Cache invalidation ---
	var invalidator stock.Invalidator = stock.NopInvalidator{}
	if cfg.Redis.Enabled() {
		client, err := cache.NewClient(ctx, cache.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()

		invalidator = cache.NewRedisInvalidator(client, cache.Config{
			KeyPrefix: cfg.Redis.KeyPrefix,
			Channel:   cfg.Redis.Channel,
		})
		healthChecks["redis"] = redisPinger{client: client}
		log.Infow("cache invalidation enabled", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	// --- Movement rule ---
	rule, err := security.CompileMovementRule(cfg.Rules.Movement)
	if err != nil {
		log.Fatalw("invalid movement rule", "error", err)
	}
	if rule != nil {
		log.Infow("movement rule loaded", "rule", rule.String())
	}

	// --- Service ---
	stockService := stock.NewService(
		store.txManager,
		store.ledger,
		store.cells,
		stock.NewValidator(store.branches, store.products, rule),
		invalidator,
	)

	// --- JWT ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		StockService: stockService,
		Logger:       log,
		JWTValidator: jwtService,
		HealthChecks: healthChecks,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      gzhttp.GzipHandler(router),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		if cfg.App.DemoSeed {
			seedDemo(ctx, store, cfg, log)
		}
		return &storage{
			txManager: memory.NewTxManager(store),
			ledger:    store,
			cells:     store,
			branches:  store.Branches(),
			products:  store.Products(),
			pinger:    store,
			close:     func() {},
		}, nil

	case config.DriverPostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
		poolCfg.MaxConns = cfg.DB.MaxConns
		poolCfg.MinConns = cfg.DB.MinConns

		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		postgres.LogPoolStats(ctx, pool)

		txOpts := postgres.DefaultTxOptions()
		txOpts.StatementTimeout = cfg.DB.StatementTimeout
		txManager := postgres.NewTxManager(pool, txOpts)

		return &storage{
			txManager: txManager,
			ledger:    ledger_repo.NewMovementRepo(txManager),
			cells:     ledger_repo.NewCellRepo(txManager),
			branches:  ledger_repo.NewBranchDirectory(txManager),
			products:  ledger_repo.NewProductDirectory(txManager),
			pinger:    pool,
			close:     pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
