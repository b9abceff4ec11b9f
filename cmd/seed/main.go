// Package main provides a CLI tool for seeding a tenant's branch and product
// directory and issuing a development access token.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/Masterminds/squirrel"

	"stockledger/internal/config"
	"stockledger/internal/core/id"
	"stockledger/internal/infrastructure/auth"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatal("seed requires STORAGE_DRIVER=postgres")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	tenantID := id.New()
	if raw := os.Getenv("SEED_TENANT_ID"); raw != "" {
		if tenantID, err = id.Parse(raw); err != nil {
			log.Fatalw("invalid SEED_TENANT_ID", "error", err)
		}
	}

	branches := envInt("SEED_BRANCHES", 2)
	products := envInt("SEED_PRODUCTS", 3)

	branchIDs, err := seedDirectory(ctx, pool, "branches", tenantID, branches)
	if err != nil {
		log.Fatalw("failed to seed branches", "error", err)
	}
	productIDs, err := seedDirectory(ctx, pool, "products", tenantID, products)
	if err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}

	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	token, expiresAt, err := auth.NewJWTService(jwtConfig).
		GenerateAccessToken("seed-admin", tenantID.String(), []string{"ADMIN"})
	if err != nil {
		log.Fatalw("failed to issue token", "error", err)
	}

	log.Infow("seed completed",
		"tenant_id", tenantID.String(),
		"branches", branchIDs,
		"products", productIDs,
		"token_expires_at", expiresAt,
	)
	fmt.Println(token)
}

func seedDirectory(ctx context.Context, pool *postgres.Pool, table string, tenantID id.ID, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	q := squirrel.Insert(table).
		Columns("id", "tenant_id", "is_active").
		PlaceholderFormat(squirrel.Dollar)

	ids := make([]string, 0, n)
	for range n {
		entityID := id.New()
		q = q.Values(entityID, tenantID, true)
		ids = append(ids, entityID.String())
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert %s: %w", table, err)
	}
	if _, err := pool.Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	return ids, nil
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
