package main

import (
	"context"

	"stockledger/internal/config"
	"stockledger/internal/core/id"
	"stockledger/internal/infrastructure/auth"
	"stockledger/internal/infrastructure/storage/memory"
	"stockledger/pkg/logger"
)

// seedDemo registers one tenant with two branches and a product in the
// in-memory directory and logs a matching admin token. Runs only with DEMO_SEED=true.
func seedDemo(ctx context.Context, store *memory.Store, cfg *config.Config, log *logger.Logger) {
	tenantID := id.New()
	branchA, branchB := id.New(), id.New()
	productID := id.New()

	store.AddBranch(tenantID, branchA, true)
	store.AddBranch(tenantID, branchB, true)
	store.AddProduct(tenantID, productID, true)

	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	token, expiresAt, err := auth.NewJWTService(jwtConfig).
		GenerateAccessToken("demo-admin", tenantID.String(), []string{"ADMIN"})
	if err != nil {
		log.Warnw("failed to issue demo token", "error", err)
		return
	}

	logger.Info(ctx, "demo data seeded",
		"tenant_id", tenantID.String(),
		"branch_a", branchA.String(),
		"branch_b", branchB.String(),
		"product_id", productID.String(),
		"token", token,
		"token_expires_at", expiresAt,
	)
}
