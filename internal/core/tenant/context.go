// Package tenant carries the request-scoped tenant identifier.
// All ledger data is partitioned by tenant id; every core call reads the
// tenant from its context instead of from global state.
package tenant

import (
	"context"
	"errors"

	"stockledger/internal/core/id"
)

type tenantKey struct{}

// ErrNoTenantInContext is returned when a core call runs without a tenant.
var ErrNoTenantInContext = errors.New("tenant not found in context")

// WithID stores the tenant id in context.
func WithID(ctx context.Context, tenantID id.ID) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// CurrentID returns the tenant id, failing if unset.
func CurrentID(ctx context.Context) (id.ID, error) {
	v, ok := ctx.Value(tenantKey{}).(id.ID)
	if !ok || id.IsNil(v) {
		return id.ID{}, ErrNoTenantInContext
	}
	return v, nil
}

// GetID returns the tenant id or the nil UUID.
// Intended for logging, where a missing tenant is not an error.
func GetID(ctx context.Context) id.ID {
	v, _ := ctx.Value(tenantKey{}).(id.ID)
	return v
}
