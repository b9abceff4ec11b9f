package stock

import (
	"context"
	"errors"
	"time"

	"stockledger/internal/core/id"
)

// ErrEntityNotFound is returned by directories for missing or foreign-tenant entities.
var ErrEntityNotFound = errors.New("entity not found")

// Ledger is the append-only movement log. No update or delete exists.
type Ledger interface {
	// Append assigns ID and CreatedAt and persists the movement.
	Append(ctx context.Context, m *Movement) error

	// List returns a page ordered by createdAt desc, ties broken by id desc.
	List(ctx context.Context, tenantID id.ID, filter MovementFilter) (Page[Movement], error)
}

// CellStore persists StockCell rows. Only the ConsistencyGuard writes through it.
type CellStore interface {
	// Get returns the committed cell, or EmptyCell when it was never created.
	Get(ctx context.Context, key CellKey) (Cell, error)

	// GetOrCreate returns the cell, creating it with quantity 0 and version 0 if absent.
	GetOrCreate(ctx context.Context, key CellKey) (Cell, error)

	// CompareAndSwap writes newQuantity and bumps the version only if the stored
	// version still equals expectedVersion. false means zero rows were affected.
	CompareAndSwap(ctx context.Context, key CellKey, expectedVersion, newQuantity int64, at time.Time) (bool, error)
}

// BranchDirectory is the external catalog of branches.
type BranchDirectory interface {
	// IsActive returns ErrEntityNotFound when the branch is missing or belongs to another tenant.
	IsActive(ctx context.Context, tenantID, branchID id.ID) (bool, error)
}

// ProductDirectory is the external catalog of products.
type ProductDirectory interface {
	// IsActive returns ErrEntityNotFound when the product is missing or belongs to another tenant.
	IsActive(ctx context.Context, tenantID, productID id.ID) (bool, error)
}

// Invalidator signals downstream read aggregates that tenant data is stale.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID id.ID, branchIDs ...id.ID) error
}

// NopInvalidator drops every signal.
type NopInvalidator struct{}

func (NopInvalidator) Invalidate(context.Context, id.ID, ...id.ID) error { return nil }
