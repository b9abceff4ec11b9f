package memory

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/stock"
)

// AddBranch registers a branch owned by tenantID.
func (s *Store) AddBranch(tenantID, branchID id.ID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[branchID] = directoryEntry{tenantID: tenantID, active: active}
}

// AddProduct registers a product owned by tenantID.
func (s *Store) AddProduct(tenantID, productID id.ID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productID] = directoryEntry{tenantID: tenantID, active: active}
}

// Branches returns the branch directory view of the store.
func (s *Store) Branches() *Directory {
	return &Directory{store: s, entries: func() map[id.ID]directoryEntry { return s.branches }}
}

// Products returns the product directory view of the store.
func (s *Store) Products() *Directory {
	return &Directory{store: s, entries: func() map[id.ID]directoryEntry { return s.products }}
}

// Directory answers IsActive for one entity kind.
type Directory struct {
	store   *Store
	entries func() map[id.ID]directoryEntry
}

// IsActive reports whether the entity is active. Entities of other tenants are not found.
func (d *Directory) IsActive(_ context.Context, tenantID, entityID id.ID) (bool, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()

	e, ok := d.entries()[entityID]
	if !ok || e.tenantID != tenantID {
		return false, stock.ErrEntityNotFound
	}
	return e.active, nil
}

var (
	_ stock.BranchDirectory  = (*Directory)(nil)
	_ stock.ProductDirectory = (*Directory)(nil)
)
