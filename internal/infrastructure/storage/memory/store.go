// Package memory provides an in-process storage driver for the stock ledger.
// Transactions stage writes and validate the versions they read at commit,
// so concurrent writers to one cell behave like the postgres CAS: the loser
// gets ConcurrentModification.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/stock"
)

// Store holds committed cells, movements and directory entries.
type Store struct {
	mu        sync.RWMutex
	cells     map[stock.CellKey]stock.Cell
	movements []stock.Movement
	branches  map[id.ID]directoryEntry
	products  map[id.ID]directoryEntry
	now       func() time.Time
}

type directoryEntry struct {
	tenantID id.ID
	active   bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		cells:    make(map[stock.CellKey]stock.Cell),
		branches: make(map[id.ID]directoryEntry),
		products: make(map[id.ID]directoryEntry),
		now:      time.Now,
	}
}

// txState is the per-transaction staging area.
type txState struct {
	cells     map[stock.CellKey]stock.Cell
	expected  map[stock.CellKey]int64 // committed version first observed
	movements []stock.Movement
}

type txKey struct{}

func txFromContext(ctx context.Context) *txState {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return st
	}
	return nil
}

// committedCell must be called with s.mu held.
func (s *Store) committedCell(key stock.CellKey) stock.Cell {
	if c, ok := s.cells[key]; ok {
		return c
	}
	return stock.EmptyCell(key)
}

// commit applies a staged transaction if every cell it read is unchanged.
func (s *Store) commit(st *txState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, version := range st.expected {
		if _, staged := st.cells[key]; !staged {
			continue
		}
		if s.committedCell(key).Version != version {
			return apperror.NewConcurrentModification("stock_cell", key.String()).
				WithDetail("expectedVersion", version)
		}
	}

	for key, cell := range st.cells {
		s.cells[key] = cell
	}
	s.movements = append(s.movements, st.movements...)
	return nil
}

// --- stock.CellStore ---

// Get returns the committed cell or an empty one.
func (s *Store) Get(ctx context.Context, key stock.CellKey) (stock.Cell, error) {
	if st := txFromContext(ctx); st != nil {
		if c, ok := st.cells[key]; ok {
			return c, nil
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committedCell(key), nil
}

// GetOrCreate returns the cell as seen by the transaction and records the
// version it observed. An absent cell is version 0 and materializes on first swap.
func (s *Store) GetOrCreate(ctx context.Context, key stock.CellKey) (stock.Cell, error) {
	st := txFromContext(ctx)
	if st != nil {
		if c, ok := st.cells[key]; ok {
			return c, nil
		}
	}

	s.mu.RLock()
	cell := s.committedCell(key)
	s.mu.RUnlock()

	if st != nil {
		if _, seen := st.expected[key]; !seen {
			st.expected[key] = cell.Version
		}
	}
	return cell, nil
}

// CompareAndSwap stages (or, outside a transaction, writes) the new quantity.
func (s *Store) CompareAndSwap(ctx context.Context, key stock.CellKey, expectedVersion, newQuantity int64, at time.Time) (bool, error) {
	st := txFromContext(ctx)
	if st == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		current := s.committedCell(key)
		if current.Version != expectedVersion {
			return false, nil
		}
		s.cells[key] = swapped(current, newQuantity, at)
		return true, nil
	}

	current, staged := st.cells[key]
	if !staged {
		s.mu.RLock()
		current = s.committedCell(key)
		s.mu.RUnlock()
		if _, seen := st.expected[key]; !seen {
			st.expected[key] = current.Version
		}
	}
	if current.Version != expectedVersion {
		return false, nil
	}
	st.cells[key] = swapped(current, newQuantity, at)
	return true, nil
}

func swapped(c stock.Cell, quantity int64, at time.Time) stock.Cell {
	c.Quantity = quantity
	c.Version++
	c.UpdatedAt = at
	return c
}

// --- stock.Ledger ---

// Append assigns identity and stages the movement.
func (s *Store) Append(ctx context.Context, m *stock.Movement) error {
	if id.IsNil(m.ID) {
		m.ID = id.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}

	if st := txFromContext(ctx); st != nil {
		st.movements = append(st.movements, *m)
		return nil
	}

	s.mu.Lock()
	s.movements = append(s.movements, *m)
	s.mu.Unlock()
	return nil
}

// List returns committed movements for tenantID, newest first.
func (s *Store) List(_ context.Context, tenantID id.ID, filter stock.MovementFilter) (stock.Page[stock.Movement], error) {
	filter = filter.Normalize()

	s.mu.RLock()
	matched := make([]stock.Movement, 0)
	for _, m := range s.movements {
		if m.TenantID == tenantID && matches(m, filter) {
			matched = append(matched, m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return bytes.Compare(matched[i].ID[:], matched[j].ID[:]) > 0
	})

	page := stock.Page[stock.Movement]{
		Items:    []stock.Movement{},
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    len(matched),
	}
	start := filter.Offset()
	if start >= len(matched) {
		return page, nil
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	page.Items = matched[start:end]
	return page, nil
}

func matches(m stock.Movement, f stock.MovementFilter) bool {
	switch {
	case f.BranchID != nil && m.BranchID != *f.BranchID:
		return false
	case f.ProductID != nil && m.ProductID != *f.ProductID:
		return false
	case f.Type != nil && m.Type != *f.Type:
		return false
	case f.Reason != nil && m.Reason != *f.Reason:
		return false
	case f.FromDate != nil && m.CreatedAt.Before(*f.FromDate):
		return false
	case f.ToDate != nil && m.CreatedAt.After(*f.ToDate):
		return false
	}
	return true
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

var (
	_ stock.CellStore = (*Store)(nil)
	_ stock.Ledger    = (*Store)(nil)
)
