package stock

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
)

// Guard is the only writer of stock cells. Every write is a compare-and-swap
// on the version read in the same transaction; a lost race surfaces as
// ConcurrentModification and is never retried here.
type Guard struct {
	cells CellStore
	now   func() time.Time
}

// NewGuard creates a consistency guard over the cell store.
func NewGuard(cells CellStore) *Guard {
	return &Guard{cells: cells, now: time.Now}
}

// Load returns the cell for key, creating it lazily.
func (g *Guard) Load(ctx context.Context, key CellKey) (Cell, error) {
	cell, err := g.cells.GetOrCreate(ctx, key)
	if err != nil {
		return Cell{}, fmt.Errorf("load stock cell: %w", err)
	}
	return cell, nil
}

// ApplyDelta writes cell.Quantity+delta if the cell version is unchanged
// since it was read, and returns the new snapshot.
func (g *Guard) ApplyDelta(ctx context.Context, cell Cell, delta int64) (Cell, error) {
	newQuantity := cell.Quantity + delta
	if newQuantity < 0 {
		return Cell{}, apperror.NewInsufficientStock(-delta, cell.Quantity)
	}

	now := g.now().UTC()
	ok, err := g.cells.CompareAndSwap(ctx, cell.Key(), cell.Version, newQuantity, now)
	if err != nil {
		return Cell{}, fmt.Errorf("update stock cell: %w", err)
	}
	if !ok {
		return Cell{}, apperror.NewConcurrentModification("stock_cell", cell.Key().String()).
			WithDetail("expectedVersion", cell.Version)
	}

	cell.Quantity = newQuantity
	cell.Version++
	cell.UpdatedAt = now
	return cell, nil
}
