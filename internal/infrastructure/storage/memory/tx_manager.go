package memory

import (
	"context"

	"stockledger/internal/core/tx"
	"stockledger/internal/domain/stock"
)

// TxManager runs functions against a staged view of the Store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager over store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction executes fn and commits its staged writes on success.
// Nested calls join the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	st := &txState{
		cells:    make(map[stock.CellKey]stock.Cell),
		expected: make(map[stock.CellKey]int64),
	}
	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		return err
	}
	return m.store.commit(st)
}

var _ tx.Manager = (*TxManager)(nil)
