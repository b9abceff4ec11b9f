package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/storage/postgres"
)

const cellTable = "stock_cell"

var cellColumns = []string{
	"tenant_id", "branch_id", "product_id", "quantity", "version", "updated_at",
}

// CellRepo implements stock.CellStore with a version-checked UPDATE.
type CellRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewCellRepo creates a new stock cell repository.
func NewCellRepo(txm *postgres.TxManager) *CellRepo {
	return &CellRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     time.Now,
	}
}

var _ stock.CellStore = (*CellRepo)(nil)

// Get returns the committed row, or an empty cell when none exists.
func (r *CellRepo) Get(ctx context.Context, key stock.CellKey) (stock.Cell, error) {
	sql, args, err := r.selectQuery(key).ToSql()
	if err != nil {
		return stock.Cell{}, fmt.Errorf("build query: %w", err)
	}

	var cell stock.Cell
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &cell, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.EmptyCell(key), nil
		}
		return stock.Cell{}, fmt.Errorf("get stock cell: %w", err)
	}
	return cell, nil
}

// GetOrCreate inserts a zero row if absent and reads it back.
// Concurrent creators converge on the same row through ON CONFLICT.
func (r *CellRepo) GetOrCreate(ctx context.Context, key stock.CellKey) (stock.Cell, error) {
	sql, args, err := r.createQuery(key, r.now().UTC()).ToSql()
	if err != nil {
		return stock.Cell{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return stock.Cell{}, fmt.Errorf("create stock cell: %w", postgres.MapError(err))
	}
	return r.Get(ctx, key)
}

// CompareAndSwap updates the row only when its version is unchanged.
func (r *CellRepo) CompareAndSwap(ctx context.Context, key stock.CellKey, expectedVersion, newQuantity int64, at time.Time) (bool, error) {
	sql, args, err := r.swapQuery(key, expectedVersion, newQuantity, at).ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("swap stock cell: %w", postgres.MapError(err))
	}
	return tag.RowsAffected() == 1, nil
}

func keyEq(key stock.CellKey) squirrel.Eq {
	return squirrel.Eq{
		"tenant_id":  key.TenantID,
		"branch_id":  key.BranchID,
		"product_id": key.ProductID,
	}
}

func (r *CellRepo) selectQuery(key stock.CellKey) squirrel.SelectBuilder {
	return r.builder.Select(cellColumns...).
		From(cellTable).
		Where(keyEq(key)).
		Limit(1)
}

func (r *CellRepo) createQuery(key stock.CellKey, at time.Time) squirrel.InsertBuilder {
	return r.builder.Insert(cellTable).
		Columns(cellColumns...).
		Values(key.TenantID, key.BranchID, key.ProductID, 0, 0, at).
		Suffix("ON CONFLICT (tenant_id, branch_id, product_id) DO NOTHING")
}

func (r *CellRepo) swapQuery(key stock.CellKey, expectedVersion, newQuantity int64, at time.Time) squirrel.UpdateBuilder {
	where := keyEq(key)
	where["version"] = expectedVersion

	return r.builder.Update(cellTable).
		Set("quantity", newQuantity).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", at).
		Where(where)
}
