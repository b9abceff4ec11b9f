// Package ledger_repo provides PostgreSQL implementations of the stock ledger ports.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/storage/postgres"
)

const movementTable = "movement_log"

var movementColumns = []string{
	"id", "tenant_id", "branch_id", "product_id",
	"type", "reason", "quantity", "note",
	"transfer_id", "created_by_user_id", "created_at",
}

// MovementRepo implements stock.Ledger. It only inserts and selects.
type MovementRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewMovementRepo creates a new movement log repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     time.Now,
	}
}

var _ stock.Ledger = (*MovementRepo)(nil)

// Append inserts one movement.
func (r *MovementRepo) Append(ctx context.Context, m *stock.Movement) error {
	if id.IsNil(m.ID) {
		m.ID = id.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.now().UTC()
	}

	sql, args, err := r.insertQuery(m).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", postgres.MapError(err))
	}
	return nil
}

func (r *MovementRepo) insertQuery(m *stock.Movement) squirrel.InsertBuilder {
	return r.builder.Insert(movementTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.TenantID, m.BranchID, m.ProductID,
			m.Type, m.Reason, m.Quantity, m.Note,
			m.TransferID, m.CreatedByUserID, m.CreatedAt,
		)
}

// List returns a filtered page, newest first.
func (r *MovementRepo) List(ctx context.Context, tenantID id.ID, filter stock.MovementFilter) (stock.Page[stock.Movement], error) {
	filter = filter.Normalize()
	page := stock.Page[stock.Movement]{
		Items:    []stock.Movement{},
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	querier := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := r.countQuery(tenantID, filter).ToSql()
	if err != nil {
		return page, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count movements: %w", err)
	}
	if page.Total == 0 {
		return page, nil
	}

	sql, args, err := r.listQuery(tenantID, filter).ToSql()
	if err != nil {
		return page, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &page.Items, sql, args...); err != nil {
		return page, fmt.Errorf("select movements: %w", err)
	}
	return page, nil
}

func (r *MovementRepo) listQuery(tenantID id.ID, f stock.MovementFilter) squirrel.SelectBuilder {
	q := r.builder.Select(movementColumns...).From(movementTable)
	return applyFilter(q, tenantID, f).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.PageSize)).
		Offset(uint64(f.Offset()))
}

func (r *MovementRepo) countQuery(tenantID id.ID, f stock.MovementFilter) squirrel.SelectBuilder {
	return applyFilter(r.builder.Select("COUNT(*)").From(movementTable), tenantID, f)
}

func applyFilter(q squirrel.SelectBuilder, tenantID id.ID, f stock.MovementFilter) squirrel.SelectBuilder {
	q = q.Where(squirrel.Eq{"tenant_id": tenantID})
	if f.BranchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *f.BranchID})
	}
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.Type != nil {
		q = q.Where(squirrel.Eq{"type": *f.Type})
	}
	if f.Reason != nil {
		q = q.Where(squirrel.Eq{"reason": *f.Reason})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.ToDate})
	}
	return q
}
