package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/storage/postgres"
)

// DirectoryRepo answers IsActive against a tenant-scoped catalog table.
type DirectoryRepo struct {
	txm     *postgres.TxManager
	table   string
	builder squirrel.StatementBuilderType
}

// NewBranchDirectory reads the branches table.
func NewBranchDirectory(txm *postgres.TxManager) *DirectoryRepo {
	return newDirectoryRepo(txm, "branches")
}

// NewProductDirectory reads the products table.
func NewProductDirectory(txm *postgres.TxManager) *DirectoryRepo {
	return newDirectoryRepo(txm, "products")
}

func newDirectoryRepo(txm *postgres.TxManager, table string) *DirectoryRepo {
	return &DirectoryRepo{
		txm:     txm,
		table:   table,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var (
	_ stock.BranchDirectory  = (*DirectoryRepo)(nil)
	_ stock.ProductDirectory = (*DirectoryRepo)(nil)
)

// IsActive returns stock.ErrEntityNotFound for rows of other tenants.
func (r *DirectoryRepo) IsActive(ctx context.Context, tenantID, entityID id.ID) (bool, error) {
	sql, args, err := r.activeQuery(tenantID, entityID).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var active bool
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &active, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, stock.ErrEntityNotFound
		}
		return false, fmt.Errorf("lookup %s: %w", r.table, err)
	}
	return active, nil
}

func (r *DirectoryRepo) activeQuery(tenantID, entityID id.ID) squirrel.SelectBuilder {
	return r.builder.Select("is_active").
		From(r.table).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": entityID}).
		Limit(1)
}
