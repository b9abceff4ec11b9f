package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"stockledger/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes the ledger reacts to.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgCheckViolation       = "23514"
)

// MapError converts driver errors with a domain meaning into AppErrors.
// Anything else is returned unchanged.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		return apperror.NewConcurrentModification("stock_cell", pgErr.TableName).WithCause(err)
	case pgCheckViolation:
		return apperror.NewValidation("stock quantity would become negative").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}
