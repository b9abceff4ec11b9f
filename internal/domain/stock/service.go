package stock

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/security"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// CreateMovementInput is a single-leg stock mutation request.
type CreateMovementInput struct {
	BranchID  id.ID
	ProductID id.ID
	Type      MovementType
	Reason    Reason
	Quantity  int64
	Note      *string
}

// TransferInput moves quantity of one product between two branches.
type TransferInput struct {
	SourceBranchID      id.ID
	DestinationBranchID id.ID
	ProductID           id.ID
	Quantity            int64
	Note                *string
}

// Service exposes the ledger operations. Every mutation runs in one
// transaction: read cell, check sufficiency, append movement, CAS the cell.
type Service struct {
	txManager   tx.Manager
	ledger      Ledger
	guard       *Guard
	validator   *Validator
	invalidator Invalidator
}

// NewService creates the stock service. invalidator may be nil.
func NewService(
	txManager tx.Manager,
	ledger Ledger,
	cells CellStore,
	validator *Validator,
	invalidator Invalidator,
) *Service {
	if invalidator == nil {
		invalidator = NopInvalidator{}
	}
	return &Service{
		txManager:   txManager,
		ledger:      ledger,
		guard:       NewGuard(cells),
		validator:   validator,
		invalidator: invalidator,
	}
}

// actor is the authenticated submitter of a mutation.
type actor struct {
	userID string
	roles  security.RoleSet
}

func currentTenant(ctx context.Context) (id.ID, error) {
	tenantID, err := tenant.CurrentID(ctx)
	if err != nil {
		return id.ID{}, apperror.NewUnauthorized("tenant is required").WithCause(err)
	}
	return tenantID, nil
}

func currentActor(ctx context.Context) (actor, error) {
	user := appctx.GetUser(ctx)
	if user == nil || user.UserID == "" {
		return actor{}, apperror.NewUnauthorized("authenticated actor is required")
	}
	return actor{userID: user.UserID, roles: security.NewRoleSet(user.Roles...)}, nil
}

// leg is one cell mutation inside a transaction.
type leg struct {
	key        CellKey
	movType    MovementType
	reason     Reason
	quantity   int64
	note       *string
	transferID *id.ID
	userID     string
}

// CreateMovement records one movement and updates its cell atomically.
func (s *Service) CreateMovement(ctx context.Context, in CreateMovementInput) (*Movement, error) {
	tenantID, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	act, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateRequest(act.roles, in.Type, in.Reason, in.Quantity); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateBranch(ctx, tenantID, in.BranchID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateProduct(ctx, tenantID, in.ProductID); err != nil {
		return nil, err
	}

	var movement *Movement
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.applyLeg(ctx, leg{
			key:      CellKey{TenantID: tenantID, BranchID: in.BranchID, ProductID: in.ProductID},
			movType:  in.Type,
			reason:   in.Reason,
			quantity: in.Quantity,
			note:     in.Note,
			userID:   act.userID,
		})
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		logRejected(ctx, "stock movement rejected", err,
			"branch_id", in.BranchID, "product_id", in.ProductID,
			"type", in.Type, "reason", in.Reason, "quantity", in.Quantity)
		return nil, err
	}

	componentLog(ctx).Infow("stock movement recorded",
		"movement_id", movement.ID,
		"branch_id", movement.BranchID,
		"product_id", movement.ProductID,
		"type", movement.Type,
		"reason", movement.Reason,
		"quantity", movement.Quantity)

	s.invalidate(ctx, tenantID, in.BranchID)
	return movement, nil
}

// TransferStock moves quantity from source to destination as a single
// transaction producing a TRANSFER_OUT and a TRANSFER_IN movement.
// Either both legs commit or neither does.
func (s *Service) TransferStock(ctx context.Context, in TransferInput) (*TransferResult, error) {
	tenantID, err := currentTenant(ctx)
	if err != nil {
		return nil, err
	}
	act, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	if in.SourceBranchID == in.DestinationBranchID {
		return nil, apperror.NewValidationCode(apperror.CodeTransferSameBranch,
			"source and destination branch must differ").
			WithDetail("branchId", in.SourceBranchID.String())
	}
	if err := s.validator.ValidateRequest(act.roles, TypeTransfer, ReasonTransferOut, in.Quantity); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateRequest(act.roles, TypeTransfer, ReasonTransferIn, in.Quantity); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateBranch(ctx, tenantID, in.SourceBranchID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateBranch(ctx, tenantID, in.DestinationBranchID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateProduct(ctx, tenantID, in.ProductID); err != nil {
		return nil, err
	}

	transferID := id.New()
	result := &TransferResult{TransferID: transferID}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		out, err := s.applyLeg(ctx, leg{
			key:        CellKey{TenantID: tenantID, BranchID: in.SourceBranchID, ProductID: in.ProductID},
			movType:    TypeTransfer,
			reason:     ReasonTransferOut,
			quantity:   in.Quantity,
			note:       in.Note,
			transferID: &transferID,
			userID:     act.userID,
		})
		if err != nil {
			return fmt.Errorf("transfer source leg: %w", err)
		}

		inbound, err := s.applyLeg(ctx, leg{
			key:        CellKey{TenantID: tenantID, BranchID: in.DestinationBranchID, ProductID: in.ProductID},
			movType:    TypeTransfer,
			reason:     ReasonTransferIn,
			quantity:   in.Quantity,
			note:       in.Note,
			transferID: &transferID,
			userID:     act.userID,
		})
		if err != nil {
			return fmt.Errorf("transfer destination leg: %w", err)
		}

		result.SourceMovementID = out.ID
		result.DestinationMovementID = inbound.ID
		return nil
	})
	if err != nil {
		logRejected(ctx, "stock transfer rejected", err,
			"source_branch_id", in.SourceBranchID,
			"destination_branch_id", in.DestinationBranchID,
			"product_id", in.ProductID,
			"quantity", in.Quantity)
		return nil, err
	}

	componentLog(ctx).Infow("stock transfer recorded",
		"transfer_id", transferID,
		"source_branch_id", in.SourceBranchID,
		"destination_branch_id", in.DestinationBranchID,
		"product_id", in.ProductID,
		"quantity", in.Quantity)

	s.invalidate(ctx, tenantID, in.SourceBranchID, in.DestinationBranchID)
	return result, nil
}

// GetCurrentStock returns the committed cell. A never-touched cell reads
// as quantity 0, version 0, and is not created by the read.
func (s *Service) GetCurrentStock(ctx context.Context, branchID, productID id.ID) (Cell, error) {
	tenantID, err := currentTenant(ctx)
	if err != nil {
		return Cell{}, err
	}
	if err := s.validator.ValidateExists(ctx, tenantID, branchID, productID); err != nil {
		return Cell{}, err
	}

	cell, err := s.guard.cells.Get(ctx, CellKey{TenantID: tenantID, BranchID: branchID, ProductID: productID})
	if err != nil {
		return Cell{}, fmt.Errorf("get stock cell: %w", err)
	}
	return cell, nil
}

// ListMovementHistory returns a page of the tenant's movements, newest first.
func (s *Service) ListMovementHistory(ctx context.Context, filter MovementFilter) (Page[Movement], error) {
	tenantID, err := currentTenant(ctx)
	if err != nil {
		return Page[Movement]{}, err
	}

	filter = filter.Normalize()
	if filter.Type != nil && filter.Reason != nil {
		if err := ValidatePairing(*filter.Type, *filter.Reason); err != nil {
			return Page[Movement]{}, err
		}
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return Page[Movement]{}, apperror.NewValidation("from must not be after to")
	}

	page, err := s.ledger.List(ctx, tenantID, filter)
	if err != nil {
		return Page[Movement]{}, fmt.Errorf("list movements: %w", err)
	}
	return page, nil
}

// applyLeg runs inside a transaction: read, check, append, swap.
func (s *Service) applyLeg(ctx context.Context, l leg) (*Movement, error) {
	dir, err := ClassifyDirection(l.movType, l.reason)
	if err != nil {
		return nil, err
	}

	cell, err := s.guard.Load(ctx, l.key)
	if err != nil {
		return nil, err
	}

	if dir == DirectionDecrease {
		if err := s.validator.ValidateSufficiency(cell.Quantity, l.quantity); err != nil {
			return nil, err
		}
	}

	m := &Movement{
		TenantID:        l.key.TenantID,
		BranchID:        l.key.BranchID,
		ProductID:       l.key.ProductID,
		Type:            l.movType,
		Reason:          l.reason,
		Quantity:        l.quantity,
		Note:            l.note,
		TransferID:      l.transferID,
		CreatedByUserID: l.userID,
	}
	if err := s.ledger.Append(ctx, m); err != nil {
		return nil, fmt.Errorf("append movement: %w", err)
	}

	if _, err := s.guard.ApplyDelta(ctx, cell, int64(dir)*l.quantity); err != nil {
		return nil, err
	}
	return m, nil
}

// invalidate signals read aggregates once per committed request.
// Delivery failure is logged; the commit stands.
func (s *Service) invalidate(ctx context.Context, tenantID id.ID, branchIDs ...id.ID) {
	if err := s.invalidator.Invalidate(ctx, tenantID, branchIDs...); err != nil {
		componentLog(ctx).Warnw("cache invalidation failed", "error", err)
	}
}

func logRejected(ctx context.Context, msg string, err error, keysAndValues ...any) {
	kind := apperror.KindOf(err)
	keysAndValues = append(keysAndValues, "kind", kind.String(), "error", err)
	if kind == apperror.KindInternal {
		componentLog(ctx).Errorw(msg, keysAndValues...)
		return
	}
	componentLog(ctx).Warnw(msg, keysAndValues...)
}

func componentLog(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx).WithComponent("stock")
}
