package stock

import (
	"context"
	"errors"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/security"
)

// Validator runs the pure pre-condition checks of a stock mutation.
// It never writes.
type Validator struct {
	branches BranchDirectory
	products ProductDirectory
	rule     *security.MovementRule // optional
}

// NewValidator creates a validator. rule may be nil.
func NewValidator(branches BranchDirectory, products ProductDirectory, rule *security.MovementRule) *Validator {
	return &Validator{branches: branches, products: products, rule: rule}
}

// ValidateBranch fails with NotFound when the branch is missing and with a
// validation error when it is inactive.
func (v *Validator) ValidateBranch(ctx context.Context, tenantID, branchID id.ID) error {
	return checkActive("branch", branchID, func() (bool, error) {
		return v.branches.IsActive(ctx, tenantID, branchID)
	})
}

// ValidateProduct mirrors ValidateBranch for products.
func (v *Validator) ValidateProduct(ctx context.Context, tenantID, productID id.ID) error {
	return checkActive("product", productID, func() (bool, error) {
		return v.products.IsActive(ctx, tenantID, productID)
	})
}

// ValidateExists only checks existence. Reads accept inactive entities.
func (v *Validator) ValidateExists(ctx context.Context, tenantID, branchID, productID id.ID) error {
	if _, err := v.branches.IsActive(ctx, tenantID, branchID); err != nil {
		return directoryError("branch", branchID, err)
	}
	if _, err := v.products.IsActive(ctx, tenantID, productID); err != nil {
		return directoryError("product", productID, err)
	}
	return nil
}

func checkActive(entity string, entityID id.ID, lookup func() (bool, error)) error {
	active, err := lookup()
	if err != nil {
		return directoryError(entity, entityID, err)
	}
	if !active {
		return apperror.NewInactive(entity, entityID.String())
	}
	return nil
}

func directoryError(entity string, entityID id.ID, err error) error {
	if errors.Is(err, ErrEntityNotFound) {
		return apperror.NewNotFound(entity, entityID.String())
	}
	return fmt.Errorf("lookup %s: %w", entity, err)
}

// ValidateQuantity requires a strictly positive quantity.
func (v *Validator) ValidateQuantity(quantity int64) error {
	if quantity <= 0 {
		return apperror.NewValidationCode(apperror.CodeInvalidQuantity, "quantity must be greater than zero").
			WithDetail("quantity", quantity)
	}
	return nil
}

// ValidateSufficiency fails when a decrease would drive the cell negative.
func (v *Validator) ValidateSufficiency(available, requested int64) error {
	if available < requested {
		return apperror.NewInsufficientStock(requested, available)
	}
	return nil
}

// ValidateRolePolicy enforces which (type, reason) pairs an actor may submit.
// ADMIN and MANAGER may submit anything; STAFF only plain IN and OUT.
func (v *Validator) ValidateRolePolicy(roles security.RoleSet, t MovementType, r Reason) error {
	if roles.IsElevated() {
		return nil
	}
	if !roles.IsRestricted() {
		return apperror.NewForbidden("actor has no stock role")
	}

	switch {
	case t == TypeIn && (r == ReasonPurchase || r == ReasonReturn):
		return nil
	case t == TypeOut && (r == ReasonSale || r == ReasonLoss):
		return nil
	}

	return apperror.NewForbidden(fmt.Sprintf("role STAFF may not submit %s/%s", t, r)).
		WithDetail("type", t).
		WithDetail("reason", r)
}

// ValidateRule evaluates the optional tenant movement rule.
func (v *Validator) ValidateRule(roles security.RoleSet, t MovementType, r Reason, quantity int64) error {
	if v.rule == nil {
		return nil
	}

	allowed, err := v.rule.Allows(security.MovementFacts{
		Type:     string(t),
		Reason:   string(r),
		Quantity: quantity,
		Roles:    roles.Names(),
	})
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !allowed {
		return apperror.NewForbidden("movement rejected by rule").
			WithDetail("rule", v.rule.String())
	}
	return nil
}

// ValidateRequest runs every stateless check for one movement leg:
// quantity, pairing, role policy and rule, in that order.
func (v *Validator) ValidateRequest(roles security.RoleSet, t MovementType, r Reason, quantity int64) error {
	if err := v.ValidateQuantity(quantity); err != nil {
		return err
	}
	if err := ValidatePairing(t, r); err != nil {
		return err
	}
	if err := v.ValidateRolePolicy(roles, t, r); err != nil {
		return err
	}
	return v.ValidateRule(roles, t, r, quantity)
}
