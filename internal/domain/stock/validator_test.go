package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/security"
)

type stubDirectory struct {
	active map[id.ID]bool
	err    error
}

func (d stubDirectory) IsActive(_ context.Context, _, entityID id.ID) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	active, ok := d.active[entityID]
	if !ok {
		return false, ErrEntityNotFound
	}
	return active, nil
}

func TestValidator_ValidateBranch(t *testing.T) {
	activeID, inactiveID := id.New(), id.New()
	v := NewValidator(stubDirectory{active: map[id.ID]bool{activeID: true, inactiveID: false}}, stubDirectory{}, nil)
	ctx := context.Background()
	tenantID := id.New()

	assert.NoError(t, v.ValidateBranch(ctx, tenantID, activeID))

	err := v.ValidateBranch(ctx, tenantID, inactiveID)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	err = v.ValidateBranch(ctx, tenantID, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestValidator_DirectoryFailureIsInternal(t *testing.T) {
	v := NewValidator(stubDirectory{}, stubDirectory{err: errors.New("db down")}, nil)

	err := v.ValidateProduct(context.Background(), id.New(), id.New())
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}

func TestValidator_ValidateExistsAcceptsInactive(t *testing.T) {
	branchID, productID := id.New(), id.New()
	v := NewValidator(
		stubDirectory{active: map[id.ID]bool{branchID: false}},
		stubDirectory{active: map[id.ID]bool{productID: false}},
		nil,
	)

	assert.NoError(t, v.ValidateExists(context.Background(), id.New(), branchID, productID))
	assert.True(t, apperror.IsNotFound(v.ValidateExists(context.Background(), id.New(), branchID, id.New())))
}

func TestValidator_ValidateSufficiency(t *testing.T) {
	v := NewValidator(nil, nil, nil)

	assert.NoError(t, v.ValidateSufficiency(50, 50))

	err := v.ValidateSufficiency(50, 60)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInsufficientStock, appErr.Kind)
	assert.Equal(t, int64(60), appErr.Details["requested"])
	assert.Equal(t, int64(50), appErr.Details["available"])
}

func TestValidator_ValidateQuantity(t *testing.T) {
	v := NewValidator(nil, nil, nil)

	assert.NoError(t, v.ValidateQuantity(1))
	for _, q := range []int64{0, -5} {
		appErr, ok := apperror.AsAppError(v.ValidateQuantity(q))
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidQuantity, appErr.Code)
	}
}

func TestValidator_RolePolicy(t *testing.T) {
	v := NewValidator(nil, nil, nil)
	staff := security.NewRoleSet("STAFF")
	manager := security.NewRoleSet("MANAGER")
	admin := security.NewRoleSet("admin")
	staffAndManager := security.NewRoleSet("STAFF", "MANAGER")
	none := security.NewRoleSet()
	viewer := security.NewRoleSet("VIEWER")

	tests := []struct {
		name    string
		roles   security.RoleSet
		movType MovementType
		reason  Reason
		allowed bool
	}{
		{"staff purchase", staff, TypeIn, ReasonPurchase, true},
		{"staff return", staff, TypeIn, ReasonReturn, true},
		{"staff sale", staff, TypeOut, ReasonSale, true},
		{"staff loss", staff, TypeOut, ReasonLoss, true},
		{"staff adjustment", staff, TypeAdjustment, ReasonAdjustmentIn, false},
		{"staff transfer", staff, TypeTransfer, ReasonTransferOut, false},
		{"manager adjustment", manager, TypeAdjustment, ReasonAdjustmentOut, true},
		{"admin transfer", admin, TypeTransfer, ReasonTransferIn, true},
		{"staff with manager", staffAndManager, TypeAdjustment, ReasonAdjustmentIn, true},
		{"no roles", none, TypeIn, ReasonPurchase, false},
		{"unknown role", viewer, TypeOut, ReasonSale, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRolePolicy(tt.roles, tt.movType, tt.reason)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
		})
	}
}

func TestValidator_Rule(t *testing.T) {
	rule, err := security.CompileMovementRule(`!(reason == "LOSS" && quantity > 100) || "ADMIN" in roles`)
	require.NoError(t, err)
	v := NewValidator(nil, nil, rule)

	assert.NoError(t, v.ValidateRule(security.NewRoleSet("STAFF"), TypeOut, ReasonLoss, 100))
	assert.NoError(t, v.ValidateRule(security.NewRoleSet("ADMIN"), TypeOut, ReasonLoss, 500))

	err = v.ValidateRule(security.NewRoleSet("MANAGER"), TypeOut, ReasonLoss, 101)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestValidator_ValidateRequestOrder(t *testing.T) {
	v := NewValidator(nil, nil, nil)
	staff := security.NewRoleSet("STAFF")

	// Quantity is checked before pairing and role.
	appErr, ok := apperror.AsAppError(v.ValidateRequest(staff, TypeAdjustment, ReasonSale, 0))
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidQuantity, appErr.Code)

	appErr, ok = apperror.AsAppError(v.ValidateRequest(staff, TypeAdjustment, ReasonSale, 1))
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidPairing, appErr.Code)

	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(v.ValidateRequest(staff, TypeAdjustment, ReasonAdjustmentIn, 1)))
}
