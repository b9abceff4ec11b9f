package stock

import (
	"fmt"

	"stockledger/internal/core/apperror"
)

// reasonDirection is the deterministic direction table.
var reasonDirection = map[Reason]Direction{
	ReasonPurchase:      DirectionIncrease,
	ReasonReturn:        DirectionIncrease,
	ReasonAdjustmentIn:  DirectionIncrease,
	ReasonTransferIn:    DirectionIncrease,
	ReasonSale:          DirectionDecrease,
	ReasonLoss:          DirectionDecrease,
	ReasonAdjustmentOut: DirectionDecrease,
	ReasonTransferOut:   DirectionDecrease,
}

// allowedReasons lists the reasons each movement type accepts.
var allowedReasons = map[MovementType][]Reason{
	TypeIn:         {ReasonPurchase, ReasonReturn},
	TypeOut:        {ReasonSale, ReasonLoss},
	TypeAdjustment: {ReasonAdjustmentIn, ReasonAdjustmentOut},
	TypeTransfer:   {ReasonTransferIn, ReasonTransferOut},
}

// ClassifyDirection returns INCREASE or DECREASE for a (type, reason) pair.
// Unknown types, unknown reasons and mismatched pairs fail with a validation error.
func ClassifyDirection(t MovementType, r Reason) (Direction, error) {
	if err := ValidatePairing(t, r); err != nil {
		return 0, err
	}
	return reasonDirection[r], nil
}

// ValidatePairing checks that reason belongs to type.
func ValidatePairing(t MovementType, r Reason) error {
	reasons, ok := allowedReasons[t]
	if !ok {
		return apperror.NewValidationCode(apperror.CodeInvalidPairing, fmt.Sprintf("unknown movement type %q", t)).
			WithDetail("type", t)
	}
	for _, allowed := range reasons {
		if allowed == r {
			return nil
		}
	}
	return apperror.NewValidationCode(apperror.CodeInvalidPairing,
		fmt.Sprintf("reason %q is not valid for movement type %q", r, t)).
		WithDetail("type", t).
		WithDetail("reason", r)
}

// IsAdjustmentOrTransfer reports reasons restricted to elevated actors.
func (r Reason) IsAdjustmentOrTransfer() bool {
	switch r {
	case ReasonAdjustmentIn, ReasonAdjustmentOut, ReasonTransferIn, ReasonTransferOut:
		return true
	}
	return false
}
