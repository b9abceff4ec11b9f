package dto

import (
	"time"

	"stockledger/internal/domain/stock"
)

// --- Request DTOs ---

// CreateMovementRequest is the body of POST /stock/movements.
type CreateMovementRequest struct {
	BranchID  string  `json:"branchId" binding:"required"`
	ProductID string  `json:"productId" binding:"required"`
	Type      string  `json:"type" binding:"required"`
	Reason    string  `json:"reason" binding:"required"`
	Quantity  int64   `json:"quantity"`
	Note      *string `json:"note" binding:"omitempty,max=1000"`
}

// ToInput converts the request to the service input.
func (r CreateMovementRequest) ToInput() (stock.CreateMovementInput, error) {
	branchID, err := ParseID("branchId", r.BranchID)
	if err != nil {
		return stock.CreateMovementInput{}, err
	}
	productID, err := ParseID("productId", r.ProductID)
	if err != nil {
		return stock.CreateMovementInput{}, err
	}

	return stock.CreateMovementInput{
		BranchID:  branchID,
		ProductID: productID,
		Type:      stock.MovementType(r.Type),
		Reason:    stock.Reason(r.Reason),
		Quantity:  r.Quantity,
		Note:      r.Note,
	}, nil
}

// TransferRequest is the body of POST /stock/transfers.
type TransferRequest struct {
	SourceBranchID      string  `json:"sourceBranchId" binding:"required"`
	DestinationBranchID string  `json:"destinationBranchId" binding:"required"`
	ProductID           string  `json:"productId" binding:"required"`
	Quantity            int64   `json:"quantity"`
	Note                *string `json:"note" binding:"omitempty,max=1000"`
}

// ToInput converts the request to the service input.
func (r TransferRequest) ToInput() (stock.TransferInput, error) {
	source, err := ParseID("sourceBranchId", r.SourceBranchID)
	if err != nil {
		return stock.TransferInput{}, err
	}
	destination, err := ParseID("destinationBranchId", r.DestinationBranchID)
	if err != nil {
		return stock.TransferInput{}, err
	}
	productID, err := ParseID("productId", r.ProductID)
	if err != nil {
		return stock.TransferInput{}, err
	}

	return stock.TransferInput{
		SourceBranchID:      source,
		DestinationBranchID: destination,
		ProductID:           productID,
		Quantity:            r.Quantity,
		Note:                r.Note,
	}, nil
}

// MovementHistoryQuery holds GET /stock/movements query parameters.
type MovementHistoryQuery struct {
	BranchID  string `form:"branchId"`
	ProductID string `form:"productId"`
	Type      string `form:"type"`
	Reason    string `form:"reason"`
	From      string `form:"from"`
	To        string `form:"to"`
	Page      int    `form:"page" binding:"omitempty,min=1,max=1000000"`
	PageSize  int    `form:"pageSize" binding:"omitempty,min=1,max=200"`
}

// ToFilter converts query parameters to a movement filter.
func (q MovementHistoryQuery) ToFilter() (stock.MovementFilter, error) {
	f := stock.MovementFilter{Page: q.Page, PageSize: q.PageSize}

	var err error
	if f.BranchID, err = ParseOptionalID("branchId", q.BranchID); err != nil {
		return f, err
	}
	if f.ProductID, err = ParseOptionalID("productId", q.ProductID); err != nil {
		return f, err
	}
	if f.FromDate, err = ParseOptionalTime("from", q.From); err != nil {
		return f, err
	}
	if f.ToDate, err = ParseOptionalTime("to", q.To); err != nil {
		return f, err
	}
	if q.Type != "" {
		t := stock.MovementType(q.Type)
		f.Type = &t
	}
	if q.Reason != "" {
		r := stock.Reason(q.Reason)
		f.Reason = &r
	}
	return f, nil
}

// --- Response DTOs ---

// MovementResponse represents a ledger entry in API responses.
type MovementResponse struct {
	ID              string    `json:"id"`
	BranchID        string    `json:"branchId"`
	ProductID       string    `json:"productId"`
	Type            string    `json:"type"`
	Reason          string    `json:"reason"`
	Quantity        int64     `json:"quantity"`
	Note            *string   `json:"note,omitempty"`
	TransferID      *string   `json:"transferId,omitempty"`
	CreatedByUserID string    `json:"createdByUserId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// FromMovement converts a movement to response DTO.
func FromMovement(m stock.Movement) MovementResponse {
	resp := MovementResponse{
		ID:              m.ID.String(),
		BranchID:        m.BranchID.String(),
		ProductID:       m.ProductID.String(),
		Type:            string(m.Type),
		Reason:          string(m.Reason),
		Quantity:        m.Quantity,
		Note:            m.Note,
		CreatedByUserID: m.CreatedByUserID,
		CreatedAt:       m.CreatedAt,
	}
	if m.TransferID != nil {
		s := m.TransferID.String()
		resp.TransferID = &s
	}
	return resp
}

// FromMovements converts a slice of movements.
func FromMovements(items []stock.Movement) []MovementResponse {
	out := make([]MovementResponse, len(items))
	for i, m := range items {
		out[i] = FromMovement(m)
	}
	return out
}

// CellResponse represents current stock in API responses.
type CellResponse struct {
	BranchID  string     `json:"branchId"`
	ProductID string     `json:"productId"`
	Quantity  int64      `json:"quantity"`
	Version   int64      `json:"version"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// FromCell converts a cell to response DTO. A never-touched cell has no updatedAt.
func FromCell(c stock.Cell) CellResponse {
	resp := CellResponse{
		BranchID:  c.BranchID.String(),
		ProductID: c.ProductID.String(),
		Quantity:  c.Quantity,
		Version:   c.Version,
	}
	if !c.UpdatedAt.IsZero() {
		v := c.UpdatedAt
		resp.UpdatedAt = &v
	}
	return resp
}

// TransferResponse identifies the movements of a committed transfer.
type TransferResponse struct {
	TransferID            string `json:"transferId"`
	SourceMovementID      string `json:"sourceMovementId"`
	DestinationMovementID string `json:"destinationMovementId"`
}

// FromTransferResult converts a transfer result to response DTO.
func FromTransferResult(r *stock.TransferResult) TransferResponse {
	return TransferResponse{
		TransferID:            r.TransferID.String(),
		SourceMovementID:      r.SourceMovementID.String(),
		DestinationMovementID: r.DestinationMovementID.String(),
	}
}
