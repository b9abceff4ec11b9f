// Package stock provides the stock ledger and concurrency core: the append-only
// movement log, the per-(tenant, branch, product) current-quantity cell kept
// under optimistic concurrency, and the branch-to-branch transfer protocol.
package stock

import (
	"fmt"
	"time"

	"stockledger/internal/core/id"
)

// MovementType classifies a ledger entry.
type MovementType string

const (
	TypeIn         MovementType = "IN"
	TypeOut        MovementType = "OUT"
	TypeAdjustment MovementType = "ADJUSTMENT"
	TypeTransfer   MovementType = "TRANSFER"
)

// Reason explains why a movement happened.
type Reason string

const (
	ReasonPurchase      Reason = "PURCHASE"
	ReasonSale          Reason = "SALE"
	ReasonLoss          Reason = "LOSS"
	ReasonReturn        Reason = "RETURN"
	ReasonAdjustmentIn  Reason = "ADJUSTMENT_IN"
	ReasonAdjustmentOut Reason = "ADJUSTMENT_OUT"
	ReasonTransferIn    Reason = "TRANSFER_IN"
	ReasonTransferOut   Reason = "TRANSFER_OUT"
)

// Direction is the sign a movement applies to its cell.
type Direction int

const (
	DirectionIncrease Direction = 1
	DirectionDecrease Direction = -1
)

func (d Direction) String() string {
	if d == DirectionDecrease {
		return "DECREASE"
	}
	return "INCREASE"
}

// CellKey addresses one unit of current stock.
type CellKey struct {
	TenantID  id.ID
	BranchID  id.ID
	ProductID id.ID
}

func (k CellKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.TenantID, k.BranchID, k.ProductID)
}

// Movement is an immutable ledger entry. It is never updated or deleted.
type Movement struct {
	ID        id.ID        `db:"id" json:"id"`
	TenantID  id.ID        `db:"tenant_id" json:"tenantId"`
	BranchID  id.ID        `db:"branch_id" json:"branchId"`
	ProductID id.ID        `db:"product_id" json:"productId"`
	Type      MovementType `db:"type" json:"type"`
	Reason    Reason       `db:"reason" json:"reason"`

	// Quantity is always positive; the sign comes from (Type, Reason).
	Quantity int64 `db:"quantity" json:"quantity"`

	Note *string `db:"note" json:"note,omitempty"`

	// TransferID links the two legs of one transfer.
	TransferID *id.ID `db:"transfer_id" json:"transferId,omitempty"`

	CreatedByUserID string    `db:"created_by_user_id" json:"createdByUserId"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// Key returns the cell this movement applies to.
func (m *Movement) Key() CellKey {
	return CellKey{TenantID: m.TenantID, BranchID: m.BranchID, ProductID: m.ProductID}
}

// SignedQuantity returns quantity with sign based on direction.
func (m *Movement) SignedQuantity() int64 {
	dir, err := ClassifyDirection(m.Type, m.Reason)
	if err != nil {
		return 0
	}
	return int64(dir) * m.Quantity
}

// Cell is the current-quantity snapshot of one (tenant, branch, product).
// It is a materialized projection of the ledger: Quantity equals the signed
// sum of every committed movement for the same key.
type Cell struct {
	TenantID  id.ID     `db:"tenant_id" json:"tenantId"`
	BranchID  id.ID     `db:"branch_id" json:"branchId"`
	ProductID id.ID     `db:"product_id" json:"productId"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	Version   int64     `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Key returns the cell address.
func (c Cell) Key() CellKey {
	return CellKey{TenantID: c.TenantID, BranchID: c.BranchID, ProductID: c.ProductID}
}

// EmptyCell is the lazily created state of a never-touched cell.
func EmptyCell(key CellKey) Cell {
	return Cell{TenantID: key.TenantID, BranchID: key.BranchID, ProductID: key.ProductID}
}

// TransferResult identifies the two ledger rows produced by one transfer.
type TransferResult struct {
	TransferID            id.ID `json:"transferId"`
	SourceMovementID      id.ID `json:"sourceMovementId"`
	DestinationMovementID id.ID `json:"destinationMovementId"`
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200

	// MaxPage keeps (Page-1)*PageSize well inside int64.
	MaxPage = 1_000_000
)

// MovementFilter for movement history queries. Nil fields do not filter.
type MovementFilter struct {
	BranchID  *id.ID
	ProductID *id.ID
	Type      *MovementType
	Reason    *Reason
	FromDate  *time.Time
	ToDate    *time.Time
	Page      int // 1-based
	PageSize  int
}

// Normalize clamps pagination to sane bounds.
func (f MovementFilter) Normalize() MovementFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset returns the row offset of the requested page.
func (f MovementFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}
