package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// MovementKind enumerates supported inventory movements.
type MovementKind string

const (
	// MovementIncome represents stock received; quantities are positive.
	MovementIncome MovementKind = "income"
	// MovementOutcome represents stock issued; quantities are negative.
	MovementOutcome MovementKind = "outcome"
	// MovementAdjustment represents manual corrections, either sign.
	MovementAdjustment MovementKind = "adjustment"
)

// Movement is one row of the append-only product quantity log. On-hand
// stock for a product is the running sum of its movements.
type Movement struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Qty       decimal.Decimal `json:"quantity"`
	Kind      MovementKind    `json:"kind"`
	Notes     string          `json:"notes"`
	Actor     string          `json:"actor"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshot caches the running sum per product; it is refreshed in the same
// unit of work as every movement.
type Snapshot struct {
	ProductID uuid.UUID       `json:"product_id"`
	Qty       decimal.Decimal `json:"quantity"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductStock is the engine's view of a product row, loaded under a
// row-level lock before any snapshot or cost write.
type ProductStock struct {
	ID            uuid.UUID
	Name          string
	Cost          decimal.Decimal
	MinStock      decimal.Decimal
	SupplierID    *uuid.UUID
	IsConsignment bool
}

// CostMethod tags a cost-history row.
type CostMethod string

const (
	CostMethodAverage    CostMethod = "average"
	CostMethodAdjustment CostMethod = "adjustment"
)

// CostChange is the audit record appended on every cost-affecting event.
type CostChange struct {
	ID            uuid.UUID        `json:"id"`
	ProductID     uuid.UUID        `json:"product_id"`
	OldCost       decimal.Decimal  `json:"old_cost"`
	NewCost       decimal.Decimal  `json:"new_cost"`
	OldQty        decimal.Decimal  `json:"old_qty"`
	NewQty        decimal.Decimal  `json:"new_qty"`
	PurchaseQty   decimal.Decimal  `json:"purchase_qty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	Method        CostMethod       `json:"method"`
	Actor         string           `json:"actor"`
	CreatedAt     time.Time        `json:"created_at"`

	// Skipped marks consignment products, whose cost stays supplier-set.
	Skipped bool `json:"skipped,omitempty"`
}

// MovementInput describes a requested movement. Qty is signed and must
// agree with the kind: income positive, outcome negative, adjustment
// non-zero.
type MovementInput struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
	Kind      MovementKind
	Notes     string
	Actor     string

	// AllowNegative permits an adjustment to drive stock below zero.
	// Default policy rejects.
	AllowNegative bool
}

// ReceiptInput describes a costed stock receipt.
type ReceiptInput struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
	Price     decimal.Decimal
	Notes     string
	Actor     string
}

// StockRow is the read model for stock listings.
type StockRow struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"quantity"`
	Cost      decimal.Decimal `json:"cost"`
	MinStock  decimal.Decimal `json:"min_stock"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HistoryFilter narrows movement history reads.
type HistoryFilter struct {
	ProductID uuid.UUID
	Start     time.Time
	End       time.Time
	Limit     int
}

var (
	// ErrInsufficientStock is returned when a movement would drive stock
	// below zero.
	ErrInsufficientStock = shared.NewValidation("INSUFFICIENT_STOCK", "inventory: insufficient stock")
	// ErrQuantityMustBePositive rejects zero or wrongly signed quantities.
	ErrQuantityMustBePositive = shared.NewValidation("QUANTITY_MUST_BE_POSITIVE", "inventory: quantity must be positive")
	// ErrProductHasNoCost is returned by costed flows on zero-cost products.
	ErrProductHasNoCost = shared.NewValidation("PRODUCT_HAS_NO_COST", "inventory: product has no recorded cost")
	// ErrProductNotFound indicates a missing product row.
	ErrProductNotFound = shared.NewNotFound("PRODUCT_NOT_FOUND", "inventory: product not found")
	// ErrInvalidUnitCost indicates a negative receipt price.
	ErrInvalidUnitCost = shared.NewValidation("INVALID_UNIT_COST", "inventory: unit cost must be >= 0")
)
