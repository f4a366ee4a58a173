package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// Status is the purchase-order lifecycle. Labels are opaque and persisted
// as-is; the flow is monotone and rewinding is disallowed.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusDijalankan Status = "dijalankan"
	StatusDiterima   Status = "diterima"
	StatusDibayarkan Status = "dibayarkan"
)

// rank orders statuses along the flow; -1 for unknown labels.
func (s Status) rank() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusDijalankan:
		return 1
	case StatusDiterima:
		return 2
	case StatusDibayarkan:
		return 3
	}
	return -1
}

// Valid reports whether the status belongs to the enumeration.
func (s Status) Valid() bool {
	return s.rank() >= 0
}

// Line is one ordered product at an agreed price.
type Line struct {
	ID        uuid.UUID       `json:"id"`
	POID      uuid.UUID       `json:"po_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PurchaseOrder groups ordered lines under one supplier and status.
type PurchaseOrder struct {
	ID         uuid.UUID       `json:"id"`
	PONo       string          `json:"po_no"`
	SupplierID uuid.UUID       `json:"supplier_id"`
	Date       time.Time       `json:"date"`
	Total      decimal.Decimal `json:"total"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Lines []Line `json:"lines"`
}

// LineInput describes a requested order line.
type LineInput struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
	Price     decimal.Decimal
}

// CreateInput describes a new purchase order. Total is derived from the
// lines, never supplied.
type CreateInput struct {
	PONo       string
	SupplierID uuid.UUID
	Date       time.Time
	Lines      []LineInput
}

// TransitionResult reports what a status change did. Entries posted and
// cost changes are empty when the transition was an idempotent repeat.
type TransitionResult struct {
	Order       PurchaseOrder          `json:"order"`
	CostChanges []inventoryCostSummary `json:"cost_changes,omitempty"`
	PaymentNo   string                 `json:"payment_entry_no,omitempty"`
}

type inventoryCostSummary struct {
	ProductID uuid.UUID       `json:"product_id"`
	NewCost   decimal.Decimal `json:"new_cost"`
	Skipped   bool            `json:"skipped,omitempty"`
}

var (
	// ErrNotFound indicates a missing purchase order.
	ErrNotFound = shared.NewNotFound("PURCHASE_ORDER_NOT_FOUND", "procurement: purchase order not found")
	// ErrDuplicatePONo indicates a po_no collision.
	ErrDuplicatePONo = shared.NewConflict("DUPLICATE_PO_NO", "procurement: po_no already exists")
	// ErrRewind indicates a transition against the flow direction.
	ErrRewind = shared.NewState("STATUS_REWIND", "procurement: status cannot move backwards")
	// ErrUnknownStatus indicates a label outside the enumeration.
	ErrUnknownStatus = shared.NewValidation("UNKNOWN_STATUS", "procurement: unknown status")
	// ErrNoLines indicates an order without lines.
	ErrNoLines = shared.NewValidation("NO_LINES", "procurement: purchase order requires at least one line")
)
