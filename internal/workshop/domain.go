package workshop

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// PaymentStatus tracks settlement of a workorder. Labels are free-form in
// storage; these two are the ones the engine writes.
const (
	PaymentUnpaid = "belum dibayar"
	PaymentPaid   = "dibayar"
)

// ProductOrdered is one product line on a workorder.
type ProductOrdered struct {
	ID          uuid.UUID       `json:"id"`
	WorkorderID uuid.UUID       `json:"workorder_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Qty         decimal.Decimal `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ServiceOrdered is one service line on a workorder.
type ServiceOrdered struct {
	ID          uuid.UUID       `json:"id"`
	WorkorderID uuid.UUID       `json:"workorder_id"`
	ServiceID   *uuid.UUID      `json:"service_id,omitempty"`
	Name        string          `json:"name"`
	Qty         decimal.Decimal `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Workorder is one repair job with its ordered products and services.
type Workorder struct {
	ID               uuid.UUID       `json:"id"`
	NoWO             string          `json:"no_wo"`
	DateIn           time.Time       `json:"date_in"`
	DateOut          *time.Time      `json:"date_out,omitempty"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	VehicleNo        string          `json:"vehicle_no"`
	Status           string          `json:"status"`
	StatusPembayaran string          `json:"status_pembayaran"`
	TotalProduct     decimal.Decimal `json:"total_product"`
	TotalService     decimal.Decimal `json:"total_service"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Products []ProductOrdered `json:"products"`
	Services []ServiceOrdered `json:"services"`
}

// ProductLineInput describes a requested product line.
type ProductLineInput struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
	Price     decimal.Decimal
	Discount  decimal.Decimal
}

// ServiceLineInput describes a requested service line.
type ServiceLineInput struct {
	ServiceID *uuid.UUID
	Name      string
	Qty       decimal.Decimal
	Price     decimal.Decimal
	Discount  decimal.Decimal
}

// CreateInput describes a new workorder. Totals are derived from the
// lines plus the supplied tax.
type CreateInput struct {
	NoWO       string
	DateIn     time.Time
	CustomerID uuid.UUID
	VehicleNo  string
	Tax        decimal.Decimal
	Products   []ProductLineInput
	Services   []ServiceLineInput
}

// SettleInput settles a workorder's payment: the sale entry, any
// consignment sub-entries and the receivable receipt post together.
type SettleInput struct {
	WorkorderID uuid.UUID
	Date        time.Time
	CashCode    string
	Discount    decimal.Decimal
}

// SettleResult reports the entries posted during settlement.
type SettleResult struct {
	Workorder   Workorder `json:"workorder"`
	SaleNo      string    `json:"sale_entry_no"`
	ReceiptNo   string    `json:"receipt_entry_no"`
	Consignment []string  `json:"consignment_entry_nos,omitempty"`
}

var (
	// ErrNotFound indicates a missing workorder.
	ErrNotFound = shared.NewNotFound("WORKORDER_NOT_FOUND", "workshop: workorder not found")
	// ErrDuplicateNoWO indicates a no_wo collision.
	ErrDuplicateNoWO = shared.NewConflict("DUPLICATE_NO_WO", "workshop: no_wo already exists")
	// ErrAlreadyPaid indicates the workorder was settled before.
	ErrAlreadyPaid = shared.NewState("WORKORDER_ALREADY_PAID", "workshop: workorder already settled")
	// ErrEmptyOrder indicates a workorder without any lines.
	ErrEmptyOrder = shared.NewValidation("EMPTY_WORKORDER", "workshop: workorder requires at least one line")
	// ErrNothingToSettle indicates a zero-total settlement attempt.
	ErrNothingToSettle = shared.NewValidation("NOTHING_TO_SETTLE", "workshop: workorder total is zero")
)
