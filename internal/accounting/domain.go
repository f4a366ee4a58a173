package accounting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/journals"
)

// Entry aliases the kernel's persisted entry for recorder results.
type Entry = journals.JournalEntry

// Codes holds the conventional account codes the recorders post against.
// The engine never stores account ids; codes are resolved per call, so a
// deployment may renumber its chart as long as these codes exist. Every
// recorder accepts per-call overrides via its payload.
type Codes struct {
	Cash               string
	Receivable         string
	Inventory          string
	InputVAT           string
	OutputVAT          string
	Sales              string
	ServiceRevenue     string
	SalesDiscount      string
	COGS               string
	PurchaseDiscount   string
	Payable            string
	ConsignmentPayable string
	CommissionExpense  string
	ConsignmentDisc    string
	LossExpense        string
}

// DefaultCodes returns the codes seeded by the initial migration.
func DefaultCodes() Codes {
	return Codes{
		Cash:               "1001",
		Receivable:         "1200",
		Inventory:          "1300",
		InputVAT:           "1510",
		OutputVAT:          "2301",
		Sales:              "4000",
		ServiceRevenue:     "4002",
		SalesDiscount:      "4003",
		COGS:               "5100",
		PurchaseDiscount:   "5003",
		Payable:            "2100",
		ConsignmentPayable: "3002",
		CommissionExpense:  "6003",
		ConsignmentDisc:    "6004",
		LossExpense:        "6100",
	}
}

// pick returns override when set, fallback otherwise.
func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

// PurchaseInput records a perpetual-inventory purchase. When CashCode is
// empty the counter side posts to accounts payable instead of cash.
type PurchaseInput struct {
	SupplierID *uuid.UUID
	PurchaseID *uuid.UUID
	Date       time.Time
	Memo       string

	Amount   decimal.Decimal // net of discount
	VAT      decimal.Decimal
	CashCode string // empty means on credit (AP)

	InventoryCode string
	VATCode       string
	PayableCode   string
}

// SaleLine is one product line of a sale, used for COGS, outcome movements
// and consignment sub-entries.
type SaleLine struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
	Price     decimal.Decimal
	Subtotal  decimal.Decimal
}

// SaleInput records a perpetual-inventory sale. COGS posting happens only
// when COGS is positive. Consignment sub-entries and outcome movements are
// derived from the referenced workorder's product lines.
type SaleInput struct {
	CustomerID  *uuid.UUID
	WorkorderID *uuid.UUID
	Date        time.Time
	Memo        string

	Amount   decimal.Decimal // net revenue
	VAT      decimal.Decimal
	COGS     decimal.Decimal
	CashCode string // empty means on credit (AR)

	SalesCode      string
	ReceivableCode string
	OutputVATCode  string
	COGSCode       string
	InventoryCode  string
}

// ARReceiptInput settles a receivable, optionally with a sales discount.
type ARReceiptInput struct {
	CustomerID  *uuid.UUID
	WorkorderID *uuid.UUID
	Date        time.Time
	Memo        string

	Amount   decimal.Decimal // full receivable amount
	Discount decimal.Decimal
	CashCode string

	ReceivableCode string
	DiscountCode   string
}

// APPaymentInput settles a payable, optionally with a purchase discount.
type APPaymentInput struct {
	SupplierID *uuid.UUID
	PurchaseID *uuid.UUID
	Date       time.Time
	Memo       string

	Amount   decimal.Decimal // full payable amount
	Discount decimal.Decimal
	CashCode string

	PayableCode  string
	DiscountCode string
}

// ExpenseInput records an operating expense. When CashCode is empty the
// expense is accrued against accounts payable; PayExpense posts the cash
// leg later.
type ExpenseInput struct {
	ExpenseID *uuid.UUID
	Date      time.Time
	Memo      string

	Amount      decimal.Decimal // net of VAT
	VAT         decimal.Decimal
	ExpenseCode string
	CashCode    string

	VATCode     string
	PayableCode string
}

// ConsignmentPaymentInput settles consignment payable owed to a supplier.
type ConsignmentPaymentInput struct {
	SupplierID *uuid.UUID
	Date       time.Time
	Memo       string

	Amount   decimal.Decimal
	Discount decimal.Decimal
	CashCode string

	PayableCode  string
	DiscountCode string
}

// CashMovementInput is a generic transfer between a cash/bank account and
// any chosen counter account.
type CashMovementInput struct {
	Date time.Time
	Memo string

	Amount      decimal.Decimal
	CashCode    string
	CounterCode string
}

// LossInput writes off stock at cost and records the outcome movement.
type LossInput struct {
	ProductID uuid.UUID
	Date      time.Time
	Memo      string
	Actor     string

	Qty decimal.Decimal

	LossCode      string
	InventoryCode string
}

// SaleResult carries the primary sale entry plus any consignment
// sub-entries posted in the same unit of work.
type SaleResult struct {
	Sale        Entry   `json:"sale"`
	Consignment []Entry `json:"consignment,omitempty"`
}
