package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

var (
	ErrInvalidWindow = shared.NewValidation("REPORT_INVALID_WINDOW", "reports: end date must not precede start date")
	ErrAccountNeeded = shared.NewValidation("REPORT_ACCOUNT_NEEDED", "reports: account code is required")
)

// Window is the inclusive date range every report takes.
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid rejects inverted windows. Zero bounds are open ended.
func (w Window) Valid() bool {
	if w.Start.IsZero() || w.End.IsZero() {
		return true
	}
	return !w.End.Before(w.Start)
}

// LedgerLine is one journal line joined to its entry and account. The
// builders aggregate over these rows.
type LedgerLine struct {
	Date          time.Time       `json:"date"`
	EntryNo       string          `json:"entry_no"`
	Kind          string          `json:"kind"`
	Memo          string          `json:"memo"`
	AccountCode   string          `json:"account_code"`
	AccountName   string          `json:"account_name"`
	AccountType   string          `json:"account_type"`
	NormalBalance string          `json:"normal_balance"`
	Description   string          `json:"description"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName  string          `json:"supplier_name,omitempty"`
}

// CashBookLine carries the running balance for one entry.
type CashBookLine struct {
	Date    time.Time       `json:"date"`
	EntryNo string          `json:"entry_no"`
	Memo    string          `json:"memo"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Balance decimal.Decimal `json:"balance"`
}

// CashBook is the statement for one account. Balance follows the
// account's normal side, so it always reads as how much is held.
type CashBook struct {
	AccountCode    string          `json:"account_code"`
	AccountName    string          `json:"account_name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Lines          []CashBookLine  `json:"lines"`
}

// ExpenseGroup is one row of the expense report.
type ExpenseGroup struct {
	Type   string          `json:"type"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ExpenseReport groups expenses in the window by type.
type ExpenseReport struct {
	Groups []ExpenseGroup  `json:"groups"`
	Total  decimal.Decimal `json:"total"`
}

// PLAccount is one non-zero account line of the profit and loss.
type PLAccount struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
}

// ProfitLoss sums revenue and expense accounts over the window.
type ProfitLoss struct {
	Revenue      []PLAccount     `json:"revenue"`
	Expense      []PLAccount     `json:"expense"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}

// CashFlowLine is one classified cash movement.
type CashFlowLine struct {
	Date        time.Time       `json:"date"`
	EntryNo     string          `json:"entry_no"`
	AccountCode string          `json:"account_code"`
	Memo        string          `json:"memo"`
	Direction   string          `json:"direction"` // cash_in or cash_out
	Amount      decimal.Decimal `json:"amount"`
}

// CashReport classifies all cash and bank movements in the window.
type CashReport struct {
	Lines   []CashFlowLine  `json:"lines"`
	CashIn  decimal.Decimal `json:"cash_in"`
	CashOut decimal.Decimal `json:"cash_out"`
	NetFlow decimal.Decimal `json:"net_flow"`
}

// PartyBalance is one receivable or payable row.
type PartyBalance struct {
	PartyID uuid.UUID       `json:"party_id"`
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
}

// ReceivablePayable pairs outstanding receivables per customer with
// payables per supplier.
type ReceivablePayable struct {
	Receivables     []PartyBalance  `json:"receivables"`
	Payables        []PartyBalance  `json:"payables"`
	TotalReceivable decimal.Decimal `json:"total_receivable"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
}

// ConsignmentPayable lists outstanding consignment debt per supplier.
type ConsignmentPayable struct {
	Rows  []PartyBalance  `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

// SaleLine is one ordered product or service line in the window.
type SaleLine struct {
	Date         time.Time       `json:"date"`
	NoWO         string          `json:"no_wo"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	ItemID       *uuid.UUID      `json:"item_id,omitempty"`
	ItemName     string          `json:"item_name"`
	Qty          decimal.Decimal `json:"qty"`
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// SalesReport is the product or service sales listing with totals.
type SalesReport struct {
	Lines    []SaleLine      `json:"lines"`
	TotalQty decimal.Decimal `json:"total_qty"`
	Total    decimal.Decimal `json:"total"`
}

// WorkorderSummary counts workorders touching the day.
type WorkorderSummary struct {
	Count        int             `json:"count"`
	PaidCount    int             `json:"paid_count"`
	TotalProduct decimal.Decimal `json:"total_product"`
	TotalService decimal.Decimal `json:"total_service"`
	Total        decimal.Decimal `json:"total"`
}

// DailyReport composes the day's statements.
type DailyReport struct {
	Date         time.Time        `json:"date"`
	CashBooks    []CashBook       `json:"cash_books"`
	ProductSales SalesReport      `json:"product_sales"`
	ServiceSales SalesReport      `json:"service_sales"`
	ProfitLoss   ProfitLoss       `json:"profit_loss"`
	Workorders   WorkorderSummary `json:"workorders"`
}

// ProductMove is one inventory movement joined to its product. Party is
// extracted from the movement notes when encoded there.
type ProductMove struct {
	Date        time.Time       `json:"date"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Kind        string          `json:"kind"`
	Qty         decimal.Decimal `json:"qty"`
	Notes       string          `json:"notes"`
	Party       string          `json:"party,omitempty"`
	Actor       string          `json:"actor,omitempty"`
}
