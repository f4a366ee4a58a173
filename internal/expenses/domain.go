package expenses

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// Expense statuses. An open expense has been accrued against payable;
// paying it posts the cash leg and moves it to dibayarkan.
const (
	StatusOpen = "open"
	StatusPaid = "dibayarkan"
)

var (
	ErrNotFound      = shared.NewNotFound("EXPENSE_NOT_FOUND", "expenses: expense not found")
	ErrEmptyName     = shared.NewValidation("EXPENSE_EMPTY_NAME", "expenses: name is required")
	ErrInvalidAmount = shared.NewValidation("EXPENSE_INVALID_AMOUNT", "expenses: amount must be positive")
)

// Expense is an operating cost tracked by row. AccountCode picks the
// debit side of the accrual entry.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	AccountCode string          `json:"account_code"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateInput accrues a new expense.
type CreateInput struct {
	Name        string
	Type        string
	Amount      decimal.Decimal
	VAT         decimal.Decimal
	AccountCode string
	Date        time.Time
}

// PayInput settles an open expense from a cash account.
type PayInput struct {
	ExpenseID uuid.UUID
	CashCode  string
	Date      time.Time
}

// PayResult reports the settlement. PaymentNo is empty when the expense
// was already paid and the call was a no-op.
type PayResult struct {
	Expense   Expense `json:"expense"`
	PaymentNo string  `json:"payment_no,omitempty"`
}

// ListFilter narrows the expense listing.
type ListFilter struct {
	Status string
	Type   string
	Start  time.Time
	End    time.Time
	Limit  int
}
