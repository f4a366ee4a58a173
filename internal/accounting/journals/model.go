package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind enumerates the business-event families a journal entry can record.
type Kind string

const (
	KindPurchase    Kind = "purchase"
	KindSale        Kind = "sale"
	KindARReceipt   Kind = "ar_receipt"
	KindAPPayment   Kind = "ap_payment"
	KindConsignment Kind = "consignment"
	KindExpense     Kind = "expense"
	KindGeneral     Kind = "general"
)

// Prefix returns the entry-number prefix for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindPurchase:
		return "PUR"
	case KindSale:
		return "SAL"
	case KindARReceipt:
		return "ARR"
	case KindAPPayment:
		return "APP"
	case KindConsignment:
		return "CSG"
	case KindExpense:
		return "EXP"
	default:
		return "GEN"
	}
}

// Valid reports whether the kind belongs to the closed enumeration.
func (k Kind) Valid() bool {
	switch k {
	case KindPurchase, KindSale, KindARReceipt, KindAPPayment,
		KindConsignment, KindExpense, KindGeneral:
		return true
	}
	return false
}

// Links carries optional back-references from an entry to business rows.
// They are lookup-only, never ownership.
type Links struct {
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	WorkorderID *uuid.UUID `json:"workorder_id,omitempty"`
	PurchaseID  *uuid.UUID `json:"purchase_id,omitempty"`
}

// JournalEntry is an atomic, balanced set of debit/credit lines recording
// one business event. Entries are immutable once written; corrections are
// expressed as new reversing entries.
type JournalEntry struct {
	ID        uuid.UUID `json:"id"`
	EntryNo   string    `json:"entry_no"`
	Date      time.Time `json:"date"`
	Memo      string    `json:"memo"`
	Kind      Kind      `json:"kind"`
	Links     Links     `json:"links"`
	CreatedAt time.Time `json:"created_at"`

	Lines []JournalLine `json:"lines"`
}

// JournalLine stores a debit or credit amount for an account. Exactly one
// side is positive.
type JournalLine struct {
	ID          uuid.UUID       `json:"id"`
	EntryID     uuid.UUID       `json:"entry_id"`
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}
