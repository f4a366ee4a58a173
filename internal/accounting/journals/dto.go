package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/shared"
)

// LineInput describes a journal line for a posting request. Account codes
// are resolved at posting time; the kernel never stores raw ids from the
// caller.
type LineInput struct {
	AccountCode string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// Source identifies the business event that produced the entry. The pair
// (Module, Ref) is unique; a second posting for the same source fails with
// ErrDuplicateEntry.
type Source struct {
	Module string
	Ref    uuid.UUID
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	EntryNo string // generated from kind and date when empty
	Date    time.Time
	Memo    string
	Kind    Kind
	Links   Links
	Source  *Source
	Lines   []LineInput
}

// Validate enforces the kernel's balance and line-shape invariants.
func (in PostingInput) Validate() error {
	if !in.Kind.Valid() {
		return shared.ErrInvalidKind
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for _, line := range in.Lines {
		if line.AccountCode == "" {
			return shared.ErrAccountNotFound
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return shared.ErrInvalidLine
		}
		if line.Debit.IsPositive() == line.Credit.IsPositive() {
			return shared.ErrInvalidLine
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Round(2).Equal(credit.Round(2)) {
		return shared.ErrUnbalanced
	}
	return nil
}

// ListFilter narrows journal listings. Page starts at 1; PerPage
// defaults to 50 capped at 200.
type ListFilter struct {
	Kind      Kind
	StartDate time.Time
	EndDate   time.Time
	Page      int
	PerPage   int
}

// Normalize clamps paging values into their supported range.
func (f *ListFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = 50
	}
	if f.PerPage > 200 {
		f.PerPage = 200
	}
}
