// Package shared declares the caller-visible error taxonomy of the
// accounting engine. Every sentinel carries a short machine-readable code
// surfaced on the wire by the transport layer.
package shared

import "github.com/bengkel-erp/bengkel-erp/internal/shared"

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = shared.NewValidation("UNBALANCED", "accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = shared.NewValidation("TOO_FEW_LINES", "accounting: journal requires at least two lines")
	// ErrInvalidLine indicates a line without exactly one positive side.
	ErrInvalidLine = shared.NewValidation("INVALID_LINE", "accounting: line must have exactly one positive side")
	// ErrInvalidKind indicates a journal kind outside the enumeration.
	ErrInvalidKind = shared.NewValidation("INVALID_KIND", "accounting: unknown journal kind")
	// ErrAccountNotFound indicates an unknown or inactive account code.
	ErrAccountNotFound = shared.NewValidation("ACCOUNT_NOT_FOUND", "accounting: account code unknown or inactive")
	// ErrDuplicateCode indicates an account code collision.
	ErrDuplicateCode = shared.NewConflict("DUPLICATE_CODE", "accounting: account code already exists")
	// ErrDuplicateEntry indicates the business event was already posted.
	ErrDuplicateEntry = shared.NewConflict("DUPLICATE_ENTRY", "accounting: entry already posted for this source")
	// ErrJournalNotFound indicates a missing journal entry.
	ErrJournalNotFound = shared.NewNotFound("JOURNAL_NOT_FOUND", "accounting: journal entry not found")
	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = shared.NewState("INVALID_TRANSITION", "status transition not allowed")
	// ErrAlreadyPosted indicates an event posted before.
	ErrAlreadyPosted = shared.NewState("ALREADY_POSTED", "business event already posted")
)
