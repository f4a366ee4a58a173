package journals

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/accounts"
)

// TxPoster is the transactional surface the kernel writes through. All
// methods run inside the caller's unit of work so the entry, its lines and
// any side-effects commit together or not at all.
type TxPoster interface {
	GetAccountByCode(ctx context.Context, code string) (accounts.Account, error)
	// LastEntryNo returns the highest existing entry number starting with
	// numPrefix (e.g. "SAL-20250901-"), or "" when none exists.
	LastEntryNo(ctx context.Context, numPrefix string) (string, error)
	InsertEntry(ctx context.Context, entry JournalEntry) error
	InsertLines(ctx context.Context, lines []JournalLine) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID uuid.UUID) error
}

// Kernel is the single gateway for writing journal entries. It validates
// balance, resolves account codes, assigns the entry number and writes the
// entry with its lines through the supplied TxPoster.
type Kernel struct {
	now func() time.Time
}

// NewKernel builds a Kernel.
func NewKernel() *Kernel {
	return &Kernel{now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (k *Kernel) WithNow(now func() time.Time) {
	if now != nil {
		k.now = now
	}
}

// Post writes a balanced entry. Validation failures surface before any
// write; unknown or inactive account codes abort the whole entry.
func (k *Kernel) Post(ctx context.Context, tx TxPoster, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	date := input.Date
	if date.IsZero() {
		date = k.now().UTC()
	}

	resolved := make(map[string]accounts.Account, len(input.Lines))
	for _, line := range input.Lines {
		if _, ok := resolved[line.AccountCode]; ok {
			continue
		}
		account, err := tx.GetAccountByCode(ctx, line.AccountCode)
		if err != nil {
			return JournalEntry{}, err
		}
		resolved[line.AccountCode] = account
	}

	entryNo := input.EntryNo
	if entryNo == "" {
		var err error
		entryNo, err = k.nextEntryNo(ctx, tx, input.Kind, date)
		if err != nil {
			return JournalEntry{}, err
		}
	}

	entry := JournalEntry{
		ID:        uuid.New(),
		EntryNo:   entryNo,
		Date:      date,
		Memo:      input.Memo,
		Kind:      input.Kind,
		Links:     input.Links,
		CreatedAt: k.now().UTC(),
	}
	if err := tx.InsertEntry(ctx, entry); err != nil {
		return JournalEntry{}, err
	}

	lines := make([]JournalLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		account := resolved[line.AccountCode]
		lines = append(lines, JournalLine{
			ID:          uuid.New(),
			EntryID:     entry.ID,
			AccountID:   account.ID,
			AccountCode: account.Code,
			AccountName: account.Name,
			Description: line.Description,
			Debit:       line.Debit.Round(2),
			Credit:      line.Credit.Round(2),
		})
	}
	if err := tx.InsertLines(ctx, lines); err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines

	if input.Source != nil {
		if err := tx.LinkSource(ctx, input.Source.Module, input.Source.Ref, entry.ID); err != nil {
			return JournalEntry{}, err
		}
	}
	return entry, nil
}

// nextEntryNo scans existing numbers for the (prefix, day) pair and picks
// the next sequence. Holes from deletions are not re-filled: numbers are
// monotone per day, gaps are permitted. The suffix is printed with three
// digits minimum and widens past 999.
func (k *Kernel) nextEntryNo(ctx context.Context, tx TxPoster, kind Kind, date time.Time) (string, error) {
	numPrefix := fmt.Sprintf("%s-%s-", kind.Prefix(), date.Format("20060102"))
	last, err := tx.LastEntryNo(ctx, numPrefix)
	if err != nil {
		return "", err
	}
	seq := 0
	if last != "" {
		if idx := strings.LastIndex(last, "-"); idx >= 0 {
			if n, err := strconv.Atoi(last[idx+1:]); err == nil {
				seq = n
			}
		}
	}
	return fmt.Sprintf("%s%03d", numPrefix, seq+1), nil
}
