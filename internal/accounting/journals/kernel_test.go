package journals

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/accounts"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/shared"
)

type memoryPoster struct {
	accounts map[string]accounts.Account
	entries  []JournalEntry
	lines    []JournalLine
	links    map[string]uuid.UUID
}

func newMemoryPoster(codes ...string) *memoryPoster {
	p := &memoryPoster{
		accounts: make(map[string]accounts.Account),
		links:    make(map[string]uuid.UUID),
	}
	for _, code := range codes {
		p.accounts[code] = accounts.Account{ID: uuid.New(), Code: code, Name: "Account " + code, IsActive: true}
	}
	return p
}

func (p *memoryPoster) GetAccountByCode(ctx context.Context, code string) (accounts.Account, error) {
	account, ok := p.accounts[code]
	if !ok || !account.IsActive {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return account, nil
}

func (p *memoryPoster) LastEntryNo(ctx context.Context, numPrefix string) (string, error) {
	last := ""
	for _, entry := range p.entries {
		if !strings.HasPrefix(entry.EntryNo, numPrefix) {
			continue
		}
		if len(entry.EntryNo) > len(last) || (len(entry.EntryNo) == len(last) && entry.EntryNo > last) {
			last = entry.EntryNo
		}
	}
	return last, nil
}

func (p *memoryPoster) InsertEntry(ctx context.Context, entry JournalEntry) error {
	for _, existing := range p.entries {
		if existing.EntryNo == entry.EntryNo {
			return shared.ErrDuplicateEntry
		}
	}
	p.entries = append(p.entries, entry)
	return nil
}

func (p *memoryPoster) InsertLines(ctx context.Context, lines []JournalLine) error {
	p.lines = append(p.lines, lines...)
	return nil
}

func (p *memoryPoster) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID uuid.UUID) error {
	key := module + ":" + ref.String()
	if _, ok := p.links[key]; ok {
		return shared.ErrDuplicateEntry
	}
	p.links[key] = entryID
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func balancedInput(kind Kind) PostingInput {
	return PostingInput{
		Kind: kind,
		Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			{AccountCode: "1001", Debit: dec("100.00")},
			{AccountCode: "4000", Credit: dec("100.00")},
		},
	}
}

func TestPostBalancedEntry(t *testing.T) {
	poster := newMemoryPoster("1001", "4000")
	kernel := NewKernel()
	ctx := context.Background()

	entry, err := kernel.Post(ctx, poster, balancedInput(KindSale))
	require.NoError(t, err)
	require.Equal(t, "SAL-20250310-001", entry.EntryNo)
	require.Len(t, entry.Lines, 2)
	require.Equal(t, "Account 1001", entry.Lines[0].AccountName)

	total := decimal.Zero
	for _, line := range entry.Lines {
		total = total.Add(line.Debit).Sub(line.Credit)
	}
	require.True(t, total.IsZero())
}

func TestPostRejectsUnbalanced(t *testing.T) {
	poster := newMemoryPoster("1001", "4000")
	kernel := NewKernel()

	input := balancedInput(KindSale)
	input.Lines[1].Credit = dec("90.00")
	_, err := kernel.Post(context.Background(), poster, input)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.Empty(t, poster.entries)
	require.Empty(t, poster.lines)
}

func TestPostRejectsBadLineShape(t *testing.T) {
	poster := newMemoryPoster("1001", "4000")
	kernel := NewKernel()

	input := balancedInput(KindSale)
	input.Lines[0].Credit = dec("100.00") // both sides positive
	_, err := kernel.Post(context.Background(), poster, input)
	require.ErrorIs(t, err, shared.ErrInvalidLine)

	input = balancedInput(KindSale)
	input.Lines[0].Debit = decimal.Zero // zero-zero
	_, err = kernel.Post(context.Background(), poster, input)
	require.ErrorIs(t, err, shared.ErrInvalidLine)

	input = balancedInput(KindSale)
	input.Lines = input.Lines[:1]
	_, err = kernel.Post(context.Background(), poster, input)
	require.ErrorIs(t, err, shared.ErrTooFewLines)
}

func TestPostRejectsUnknownAccount(t *testing.T) {
	poster := newMemoryPoster("1001")
	kernel := NewKernel()

	_, err := kernel.Post(context.Background(), poster, balancedInput(KindSale))
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
	require.Empty(t, poster.entries)
}

func TestEntryNumbersAreMonotonePerDay(t *testing.T) {
	poster := newMemoryPoster("1001", "4000")
	kernel := NewKernel()
	ctx := context.Background()

	first, err := kernel.Post(ctx, poster, balancedInput(KindSale))
	require.NoError(t, err)
	second, err := kernel.Post(ctx, poster, balancedInput(KindSale))
	require.NoError(t, err)
	require.Equal(t, "SAL-20250310-001", first.EntryNo)
	require.Equal(t, "SAL-20250310-002", second.EntryNo)

	// a different kind numbers independently on the same day
	purchase, err := kernel.Post(ctx, poster, balancedInput(KindPurchase))
	require.NoError(t, err)
	require.Equal(t, "PUR-20250310-001", purchase.EntryNo)

	// holes are not re-filled: simulate a deletion of the latest number
	poster.entries = poster.entries[:1]
	third, err := kernel.Post(ctx, poster, balancedInput(KindSale))
	require.NoError(t, err)
	require.Equal(t, "SAL-20250310-002", third.EntryNo)
}

func TestEntryNumberWidensPast999(t *testing.T) {
	poster := newMemoryPoster("1001", "4000")
	kernel := NewKernel()
	ctx := context.Background()

	seeded := balancedInput(KindSale)
	seeded.EntryNo = "SAL-20250310-999"
	_, err := kernel.Post(ctx, poster, seeded)
	require.NoError(t, err)

	next, err := kernel.Post(ctx, poster, balancedInput(KindSale))
	require.NoError(t, err)
	require.Equal(t, "SAL-20250310-1000", next.EntryNo)
}

func TestDuplicateSourceRejected(t *testing.T) {
	poster := newMemoryPoster("1001", "4000")
	kernel := NewKernel()
	ctx := context.Background()

	ref := uuid.New()
	input := balancedInput(KindSale)
	input.Source = &Source{Module: "WORKORDER", Ref: ref}
	_, err := kernel.Post(ctx, poster, input)
	require.NoError(t, err)

	repeat := balancedInput(KindSale)
	repeat.Source = &Source{Module: "WORKORDER", Ref: ref}
	_, err = kernel.Post(ctx, poster, repeat)
	require.ErrorIs(t, err, shared.ErrDuplicateEntry)
}
