package expenses

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/accounts"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/journals"
	accshared "github.com/bengkel-erp/bengkel-erp/internal/accounting/shared"
	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
)

// memoryTx backs both the expense and accounting transactional surfaces
// for one test.
type memoryTx struct {
	expenses map[uuid.UUID]Expense
	accounts map[string]accounts.Account

	entries []journals.JournalEntry
	lines   []journals.JournalLine
	links   map[string]uuid.UUID
}

func newMemoryTx(codes ...string) *memoryTx {
	m := &memoryTx{
		expenses: make(map[uuid.UUID]Expense),
		accounts: make(map[string]accounts.Account),
		links:    make(map[string]uuid.UUID),
	}
	for _, code := range codes {
		m.accounts[code] = accounts.Account{ID: uuid.New(), Code: code, Name: "Akun " + code, IsActive: true}
	}
	return m
}

func (m *memoryTx) Insert(_ context.Context, e Expense) error {
	m.expenses[e.ID] = e
	return nil
}

func (m *memoryTx) GetForUpdate(_ context.Context, id uuid.UUID) (Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return Expense{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryTx) SetStatus(_ context.Context, id uuid.UUID, status string, at time.Time) error {
	e, ok := m.expenses[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = at
	m.expenses[id] = e
	return nil
}

func (m *memoryTx) GetAccountByCode(_ context.Context, code string) (accounts.Account, error) {
	account, ok := m.accounts[code]
	if !ok || !account.IsActive {
		return accounts.Account{}, accshared.ErrAccountNotFound
	}
	return account, nil
}

func (m *memoryTx) LastEntryNo(_ context.Context, numPrefix string) (string, error) {
	best := ""
	for _, e := range m.entries {
		if strings.HasPrefix(e.EntryNo, numPrefix) && e.EntryNo > best {
			best = e.EntryNo
		}
	}
	return best, nil
}

func (m *memoryTx) InsertEntry(_ context.Context, entry journals.JournalEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryTx) InsertLines(_ context.Context, lines []journals.JournalLine) error {
	m.lines = append(m.lines, lines...)
	return nil
}

func (m *memoryTx) LinkSource(_ context.Context, module string, ref uuid.UUID, entryID uuid.UUID) error {
	key := module + "/" + ref.String()
	if _, ok := m.links[key]; ok {
		return accshared.ErrDuplicateEntry
	}
	m.links[key] = entryID
	return nil
}

func (m *memoryTx) SourcePosted(_ context.Context, module string, ref uuid.UUID) (bool, error) {
	_, ok := m.links[module+"/"+ref.String()]
	return ok, nil
}

func (m *memoryTx) GetProductForUpdate(context.Context, uuid.UUID) (inventory.ProductStock, error) {
	return inventory.ProductStock{}, inventory.ErrProductNotFound
}

func (m *memoryTx) InsertMovement(context.Context, inventory.Movement) error { return nil }

func (m *memoryTx) SumMovements(context.Context, uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (m *memoryTx) UpsertSnapshot(context.Context, uuid.UUID, decimal.Decimal, time.Time) error {
	return nil
}

func (m *memoryTx) UpdateProductCost(context.Context, uuid.UUID, decimal.Decimal) error { return nil }

func (m *memoryTx) InsertCostHistory(context.Context, inventory.CostChange) error { return nil }

func (m *memoryTx) GetWorkorderProducts(context.Context, uuid.UUID) ([]accounting.WorkorderProduct, error) {
	return nil, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(mem *memoryTx) *Service {
	poster := accounting.NewService(nil, journals.NewKernel(), inventory.NewLedger(), accounting.DefaultCodes(), nil, slog.Default())
	svc := NewService(nil, nil, poster, slog.Default())
	svc.run = func(ctx context.Context, fn func(TxRepository, accounting.TxRepository) error) error {
		return fn(mem, mem)
	}
	return svc
}

func lineAmount(mem *memoryTx, entryNo, code string) (debit, credit decimal.Decimal) {
	var entryID uuid.UUID
	for _, e := range mem.entries {
		if e.EntryNo == entryNo {
			entryID = e.ID
		}
	}
	for _, l := range mem.lines {
		if l.EntryID == entryID && l.AccountCode == code {
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}
	}
	return debit, credit
}

func TestCreateAccruesAgainstPayable(t *testing.T) {
	codes := accounting.DefaultCodes()
	mem := newMemoryTx("6001", codes.Payable, codes.InputVAT)
	svc := newTestService(mem)

	e, err := svc.Create(context.Background(), CreateInput{
		Name:        "Listrik bengkel",
		Type:        "utilities",
		Amount:      dec("200"),
		VAT:         dec("22"),
		AccountCode: "6001",
	})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, e.Status)
	require.Len(t, mem.entries, 1)
	require.True(t, strings.HasPrefix(mem.entries[0].EntryNo, "EXP-"))

	expDr, _ := lineAmount(mem, mem.entries[0].EntryNo, "6001")
	require.True(t, expDr.Equal(dec("200")))
	vatDr, _ := lineAmount(mem, mem.entries[0].EntryNo, codes.InputVAT)
	require.True(t, vatDr.Equal(dec("22")))
	_, apCr := lineAmount(mem, mem.entries[0].EntryNo, codes.Payable)
	require.True(t, apCr.Equal(dec("222")))
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := newTestService(newMemoryTx())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "  ", Amount: dec("10")})
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.Create(ctx, CreateInput{Name: "Sewa", Amount: dec("0")})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPaySettlesOnceAndFlipsStatus(t *testing.T) {
	codes := accounting.DefaultCodes()
	mem := newMemoryTx("6001", codes.Payable, codes.Cash)
	svc := newTestService(mem)
	ctx := context.Background()

	e, err := svc.Create(ctx, CreateInput{Name: "Sewa ruko", Amount: dec("500"), AccountCode: "6001"})
	require.NoError(t, err)

	result, err := svc.Pay(ctx, PayInput{ExpenseID: e.ID})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, result.Expense.Status)
	require.True(t, strings.HasPrefix(result.PaymentNo, "EXP-"))

	apDr, _ := lineAmount(mem, result.PaymentNo, codes.Payable)
	require.True(t, apDr.Equal(dec("500")))
	_, cashCr := lineAmount(mem, result.PaymentNo, codes.Cash)
	require.True(t, cashCr.Equal(dec("500")))

	// Paying again is a no-op.
	again, err := svc.Pay(ctx, PayInput{ExpenseID: e.ID})
	require.NoError(t, err)
	require.Empty(t, again.PaymentNo)
	require.Len(t, mem.entries, 2)
}

func TestPayHealsStaleStatus(t *testing.T) {
	codes := accounting.DefaultCodes()
	mem := newMemoryTx("6001", codes.Payable, codes.Cash)
	svc := newTestService(mem)
	ctx := context.Background()

	e, err := svc.Create(ctx, CreateInput{Name: "Air", Amount: dec("75"), AccountCode: "6001"})
	require.NoError(t, err)

	_, err = svc.Pay(ctx, PayInput{ExpenseID: e.ID})
	require.NoError(t, err)

	// Simulate a stale status row: the payment entry already exists, so
	// paying again only repairs the status.
	stale := mem.expenses[e.ID]
	stale.Status = StatusOpen
	mem.expenses[e.ID] = stale

	result, err := svc.Pay(ctx, PayInput{ExpenseID: e.ID})
	require.NoError(t, err)
	require.Empty(t, result.PaymentNo)
	require.Equal(t, StatusPaid, result.Expense.Status)
	require.Len(t, mem.entries, 2)
}

func TestPayUnknownExpense(t *testing.T) {
	svc := newTestService(newMemoryTx())
	_, err := svc.Pay(context.Background(), PayInput{ExpenseID: uuid.New()})
	require.ErrorIs(t, err, ErrNotFound)
}
