package procurement

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

// memoryTx backs both the procurement and accounting transactional
// surfaces for one test.
type memoryTx struct {
	orders   map[uuid.UUID]PurchaseOrder
	accounts map[string]accounts.Account

	entries   []journals.JournalEntry
	lines     []journals.JournalLine
	links     map[string]uuid.UUID
	movements []inventory.Movement
	snapshots map[uuid.UUID]decimal.Decimal
	costs     []inventory.CostChange
	products  map[uuid.UUID]inventory.ProductStock
}

func newMemoryTx(codes ...string) *memoryTx {
	m := &memoryTx{
		orders:    make(map[uuid.UUID]PurchaseOrder),
		accounts:  make(map[string]accounts.Account),
		links:     make(map[string]uuid.UUID),
		snapshots: make(map[uuid.UUID]decimal.Decimal),
		products:  make(map[uuid.UUID]inventory.ProductStock),
	}
	for _, code := range codes {
		m.accounts[code] = accounts.Account{ID: uuid.New(), Code: code, Name: "Akun " + code, IsActive: true}
	}
	return m
}

func (m *memoryTx) Insert(_ context.Context, po PurchaseOrder) error {
	for _, existing := range m.orders {
		if existing.PONo == po.PONo {
			return ErrDuplicatePONo
		}
	}
	m.orders[po.ID] = po
	return nil
}

func (m *memoryTx) InsertLines(_ context.Context, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	po := m.orders[lines[0].POID]
	po.Lines = append(po.Lines, lines...)
	m.orders[po.ID] = po
	return nil
}

func (m *memoryTx) GetForUpdate(_ context.Context, id uuid.UUID) (PurchaseOrder, error) {
	po, ok := m.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrNotFound
	}
	return po, nil
}

func (m *memoryTx) SetStatus(_ context.Context, id uuid.UUID, status Status, at time.Time) error {
	po, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	po.Status = status
	po.UpdatedAt = at
	m.orders[id] = po
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

func (m *memoryTx) insertJournalLines(_ context.Context, lines []journals.JournalLine) error {
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

func (m *memoryTx) GetProductForUpdate(_ context.Context, id uuid.UUID) (inventory.ProductStock, error) {
	p, ok := m.products[id]
	if !ok {
		return inventory.ProductStock{}, inventory.ErrProductNotFound
	}
	return p, nil
}

func (m *memoryTx) InsertMovement(_ context.Context, mv inventory.Movement) error {
	m.movements = append(m.movements, mv)
	return nil
}

func (m *memoryTx) SumMovements(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, mv := range m.movements {
		if mv.ProductID == id {
			sum = sum.Add(mv.Qty)
		}
	}
	return sum, nil
}

func (m *memoryTx) UpsertSnapshot(_ context.Context, id uuid.UUID, qty decimal.Decimal, _ time.Time) error {
	m.snapshots[id] = qty
	return nil
}

func (m *memoryTx) UpdateProductCost(_ context.Context, id uuid.UUID, cost decimal.Decimal) error {
	p, ok := m.products[id]
	if !ok {
		return inventory.ErrProductNotFound
	}
	p.Cost = cost
	m.products[id] = p
	return nil
}

func (m *memoryTx) InsertCostHistory(_ context.Context, c inventory.CostChange) error {
	m.costs = append(m.costs, c)
	return nil
}

func (m *memoryTx) GetWorkorderProducts(_ context.Context, _ uuid.UUID) ([]accounting.WorkorderProduct, error) {
	return nil, nil
}

// accTx adapts memoryTx to accounting.TxRepository: the journal-line
// insert collides with the purchase-order one, so it is renamed here.
type accTx struct {
	*memoryTx
}

func (a accTx) InsertLines(ctx context.Context, lines []journals.JournalLine) error {
	return a.memoryTx.insertJournalLines(ctx, lines)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(mem *memoryTx) *Service {
	ledger := inventory.NewLedger()
	poster := accounting.NewService(nil, journals.NewKernel(), ledger, accounting.DefaultCodes(), nil, slog.Default())
	svc := NewService(nil, nil, poster, ledger, slog.Default())
	svc.run = func(ctx context.Context, fn func(TxRepository, accounting.TxRepository) error) error {
		return fn(mem, accTx{mem})
	}
	return svc
}

func movementCount(mem *memoryTx, productID uuid.UUID) int {
	n := 0
	for _, mv := range mem.movements {
		if mv.ProductID == productID {
			n++
		}
	}
	return n
}

func TestPOReceiptIsIdempotent(t *testing.T) {
	codes := accounting.DefaultCodes()
	mem := newMemoryTx(codes.Inventory, codes.Payable, codes.Cash, codes.PurchaseDiscount)
	svc := newTestService(mem)
	ctx := context.Background()

	productID := uuid.New()
	mem.products[productID] = inventory.ProductStock{ID: productID, Name: "Busi"}

	po, err := svc.Create(ctx, CreateInput{
		SupplierID: uuid.New(),
		Lines:      []LineInput{{ProductID: productID, Qty: dec("10"), Price: dec("100")}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, po.Status)
	require.True(t, po.Total.Equal(dec("1000")))

	_, err = svc.SetStatus(ctx, po.ID, StatusDijalankan)
	require.NoError(t, err)
	require.Empty(t, mem.movements, "no receipt before diterima")

	result, err := svc.SetStatus(ctx, po.ID, StatusDiterima)
	require.NoError(t, err)
	require.Equal(t, 1, movementCount(mem, productID))
	require.True(t, mem.snapshots[productID].Equal(dec("10")))
	require.True(t, mem.products[productID].Cost.Equal(dec("100")))
	require.Len(t, result.CostChanges, 1)
	require.Len(t, mem.entries, 1, "one purchase entry")

	// Repeating diterima is a no-op: no second income, no second entry.
	again, err := svc.SetStatus(ctx, po.ID, StatusDiterima)
	require.NoError(t, err)
	require.Empty(t, again.CostChanges)
	require.Equal(t, 1, movementCount(mem, productID))
	require.Len(t, mem.entries, 1)
}

func TestPOPaymentPostsOnce(t *testing.T) {
	codes := accounting.DefaultCodes()
	mem := newMemoryTx(codes.Inventory, codes.Payable, codes.Cash, codes.PurchaseDiscount)
	svc := newTestService(mem)
	ctx := context.Background()

	productID := uuid.New()
	mem.products[productID] = inventory.ProductStock{ID: productID}

	po, err := svc.Create(ctx, CreateInput{
		SupplierID: uuid.New(),
		Lines:      []LineInput{{ProductID: productID, Qty: dec("4"), Price: dec("250")}},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, po.ID, StatusDiterima)
	require.NoError(t, err)

	result, err := svc.SetStatus(ctx, po.ID, StatusDibayarkan)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.PaymentNo, "APP-"))
	require.Len(t, mem.entries, 2, "purchase then payment")

	// Repeating dibayarkan posts nothing further.
	again, err := svc.SetStatus(ctx, po.ID, StatusDibayarkan)
	require.NoError(t, err)
	require.Empty(t, again.PaymentNo)
	require.Len(t, mem.entries, 2)
}

func TestPOCrossingBothThresholdsAtOnce(t *testing.T) {
	codes := accounting.DefaultCodes()
	mem := newMemoryTx(codes.Inventory, codes.Payable, codes.Cash, codes.PurchaseDiscount)
	svc := newTestService(mem)
	ctx := context.Background()

	productID := uuid.New()
	mem.products[productID] = inventory.ProductStock{ID: productID}

	po, err := svc.Create(ctx, CreateInput{
		SupplierID: uuid.New(),
		Lines:      []LineInput{{ProductID: productID, Qty: dec("2"), Price: dec("50")}},
	})
	require.NoError(t, err)

	result, err := svc.SetStatus(ctx, po.ID, StatusDibayarkan)
	require.NoError(t, err)
	require.Equal(t, 1, movementCount(mem, productID))
	require.NotEmpty(t, result.PaymentNo)
	require.Len(t, mem.entries, 2)
}

func TestPORejectsRewindAndUnknownStatus(t *testing.T) {
	codes := accounting.DefaultCodes()
	mem := newMemoryTx(codes.Inventory, codes.Payable, codes.Cash, codes.PurchaseDiscount)
	svc := newTestService(mem)
	ctx := context.Background()

	productID := uuid.New()
	mem.products[productID] = inventory.ProductStock{ID: productID}

	po, err := svc.Create(ctx, CreateInput{
		SupplierID: uuid.New(),
		Lines:      []LineInput{{ProductID: productID, Qty: dec("1"), Price: dec("10")}},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, po.ID, StatusDiterima)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, po.ID, StatusDraft)
	require.ErrorIs(t, err, ErrRewind)

	_, err = svc.SetStatus(ctx, po.ID, Status("batal"))
	require.ErrorIs(t, err, ErrUnknownStatus)

	_, err = svc.SetStatus(ctx, uuid.New(), StatusDiterima)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPOCreateRequiresLines(t *testing.T) {
	mem := newMemoryTx()
	svc := newTestService(mem)

	_, err := svc.Create(context.Background(), CreateInput{SupplierID: uuid.New()})
	require.ErrorIs(t, err, ErrNoLines)
}
