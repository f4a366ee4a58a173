package workshop

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

// memoryTx backs both the workshop and accounting transactional surfaces
// for one test.
type memoryTx struct {
	workorders map[uuid.UUID]Workorder
	accounts   map[string]accounts.Account

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
		workorders: make(map[uuid.UUID]Workorder),
		accounts:   make(map[string]accounts.Account),
		links:      make(map[string]uuid.UUID),
		snapshots:  make(map[uuid.UUID]decimal.Decimal),
		products:   make(map[uuid.UUID]inventory.ProductStock),
	}
	for _, code := range codes {
		m.accounts[code] = accounts.Account{ID: uuid.New(), Code: code, Name: "Akun " + code, IsActive: true}
	}
	return m
}

func (m *memoryTx) Insert(_ context.Context, wo Workorder) error {
	m.workorders[wo.ID] = wo
	return nil
}

func (m *memoryTx) InsertProductLines(_ context.Context, lines []ProductOrdered) error {
	if len(lines) == 0 {
		return nil
	}
	wo := m.workorders[lines[0].WorkorderID]
	wo.Products = append(wo.Products, lines...)
	m.workorders[wo.ID] = wo
	return nil
}

func (m *memoryTx) InsertServiceLines(_ context.Context, lines []ServiceOrdered) error {
	if len(lines) == 0 {
		return nil
	}
	wo := m.workorders[lines[0].WorkorderID]
	wo.Services = append(wo.Services, lines...)
	m.workorders[wo.ID] = wo
	return nil
}

func (m *memoryTx) GetForUpdate(_ context.Context, id uuid.UUID) (Workorder, error) {
	wo, ok := m.workorders[id]
	if !ok {
		return Workorder{}, ErrNotFound
	}
	return wo, nil
}

func (m *memoryTx) SetPaymentStatus(_ context.Context, id uuid.UUID, status string, at time.Time) error {
	wo, ok := m.workorders[id]
	if !ok {
		return ErrNotFound
	}
	wo.StatusPembayaran = status
	wo.UpdatedAt = at
	m.workorders[id] = wo
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

func (m *memoryTx) GetWorkorderProducts(_ context.Context, workorderID uuid.UUID) ([]accounting.WorkorderProduct, error) {
	wo, ok := m.workorders[workorderID]
	if !ok {
		return nil, nil
	}
	var out []accounting.WorkorderProduct
	for _, l := range wo.Products {
		p := m.products[l.ProductID]
		out = append(out, accounting.WorkorderProduct{
			ProductID:     l.ProductID,
			Name:          p.Name,
			Qty:           l.Qty,
			Price:         l.Price,
			Subtotal:      l.Subtotal,
			Cost:          p.Cost,
			SupplierID:    p.SupplierID,
			IsConsignment: p.IsConsignment,
		})
	}
	return out, nil
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

func TestWorkorderCreateDerivesTotals(t *testing.T) {
	mem := newMemoryTx()
	svc := newTestService(mem)

	productID := uuid.New()
	wo, err := svc.Create(context.Background(), CreateInput{
		CustomerID: uuid.New(),
		Tax:        dec("33"),
		Products: []ProductLineInput{
			{ProductID: productID, Qty: dec("2"), Price: dec("150"), Discount: dec("10")},
		},
		Services: []ServiceLineInput{
			{Name: "Ganti oli", Qty: dec("1"), Price: dec("75")},
		},
	})
	require.NoError(t, err)
	require.True(t, wo.TotalProduct.Equal(dec("290")))
	require.True(t, wo.TotalService.Equal(dec("75")))
	require.True(t, wo.Total.Equal(dec("398")))
	require.Equal(t, PaymentUnpaid, wo.StatusPembayaran)
	require.True(t, strings.HasPrefix(wo.NoWO, "WO-"))
}

func TestSettlePostsSaleConsignmentAndReceipt(t *testing.T) {
	codes := accounting.DefaultCodes()
	mem := newMemoryTx(codes.Cash, codes.Receivable, codes.Sales, codes.OutputVAT,
		codes.COGS, codes.Inventory, codes.CommissionExpense, codes.ConsignmentPayable,
		codes.SalesDiscount)
	svc := newTestService(mem)
	ctx := context.Background()

	supplierID := uuid.New()
	owned := uuid.New()
	consigned := uuid.New()
	mem.products[owned] = inventory.ProductStock{ID: owned, Name: "Oli", Cost: dec("60")}
	mem.products[consigned] = inventory.ProductStock{
		ID: consigned, Name: "Aki", Cost: dec("300"), SupplierID: &supplierID, IsConsignment: true,
	}
	mem.movements = append(mem.movements,
		inventory.Movement{ID: uuid.New(), ProductID: owned, Qty: dec("10"), Kind: inventory.MovementIncome},
		inventory.Movement{ID: uuid.New(), ProductID: consigned, Qty: dec("5"), Kind: inventory.MovementIncome},
	)

	wo, err := svc.Create(ctx, CreateInput{
		CustomerID: uuid.New(),
		Products: []ProductLineInput{
			{ProductID: owned, Qty: dec("2"), Price: dec("100")},
			{ProductID: consigned, Qty: dec("2"), Price: dec("500")},
		},
	})
	require.NoError(t, err)
	require.True(t, wo.Total.Equal(dec("1200")))

	result, err := svc.Settle(ctx, SettleInput{WorkorderID: wo.ID})
	require.NoError(t, err)
	require.Equal(t, PaymentPaid, result.Workorder.StatusPembayaran)
	require.True(t, strings.HasPrefix(result.SaleNo, "SAL-"))
	require.True(t, strings.HasPrefix(result.ReceiptNo, "ARR-"))
	require.Len(t, result.Consignment, 1)

	// Sale: AR debited for the full amount, owned COGS only.
	arDr, _ := lineAmount(mem, result.SaleNo, codes.Receivable)
	require.True(t, arDr.Equal(dec("1200")))
	cogsDr, _ := lineAmount(mem, result.SaleNo, codes.COGS)
	require.True(t, cogsDr.Equal(dec("120")), "2 x 60 owned cost, consignment excluded")

	// Consignment: 2 x 300 owed to the supplier.
	commDr, _ := lineAmount(mem, result.Consignment[0], codes.CommissionExpense)
	require.True(t, commDr.Equal(dec("600")))

	// Receipt: cash in, AR cleared.
	cashDr, _ := lineAmount(mem, result.ReceiptNo, codes.Cash)
	require.True(t, cashDr.Equal(dec("1200")))
	_, arCr := lineAmount(mem, result.ReceiptNo, codes.Receivable)
	require.True(t, arCr.Equal(dec("1200")))

	// Stock moved out for both lines.
	require.True(t, mem.snapshots[owned].Equal(dec("8")))
	require.True(t, mem.snapshots[consigned].Equal(dec("3")))

	// Settling twice is rejected.
	_, err = svc.Settle(ctx, SettleInput{WorkorderID: wo.ID})
	require.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestSettleGuardsByLinkageWhenStatusIsStale(t *testing.T) {
	codes := accounting.DefaultCodes()
	mem := newMemoryTx(codes.Cash, codes.Receivable, codes.Sales, codes.COGS, codes.Inventory)
	svc := newTestService(mem)
	ctx := context.Background()

	productID := uuid.New()
	mem.products[productID] = inventory.ProductStock{ID: productID, Cost: dec("10")}
	mem.movements = append(mem.movements, inventory.Movement{
		ID: uuid.New(), ProductID: productID, Qty: dec("5"), Kind: inventory.MovementIncome,
	})

	wo, err := svc.Create(ctx, CreateInput{
		CustomerID: uuid.New(),
		Products:   []ProductLineInput{{ProductID: productID, Qty: dec("1"), Price: dec("50")}},
	})
	require.NoError(t, err)

	_, err = svc.Settle(ctx, SettleInput{WorkorderID: wo.ID})
	require.NoError(t, err)

	// Simulate a stale status row: linkage still blocks the double post.
	stale := mem.workorders[wo.ID]
	stale.StatusPembayaran = PaymentUnpaid
	mem.workorders[wo.ID] = stale

	_, err = svc.Settle(ctx, SettleInput{WorkorderID: wo.ID})
	require.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestSettleRejectsEmptyAndUnknown(t *testing.T) {
	mem := newMemoryTx()
	svc := newTestService(mem)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{CustomerID: uuid.New()})
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.Settle(ctx, SettleInput{WorkorderID: uuid.New()})
	require.ErrorIs(t, err, ErrNotFound)
}
