package accounting

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/accounts"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/journals"
	accshared "github.com/bengkel-erp/bengkel-erp/internal/accounting/shared"
	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
)

type memoryRepo struct {
	accounts  map[string]accounts.Account
	entries   []journals.JournalEntry
	lines     []journals.JournalLine
	links     map[string]uuid.UUID
	movements []inventory.Movement
	snapshots map[uuid.UUID]decimal.Decimal
	costs     []inventory.CostChange
	products  map[uuid.UUID]inventory.ProductStock
	ordered   map[uuid.UUID][]WorkorderProduct
}

func newMemoryRepo(codes ...string) *memoryRepo {
	m := &memoryRepo{
		accounts:  make(map[string]accounts.Account),
		links:     make(map[string]uuid.UUID),
		snapshots: make(map[uuid.UUID]decimal.Decimal),
		products:  make(map[uuid.UUID]inventory.ProductStock),
		ordered:   make(map[uuid.UUID][]WorkorderProduct),
	}
	for _, code := range codes {
		m.accounts[code] = accounts.Account{ID: uuid.New(), Code: code, Name: "Akun " + code, IsActive: true}
	}
	return m
}

func (m *memoryRepo) GetAccountByCode(_ context.Context, code string) (accounts.Account, error) {
	account, ok := m.accounts[code]
	if !ok || !account.IsActive {
		return accounts.Account{}, accshared.ErrAccountNotFound
	}
	return account, nil
}

func (m *memoryRepo) LastEntryNo(_ context.Context, numPrefix string) (string, error) {
	best := ""
	for _, e := range m.entries {
		if !strings.HasPrefix(e.EntryNo, numPrefix) {
			continue
		}
		if len(e.EntryNo) > len(best) || (len(e.EntryNo) == len(best) && e.EntryNo > best) {
			best = e.EntryNo
		}
	}
	return best, nil
}

func (m *memoryRepo) InsertEntry(_ context.Context, entry journals.JournalEntry) error {
	for _, e := range m.entries {
		if e.EntryNo == entry.EntryNo {
			return accshared.ErrDuplicateEntry
		}
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryRepo) InsertLines(_ context.Context, lines []journals.JournalLine) error {
	m.lines = append(m.lines, lines...)
	return nil
}

func (m *memoryRepo) LinkSource(_ context.Context, module string, ref uuid.UUID, entryID uuid.UUID) error {
	key := module + "/" + ref.String()
	if _, ok := m.links[key]; ok {
		return accshared.ErrDuplicateEntry
	}
	m.links[key] = entryID
	return nil
}

func (m *memoryRepo) SourcePosted(_ context.Context, module string, ref uuid.UUID) (bool, error) {
	_, ok := m.links[module+"/"+ref.String()]
	return ok, nil
}

func (m *memoryRepo) GetProductForUpdate(_ context.Context, id uuid.UUID) (inventory.ProductStock, error) {
	p, ok := m.products[id]
	if !ok {
		return inventory.ProductStock{}, inventory.ErrProductNotFound
	}
	return p, nil
}

func (m *memoryRepo) InsertMovement(_ context.Context, mv inventory.Movement) error {
	m.movements = append(m.movements, mv)
	return nil
}

func (m *memoryRepo) SumMovements(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, mv := range m.movements {
		if mv.ProductID == id {
			sum = sum.Add(mv.Qty)
		}
	}
	return sum, nil
}

func (m *memoryRepo) UpsertSnapshot(_ context.Context, id uuid.UUID, qty decimal.Decimal, _ time.Time) error {
	m.snapshots[id] = qty
	return nil
}

func (m *memoryRepo) UpdateProductCost(_ context.Context, id uuid.UUID, cost decimal.Decimal) error {
	p, ok := m.products[id]
	if !ok {
		return inventory.ErrProductNotFound
	}
	p.Cost = cost
	m.products[id] = p
	return nil
}

func (m *memoryRepo) InsertCostHistory(_ context.Context, c inventory.CostChange) error {
	m.costs = append(m.costs, c)
	return nil
}

func (m *memoryRepo) GetWorkorderProducts(_ context.Context, workorderID uuid.UUID) ([]WorkorderProduct, error) {
	return m.ordered[workorderID], nil
}

func newTestService(repo *memoryRepo) *Service {
	svc := NewService(nil, journals.NewKernel(), inventory.NewLedger(), DefaultCodes(), nil, slog.Default())
	svc.run = func(ctx context.Context, fn func(TxRepository) error) error {
		return fn(repo)
	}
	return svc
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func entryTotals(t *testing.T, repo *memoryRepo, entryID uuid.UUID) (debit, credit decimal.Decimal) {
	t.Helper()
	for _, l := range repo.lines {
		if l.EntryID != entryID {
			continue
		}
		require.True(t, l.Debit.IsPositive() != l.Credit.IsPositive(), "line must have exactly one positive side")
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

func lineAmount(repo *memoryRepo, entryID uuid.UUID, code string) (debit, credit decimal.Decimal) {
	for _, l := range repo.lines {
		if l.EntryID == entryID && l.AccountCode == code {
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}
	}
	return debit, credit
}

func TestPurchaseThenSaleRoundTrip(t *testing.T) {
	codes := DefaultCodes()
	repo := newMemoryRepo(codes.Cash, codes.Inventory, codes.Sales, codes.COGS, codes.Receivable)
	svc := newTestService(repo)
	ctx := context.Background()

	purchase, err := svc.RecordPurchase(ctx, PurchaseInput{
		Memo:     "Beli oli",
		Amount:   dec("1000"),
		CashCode: codes.Cash,
	})
	require.NoError(t, err)
	d, c := entryTotals(t, repo, purchase.ID)
	require.True(t, d.Equal(c))
	invDr, _ := lineAmount(repo, purchase.ID, codes.Inventory)
	require.True(t, invDr.Equal(dec("1000")))
	_, cashCr := lineAmount(repo, purchase.ID, codes.Cash)
	require.True(t, cashCr.Equal(dec("1000")))

	sale, err := svc.RecordSale(ctx, SaleInput{
		Memo:     "Jual oli",
		Amount:   dec("600"),
		COGS:     dec("400"),
		CashCode: codes.Cash,
	})
	require.NoError(t, err)
	d, c = entryTotals(t, repo, sale.Sale.ID)
	require.True(t, d.Equal(c))
	cashDr, _ := lineAmount(repo, sale.Sale.ID, codes.Cash)
	require.True(t, cashDr.Equal(dec("600")))
	_, salesCr := lineAmount(repo, sale.Sale.ID, codes.Sales)
	require.True(t, salesCr.Equal(dec("600")))
	cogsDr, _ := lineAmount(repo, sale.Sale.ID, codes.COGS)
	require.True(t, cogsDr.Equal(dec("400")))
	_, invCr := lineAmount(repo, sale.Sale.ID, codes.Inventory)
	require.True(t, invCr.Equal(dec("400")))
}

func TestPurchaseOnCreditPostsPayable(t *testing.T) {
	codes := DefaultCodes()
	repo := newMemoryRepo(codes.Inventory, codes.InputVAT, codes.Payable)
	svc := newTestService(repo)

	entry, err := svc.RecordPurchase(context.Background(), PurchaseInput{
		Amount: dec("500"),
		VAT:    dec("55"),
	})
	require.NoError(t, err)
	_, apCr := lineAmount(repo, entry.ID, codes.Payable)
	require.True(t, apCr.Equal(dec("555")))
	vatDr, _ := lineAmount(repo, entry.ID, codes.InputVAT)
	require.True(t, vatDr.Equal(dec("55")))
	require.True(t, strings.HasPrefix(entry.EntryNo, "PUR-"))
}

func TestConsignmentSaleFromWorkorder(t *testing.T) {
	codes := DefaultCodes()
	repo := newMemoryRepo(codes.Receivable, codes.Sales, codes.CommissionExpense, codes.ConsignmentPayable)
	svc := newTestService(repo)
	ctx := context.Background()

	supplierID := uuid.New()
	productID := uuid.New()
	workorderID := uuid.New()
	repo.products[productID] = inventory.ProductStock{
		ID: productID, Cost: dec("300"), SupplierID: &supplierID, IsConsignment: true,
	}
	repo.movements = append(repo.movements, inventory.Movement{
		ID: uuid.New(), ProductID: productID, Qty: dec("5"), Kind: inventory.MovementIncome,
	})
	repo.ordered[workorderID] = []WorkorderProduct{{
		ProductID: productID, Qty: dec("2"), Price: dec("500"), Subtotal: dec("1000"),
		Cost: dec("300"), SupplierID: &supplierID, IsConsignment: true,
	}}

	result, err := svc.RecordSale(ctx, SaleInput{
		WorkorderID: &workorderID,
		Amount:      dec("1000"),
	})
	require.NoError(t, err)

	arDr, _ := lineAmount(repo, result.Sale.ID, codes.Receivable)
	require.True(t, arDr.Equal(dec("1000")))
	_, salesCr := lineAmount(repo, result.Sale.ID, codes.Sales)
	require.True(t, salesCr.Equal(dec("1000")))

	require.Len(t, result.Consignment, 1)
	csg := result.Consignment[0]
	require.Equal(t, journals.KindConsignment, csg.Kind)
	require.True(t, strings.HasPrefix(csg.EntryNo, "CSG-"))
	require.Equal(t, supplierID, *csg.Links.SupplierID)
	commDr, _ := lineAmount(repo, csg.ID, codes.CommissionExpense)
	require.True(t, commDr.Equal(dec("600")))
	_, payCr := lineAmount(repo, csg.ID, codes.ConsignmentPayable)
	require.True(t, payCr.Equal(dec("600")))

	require.True(t, repo.snapshots[productID].Equal(dec("3")), "outcome movement recorded")

	// Settling the same workorder again must not double-post.
	_, err = svc.RecordSale(ctx, SaleInput{WorkorderID: &workorderID, Amount: dec("1000")})
	require.ErrorIs(t, err, accshared.ErrAlreadyPosted)
}

func TestARReceiptWithDiscount(t *testing.T) {
	codes := DefaultCodes()
	repo := newMemoryRepo(codes.Cash, codes.SalesDiscount, codes.Receivable)
	svc := newTestService(repo)

	entry, err := svc.ReceiveAR(context.Background(), ARReceiptInput{
		Amount:   dec("1000"),
		Discount: dec("50"),
	})
	require.NoError(t, err)
	cashDr, _ := lineAmount(repo, entry.ID, codes.Cash)
	require.True(t, cashDr.Equal(dec("950")))
	discDr, _ := lineAmount(repo, entry.ID, codes.SalesDiscount)
	require.True(t, discDr.Equal(dec("50")))
	_, arCr := lineAmount(repo, entry.ID, codes.Receivable)
	require.True(t, arCr.Equal(dec("1000")))
	d, c := entryTotals(t, repo, entry.ID)
	require.True(t, d.Equal(c))
}

func TestAPPaymentWithDiscount(t *testing.T) {
	codes := DefaultCodes()
	repo := newMemoryRepo(codes.Cash, codes.PurchaseDiscount, codes.Payable)
	svc := newTestService(repo)

	entry, err := svc.PayAP(context.Background(), APPaymentInput{
		Amount:   dec("800"),
		Discount: dec("25"),
	})
	require.NoError(t, err)
	apDr, _ := lineAmount(repo, entry.ID, codes.Payable)
	require.True(t, apDr.Equal(dec("800")))
	_, cashCr := lineAmount(repo, entry.ID, codes.Cash)
	require.True(t, cashCr.Equal(dec("775")))
	_, discCr := lineAmount(repo, entry.ID, codes.PurchaseDiscount)
	require.True(t, discCr.Equal(dec("25")))
}

func TestSettlementRejectsExcessDiscount(t *testing.T) {
	codes := DefaultCodes()
	repo := newMemoryRepo(codes.Cash, codes.SalesDiscount, codes.Receivable)
	svc := newTestService(repo)

	_, err := svc.ReceiveAR(context.Background(), ARReceiptInput{
		Amount:   dec("100"),
		Discount: dec("150"),
	})
	require.ErrorIs(t, err, accshared.ErrInvalidLine)
	require.Empty(t, repo.entries, "nothing written on rejection")
}

func TestAccruedExpenseThenPayment(t *testing.T) {
	codes := DefaultCodes()
	repo := newMemoryRepo(codes.Cash, codes.Payable, "6001")
	svc := newTestService(repo)
	ctx := context.Background()
	expenseID := uuid.New()

	accrued, err := svc.RecordExpense(ctx, ExpenseInput{
		ExpenseID:   &expenseID,
		Amount:      dec("200"),
		ExpenseCode: "6001",
	})
	require.NoError(t, err)
	_, apCr := lineAmount(repo, accrued.ID, codes.Payable)
	require.True(t, apCr.Equal(dec("200")), "no cash code means accrual")

	paid, err := svc.PayExpenseTx(ctx, repo, expenseID, dec("200"), "", "bayar beban", time.Time{})
	require.NoError(t, err)
	apDr, _ := lineAmount(repo, paid.ID, codes.Payable)
	require.True(t, apDr.Equal(dec("200")))
	_, cashCr := lineAmount(repo, paid.ID, codes.Cash)
	require.True(t, cashCr.Equal(dec("200")))

	// The cash leg is linked to the expense row; paying twice conflicts.
	_, err = svc.PayExpenseTx(ctx, repo, expenseID, dec("200"), "", "bayar beban", time.Time{})
	require.ErrorIs(t, err, accshared.ErrDuplicateEntry)
}

func TestCashInAndOut(t *testing.T) {
	codes := DefaultCodes()
	repo := newMemoryRepo(codes.Cash, "9000")
	svc := newTestService(repo)
	ctx := context.Background()

	in, err := svc.CashIn(ctx, CashMovementInput{Amount: dec("5000"), CounterCode: "9000"})
	require.NoError(t, err)
	cashDr, _ := lineAmount(repo, in.ID, codes.Cash)
	require.True(t, cashDr.Equal(dec("5000")))

	out, err := svc.CashOut(ctx, CashMovementInput{Amount: dec("1200"), CounterCode: "9000"})
	require.NoError(t, err)
	_, cashCr := lineAmount(repo, out.ID, codes.Cash)
	require.True(t, cashCr.Equal(dec("1200")))
}

func TestStockLossPostsAtCost(t *testing.T) {
	codes := DefaultCodes()
	repo := newMemoryRepo(codes.LossExpense, codes.Inventory)
	svc := newTestService(repo)
	ctx := context.Background()

	productID := uuid.New()
	repo.products[productID] = inventory.ProductStock{ID: productID, Cost: dec("300")}
	repo.movements = append(repo.movements, inventory.Movement{
		ID: uuid.New(), ProductID: productID, Qty: dec("10"), Kind: inventory.MovementIncome,
	})

	entry, err := svc.RecordLoss(ctx, LossInput{ProductID: productID, Qty: dec("2"), Memo: "hilang"})
	require.NoError(t, err)
	lossDr, _ := lineAmount(repo, entry.ID, codes.LossExpense)
	require.True(t, lossDr.Equal(dec("600")))
	_, invCr := lineAmount(repo, entry.ID, codes.Inventory)
	require.True(t, invCr.Equal(dec("600")))
	require.True(t, repo.snapshots[productID].Equal(dec("8")))

	zeroCost := uuid.New()
	repo.products[zeroCost] = inventory.ProductStock{ID: zeroCost}
	_, err = svc.RecordLoss(ctx, LossInput{ProductID: zeroCost, Qty: dec("1")})
	require.ErrorIs(t, err, inventory.ErrProductHasNoCost)
}
