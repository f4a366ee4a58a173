package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryLedger struct {
	products  map[uuid.UUID]ProductStock
	movements []Movement
	snapshots map[uuid.UUID]decimal.Decimal
	history   []CostChange
}

func newMemoryLedger(products ...ProductStock) *memoryLedger {
	m := &memoryLedger{
		products:  make(map[uuid.UUID]ProductStock),
		snapshots: make(map[uuid.UUID]decimal.Decimal),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memoryLedger) GetProductForUpdate(_ context.Context, id uuid.UUID) (ProductStock, error) {
	p, ok := m.products[id]
	if !ok {
		return ProductStock{}, ErrProductNotFound
	}
	return p, nil
}

func (m *memoryLedger) InsertMovement(_ context.Context, mv Movement) error {
	m.movements = append(m.movements, mv)
	return nil
}

func (m *memoryLedger) SumMovements(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, mv := range m.movements {
		if mv.ProductID == id {
			sum = sum.Add(mv.Qty)
		}
	}
	return sum, nil
}

func (m *memoryLedger) UpsertSnapshot(_ context.Context, id uuid.UUID, qty decimal.Decimal, _ time.Time) error {
	m.snapshots[id] = qty
	return nil
}

func (m *memoryLedger) UpdateProductCost(_ context.Context, id uuid.UUID, cost decimal.Decimal) error {
	p, ok := m.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Cost = cost
	m.products[id] = p
	return nil
}

func (m *memoryLedger) InsertCostHistory(_ context.Context, c CostChange) error {
	m.history = append(m.history, c)
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReceiveIntoEmptyStockTakesPurchasePrice(t *testing.T) {
	productID := uuid.New()
	tx := newMemoryLedger(ProductStock{ID: productID, Name: "Oli mesin", Cost: decimal.Zero})
	ledger := NewLedger()

	change, err := ledger.Receive(context.Background(), tx, ReceiptInput{
		ProductID: productID, Qty: dec("10"), Price: dec("100"),
	})
	require.NoError(t, err)
	require.False(t, change.Skipped)
	require.True(t, change.NewCost.Equal(dec("100")), "got %s", change.NewCost)
	require.True(t, tx.snapshots[productID].Equal(dec("10")))
	require.Len(t, tx.history, 1)
	require.Equal(t, CostMethodAverage, tx.history[0].Method)
}

func TestReceiveBlendsMovingAverage(t *testing.T) {
	productID := uuid.New()
	tx := newMemoryLedger(ProductStock{ID: productID, Name: "Kampas rem", Cost: decimal.Zero})
	ledger := NewLedger()
	ctx := context.Background()

	_, err := ledger.Receive(ctx, tx, ReceiptInput{ProductID: productID, Qty: dec("10"), Price: dec("100")})
	require.NoError(t, err)

	change, err := ledger.Receive(ctx, tx, ReceiptInput{ProductID: productID, Qty: dec("10"), Price: dec("120")})
	require.NoError(t, err)
	require.True(t, change.NewCost.Equal(dec("110")), "got %s", change.NewCost)
	require.True(t, change.OldCost.Equal(dec("100")))
	require.True(t, tx.snapshots[productID].Equal(dec("20")))
	require.Equal(t, productID, tx.products[productID].ID)
	require.True(t, tx.products[productID].Cost.Equal(dec("110")))
}

func TestReceiveRoundsHalfAwayFromZero(t *testing.T) {
	productID := uuid.New()
	tx := newMemoryLedger(ProductStock{ID: productID, Cost: decimal.Zero})
	ledger := NewLedger()
	ctx := context.Background()

	// 3 @ 10.00 then 3 @ 10.01 -> (30 + 30.03) / 6 = 10.005 -> 10.01.
	_, err := ledger.Receive(ctx, tx, ReceiptInput{ProductID: productID, Qty: dec("3"), Price: dec("10.00")})
	require.NoError(t, err)
	change, err := ledger.Receive(ctx, tx, ReceiptInput{ProductID: productID, Qty: dec("3"), Price: dec("10.01")})
	require.NoError(t, err)
	require.True(t, change.NewCost.Equal(dec("10.01")), "got %s", change.NewCost)
}

func TestReceiveConsignmentSkipsCosting(t *testing.T) {
	productID := uuid.New()
	tx := newMemoryLedger(ProductStock{ID: productID, Cost: dec("50"), IsConsignment: true})
	ledger := NewLedger()

	change, err := ledger.Receive(context.Background(), tx, ReceiptInput{
		ProductID: productID, Qty: dec("5"), Price: dec("75"),
	})
	require.NoError(t, err)
	require.True(t, change.Skipped)
	require.True(t, change.NewCost.Equal(dec("50")), "consignment cost must not move")
	require.True(t, tx.products[productID].Cost.Equal(dec("50")))
	require.True(t, tx.snapshots[productID].Equal(dec("5")), "quantity still tracked")
	require.Empty(t, tx.history)
}

func TestReceiveRejectsBadInput(t *testing.T) {
	productID := uuid.New()
	tx := newMemoryLedger(ProductStock{ID: productID})
	ledger := NewLedger()
	ctx := context.Background()

	_, err := ledger.Receive(ctx, tx, ReceiptInput{ProductID: productID, Qty: dec("0"), Price: dec("10")})
	require.ErrorIs(t, err, ErrQuantityMustBePositive)

	_, err = ledger.Receive(ctx, tx, ReceiptInput{ProductID: productID, Qty: dec("1"), Price: dec("-1")})
	require.ErrorIs(t, err, ErrInvalidUnitCost)

	_, err = ledger.Receive(ctx, tx, ReceiptInput{ProductID: uuid.New(), Qty: dec("1"), Price: dec("1")})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestRecordRejectsNegativeStock(t *testing.T) {
	productID := uuid.New()
	tx := newMemoryLedger(ProductStock{ID: productID})
	ledger := NewLedger()
	ctx := context.Background()

	_, _, err := ledger.Record(ctx, tx, MovementInput{ProductID: productID, Qty: dec("5"), Kind: MovementIncome})
	require.NoError(t, err)

	_, _, err = ledger.Record(ctx, tx, MovementInput{ProductID: productID, Qty: dec("-6"), Kind: MovementOutcome})
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, newQty, err := ledger.Record(ctx, tx, MovementInput{ProductID: productID, Qty: dec("-5"), Kind: MovementOutcome})
	require.NoError(t, err)
	require.True(t, newQty.IsZero())
}

func TestRecordRejectsWrongSign(t *testing.T) {
	productID := uuid.New()
	tx := newMemoryLedger(ProductStock{ID: productID})
	ledger := NewLedger()
	ctx := context.Background()

	_, _, err := ledger.Record(ctx, tx, MovementInput{ProductID: productID, Qty: dec("-1"), Kind: MovementIncome})
	require.ErrorIs(t, err, ErrQuantityMustBePositive)

	_, _, err = ledger.Record(ctx, tx, MovementInput{ProductID: productID, Qty: dec("1"), Kind: MovementOutcome})
	require.ErrorIs(t, err, ErrQuantityMustBePositive)

	_, _, err = ledger.Record(ctx, tx, MovementInput{ProductID: productID, Qty: dec("0"), Kind: MovementAdjustment})
	require.ErrorIs(t, err, ErrQuantityMustBePositive)
}

func TestAdjustWritesHistoryAndHonorsNegativePolicy(t *testing.T) {
	productID := uuid.New()
	tx := newMemoryLedger(ProductStock{ID: productID, Cost: dec("40")})
	ledger := NewLedger()
	ctx := context.Background()

	_, err := ledger.Adjust(ctx, tx, MovementInput{ProductID: productID, Qty: dec("-2")})
	require.ErrorIs(t, err, ErrInsufficientStock)

	mv, err := ledger.Adjust(ctx, tx, MovementInput{ProductID: productID, Qty: dec("-2"), AllowNegative: true})
	require.NoError(t, err)
	require.Equal(t, MovementAdjustment, mv.Kind)
	require.True(t, tx.snapshots[productID].Equal(dec("-2")))

	require.Len(t, tx.history, 1)
	h := tx.history[0]
	require.Equal(t, CostMethodAdjustment, h.Method)
	require.True(t, h.OldCost.Equal(h.NewCost), "adjustments never move cost")
	require.True(t, h.NewQty.Equal(dec("-2")))
}
