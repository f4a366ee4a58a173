package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxLedger exposes the transactional operations the ledger writes through.
// Implementations run inside the caller's unit of work: movement, snapshot
// refresh and cost history commit together with whatever journal entries
// the caller posts.
type TxLedger interface {
	// GetProductForUpdate loads the product under a row-level lock. All
	// writers to a product's snapshot and cost serialize on this lock.
	GetProductForUpdate(ctx context.Context, productID uuid.UUID) (ProductStock, error)
	InsertMovement(ctx context.Context, m Movement) error
	SumMovements(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	UpsertSnapshot(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, at time.Time) error
	UpdateProductCost(ctx context.Context, productID uuid.UUID, cost decimal.Decimal) error
	InsertCostHistory(ctx context.Context, change CostChange) error
}

// Ledger implements the append-only inventory log and the moving-average
// costing rules over a TxLedger.
type Ledger struct {
	now func() time.Time
}

// NewLedger builds a Ledger.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (l *Ledger) WithNow(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

// Record appends a movement and refreshes the snapshot to the sum of all
// movements for the product. Outcomes and adjustments that would drive
// stock below zero fail with ErrInsufficientStock unless the caller is an
// adjustment explicitly permitted to go negative.
func (l *Ledger) Record(ctx context.Context, tx TxLedger, input MovementInput) (Movement, decimal.Decimal, error) {
	if err := validateMovement(input); err != nil {
		return Movement{}, decimal.Zero, err
	}
	if _, err := tx.GetProductForUpdate(ctx, input.ProductID); err != nil {
		return Movement{}, decimal.Zero, err
	}
	current, err := tx.SumMovements(ctx, input.ProductID)
	if err != nil {
		return Movement{}, decimal.Zero, err
	}
	newQty := current.Add(input.Qty)
	if newQty.IsNegative() && !(input.Kind == MovementAdjustment && input.AllowNegative) {
		return Movement{}, decimal.Zero, ErrInsufficientStock
	}
	now := l.now().UTC()
	movement := Movement{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		Qty:       input.Qty.Round(2),
		Kind:      input.Kind,
		Notes:     input.Notes,
		Actor:     input.Actor,
		CreatedAt: now,
	}
	if err := tx.InsertMovement(ctx, movement); err != nil {
		return Movement{}, decimal.Zero, err
	}
	if err := tx.UpsertSnapshot(ctx, input.ProductID, newQty, now); err != nil {
		return Movement{}, decimal.Zero, err
	}
	return movement, newQty, nil
}

// Receive records an income movement and applies the moving-average cost.
// Consignment products are tracked for quantity only: the movement and
// snapshot still happen, the cost computation is skipped and the returned
// change carries Skipped=true.
func (l *Ledger) Receive(ctx context.Context, tx TxLedger, input ReceiptInput) (CostChange, error) {
	if !input.Qty.IsPositive() {
		return CostChange{}, ErrQuantityMustBePositive
	}
	if input.Price.IsNegative() {
		return CostChange{}, ErrInvalidUnitCost
	}
	product, err := tx.GetProductForUpdate(ctx, input.ProductID)
	if err != nil {
		return CostChange{}, err
	}
	onHand, err := tx.SumMovements(ctx, input.ProductID)
	if err != nil {
		return CostChange{}, err
	}
	now := l.now().UTC()
	movement := Movement{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		Qty:       input.Qty.Round(2),
		Kind:      MovementIncome,
		Notes:     input.Notes,
		Actor:     input.Actor,
		CreatedAt: now,
	}
	if err := tx.InsertMovement(ctx, movement); err != nil {
		return CostChange{}, err
	}
	newQty := onHand.Add(input.Qty)
	if err := tx.UpsertSnapshot(ctx, input.ProductID, newQty, now); err != nil {
		return CostChange{}, err
	}

	if product.IsConsignment {
		return CostChange{ProductID: product.ID, OldCost: product.Cost, NewCost: product.Cost,
			OldQty: onHand, NewQty: newQty, PurchaseQty: input.Qty, Skipped: true}, nil
	}

	price := input.Price.Round(2)
	newCost := MovingAverage(onHand, product.Cost, input.Qty, price)
	if err := tx.UpdateProductCost(ctx, product.ID, newCost); err != nil {
		return CostChange{}, err
	}
	change := CostChange{
		ID:            uuid.New(),
		ProductID:     product.ID,
		OldCost:       product.Cost,
		NewCost:       newCost,
		OldQty:        onHand,
		NewQty:        newQty,
		PurchaseQty:   input.Qty.Round(2),
		PurchasePrice: &price,
		Method:        CostMethodAverage,
		Actor:         input.Actor,
		CreatedAt:     now,
	}
	if err := tx.InsertCostHistory(ctx, change); err != nil {
		return CostChange{}, err
	}
	return change, nil
}

// Adjust records an adjustment movement. Cost is unchanged but a history
// row is still appended for audit continuity.
func (l *Ledger) Adjust(ctx context.Context, tx TxLedger, input MovementInput) (Movement, error) {
	input.Kind = MovementAdjustment
	product, err := tx.GetProductForUpdate(ctx, input.ProductID)
	if err != nil {
		return Movement{}, err
	}
	movement, newQty, err := l.Record(ctx, tx, input)
	if err != nil {
		return Movement{}, err
	}
	change := CostChange{
		ID:          uuid.New(),
		ProductID:   product.ID,
		OldCost:     product.Cost,
		NewCost:     product.Cost,
		OldQty:      newQty.Sub(input.Qty),
		NewQty:      newQty,
		PurchaseQty: input.Qty.Round(2),
		Method:      CostMethodAdjustment,
		Actor:       input.Actor,
		CreatedAt:   movement.CreatedAt,
	}
	if err := tx.InsertCostHistory(ctx, change); err != nil {
		return Movement{}, err
	}
	return movement, nil
}

// MovingAverage blends the prior cost and the receipt price weighted by
// quantity, rounded half away from zero to two decimals. A receipt into
// empty stock takes the purchase price directly.
func MovingAverage(onHand, cost, rxQty, rxPrice decimal.Decimal) decimal.Decimal {
	if onHand.IsZero() || !onHand.IsPositive() {
		return rxPrice.Round(2)
	}
	total := onHand.Mul(cost).Add(rxQty.Mul(rxPrice))
	return total.Div(onHand.Add(rxQty)).Round(2)
}

func validateMovement(input MovementInput) error {
	switch input.Kind {
	case MovementIncome:
		if !input.Qty.IsPositive() {
			return ErrQuantityMustBePositive
		}
	case MovementOutcome:
		if !input.Qty.IsNegative() {
			return ErrQuantityMustBePositive
		}
	case MovementAdjustment:
		if input.Qty.IsZero() {
			return ErrQuantityMustBePositive
		}
	default:
		return ErrQuantityMustBePositive
	}
	return nil
}
