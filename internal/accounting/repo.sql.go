package accounting

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/journals"
	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
)

// WorkorderProduct is one ordered product line joined with the product
// fields the recorders need for COGS, outcome movements and consignment
// payable.
type WorkorderProduct struct {
	ProductID     uuid.UUID
	Name          string
	Qty           decimal.Decimal
	Price         decimal.Decimal
	Subtotal      decimal.Decimal
	Cost          decimal.Decimal
	SupplierID    *uuid.UUID
	IsConsignment bool
}

// TxRepository is the unit-of-work surface the recorders post through.
// Journal writes, inventory movements and business reads share one
// transaction so every side-effect commits with its entry or not at all.
type TxRepository interface {
	journals.TxPoster
	inventory.TxLedger

	GetWorkorderProducts(ctx context.Context, workorderID uuid.UUID) ([]WorkorderProduct, error)
	// SourcePosted reports whether a journal entry is already linked to the
	// (module, ref) pair.
	SourcePosted(ctx context.Context, module string, ref uuid.UUID) (bool, error)
}

type txRepository struct {
	journals.TxPoster
	inventory.TxLedger
	tx pgx.Tx
}

// NewTxRepository combines the posting and ledger surfaces over one open
// transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{
		TxPoster: journals.NewTxPoster(tx),
		TxLedger: inventory.NewTxLedger(tx),
		tx:       tx,
	}
}

func (r *txRepository) GetWorkorderProducts(ctx context.Context, workorderID uuid.UUID) ([]WorkorderProduct, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT po.product_id, p.name, po.qty::text, po.price::text, po.subtotal::text,
		       p.cost::text, p.supplier_id, p.is_consignment
		FROM product_ordered po
		JOIN product p ON p.id = po.product_id
		WHERE po.workorder_id = $1
		ORDER BY p.name ASC`, workorderID)
	if err != nil {
		return nil, fmt.Errorf("workorder products: %w", err)
	}
	defer rows.Close()

	var out []WorkorderProduct
	for rows.Next() {
		var (
			w                          WorkorderProduct
			qty, price, subtotal, cost string
		)
		if err := rows.Scan(&w.ProductID, &w.Name, &qty, &price, &subtotal,
			&cost, &w.SupplierID, &w.IsConsignment); err != nil {
			return nil, fmt.Errorf("scan workorder product: %w", err)
		}
		for dst, raw := range map[*decimal.Decimal]string{
			&w.Qty: qty, &w.Price: price, &w.Subtotal: subtotal, &w.Cost: cost,
		} {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("parse numeric %q: %w", raw, err)
			}
			*dst = d
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *txRepository) SourcePosted(ctx context.Context, module string, ref uuid.UUID) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM journal_links WHERE module = $1 AND ref_id = $2)`,
		module, ref).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("source posted: %w", err)
	}
	return exists, nil
}
