package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository serves the read side: stock listings and movement history.
type Repository interface {
	ListStock(ctx context.Context, search string) ([]StockRow, error)
	ListHistory(ctx context.Context, filter HistoryFilter) ([]Movement, error)
	ListCostHistory(ctx context.Context, productID uuid.UUID, limit int) ([]CostChange, error)
	ListBelowMinimum(ctx context.Context) ([]StockRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed read repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListStock(ctx context.Context, search string) ([]StockRow, error) {
	query := `
		SELECT p.id, p.name, COALESCE(i.quantity, 0)::text, p.cost::text, p.min_stock::text,
		       COALESCE(i.updated_at, p.updated_at)
		FROM product p
		LEFT JOIN inventory i ON i.product_id = p.id
		WHERE TRUE`
	args := []any{}
	if s := strings.TrimSpace(search); s != "" {
		query += ` AND p.name ILIKE '%' || $1 || '%'`
		args = append(args, s)
	}
	query += ` ORDER BY p.name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	return scanStockRows(rows)
}

func (r *repository) ListBelowMinimum(ctx context.Context) ([]StockRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, COALESCE(i.quantity, 0)::text, p.cost::text, p.min_stock::text,
		       COALESCE(i.updated_at, p.updated_at)
		FROM product p
		LEFT JOIN inventory i ON i.product_id = p.id
		WHERE TRUE
		  AND p.min_stock > 0
		  AND COALESCE(i.quantity, 0) < p.min_stock
		ORDER BY p.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list below minimum: %w", err)
	}
	defer rows.Close()
	return scanStockRows(rows)
}

func (r *repository) ListHistory(ctx context.Context, filter HistoryFilter) ([]Movement, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ProductID != uuid.Nil {
		args = append(args, filter.ProductID)
		conds = append(conds, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}
	query := `SELECT id, product_id, quantity::text, kind, notes, actor, created_at
		FROM product_moved_history`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var (
			m   Movement
			qty string
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &qty, &m.Kind, &m.Notes, &m.Actor, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if m.Qty, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) ListCostHistory(ctx context.Context, productID uuid.UUID, limit int) ([]CostChange, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, old_cost::text, new_cost::text, old_qty::text, new_qty::text,
		       purchase_qty::text, purchase_price::text, method, actor, created_at
		FROM product_cost_history
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list cost history: %w", err)
	}
	defer rows.Close()

	var out []CostChange
	for rows.Next() {
		var (
			c                                    CostChange
			oldCost, newCost, oldQty, newQty, pq string
			price                                *string
		)
		if err := rows.Scan(&c.ID, &c.ProductID, &oldCost, &newCost, &oldQty, &newQty,
			&pq, &price, &c.Method, &c.Actor, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cost history: %w", err)
		}
		if err := parseDecimals(map[*decimal.Decimal]string{
			&c.OldCost: oldCost, &c.NewCost: newCost,
			&c.OldQty: oldQty, &c.NewQty: newQty, &c.PurchaseQty: pq,
		}); err != nil {
			return nil, err
		}
		if price != nil {
			p, err := decimal.NewFromString(*price)
			if err != nil {
				return nil, fmt.Errorf("parse purchase price: %w", err)
			}
			c.PurchasePrice = &p
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// txLedger implements TxLedger on an open pgx transaction so inventory
// writes share the caller's unit of work.
type txLedger struct {
	tx pgx.Tx
}

// NewTxLedger wraps a transaction with the ledger's write operations.
func NewTxLedger(tx pgx.Tx) TxLedger {
	return &txLedger{tx: tx}
}

func (l *txLedger) GetProductForUpdate(ctx context.Context, productID uuid.UUID) (ProductStock, error) {
	var (
		p    ProductStock
		cost string
		min  string
	)
	err := l.tx.QueryRow(ctx, `
		SELECT id, name, cost::text, min_stock::text, supplier_id, is_consignment
		FROM product
		WHERE id = $1
		FOR UPDATE`, productID).
		Scan(&p.ID, &p.Name, &cost, &min, &p.SupplierID, &p.IsConsignment)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductStock{}, ErrProductNotFound
	}
	if err != nil {
		return ProductStock{}, fmt.Errorf("lock product: %w", err)
	}
	if err := parseDecimals(map[*decimal.Decimal]string{&p.Cost: cost, &p.MinStock: min}); err != nil {
		return ProductStock{}, err
	}
	return p, nil
}

func (l *txLedger) InsertMovement(ctx context.Context, m Movement) error {
	_, err := l.tx.Exec(ctx, `
		INSERT INTO product_moved_history (id, product_id, quantity, kind, notes, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.ProductID, num(m.Qty), m.Kind, m.Notes, m.Actor, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (l *txLedger) SumMovements(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var sum string
	err := l.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)::text
		FROM product_moved_history
		WHERE product_id = $1`, productID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return decimal.NewFromString(sum)
}

func (l *txLedger) UpsertSnapshot(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, at time.Time) error {
	_, err := l.tx.Exec(ctx, `
		INSERT INTO inventory (product_id, quantity, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		productID, num(qty), at)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (l *txLedger) UpdateProductCost(ctx context.Context, productID uuid.UUID, cost decimal.Decimal) error {
	tag, err := l.tx.Exec(ctx, `
		UPDATE product SET cost = $2, updated_at = NOW()
		WHERE id = $1`, productID, num(cost))
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (l *txLedger) InsertCostHistory(ctx context.Context, change CostChange) error {
	var price *string
	if change.PurchasePrice != nil {
		s := change.PurchasePrice.StringFixed(2)
		price = &s
	}
	_, err := l.tx.Exec(ctx, `
		INSERT INTO product_cost_history
			(id, product_id, old_cost, new_cost, old_qty, new_qty, purchase_qty, purchase_price, method, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		change.ID, change.ProductID, num(change.OldCost), num(change.NewCost),
		num(change.OldQty), num(change.NewQty), num(change.PurchaseQty), price,
		change.Method, change.Actor, change.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cost history: %w", err)
	}
	return nil
}

func scanStockRows(rows pgx.Rows) ([]StockRow, error) {
	var out []StockRow
	for rows.Next() {
		var (
			s              StockRow
			qty, cost, min string
		)
		if err := rows.Scan(&s.ProductID, &s.Name, &qty, &cost, &min, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		if err := parseDecimals(map[*decimal.Decimal]string{&s.Qty: qty, &s.Cost: cost, &s.MinStock: min}); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func parseDecimals(fields map[*decimal.Decimal]string) error {
	for dst, raw := range fields {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parse numeric %q: %w", raw, err)
		}
		*dst = d
	}
	return nil
}

func num(d decimal.Decimal) string {
	return d.StringFixed(2)
}
