package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository serves purchase-order reads outside a transaction.
type Repository interface {
	List(ctx context.Context, status Status, limit int) ([]PurchaseOrder, error)
	Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error)
}

// TxRepository is the transactional surface for creating orders and
// moving them along the status flow.
type TxRepository interface {
	Insert(ctx context.Context, po PurchaseOrder) error
	InsertLines(ctx context.Context, lines []Line) error
	// GetForUpdate loads the order with its lines under a row lock so
	// concurrent transitions serialize.
	GetForUpdate(ctx context.Context, id uuid.UUID) (PurchaseOrder, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed read repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, status Status, limit int) ([]PurchaseOrder, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, po_no, supplier_id, date, total::text, status, created_at, updated_at
		FROM purchase_order`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY date DESC, po_no DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, po_no, supplier_id, date, total::text, status, created_at, updated_at
		FROM purchase_order WHERE id = $1`, id)
	po, err := scanPO(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, ErrNotFound
	}
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Lines, err = queryLines(ctx, r.pool, id)
	return po, err
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an open transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) Insert(ctx context.Context, po PurchaseOrder) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO purchase_order (id, po_no, supplier_id, date, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		po.ID, po.PONo, po.SupplierID, po.Date, po.Total.StringFixed(2), po.Status, po.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicatePONo
	}
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return nil
}

func (r *txRepository) InsertLines(ctx context.Context, lines []Line) error {
	for _, l := range lines {
		_, err := r.tx.Exec(ctx, `
			INSERT INTO purchase_order_line (id, po_id, product_id, qty, price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, l.POID, l.ProductID, l.Qty.StringFixed(2), l.Price.StringFixed(2), l.Subtotal.StringFixed(2))
		if err != nil {
			return fmt.Errorf("insert purchase order line: %w", err)
		}
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, po_no, supplier_id, date, total::text, status, created_at, updated_at
		FROM purchase_order WHERE id = $1
		FOR UPDATE`, id)
	po, err := scanPO(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, ErrNotFound
	}
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Lines, err = queryLines(ctx, r.tx, id)
	return po, err
}

func (r *txRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE purchase_order SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("set purchase order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q querier, poID uuid.UUID) ([]Line, error) {
	rows, err := q.Query(ctx, `
		SELECT id, po_id, product_id, qty::text, price::text, subtotal::text
		FROM purchase_order_line WHERE po_id = $1`, poID)
	if err != nil {
		return nil, fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var (
			l                    Line
			qty, price, subtotal string
		)
		if err := rows.Scan(&l.ID, &l.POID, &l.ProductID, &qty, &price, &subtotal); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		if l.Qty, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if l.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if l.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPO(row rowScanner) (PurchaseOrder, error) {
	var (
		po     PurchaseOrder
		total  string
		status string
	)
	if err := row.Scan(&po.ID, &po.PONo, &po.SupplierID, &po.Date, &total, &status, &po.CreatedAt, &po.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, err
		}
		return PurchaseOrder{}, fmt.Errorf("scan purchase order: %w", err)
	}
	po.Status = Status(status)
	t, err := decimal.NewFromString(total)
	if err != nil {
		return PurchaseOrder{}, fmt.Errorf("parse total: %w", err)
	}
	po.Total = t
	return po, nil
}
