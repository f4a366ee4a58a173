package workshop

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

// Repository serves workorder reads outside a transaction.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Workorder, error)
	Get(ctx context.Context, id uuid.UUID) (Workorder, error)
}

// ListFilter narrows workorder listings.
type ListFilter struct {
	CustomerID uuid.UUID
	Status     string
	Start      time.Time
	End        time.Time
	Limit      int
}

// TxRepository is the transactional surface for creating workorders and
// settling payments.
type TxRepository interface {
	Insert(ctx context.Context, wo Workorder) error
	InsertProductLines(ctx context.Context, lines []ProductOrdered) error
	InsertServiceLines(ctx context.Context, lines []ServiceOrdered) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (Workorder, error)
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed read repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const workorderColumns = `id, no_wo, date_in, date_out, customer_id, vehicle_no, status,
	status_pembayaran, total_product::text, total_service::text, tax::text, total::text,
	created_at, updated_at`

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Workorder, error) {
	query := `SELECT ` + workorderColumns + ` FROM workorder WHERE TRUE`
	args := []any{}
	if filter.CustomerID != uuid.Nil {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		query += fmt.Sprintf(" AND date_in >= $%d", len(args))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		query += fmt.Sprintf(" AND date_in <= $%d", len(args))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY date_in DESC, no_wo DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workorders: %w", err)
	}
	defer rows.Close()

	var out []Workorder
	for rows.Next() {
		wo, err := scanWorkorder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wo)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Workorder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+workorderColumns+` FROM workorder WHERE id = $1`, id)
	wo, err := scanWorkorder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Workorder{}, ErrNotFound
	}
	if err != nil {
		return Workorder{}, err
	}
	if wo.Products, err = queryProductLines(ctx, r.pool, id); err != nil {
		return Workorder{}, err
	}
	if wo.Services, err = queryServiceLines(ctx, r.pool, id); err != nil {
		return Workorder{}, err
	}
	return wo, nil
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an open transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) Insert(ctx context.Context, wo Workorder) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO workorder (id, no_wo, date_in, date_out, customer_id, vehicle_no, status,
			status_pembayaran, total_product, total_service, tax, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		wo.ID, wo.NoWO, wo.DateIn, wo.DateOut, wo.CustomerID, wo.VehicleNo, wo.Status,
		wo.StatusPembayaran, wo.TotalProduct.StringFixed(2), wo.TotalService.StringFixed(2),
		wo.Tax.StringFixed(2), wo.Total.StringFixed(2), wo.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateNoWO
	}
	if err != nil {
		return fmt.Errorf("insert workorder: %w", err)
	}
	return nil
}

func (r *txRepository) InsertProductLines(ctx context.Context, lines []ProductOrdered) error {
	for _, l := range lines {
		_, err := r.tx.Exec(ctx, `
			INSERT INTO product_ordered (id, workorder_id, product_id, qty, price, discount, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, l.WorkorderID, l.ProductID, l.Qty.StringFixed(2), l.Price.StringFixed(2),
			l.Discount.StringFixed(2), l.Subtotal.StringFixed(2))
		if err != nil {
			return fmt.Errorf("insert product line: %w", err)
		}
	}
	return nil
}

func (r *txRepository) InsertServiceLines(ctx context.Context, lines []ServiceOrdered) error {
	for _, l := range lines {
		_, err := r.tx.Exec(ctx, `
			INSERT INTO service_ordered (id, workorder_id, service_id, name, qty, price, discount, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, l.WorkorderID, l.ServiceID, l.Name, l.Qty.StringFixed(2), l.Price.StringFixed(2),
			l.Discount.StringFixed(2), l.Subtotal.StringFixed(2))
		if err != nil {
			return fmt.Errorf("insert service line: %w", err)
		}
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (Workorder, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+workorderColumns+` FROM workorder WHERE id = $1 FOR UPDATE`, id)
	wo, err := scanWorkorder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Workorder{}, ErrNotFound
	}
	if err != nil {
		return Workorder{}, err
	}
	if wo.Products, err = queryProductLines(ctx, r.tx, id); err != nil {
		return Workorder{}, err
	}
	if wo.Services, err = queryServiceLines(ctx, r.tx, id); err != nil {
		return Workorder{}, err
	}
	return wo, nil
}

func (r *txRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE workorder SET status_pembayaran = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryProductLines(ctx context.Context, q querier, workorderID uuid.UUID) ([]ProductOrdered, error) {
	rows, err := q.Query(ctx, `
		SELECT id, workorder_id, product_id, qty::text, price::text, discount::text, subtotal::text
		FROM product_ordered WHERE workorder_id = $1`, workorderID)
	if err != nil {
		return nil, fmt.Errorf("list product lines: %w", err)
	}
	defer rows.Close()

	var out []ProductOrdered
	for rows.Next() {
		var (
			l                              ProductOrdered
			qty, price, discount, subtotal string
		)
		if err := rows.Scan(&l.ID, &l.WorkorderID, &l.ProductID, &qty, &price, &discount, &subtotal); err != nil {
			return nil, fmt.Errorf("scan product line: %w", err)
		}
		if err := parseDecimals(map[*decimal.Decimal]string{
			&l.Qty: qty, &l.Price: price, &l.Discount: discount, &l.Subtotal: subtotal,
		}); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func queryServiceLines(ctx context.Context, q querier, workorderID uuid.UUID) ([]ServiceOrdered, error) {
	rows, err := q.Query(ctx, `
		SELECT id, workorder_id, service_id, name, qty::text, price::text, discount::text, subtotal::text
		FROM service_ordered WHERE workorder_id = $1`, workorderID)
	if err != nil {
		return nil, fmt.Errorf("list service lines: %w", err)
	}
	defer rows.Close()

	var out []ServiceOrdered
	for rows.Next() {
		var (
			l                              ServiceOrdered
			qty, price, discount, subtotal string
		)
		if err := rows.Scan(&l.ID, &l.WorkorderID, &l.ServiceID, &l.Name, &qty, &price, &discount, &subtotal); err != nil {
			return nil, fmt.Errorf("scan service line: %w", err)
		}
		if err := parseDecimals(map[*decimal.Decimal]string{
			&l.Qty: qty, &l.Price: price, &l.Discount: discount, &l.Subtotal: subtotal,
		}); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkorder(row rowScanner) (Workorder, error) {
	var (
		wo                                     Workorder
		totalProduct, totalService, tax, total string
	)
	err := row.Scan(&wo.ID, &wo.NoWO, &wo.DateIn, &wo.DateOut, &wo.CustomerID, &wo.VehicleNo,
		&wo.Status, &wo.StatusPembayaran, &totalProduct, &totalService, &tax, &total,
		&wo.CreatedAt, &wo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workorder{}, err
		}
		return Workorder{}, fmt.Errorf("scan workorder: %w", err)
	}
	if err := parseDecimals(map[*decimal.Decimal]string{
		&wo.TotalProduct: totalProduct, &wo.TotalService: totalService, &wo.Tax: tax, &wo.Total: total,
	}); err != nil {
		return Workorder{}, err
	}
	return wo, nil
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
