package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists product master records.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	Insert(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const productColumns = `id, name, type, price::text, cost::text, min_stock::text,
	brand_id, satuan_id, category_id, supplier_id,
	is_consignment, consignment_commission::text, is_internal_consumption,
	created_at, updated_at`

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + productColumns + ` FROM product WHERE TRUE`
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if filter.SupplierID != nil {
		args = append(args, *filter.SupplierID)
		query += fmt.Sprintf(` AND supplier_id = $%d`, len(args))
	}
	if filter.IsConsignment != nil {
		args = append(args, *filter.IsConsignment)
		query += fmt.Sprintf(` AND is_consignment = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY name LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM product WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *repository) Insert(ctx context.Context, p Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product (id, name, type, price, cost, min_stock,
			brand_id, satuan_id, category_id, supplier_id,
			is_consignment, consignment_commission, is_internal_consumption,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.Name, p.Type, p.Price.StringFixed(2), p.Cost.StringFixed(2), p.MinStock.StringFixed(2),
		p.BrandID, p.SatuanID, p.CategoryID, p.SupplierID,
		p.IsConsignment, p.ConsignmentCommission.StringFixed(2), p.IsInternalConsumption,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE product SET name = $2, type = $3, price = $4, min_stock = $5,
			brand_id = $6, satuan_id = $7, category_id = $8, supplier_id = $9,
			is_consignment = $10, consignment_commission = $11, is_internal_consumption = $12,
			updated_at = $13
		WHERE id = $1`,
		p.ID, p.Name, p.Type, p.Price.StringFixed(2), p.MinStock.StringFixed(2),
		p.BrandID, p.SatuanID, p.CategoryID, p.SupplierID,
		p.IsConsignment, p.ConsignmentCommission.StringFixed(2), p.IsInternalConsumption,
		p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p                              Product
		price, cost, minStock, commiss string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Type, &price, &cost, &minStock,
		&p.BrandID, &p.SatuanID, &p.CategoryID, &p.SupplierID,
		&p.IsConsignment, &commiss, &p.IsInternalConsumption,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	for dst, src := range map[*decimal.Decimal]string{
		&p.Price: price, &p.Cost: cost, &p.MinStock: minStock, &p.ConsignmentCommission: commiss,
	} {
		if *dst, err = decimal.NewFromString(src); err != nil {
			return Product{}, fmt.Errorf("parse product numeric: %w", err)
		}
	}
	return p, nil
}
