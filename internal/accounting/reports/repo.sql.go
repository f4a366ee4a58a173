package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AccountInfo is the slice of the chart of accounts the builders need.
type AccountInfo struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	NormalBalance string `json:"normal_balance"`
}

// LineFilter narrows the ledger line query.
type LineFilter struct {
	Window       Window
	AccountCodes []string
	AccountTypes []string
}

// Repository reads the raw rows the report builders aggregate.
type Repository interface {
	LedgerLines(ctx context.Context, f LineFilter) ([]LedgerLine, error)
	// BalanceBefore sums debit and credit on one account strictly
	// before the given date.
	BalanceBefore(ctx context.Context, accountCode string, before time.Time) (debit, credit decimal.Decimal, err error)
	AccountsByCodes(ctx context.Context, codes []string) ([]AccountInfo, error)
	ExpenseGroups(ctx context.Context, w Window, expenseType, status string) ([]ExpenseGroup, error)
	ProductSaleLines(ctx context.Context, w Window, productID, customerID *uuid.UUID) ([]SaleLine, error)
	ServiceSaleLines(ctx context.Context, w Window, serviceID, customerID *uuid.UUID) ([]SaleLine, error)
	WorkorderSummary(ctx context.Context, w Window) (WorkorderSummary, error)
	ProductMoves(ctx context.Context, w Window, productID *uuid.UUID) ([]ProductMove, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed report repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) LedgerLines(ctx context.Context, f LineFilter) ([]LedgerLine, error) {
	query := `
		SELECT je.date, je.entry_no, je.kind, je.memo,
			a.code, a.name, a.type, a.normal_balance,
			jl.description, jl.debit::text, jl.credit::text,
			je.customer_id, COALESCE(c.name, ''), je.supplier_id, COALESCE(s.name, '')
		FROM journal_lines jl
		JOIN journal_entries je ON je.id = jl.je_id
		JOIN accounts a ON a.id = jl.account_id
		LEFT JOIN customer c ON c.id = je.customer_id
		LEFT JOIN supplier s ON s.id = je.supplier_id
		WHERE TRUE`
	args := []any{}
	if !f.Window.Start.IsZero() {
		args = append(args, f.Window.Start)
		query += fmt.Sprintf(` AND je.date >= $%d`, len(args))
	}
	if !f.Window.End.IsZero() {
		args = append(args, f.Window.End)
		query += fmt.Sprintf(` AND je.date <= $%d`, len(args))
	}
	if len(f.AccountCodes) > 0 {
		args = append(args, f.AccountCodes)
		query += fmt.Sprintf(` AND a.code = ANY($%d)`, len(args))
	}
	if len(f.AccountTypes) > 0 {
		args = append(args, f.AccountTypes)
		query += fmt.Sprintf(` AND a.type = ANY($%d)`, len(args))
	}
	query += ` ORDER BY je.date, je.entry_no, jl.created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger lines: %w", err)
	}
	defer rows.Close()

	var out []LedgerLine
	for rows.Next() {
		var (
			l             LedgerLine
			debit, credit string
		)
		err := rows.Scan(&l.Date, &l.EntryNo, &l.Kind, &l.Memo,
			&l.AccountCode, &l.AccountName, &l.AccountType, &l.NormalBalance,
			&l.Description, &debit, &credit,
			&l.CustomerID, &l.CustomerName, &l.SupplierID, &l.SupplierName)
		if err != nil {
			return nil, err
		}
		if l.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("parse debit: %w", err)
		}
		if l.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("parse credit: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) BalanceBefore(ctx context.Context, accountCode string, before time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(jl.debit), 0)::text, COALESCE(SUM(jl.credit), 0)::text
		FROM journal_lines jl
		JOIN journal_entries je ON je.id = jl.je_id
		JOIN accounts a ON a.id = jl.account_id
		WHERE a.code = $1 AND je.date < $2`, accountCode, before).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("balance before: %w", err)
	}
	d, err := decimal.NewFromString(debit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	c, err := decimal.NewFromString(credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return d, c, nil
}

func (r *repository) AccountsByCodes(ctx context.Context, codes []string) ([]AccountInfo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, name, type, normal_balance FROM accounts
		WHERE code = ANY($1) AND is_active ORDER BY code`, codes)
	if err != nil {
		return nil, fmt.Errorf("accounts by codes: %w", err)
	}
	defer rows.Close()

	var out []AccountInfo
	for rows.Next() {
		var a AccountInfo
		if err := rows.Scan(&a.Code, &a.Name, &a.Type, &a.NormalBalance); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) ExpenseGroups(ctx context.Context, w Window, expenseType, status string) ([]ExpenseGroup, error) {
	query := `SELECT type, COUNT(*), COALESCE(SUM(amount), 0)::text FROM expenses WHERE TRUE`
	args := []any{}
	if !w.Start.IsZero() {
		args = append(args, w.Start)
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if !w.End.IsZero() {
		args = append(args, w.End)
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	if expenseType != "" {
		args = append(args, expenseType)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` GROUP BY type ORDER BY type`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expense groups: %w", err)
	}
	defer rows.Close()

	var out []ExpenseGroup
	for rows.Next() {
		var (
			g      ExpenseGroup
			amount string
		)
		if err := rows.Scan(&g.Type, &g.Count, &amount); err != nil {
			return nil, err
		}
		if g.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repository) ProductSaleLines(ctx context.Context, w Window, productID, customerID *uuid.UUID) ([]SaleLine, error) {
	query := `
		SELECT wo.date_in, wo.no_wo, wo.customer_id, COALESCE(c.name, ''),
			po.product_id, COALESCE(p.name, ''),
			po.qty::text, po.price::text, po.discount::text, po.subtotal::text
		FROM product_ordered po
		JOIN workorder wo ON wo.id = po.workorder_id
		LEFT JOIN customer c ON c.id = wo.customer_id
		LEFT JOIN product p ON p.id = po.product_id
		WHERE TRUE`
	return r.querySaleLines(ctx, query, w, productID, customerID, "po.product_id")
}

func (r *repository) ServiceSaleLines(ctx context.Context, w Window, serviceID, customerID *uuid.UUID) ([]SaleLine, error) {
	query := `
		SELECT wo.date_in, wo.no_wo, wo.customer_id, COALESCE(c.name, ''),
			so.service_id, so.name,
			so.qty::text, so.price::text, so.discount::text, so.subtotal::text
		FROM service_ordered so
		JOIN workorder wo ON wo.id = so.workorder_id
		LEFT JOIN customer c ON c.id = wo.customer_id
		WHERE TRUE`
	return r.querySaleLines(ctx, query, w, serviceID, customerID, "so.service_id")
}

func (r *repository) querySaleLines(ctx context.Context, query string, w Window, itemID, customerID *uuid.UUID, itemColumn string) ([]SaleLine, error) {
	args := []any{}
	if !w.Start.IsZero() {
		args = append(args, w.Start)
		query += fmt.Sprintf(` AND wo.date_in >= $%d`, len(args))
	}
	if !w.End.IsZero() {
		args = append(args, w.End.Add(24*time.Hour))
		query += fmt.Sprintf(` AND wo.date_in < $%d`, len(args))
	}
	if itemID != nil {
		args = append(args, *itemID)
		query += fmt.Sprintf(` AND %s = $%d`, itemColumn, len(args))
	}
	if customerID != nil {
		args = append(args, *customerID)
		query += fmt.Sprintf(` AND wo.customer_id = $%d`, len(args))
	}
	query += ` ORDER BY wo.date_in, wo.no_wo`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sale lines: %w", err)
	}
	defer rows.Close()

	var out []SaleLine
	for rows.Next() {
		var l SaleLine
		var qty, price, discount, subttl string
		err := rows.Scan(&l.Date, &l.NoWO, &l.CustomerID, &l.CustomerName,
			&l.ItemID, &l.ItemName, &qty, &price, &discount, &subttl)
		if err != nil {
			return nil, err
		}
		for dst, src := range map[*decimal.Decimal]string{
			&l.Qty: qty, &l.Price: price, &l.Discount: discount, &l.Subtotal: subttl,
		} {
			if *dst, err = decimal.NewFromString(src); err != nil {
				return nil, fmt.Errorf("parse sale line: %w", err)
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) WorkorderSummary(ctx context.Context, w Window) (WorkorderSummary, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status_pembayaran = 'dibayar'),
			COALESCE(SUM(total_product), 0)::text,
			COALESCE(SUM(total_service), 0)::text,
			COALESCE(SUM(total), 0)::text
		FROM workorder WHERE TRUE`
	args := []any{}
	if !w.Start.IsZero() {
		args = append(args, w.Start)
		query += fmt.Sprintf(` AND date_in >= $%d`, len(args))
	}
	if !w.End.IsZero() {
		args = append(args, w.End.Add(24*time.Hour))
		query += fmt.Sprintf(` AND date_in < $%d`, len(args))
	}

	var s WorkorderSummary
	var totalProduct, totalService, total string
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&s.Count, &s.PaidCount, &totalProduct, &totalService, &total)
	if err != nil {
		return WorkorderSummary{}, fmt.Errorf("workorder summary: %w", err)
	}
	if s.TotalProduct, err = decimal.NewFromString(totalProduct); err != nil {
		return WorkorderSummary{}, err
	}
	if s.TotalService, err = decimal.NewFromString(totalService); err != nil {
		return WorkorderSummary{}, err
	}
	if s.Total, err = decimal.NewFromString(total); err != nil {
		return WorkorderSummary{}, err
	}
	return s, nil
}

func (r *repository) ProductMoves(ctx context.Context, w Window, productID *uuid.UUID) ([]ProductMove, error) {
	query := `
		SELECT h.created_at, h.product_id, COALESCE(p.name, ''), h.kind, h.quantity::text,
			h.notes, h.actor
		FROM product_moved_history h
		LEFT JOIN product p ON p.id = h.product_id
		WHERE TRUE`
	args := []any{}
	if !w.Start.IsZero() {
		args = append(args, w.Start)
		query += fmt.Sprintf(` AND h.created_at >= $%d`, len(args))
	}
	if !w.End.IsZero() {
		args = append(args, w.End.Add(24*time.Hour))
		query += fmt.Sprintf(` AND h.created_at < $%d`, len(args))
	}
	if productID != nil {
		args = append(args, *productID)
		query += fmt.Sprintf(` AND h.product_id = $%d`, len(args))
	}
	query += ` ORDER BY h.created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("product moves: %w", err)
	}
	defer rows.Close()

	var out []ProductMove
	for rows.Next() {
		var (
			m   ProductMove
			qty string
		)
		if err := rows.Scan(&m.Date, &m.ProductID, &m.ProductName, &m.Kind, &qty, &m.Notes, &m.Actor); err != nil {
			return nil, err
		}
		if m.Qty, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		m.Party = extractParty(m.Notes)
		out = append(out, m)
	}
	return out, rows.Err()
}
