package journals

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	accountspkg "github.com/bengkel-erp/bengkel-erp/internal/accounting/accounts"
	"github.com/bengkel-erp/bengkel-erp/internal/accounting/shared"
)

// Repository reads persisted journals. Writes go through the Kernel with a
// TxPoster bound to the caller's transaction.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Get(ctx context.Context, id uuid.UUID) (JournalEntry, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func filterClause(filter ListFilter) (string, []any) {
	clause := ` WHERE 1=1`
	args := []any{}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		clause += ` AND kind = $` + strconv.Itoa(len(args))
	}
	if !filter.StartDate.IsZero() {
		args = append(args, filter.StartDate)
		clause += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if !filter.EndDate.IsZero() {
		args = append(args, filter.EndDate)
		clause += ` AND date <= $` + strconv.Itoa(len(args))
	}
	return clause, args
}

func (r *repository) Count(ctx context.Context, filter ListFilter) (int, error) {
	clause, args := filterClause(filter)
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries`+clause, args...).Scan(&total)
	return total, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	filter.Normalize()
	clause, args := filterClause(filter)
	query := `SELECT id, entry_no, date, memo, kind, customer_id, supplier_id, workorder_id, purchase_id, created_at FROM journal_entries` + clause
	query += ` ORDER BY date DESC, entry_no DESC`
	args = append(args, filter.PerPage)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, (filter.Page-1)*filter.PerPage)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.EntryNo, &e.Date, &e.Memo, &e.Kind,
			&e.Links.CustomerID, &e.Links.SupplierID, &e.Links.WorkorderID, &e.Links.PurchaseID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	var e JournalEntry
	err := r.db.QueryRow(ctx, `SELECT id, entry_no, date, memo, kind, customer_id, supplier_id, workorder_id, purchase_id, created_at
FROM journal_entries WHERE id=$1`, id).
		Scan(&e.ID, &e.EntryNo, &e.Date, &e.Memo, &e.Kind,
			&e.Links.CustomerID, &e.Links.SupplierID, &e.Links.WorkorderID, &e.Links.PurchaseID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT l.id, l.je_id, l.account_id, a.code, a.name, l.description, l.debit::text, l.credit::text
FROM journal_lines l JOIN accounts a ON a.id = l.account_id WHERE l.je_id=$1 ORDER BY l.created_at, l.id`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		var debit, credit string
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.AccountCode, &line.AccountName, &line.Description, &debit, &credit); err != nil {
			return JournalEntry{}, err
		}
		line.Debit = toDec(debit)
		line.Credit = toDec(credit)
		e.Lines = append(e.Lines, line)
	}
	return e, rows.Err()
}

// NewTxPoster binds the kernel's write surface to an open transaction.
func NewTxPoster(tx pgx.Tx) TxPoster {
	return &txPoster{tx: tx}
}

type txPoster struct {
	tx pgx.Tx
}

func (p *txPoster) GetAccountByCode(ctx context.Context, code string) (accountspkg.Account, error) {
	var a accountspkg.Account
	err := p.tx.QueryRow(ctx, `SELECT id, code, name, type, normal_balance, is_active, created_at, updated_at
FROM accounts WHERE code=$1 AND is_active`, code).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accountspkg.Account{}, shared.ErrAccountNotFound
		}
		return accountspkg.Account{}, err
	}
	return a, nil
}

func (p *txPoster) LastEntryNo(ctx context.Context, numPrefix string) (string, error) {
	var last string
	err := p.tx.QueryRow(ctx, `SELECT entry_no FROM journal_entries WHERE entry_no LIKE $1 || '%'
ORDER BY LENGTH(entry_no) DESC, entry_no DESC LIMIT 1`, numPrefix).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return last, err
}

func (p *txPoster) InsertEntry(ctx context.Context, entry JournalEntry) error {
	_, err := p.tx.Exec(ctx, `INSERT INTO journal_entries (id, entry_no, date, memo, kind, customer_id, supplier_id, workorder_id, purchase_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		entry.ID, entry.EntryNo, entry.Date, entry.Memo, entry.Kind,
		entry.Links.CustomerID, entry.Links.SupplierID, entry.Links.WorkorderID, entry.Links.PurchaseID, entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateEntry
		}
		return err
	}
	return nil
}

func (p *txPoster) InsertLines(ctx context.Context, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := p.tx.Exec(ctx, `INSERT INTO journal_lines (id, je_id, account_id, description, debit, credit)
VALUES ($1,$2,$3,$4,$5,$6)`,
			line.ID, line.EntryID, line.AccountID, line.Description, num(line.Debit), num(line.Credit)); err != nil {
			return err
		}
	}
	return nil
}

func (p *txPoster) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID uuid.UUID) error {
	_, err := p.tx.Exec(ctx, `INSERT INTO journal_links (module, ref_id, je_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_links" {
			return shared.ErrDuplicateEntry
		}
		return err
	}
	return nil
}

// Helpers

func toDec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func num(d decimal.Decimal) string {
	return d.StringFixed(2)
}
