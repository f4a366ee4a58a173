package expenses

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting"
	accshared "github.com/bengkel-erp/bengkel-erp/internal/accounting/shared"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/db"
)

// Poster is the slice of the accounting service expenses need.
type Poster interface {
	RecordExpenseTx(ctx context.Context, repo accounting.TxRepository, in accounting.ExpenseInput) (accounting.Entry, error)
	PayExpenseTx(ctx context.Context, repo accounting.TxRepository, expenseID uuid.UUID, amount decimal.Decimal, cashCode, memo string, date time.Time) (accounting.Entry, error)
}

// Service owns the expense lifecycle. Creating a row accrues it against
// payable in the same transaction; paying posts the cash leg and flips
// the status.
type Service struct {
	repo   Repository
	poster Poster
	logger *slog.Logger
	now    func() time.Time

	run func(ctx context.Context, fn func(tx TxRepository, acc accounting.TxRepository) error) error
}

// NewService builds a Service.
func NewService(pool *pgxpool.Pool, repo Repository, poster Poster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		poster: poster,
		logger: logger,
		now:    time.Now,
		run: func(ctx context.Context, fn func(TxRepository, accounting.TxRepository) error) error {
			return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
				return fn(NewTxRepository(tx), accounting.NewTxRepository(tx))
			})
		},
	}
}

// List proxies the read repository.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Expense, error) {
	return s.repo.List(ctx, filter)
}

// Get proxies the read repository.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Expense, error) {
	return s.repo.Get(ctx, id)
}

// Create stores the expense and posts the accrual entry, debit the
// chosen expense account, credit payable.
func (s *Service) Create(ctx context.Context, in CreateInput) (Expense, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Expense{}, ErrEmptyName
	}
	if !in.Amount.IsPositive() {
		return Expense{}, ErrInvalidAmount
	}
	now := s.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	e := Expense{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Status:      StatusOpen,
		Amount:      in.Amount.Round(2),
		AccountCode: in.AccountCode,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if e.AccountCode == "" {
		e.AccountCode = "6000"
	}

	err := s.run(ctx, func(tx TxRepository, acc accounting.TxRepository) error {
		if err := tx.Insert(ctx, e); err != nil {
			return err
		}
		_, err := s.poster.RecordExpenseTx(ctx, acc, accounting.ExpenseInput{
			ExpenseID:   &e.ID,
			Date:        date,
			Memo:        "Beban " + e.Name,
			Amount:      e.Amount,
			VAT:         in.VAT,
			ExpenseCode: e.AccountCode,
		})
		return err
	})
	if err != nil {
		return Expense{}, err
	}
	s.logger.InfoContext(ctx, "expense accrued",
		slog.String("name", e.Name), slog.String("amount", e.Amount.String()))
	return e, nil
}

// Pay settles an open expense. Paying an expense that is already
// dibayarkan, or whose payment entry already exists, is a no-op.
func (s *Service) Pay(ctx context.Context, in PayInput) (PayResult, error) {
	var result PayResult
	err := s.run(ctx, func(tx TxRepository, acc accounting.TxRepository) error {
		e, err := tx.GetForUpdate(ctx, in.ExpenseID)
		if err != nil {
			return err
		}
		if e.Status == StatusPaid {
			result = PayResult{Expense: e}
			return nil
		}
		date := in.Date
		if date.IsZero() {
			date = s.now().UTC()
		}

		entry, err := s.poster.PayExpenseTx(ctx, acc, e.ID, e.Amount, in.CashCode, "Pembayaran "+e.Name, date)
		switch {
		case errors.Is(err, accshared.ErrDuplicateEntry):
			// Entry exists but the row status is stale. Heal the row.
		case err != nil:
			return err
		default:
			result.PaymentNo = entry.EntryNo
		}

		if err := tx.SetStatus(ctx, e.ID, StatusPaid, s.now().UTC()); err != nil {
			return err
		}
		e.Status = StatusPaid
		result.Expense = e
		return nil
	})
	if err != nil {
		return PayResult{}, err
	}
	if result.PaymentNo != "" {
		s.logger.InfoContext(ctx, "expense paid",
			slog.String("expense_id", result.Expense.ID.String()),
			slog.String("entry_no", result.PaymentNo))
	}
	return result, nil
}
