package reports

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting"
)

// Service assembles reports from raw rows, caching the JSON payloads
// behind a versioned key.
type Service struct {
	repo      Repository
	cache     *Cache
	codes     accounting.Codes
	cashCodes []string
	logger    *slog.Logger
}

// NewService builds a Service. cashCodes lists the cash and bank
// accounts the cash book and cash report cover; empty falls back to the
// conventional cash account plus the bank account.
func NewService(repo Repository, cache *Cache, codes accounting.Codes, cashCodes []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cashCodes) == 0 {
		cashCodes = []string{codes.Cash, "1002"}
	}
	return &Service{repo: repo, cache: cache, codes: codes, cashCodes: cashCodes, logger: logger}
}

func windowKey(w Window) string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "open"
		}
		return t.Format("20060102")
	}
	return format(w.Start) + "-" + format(w.End)
}

func idKey(id *uuid.UUID) string {
	if id == nil {
		return "all"
	}
	return id.String()
}

func (s *Service) cached(ctx context.Context, dest interface{}, loader func(context.Context) (interface{}, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, append([]string{"reports"}, parts...)...)
	if err != nil {
		s.logger.WarnContext(ctx, "report cache unavailable", slog.Any("error", err))
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return copyJSON(value, dest)
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

func copyJSON(value, dest interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// CashBook builds the statement for one account over the window.
func (s *Service) CashBook(ctx context.Context, w Window, accountCode string) (CashBook, error) {
	if !w.Valid() {
		return CashBook{}, ErrInvalidWindow
	}
	if accountCode == "" {
		return CashBook{}, ErrAccountNeeded
	}
	var book CashBook
	err := s.cached(ctx, &book, func(ctx context.Context) (interface{}, error) {
		return s.buildCashBook(ctx, w, accountCode)
	}, "cashbook", accountCode, windowKey(w))
	return book, err
}

func (s *Service) buildCashBook(ctx context.Context, w Window, accountCode string) (CashBook, error) {
	infos, err := s.repo.AccountsByCodes(ctx, []string{accountCode})
	if err != nil {
		return CashBook{}, err
	}
	if len(infos) == 0 {
		return CashBook{}, ErrAccountNeeded
	}
	account := infos[0]

	openingDebit, openingCredit := decimal.Zero, decimal.Zero
	if !w.Start.IsZero() {
		openingDebit, openingCredit, err = s.repo.BalanceBefore(ctx, accountCode, w.Start)
		if err != nil {
			return CashBook{}, err
		}
	}
	lines, err := s.repo.LedgerLines(ctx, LineFilter{Window: w, AccountCodes: []string{accountCode}})
	if err != nil {
		return CashBook{}, err
	}
	return BuildCashBook(account, openingDebit, openingCredit, lines), nil
}

// ExpenseReport groups expenses in the window by type.
func (s *Service) ExpenseReport(ctx context.Context, w Window, expenseType, status string) (ExpenseReport, error) {
	if !w.Valid() {
		return ExpenseReport{}, ErrInvalidWindow
	}
	var report ExpenseReport
	err := s.cached(ctx, &report, func(ctx context.Context) (interface{}, error) {
		groups, err := s.repo.ExpenseGroups(ctx, w, expenseType, status)
		if err != nil {
			return nil, err
		}
		out := ExpenseReport{Groups: groups}
		for _, g := range groups {
			out.Total = out.Total.Add(g.Amount)
		}
		return out, nil
	}, "expenses", expenseType, status, windowKey(w))
	return report, err
}

// ProfitLoss sums revenue and expense accounts over the window.
func (s *Service) ProfitLoss(ctx context.Context, w Window) (ProfitLoss, error) {
	if !w.Valid() {
		return ProfitLoss{}, ErrInvalidWindow
	}
	var report ProfitLoss
	err := s.cached(ctx, &report, func(ctx context.Context) (interface{}, error) {
		lines, err := s.repo.LedgerLines(ctx, LineFilter{Window: w, AccountTypes: []string{"revenue", "expense"}})
		if err != nil {
			return nil, err
		}
		return BuildProfitLoss(lines), nil
	}, "pl", windowKey(w))
	return report, err
}

// CashReport classifies all cash and bank movements in the window.
func (s *Service) CashReport(ctx context.Context, w Window) (CashReport, error) {
	if !w.Valid() {
		return CashReport{}, ErrInvalidWindow
	}
	var report CashReport
	err := s.cached(ctx, &report, func(ctx context.Context) (interface{}, error) {
		lines, err := s.repo.LedgerLines(ctx, LineFilter{Window: w, AccountCodes: s.cashCodes})
		if err != nil {
			return nil, err
		}
		return BuildCashReport(lines), nil
	}, "cashflow", windowKey(w))
	return report, err
}

// ReceivablePayable lists outstanding balances per customer and
// supplier.
func (s *Service) ReceivablePayable(ctx context.Context, w Window) (ReceivablePayable, error) {
	if !w.Valid() {
		return ReceivablePayable{}, ErrInvalidWindow
	}
	var report ReceivablePayable
	err := s.cached(ctx, &report, func(ctx context.Context) (interface{}, error) {
		receivable, err := s.repo.LedgerLines(ctx, LineFilter{Window: w, AccountCodes: []string{s.codes.Receivable}})
		if err != nil {
			return nil, err
		}
		payable, err := s.repo.LedgerLines(ctx, LineFilter{Window: w, AccountCodes: []string{s.codes.Payable}})
		if err != nil {
			return nil, err
		}
		return BuildReceivablePayable(receivable, payable), nil
	}, "receivable-payable", windowKey(w))
	return report, err
}

// ConsignmentPayable lists outstanding consignment debt per supplier.
func (s *Service) ConsignmentPayable(ctx context.Context, w Window) (ConsignmentPayable, error) {
	if !w.Valid() {
		return ConsignmentPayable{}, ErrInvalidWindow
	}
	var report ConsignmentPayable
	err := s.cached(ctx, &report, func(ctx context.Context) (interface{}, error) {
		lines, err := s.repo.LedgerLines(ctx, LineFilter{Window: w, AccountCodes: []string{s.codes.ConsignmentPayable}})
		if err != nil {
			return nil, err
		}
		return BuildConsignmentPayable(lines), nil
	}, "consignment-payable", windowKey(w))
	return report, err
}

// ProductSales lists ordered product lines in the window.
func (s *Service) ProductSales(ctx context.Context, w Window, productID, customerID *uuid.UUID) (SalesReport, error) {
	if !w.Valid() {
		return SalesReport{}, ErrInvalidWindow
	}
	var report SalesReport
	err := s.cached(ctx, &report, func(ctx context.Context) (interface{}, error) {
		lines, err := s.repo.ProductSaleLines(ctx, w, productID, customerID)
		if err != nil {
			return nil, err
		}
		return BuildSalesReport(lines), nil
	}, "product-sales", idKey(productID), idKey(customerID), windowKey(w))
	return report, err
}

// ServiceSales lists ordered service lines in the window.
func (s *Service) ServiceSales(ctx context.Context, w Window, serviceID, customerID *uuid.UUID) (SalesReport, error) {
	if !w.Valid() {
		return SalesReport{}, ErrInvalidWindow
	}
	var report SalesReport
	err := s.cached(ctx, &report, func(ctx context.Context) (interface{}, error) {
		lines, err := s.repo.ServiceSaleLines(ctx, w, serviceID, customerID)
		if err != nil {
			return nil, err
		}
		return BuildSalesReport(lines), nil
	}, "service-sales", idKey(serviceID), idKey(customerID), windowKey(w))
	return report, err
}

// ProductMoves lists inventory movements in the window.
func (s *Service) ProductMoves(ctx context.Context, w Window, productID *uuid.UUID) ([]ProductMove, error) {
	if !w.Valid() {
		return nil, ErrInvalidWindow
	}
	var moves []ProductMove
	err := s.cached(ctx, &moves, func(ctx context.Context) (interface{}, error) {
		return s.repo.ProductMoves(ctx, w, productID)
	}, "product-moves", idKey(productID), windowKey(w))
	return moves, err
}

// Daily composes the statements for a single day. The sections load
// concurrently.
func (s *Service) Daily(ctx context.Context, day time.Time) (DailyReport, error) {
	w := Window{Start: day, End: day}
	report := DailyReport{Date: day}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, err := s.repo.AccountsByCodes(ctx, s.cashCodes)
		if err != nil {
			return err
		}
		books := make([]CashBook, 0, len(accounts))
		for _, a := range accounts {
			book, err := s.buildCashBook(ctx, w, a.Code)
			if err != nil {
				return err
			}
			books = append(books, book)
		}
		report.CashBooks = books
		return nil
	})
	g.Go(func() error {
		var err error
		report.ProductSales, err = s.ProductSales(ctx, w, nil, nil)
		return err
	})
	g.Go(func() error {
		var err error
		report.ServiceSales, err = s.ServiceSales(ctx, w, nil, nil)
		return err
	})
	g.Go(func() error {
		var err error
		report.ProfitLoss, err = s.ProfitLoss(ctx, w)
		return err
	})
	g.Go(func() error {
		var err error
		report.Workorders, err = s.repo.WorkorderSummary(ctx, w)
		return err
	})
	if err := g.Wait(); err != nil {
		return DailyReport{}, err
	}
	return report, nil
}

// Invalidate bumps the report cache version after a posting commits.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.WarnContext(ctx, "report cache bump failed", slog.Any("error", err))
	}
}
