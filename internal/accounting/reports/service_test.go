package reports

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting"
)

type stubRepo struct {
	lines      []LedgerLine
	lineCalls  int
	groups     []ExpenseGroup
	sales      []SaleLine
	moves      []ProductMove
	summary    WorkorderSummary
	accounts   []AccountInfo
	openDebit  decimal.Decimal
	openCredit decimal.Decimal
}

func (s *stubRepo) LedgerLines(context.Context, LineFilter) ([]LedgerLine, error) {
	s.lineCalls++
	return s.lines, nil
}

func (s *stubRepo) BalanceBefore(context.Context, string, time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return s.openDebit, s.openCredit, nil
}

func (s *stubRepo) AccountsByCodes(context.Context, []string) ([]AccountInfo, error) {
	return s.accounts, nil
}

func (s *stubRepo) ExpenseGroups(context.Context, Window, string, string) ([]ExpenseGroup, error) {
	return s.groups, nil
}

func (s *stubRepo) ProductSaleLines(context.Context, Window, *uuid.UUID, *uuid.UUID) ([]SaleLine, error) {
	return s.sales, nil
}

func (s *stubRepo) ServiceSaleLines(context.Context, Window, *uuid.UUID, *uuid.UUID) ([]SaleLine, error) {
	return s.sales, nil
}

func (s *stubRepo) WorkorderSummary(context.Context, Window) (WorkorderSummary, error) {
	return s.summary, nil
}

func (s *stubRepo) ProductMoves(context.Context, Window, *uuid.UUID) ([]ProductMove, error) {
	return s.moves, nil
}

func newCachedService(t *testing.T, repo Repository) (*Service, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	return NewService(repo, cache, accounting.DefaultCodes(), nil, slog.Default()), client
}

func TestProfitLossServesFromCacheUntilBump(t *testing.T) {
	repo := &stubRepo{lines: []LedgerLine{
		{AccountCode: "4000", AccountName: "Penjualan", AccountType: "revenue", Credit: dec("100")},
	}}
	svc, _ := newCachedService(t, repo)
	ctx := context.Background()
	w := Window{Start: day(1), End: day(31)}

	first, err := svc.ProfitLoss(ctx, w)
	require.NoError(t, err)
	require.True(t, first.TotalRevenue.Equal(dec("100")))
	require.Equal(t, 1, repo.lineCalls)

	// Cached payload, no second query.
	second, err := svc.ProfitLoss(ctx, w)
	require.NoError(t, err)
	require.True(t, second.TotalRevenue.Equal(dec("100")))
	require.Equal(t, 1, repo.lineCalls)

	// A posting bump invalidates the version and forces a reload.
	svc.Invalidate(ctx)
	repo.lines[0].Credit = dec("250")
	third, err := svc.ProfitLoss(ctx, w)
	require.NoError(t, err)
	require.True(t, third.TotalRevenue.Equal(dec("250")))
	require.Equal(t, 2, repo.lineCalls)
}

func TestReportsWorkWithoutRedis(t *testing.T) {
	repo := &stubRepo{groups: []ExpenseGroup{{Type: "utilities", Count: 2, Amount: dec("300")}}}
	svc := NewService(repo, nil, accounting.DefaultCodes(), nil, slog.Default())

	report, err := svc.ExpenseReport(context.Background(), Window{}, "", "")
	require.NoError(t, err)
	require.True(t, report.Total.Equal(dec("300")))
}

func TestWindowValidation(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, accounting.DefaultCodes(), nil, slog.Default())
	bad := Window{Start: day(10), End: day(1)}
	_, err := svc.ProfitLoss(context.Background(), bad)
	require.ErrorIs(t, err, ErrInvalidWindow)
	_, err = svc.CashBook(context.Background(), Window{}, "")
	require.ErrorIs(t, err, ErrAccountNeeded)
}

func TestDailyComposesSections(t *testing.T) {
	repo := &stubRepo{
		accounts: []AccountInfo{{Code: "1001", Name: "Kas", NormalBalance: "debit"}},
		lines: []LedgerLine{
			{AccountCode: "1001", NormalBalance: "debit", Debit: dec("100")},
		},
		sales:   []SaleLine{{Qty: dec("1"), Subtotal: dec("100")}},
		summary: WorkorderSummary{Count: 3, PaidCount: 2, Total: dec("900")},
	}
	svc := NewService(repo, nil, accounting.DefaultCodes(), nil, slog.Default())

	report, err := svc.Daily(context.Background(), day(5))
	require.NoError(t, err)
	require.Len(t, report.CashBooks, 1)
	require.True(t, report.CashBooks[0].ClosingBalance.Equal(dec("100")))
	require.True(t, report.ProductSales.Total.Equal(dec("100")))
	require.Equal(t, 3, report.Workorders.Count)
}
