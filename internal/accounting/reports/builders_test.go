package reports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestCashBookRunningBalance(t *testing.T) {
	account := AccountInfo{Code: "1001", Name: "Kas", Type: "asset", NormalBalance: "debit"}
	lines := []LedgerLine{
		{Date: day(2), EntryNo: "SAL-20250302-001", AccountCode: "1001", NormalBalance: "debit", Debit: dec("500")},
		{Date: day(3), EntryNo: "EXP-20250303-001", AccountCode: "1001", NormalBalance: "debit", Credit: dec("120")},
		{Date: day(3), EntryNo: "ARR-20250303-001", AccountCode: "1001", NormalBalance: "debit", Debit: dec("80")},
		{Date: day(3), EntryNo: "GEN-20250303-001", AccountCode: "9999", NormalBalance: "debit", Debit: dec("1")},
	}
	book := BuildCashBook(account, dec("1000"), dec("250"), lines)

	require.True(t, book.OpeningBalance.Equal(dec("750")))
	require.Len(t, book.Lines, 3, "foreign account line is skipped")
	require.True(t, book.Lines[0].Balance.Equal(dec("1250")))
	require.True(t, book.Lines[1].Balance.Equal(dec("1130")))
	require.True(t, book.Lines[2].Balance.Equal(dec("1210")))
	require.True(t, book.ClosingBalance.Equal(dec("1210")))

	// Closing equals opening plus the signed movement of every line.
	sum := book.OpeningBalance
	for _, l := range book.Lines {
		sum = sum.Add(l.Debit).Sub(l.Credit)
	}
	require.True(t, book.ClosingBalance.Equal(sum))
}

func TestCashBookCreditNormalAccount(t *testing.T) {
	account := AccountInfo{Code: "2100", Name: "Hutang Usaha", Type: "liability", NormalBalance: "credit"}
	lines := []LedgerLine{
		{AccountCode: "2100", NormalBalance: "credit", Credit: dec("300")},
		{AccountCode: "2100", NormalBalance: "credit", Debit: dec("100")},
	}
	book := BuildCashBook(account, dec("0"), dec("50"), lines)
	require.True(t, book.OpeningBalance.Equal(dec("50")))
	require.True(t, book.ClosingBalance.Equal(dec("250")), "credit grows, debit shrinks")
}

func TestProfitLossIdentity(t *testing.T) {
	lines := []LedgerLine{
		{AccountCode: "4000", AccountName: "Penjualan", AccountType: "revenue", Credit: dec("1500")},
		{AccountCode: "4002", AccountName: "Pendapatan Jasa", AccountType: "revenue", Credit: dec("400"), Debit: dec("25")},
		{AccountCode: "5100", AccountName: "HPP", AccountType: "expense", Debit: dec("900")},
		{AccountCode: "6001", AccountName: "Listrik", AccountType: "expense", Debit: dec("200")},
		// Zero-net account must not appear.
		{AccountCode: "6002", AccountName: "Lain", AccountType: "expense", Debit: dec("30"), Credit: dec("30")},
		// Asset lines are ignored entirely.
		{AccountCode: "1001", AccountName: "Kas", AccountType: "asset", Debit: dec("1500")},
	}
	pl := BuildProfitLoss(lines)

	require.Len(t, pl.Revenue, 2)
	require.Len(t, pl.Expense, 2)
	require.True(t, pl.TotalRevenue.Equal(dec("1875")))
	require.True(t, pl.TotalExpense.Equal(dec("1100")))
	require.True(t, pl.NetProfit.Equal(pl.TotalRevenue.Sub(pl.TotalExpense)))

	sumRevenue := decimal.Zero
	for _, a := range pl.Revenue {
		sumRevenue = sumRevenue.Add(a.Amount)
	}
	require.True(t, pl.TotalRevenue.Equal(sumRevenue))
}

func TestCashReportClassifiesBySign(t *testing.T) {
	lines := []LedgerLine{
		{EntryNo: "ARR-1", AccountCode: "1001", NormalBalance: "debit", Debit: dec("950")},
		{EntryNo: "APP-1", AccountCode: "1001", NormalBalance: "debit", Credit: dec("300")},
		{EntryNo: "GEN-1", AccountCode: "1002", NormalBalance: "debit", Debit: dec("20"), Credit: dec("20")},
	}
	report := BuildCashReport(lines)

	require.Len(t, report.Lines, 2, "zero-net line dropped")
	require.Equal(t, "cash_in", report.Lines[0].Direction)
	require.Equal(t, "cash_out", report.Lines[1].Direction)
	require.True(t, report.CashIn.Equal(dec("950")))
	require.True(t, report.CashOut.Equal(dec("300")))
	require.True(t, report.NetFlow.Equal(dec("650")))
}

func TestReceivablePayableGroupsParties(t *testing.T) {
	budi, sari := uuid.New(), uuid.New()
	supplier := uuid.New()
	receivable := []LedgerLine{
		{CustomerID: &budi, CustomerName: "Budi", Debit: dec("1000")},
		{CustomerID: &budi, CustomerName: "Budi", Credit: dec("400")},
		{CustomerID: &sari, CustomerName: "Sari", Debit: dec("250"), Credit: dec("250")},
		{Debit: dec("99")}, // unlinked line ignored
	}
	payable := []LedgerLine{
		{SupplierID: &supplier, SupplierName: "PT Sumber", Credit: dec("700")},
		{SupplierID: &supplier, SupplierName: "PT Sumber", Debit: dec("200")},
	}
	rp := BuildReceivablePayable(receivable, payable)

	require.Len(t, rp.Receivables, 1, "settled customer dropped")
	require.Equal(t, "Budi", rp.Receivables[0].Name)
	require.True(t, rp.Receivables[0].Amount.Equal(dec("600")))
	require.Len(t, rp.Payables, 1)
	require.True(t, rp.Payables[0].Amount.Equal(dec("500")))
	require.True(t, rp.TotalReceivable.Equal(dec("600")))
	require.True(t, rp.TotalPayable.Equal(dec("500")))
}

func TestConsignmentPayableOutstanding(t *testing.T) {
	supplier := uuid.New()
	lines := []LedgerLine{
		{SupplierID: &supplier, SupplierName: "CV Jaya", Credit: dec("600")},
		{SupplierID: &supplier, SupplierName: "CV Jaya", Debit: dec("600")},
	}
	cp := BuildConsignmentPayable(lines)
	require.Empty(t, cp.Rows, "fully paid supplier dropped")
	require.True(t, cp.Total.IsZero())
}

func TestSalesReportTotals(t *testing.T) {
	report := BuildSalesReport([]SaleLine{
		{Qty: dec("2"), Subtotal: dec("200")},
		{Qty: dec("1"), Subtotal: dec("75")},
	})
	require.True(t, report.TotalQty.Equal(dec("3")))
	require.True(t, report.Total.Equal(dec("275")))
}

func TestExtractParty(t *testing.T) {
	require.Equal(t, "Budi", extractParty("Penjualan WO-20250301-ab12cd34 - Budi"))
	require.Equal(t, "", extractParty("Penyesuaian stok"))
}
