package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/reports"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleBook() reports.CashBook {
	return reports.CashBook{
		AccountCode:    "1001",
		AccountName:    "Kas",
		OpeningBalance: dec("750"),
		ClosingBalance: dec("1250"),
		Lines: []reports.CashBookLine{
			{
				Date:    time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC),
				EntryNo: "SAL-20250302-001",
				Memo:    "Penjualan WO-20250302-ab12cd34",
				Debit:   dec("500"),
				Balance: dec("1250"),
			},
		},
	}
}

func TestWriteCashBookCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCashBookCSV(&buf, sampleBook()))

	reader := csv.NewReader(&buf)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Account", "1001 Kas"}, records[0])
	require.Equal(t, []string{"Opening Balance", "750.00"}, records[1])
	require.Equal(t, "SAL-20250302-001", records[3][1])
	require.Equal(t, []string{"Closing Balance", "1250.00"}, records[len(records)-1])
}

func TestWriteProfitLossCSVSections(t *testing.T) {
	pl := reports.ProfitLoss{
		Revenue:      []reports.PLAccount{{AccountCode: "4000", AccountName: "Penjualan", Amount: dec("1500")}},
		Expense:      []reports.PLAccount{{AccountCode: "5100", AccountName: "HPP", Amount: dec("900")}},
		TotalRevenue: dec("1500"),
		TotalExpense: dec("900"),
		NetProfit:    dec("600"),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteProfitLossCSV(&buf, pl))

	out := buf.String()
	require.Contains(t, out, "Revenue,4000,Penjualan,1500.00")
	require.Contains(t, out, "Expense,5100,HPP,900.00")
	require.Contains(t, out, "Net Profit,600.00")
}

func TestWriteCashBookXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCashBookXLSX(&buf, sampleBook()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Cash Book")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rows[0][1], "1001"))
	require.Equal(t, "Closing Balance", rows[len(rows)-1][0])
}
