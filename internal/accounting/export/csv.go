// Package export serialises report payloads to CSV and XLSX downloads.
package export

import (
	"encoding/csv"
	"io"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/reports"
)

// WriteCashBookCSV serialises a cash book statement.
func WriteCashBookCSV(w io.Writer, book reports.CashBook) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Account", book.AccountCode + " " + book.AccountName}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Opening Balance", book.OpeningBalance.StringFixed(2)}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Date", "Entry No", "Memo", "Debit", "Credit", "Balance"}); err != nil {
		return err
	}
	for _, line := range book.Lines {
		record := []string{
			line.Date.Format("2006-01-02"),
			line.EntryNo,
			line.Memo,
			line.Debit.StringFixed(2),
			line.Credit.StringFixed(2),
			line.Balance.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"Closing Balance", book.ClosingBalance.StringFixed(2)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteProfitLossCSV serialises the profit and loss statement.
func WriteProfitLossCSV(w io.Writer, pl reports.ProfitLoss) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Section", "Account", "Name", "Amount"}); err != nil {
		return err
	}
	for _, a := range pl.Revenue {
		if err := writer.Write([]string{"Revenue", a.AccountCode, a.AccountName, a.Amount.StringFixed(2)}); err != nil {
			return err
		}
	}
	for _, a := range pl.Expense {
		if err := writer.Write([]string{"Expense", a.AccountCode, a.AccountName, a.Amount.StringFixed(2)}); err != nil {
			return err
		}
	}
	records := [][]string{
		{"Total", "", "Revenue", pl.TotalRevenue.StringFixed(2)},
		{"Total", "", "Expense", pl.TotalExpense.StringFixed(2)},
		{"Total", "", "Net Profit", pl.NetProfit.StringFixed(2)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSalesCSV serialises a product or service sales listing.
func WriteSalesCSV(w io.Writer, report reports.SalesReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Workorder", "Customer", "Item", "Qty", "Price", "Discount", "Subtotal"}); err != nil {
		return err
	}
	for _, line := range report.Lines {
		record := []string{
			line.Date.Format("2006-01-02"),
			line.NoWO,
			line.CustomerName,
			line.ItemName,
			line.Qty.StringFixed(2),
			line.Price.StringFixed(2),
			line.Discount.StringFixed(2),
			line.Subtotal.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "", "", "Total", report.TotalQty.StringFixed(2), "", "", report.Total.StringFixed(2)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
