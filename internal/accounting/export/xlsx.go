package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/reports"
)

// WriteCashBookXLSX renders a cash book statement as a spreadsheet.
func WriteCashBookXLSX(w io.Writer, book reports.CashBook) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Cash Book"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{
		{"Account", book.AccountCode + " " + book.AccountName},
		{"Opening Balance", book.OpeningBalance.StringFixed(2)},
		{"Date", "Entry No", "Memo", "Debit", "Credit", "Balance"},
	}
	for _, line := range book.Lines {
		rows = append(rows, []interface{}{
			line.Date.Format("2006-01-02"),
			line.EntryNo,
			line.Memo,
			line.Debit.StringFixed(2),
			line.Credit.StringFixed(2),
			line.Balance.StringFixed(2),
		})
	}
	rows = append(rows, []interface{}{"Closing Balance", book.ClosingBalance.StringFixed(2)})

	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteProfitLossXLSX renders the profit and loss statement as a
// spreadsheet.
func WriteProfitLossXLSX(w io.Writer, pl reports.ProfitLoss) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Profit Loss"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{{"Section", "Account", "Name", "Amount"}}
	for _, a := range pl.Revenue {
		rows = append(rows, []interface{}{"Revenue", a.AccountCode, a.AccountName, a.Amount.StringFixed(2)})
	}
	for _, a := range pl.Expense {
		rows = append(rows, []interface{}{"Expense", a.AccountCode, a.AccountName, a.Amount.StringFixed(2)})
	}
	rows = append(rows,
		[]interface{}{"Total", "", "Revenue", pl.TotalRevenue.StringFixed(2)},
		[]interface{}{"Total", "", "Expense", pl.TotalExpense.StringFixed(2)},
		[]interface{}{"Total", "", "Net Profit", pl.NetProfit.StringFixed(2)},
	)

	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteSalesXLSX renders a sales listing as a spreadsheet.
func WriteSalesXLSX(w io.Writer, report reports.SalesReport) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sales"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{{"Date", "Workorder", "Customer", "Item", "Qty", "Price", "Discount", "Subtotal"}}
	for _, line := range report.Lines {
		rows = append(rows, []interface{}{
			line.Date.Format("2006-01-02"),
			line.NoWO,
			line.CustomerName,
			line.ItemName,
			line.Qty.StringFixed(2),
			line.Price.StringFixed(2),
			line.Discount.StringFixed(2),
			line.Subtotal.StringFixed(2),
		})
	}
	rows = append(rows, []interface{}{"", "", "", "Total", report.TotalQty.StringFixed(2), "", "", report.Total.StringFixed(2)})

	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write sheet row %d: %w", i+1, err)
		}
	}
	return nil
}
