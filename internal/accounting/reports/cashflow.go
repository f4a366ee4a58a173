package reports

// BuildCashReport classifies every cash or bank line by the sign of its
// movement under the account's normal balance.
func BuildCashReport(lines []LedgerLine) CashReport {
	var report CashReport
	for _, l := range lines {
		net := signedAmount(l.NormalBalance, l.Debit, l.Credit)
		if net.IsZero() {
			continue
		}
		flow := CashFlowLine{
			Date:        l.Date,
			EntryNo:     l.EntryNo,
			AccountCode: l.AccountCode,
			Memo:        l.Memo,
		}
		if net.IsPositive() {
			flow.Direction = "cash_in"
			flow.Amount = net
			report.CashIn = report.CashIn.Add(net)
		} else {
			flow.Direction = "cash_out"
			flow.Amount = net.Neg()
			report.CashOut = report.CashOut.Add(net.Neg())
		}
		report.Lines = append(report.Lines, flow)
	}
	report.NetFlow = report.CashIn.Sub(report.CashOut)
	return report
}
