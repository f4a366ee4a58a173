package reports

import "github.com/shopspring/decimal"

// signedAmount folds a debit/credit pair onto the account's normal
// side, so positive always means the balance grew.
func signedAmount(normalBalance string, debit, credit decimal.Decimal) decimal.Decimal {
	if normalBalance == "credit" {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}

// BuildCashBook folds the account's lines into a statement with a
// running balance. The opening debit and credit sums cover everything
// strictly before the window.
func BuildCashBook(account AccountInfo, openingDebit, openingCredit decimal.Decimal, lines []LedgerLine) CashBook {
	book := CashBook{
		AccountCode:    account.Code,
		AccountName:    account.Name,
		OpeningBalance: signedAmount(account.NormalBalance, openingDebit, openingCredit),
	}
	balance := book.OpeningBalance
	for _, l := range lines {
		if l.AccountCode != account.Code {
			continue
		}
		balance = balance.Add(signedAmount(account.NormalBalance, l.Debit, l.Credit))
		book.Lines = append(book.Lines, CashBookLine{
			Date:    l.Date,
			EntryNo: l.EntryNo,
			Memo:    l.Memo,
			Debit:   l.Debit,
			Credit:  l.Credit,
			Balance: balance,
		})
	}
	book.ClosingBalance = balance
	return book
}
