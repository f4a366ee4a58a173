package reports

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BuildProfitLoss sums revenue and expense accounts over the window's
// ledger lines. Revenue carries credit minus debit, expense the
// reverse; zero-balance accounts are dropped.
func BuildProfitLoss(lines []LedgerLine) ProfitLoss {
	type bucket struct {
		name   string
		amount decimal.Decimal
	}
	revenue := map[string]*bucket{}
	expense := map[string]*bucket{}

	for _, l := range lines {
		var side map[string]*bucket
		var amount decimal.Decimal
		switch l.AccountType {
		case "revenue":
			side, amount = revenue, l.Credit.Sub(l.Debit)
		case "expense":
			side, amount = expense, l.Debit.Sub(l.Credit)
		default:
			continue
		}
		b, ok := side[l.AccountCode]
		if !ok {
			b = &bucket{name: l.AccountName}
			side[l.AccountCode] = b
		}
		b.amount = b.amount.Add(amount)
	}

	flatten := func(side map[string]*bucket) ([]PLAccount, decimal.Decimal) {
		var out []PLAccount
		total := decimal.Zero
		for code, b := range side {
			if b.amount.IsZero() {
				continue
			}
			out = append(out, PLAccount{AccountCode: code, AccountName: b.name, Amount: b.amount})
			total = total.Add(b.amount)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].AccountCode < out[j].AccountCode })
		return out, total
	}

	var pl ProfitLoss
	pl.Revenue, pl.TotalRevenue = flatten(revenue)
	pl.Expense, pl.TotalExpense = flatten(expense)
	pl.NetProfit = pl.TotalRevenue.Sub(pl.TotalExpense)
	return pl
}
