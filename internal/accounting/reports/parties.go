package reports

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildReceivablePayable groups receivable lines by customer (debit
// minus credit) and payable lines by supplier (credit minus debit).
// Zero rows are dropped.
func BuildReceivablePayable(receivable, payable []LedgerLine) ReceivablePayable {
	var rp ReceivablePayable
	rp.Receivables, rp.TotalReceivable = groupByParty(receivable, partyCustomer, false)
	rp.Payables, rp.TotalPayable = groupByParty(payable, partySupplier, true)
	return rp
}

// BuildConsignmentPayable sums the outstanding consignment credit per
// supplier over the configured payable accounts.
func BuildConsignmentPayable(lines []LedgerLine) ConsignmentPayable {
	var cp ConsignmentPayable
	cp.Rows, cp.Total = groupByParty(lines, partySupplier, true)
	return cp
}

type partySide int

const (
	partyCustomer partySide = iota
	partySupplier
)

func groupByParty(lines []LedgerLine, side partySide, creditNormal bool) ([]PartyBalance, decimal.Decimal) {
	type bucket struct {
		name   string
		amount decimal.Decimal
	}
	byParty := map[uuid.UUID]*bucket{}
	for _, l := range lines {
		var id *uuid.UUID
		var name string
		if side == partyCustomer {
			id, name = l.CustomerID, l.CustomerName
		} else {
			id, name = l.SupplierID, l.SupplierName
		}
		if id == nil {
			continue
		}
		amount := l.Debit.Sub(l.Credit)
		if creditNormal {
			amount = l.Credit.Sub(l.Debit)
		}
		b, ok := byParty[*id]
		if !ok {
			b = &bucket{name: name}
			byParty[*id] = b
		}
		b.amount = b.amount.Add(amount)
	}

	var out []PartyBalance
	total := decimal.Zero
	for id, b := range byParty {
		if b.amount.IsZero() {
			continue
		}
		out = append(out, PartyBalance{PartyID: id, Name: b.name, Amount: b.amount})
		total = total.Add(b.amount)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].PartyID.String() < out[j].PartyID.String()
	})
	return out, total
}

// BuildSalesReport totals ordered lines.
func BuildSalesReport(lines []SaleLine) SalesReport {
	report := SalesReport{Lines: lines}
	for _, l := range lines {
		report.TotalQty = report.TotalQty.Add(l.Qty)
		report.Total = report.Total.Add(l.Subtotal)
	}
	return report
}

// extractParty pulls the counterparty name out of a movement note when
// the note follows the "<activity> - <party>" convention.
func extractParty(notes string) string {
	idx := strings.LastIndex(notes, " - ")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(notes[idx+3:])
}
