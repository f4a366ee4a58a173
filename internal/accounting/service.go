package accounting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	accshared "github.com/bengkel-erp/bengkel-erp/internal/accounting/shared"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/journals"
	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/db"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// Source modules used for journal linkage. The (module, ref) pair is
// unique, which is what makes re-submitting the same business event fail
// instead of double-posting.
const (
	SourcePurchase         = "purchase"
	SourcePOPayment        = "po_payment"
	SourceWorkorderSale    = "workorder_sale"
	SourceWorkorderReceipt = "workorder_receipt"
	SourceExpense          = "expense"
	SourceExpensePayment   = "expense_payment"
)

// Service translates business events into balanced journal entries plus
// their inventory side-effects. Each public method runs in its own unit of
// work; the Tx variants post through a caller-owned transaction so other
// modules (procurement, workshop, expenses) can combine a status change
// and its postings atomically.
type Service struct {
	kernel *journals.Kernel
	ledger *inventory.Ledger
	codes  Codes
	audit  *shared.AuditLogger
	logger *slog.Logger

	// run executes fn inside one unit of work. Defaults to a pool-backed
	// transaction; tests swap it for a memory repository.
	run func(ctx context.Context, fn func(repo TxRepository) error) error
}

// NewService builds a Service. audit may be nil.
func NewService(pool *pgxpool.Pool, kernel *journals.Kernel, ledger *inventory.Ledger, codes Codes, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		kernel: kernel,
		ledger: ledger,
		codes:  codes,
		audit:  audit,
		logger: logger,
		run: func(ctx context.Context, fn func(repo TxRepository) error) error {
			return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
				return fn(NewTxRepository(tx))
			})
		},
	}
}

// Codes exposes the configured conventional account codes.
func (s *Service) Codes() Codes {
	return s.codes
}

func (s *Service) inTx(ctx context.Context, fn func(repo TxRepository) error) error {
	return s.run(ctx, fn)
}

func (s *Service) auditTrail(ctx context.Context, action, entity string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		Actor:    shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   entity,
		EntityID: id.String(),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", slog.Any("error", err))
	}
}

// RecordPurchase posts a perpetual-inventory purchase entry.
func (s *Service) RecordPurchase(ctx context.Context, in PurchaseInput) (Entry, error) {
	var entry Entry
	err := s.inTx(ctx, func(repo TxRepository) error {
		var err error
		entry, err = s.RecordPurchaseTx(ctx, repo, in)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.auditTrail(ctx, "accounting.purchase", "journal_entry", entry.ID, map[string]any{"entry_no": entry.EntryNo})
	return entry, nil
}

// RecordPurchaseTx posts the purchase through a caller-owned transaction.
func (s *Service) RecordPurchaseTx(ctx context.Context, repo TxRepository, in PurchaseInput) (Entry, error) {
	amount := in.Amount.Round(2)
	vat := in.VAT.Round(2)
	if !amount.IsPositive() {
		return Entry{}, accshared.ErrInvalidLine
	}

	lines := []journals.LineInput{
		{AccountCode: pick(in.InventoryCode, s.codes.Inventory), Description: "Persediaan", Debit: amount},
	}
	if vat.IsPositive() {
		lines = append(lines, journals.LineInput{
			AccountCode: pick(in.VATCode, s.codes.InputVAT), Description: "PPN masukan", Debit: vat,
		})
	}
	counter := journals.LineInput{Description: "Pembelian", Credit: amount.Add(vat)}
	if in.CashCode != "" {
		counter.AccountCode = in.CashCode
	} else {
		counter.AccountCode = pick(in.PayableCode, s.codes.Payable)
	}
	lines = append(lines, counter)

	input := journals.PostingInput{
		Date:  in.Date,
		Memo:  in.Memo,
		Kind:  journals.KindPurchase,
		Links: journals.Links{SupplierID: in.SupplierID, PurchaseID: in.PurchaseID},
		Lines: lines,
	}
	if in.PurchaseID != nil {
		input.Source = &journals.Source{Module: SourcePurchase, Ref: *in.PurchaseID}
	}
	return s.kernel.Post(ctx, repo, input)
}

// RecordSale posts the sale entry, per-supplier consignment sub-entries
// and the outcome movements for the referenced workorder, all in one unit
// of work.
func (s *Service) RecordSale(ctx context.Context, in SaleInput) (SaleResult, error) {
	var result SaleResult
	err := s.inTx(ctx, func(repo TxRepository) error {
		var err error
		result, err = s.RecordSaleTx(ctx, repo, in)
		return err
	})
	if err != nil {
		return SaleResult{}, err
	}
	s.auditTrail(ctx, "accounting.sale", "journal_entry", result.Sale.ID, map[string]any{"entry_no": result.Sale.EntryNo})
	return result, nil
}

// RecordSaleTx posts the sale through a caller-owned transaction.
func (s *Service) RecordSaleTx(ctx context.Context, repo TxRepository, in SaleInput) (SaleResult, error) {
	amount := in.Amount.Round(2)
	vat := in.VAT.Round(2)
	cogs := in.COGS.Round(2)
	if !amount.IsPositive() {
		return SaleResult{}, accshared.ErrInvalidLine
	}

	if in.WorkorderID != nil {
		posted, err := repo.SourcePosted(ctx, SourceWorkorderSale, *in.WorkorderID)
		if err != nil {
			return SaleResult{}, err
		}
		if posted {
			return SaleResult{}, accshared.ErrAlreadyPosted
		}
	}

	debit := journals.LineInput{Description: "Penjualan", Debit: amount.Add(vat)}
	if in.CashCode != "" {
		debit.AccountCode = in.CashCode
	} else {
		debit.AccountCode = pick(in.ReceivableCode, s.codes.Receivable)
	}
	lines := []journals.LineInput{
		debit,
		{AccountCode: pick(in.SalesCode, s.codes.Sales), Description: "Pendapatan penjualan", Credit: amount},
	}
	if vat.IsPositive() {
		lines = append(lines, journals.LineInput{
			AccountCode: pick(in.OutputVATCode, s.codes.OutputVAT), Description: "PPN keluaran", Credit: vat,
		})
	}
	if cogs.IsPositive() {
		lines = append(lines,
			journals.LineInput{AccountCode: pick(in.COGSCode, s.codes.COGS), Description: "HPP", Debit: cogs},
			journals.LineInput{AccountCode: pick(in.InventoryCode, s.codes.Inventory), Description: "Persediaan keluar", Credit: cogs},
		)
	}

	input := journals.PostingInput{
		Date:  in.Date,
		Memo:  in.Memo,
		Kind:  journals.KindSale,
		Links: journals.Links{CustomerID: in.CustomerID, WorkorderID: in.WorkorderID},
		Lines: lines,
	}
	if in.WorkorderID != nil {
		input.Source = &journals.Source{Module: SourceWorkorderSale, Ref: *in.WorkorderID}
	}
	sale, err := s.kernel.Post(ctx, repo, input)
	if err != nil {
		return SaleResult{}, err
	}
	result := SaleResult{Sale: sale}

	if in.WorkorderID == nil {
		return result, nil
	}
	products, err := repo.GetWorkorderProducts(ctx, *in.WorkorderID)
	if err != nil {
		return SaleResult{}, err
	}
	actor := shared.ActorFromContext(ctx)
	owed := map[uuid.UUID]decimal.Decimal{}
	var supplierOrder []uuid.UUID
	for _, p := range products {
		_, _, err := s.ledger.Record(ctx, repo, inventory.MovementInput{
			ProductID: p.ProductID,
			Qty:       p.Qty.Neg(),
			Kind:      inventory.MovementOutcome,
			Notes:     fmt.Sprintf("workorder %s", in.WorkorderID),
			Actor:     actor,
		})
		if err != nil {
			return SaleResult{}, err
		}
		if p.IsConsignment && p.SupplierID != nil {
			if _, seen := owed[*p.SupplierID]; !seen {
				supplierOrder = append(supplierOrder, *p.SupplierID)
			}
			owed[*p.SupplierID] = owed[*p.SupplierID].Add(p.Cost.Mul(p.Qty))
		}
	}
	for _, supplierID := range supplierOrder {
		amount := owed[supplierID].Round(2)
		if !amount.IsPositive() {
			continue
		}
		supplierID := supplierID
		supplierRef := &supplierID
		entry, err := s.kernel.Post(ctx, repo, journals.PostingInput{
			Date: in.Date,
			Memo: "Titipan konsinyasi " + in.Memo,
			Kind: journals.KindConsignment,
			Links: journals.Links{
				SupplierID:  supplierRef,
				WorkorderID: in.WorkorderID,
			},
			Lines: []journals.LineInput{
				{AccountCode: s.codes.CommissionExpense, Description: "Beban konsinyasi", Debit: amount},
				{AccountCode: s.codes.ConsignmentPayable, Description: "Hutang konsinyasi", Credit: amount},
			},
		})
		if err != nil {
			return SaleResult{}, err
		}
		result.Consignment = append(result.Consignment, entry)
	}
	return result, nil
}

// ReceiveAR settles a receivable, splitting out the sales discount.
func (s *Service) ReceiveAR(ctx context.Context, in ARReceiptInput) (Entry, error) {
	var entry Entry
	err := s.inTx(ctx, func(repo TxRepository) error {
		var err error
		entry, err = s.ReceiveARTx(ctx, repo, in)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.auditTrail(ctx, "accounting.ar_receipt", "journal_entry", entry.ID, map[string]any{"entry_no": entry.EntryNo})
	return entry, nil
}

// ReceiveARTx posts the receipt through a caller-owned transaction.
func (s *Service) ReceiveARTx(ctx context.Context, repo TxRepository, in ARReceiptInput) (Entry, error) {
	amount := in.Amount.Round(2)
	discount := in.Discount.Round(2)
	if !amount.IsPositive() || discount.IsNegative() || discount.GreaterThan(amount) {
		return Entry{}, accshared.ErrInvalidLine
	}

	lines := []journals.LineInput{
		{AccountCode: pick(in.CashCode, s.codes.Cash), Description: "Penerimaan piutang", Debit: amount.Sub(discount)},
	}
	if discount.IsPositive() {
		lines = append(lines, journals.LineInput{
			AccountCode: pick(in.DiscountCode, s.codes.SalesDiscount), Description: "Potongan penjualan", Debit: discount,
		})
	}
	lines = append(lines, journals.LineInput{
		AccountCode: pick(in.ReceivableCode, s.codes.Receivable), Description: "Piutang usaha", Credit: amount,
	})

	input := journals.PostingInput{
		Date:  in.Date,
		Memo:  in.Memo,
		Kind:  journals.KindARReceipt,
		Links: journals.Links{CustomerID: in.CustomerID, WorkorderID: in.WorkorderID},
		Lines: lines,
	}
	if in.WorkorderID != nil {
		input.Source = &journals.Source{Module: SourceWorkorderReceipt, Ref: *in.WorkorderID}
	}
	return s.kernel.Post(ctx, repo, input)
}

// PayAP settles a payable, splitting out the purchase discount.
func (s *Service) PayAP(ctx context.Context, in APPaymentInput) (Entry, error) {
	var entry Entry
	err := s.inTx(ctx, func(repo TxRepository) error {
		var err error
		entry, err = s.PayAPTx(ctx, repo, in)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.auditTrail(ctx, "accounting.ap_payment", "journal_entry", entry.ID, map[string]any{"entry_no": entry.EntryNo})
	return entry, nil
}

// PayAPTx posts the payment through a caller-owned transaction.
func (s *Service) PayAPTx(ctx context.Context, repo TxRepository, in APPaymentInput) (Entry, error) {
	amount := in.Amount.Round(2)
	discount := in.Discount.Round(2)
	if !amount.IsPositive() || discount.IsNegative() || discount.GreaterThan(amount) {
		return Entry{}, accshared.ErrInvalidLine
	}

	lines := []journals.LineInput{
		{AccountCode: pick(in.PayableCode, s.codes.Payable), Description: "Hutang usaha", Debit: amount},
		{AccountCode: pick(in.CashCode, s.codes.Cash), Description: "Pembayaran hutang", Credit: amount.Sub(discount)},
	}
	if discount.IsPositive() {
		lines = append(lines, journals.LineInput{
			AccountCode: pick(in.DiscountCode, s.codes.PurchaseDiscount), Description: "Potongan pembelian", Credit: discount,
		})
	}

	input := journals.PostingInput{
		Date:  in.Date,
		Memo:  in.Memo,
		Kind:  journals.KindAPPayment,
		Links: journals.Links{SupplierID: in.SupplierID, PurchaseID: in.PurchaseID},
		Lines: lines,
	}
	if in.PurchaseID != nil {
		input.Source = &journals.Source{Module: SourcePOPayment, Ref: *in.PurchaseID}
	}
	return s.kernel.Post(ctx, repo, input)
}

// RecordExpense posts an operating expense. Without a cash code the
// expense accrues against accounts payable; PayExpenseTx posts the cash
// leg when the expense row is later settled.
func (s *Service) RecordExpense(ctx context.Context, in ExpenseInput) (Entry, error) {
	var entry Entry
	err := s.inTx(ctx, func(repo TxRepository) error {
		var err error
		entry, err = s.RecordExpenseTx(ctx, repo, in)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.auditTrail(ctx, "accounting.expense", "journal_entry", entry.ID, map[string]any{"entry_no": entry.EntryNo})
	return entry, nil
}

// RecordExpenseTx posts the expense through a caller-owned transaction.
func (s *Service) RecordExpenseTx(ctx context.Context, repo TxRepository, in ExpenseInput) (Entry, error) {
	amount := in.Amount.Round(2)
	vat := in.VAT.Round(2)
	if !amount.IsPositive() {
		return Entry{}, accshared.ErrInvalidLine
	}
	if in.ExpenseCode == "" {
		return Entry{}, accshared.ErrAccountNotFound
	}

	lines := []journals.LineInput{
		{AccountCode: in.ExpenseCode, Description: "Beban", Debit: amount},
	}
	if vat.IsPositive() {
		lines = append(lines, journals.LineInput{
			AccountCode: pick(in.VATCode, s.codes.InputVAT), Description: "PPN masukan", Debit: vat,
		})
	}
	counter := journals.LineInput{Description: "Pengeluaran", Credit: amount.Add(vat)}
	if in.CashCode != "" {
		counter.AccountCode = in.CashCode
	} else {
		counter.AccountCode = pick(in.PayableCode, s.codes.Payable)
	}
	lines = append(lines, counter)

	input := journals.PostingInput{
		Date:  in.Date,
		Memo:  in.Memo,
		Kind:  journals.KindExpense,
		Lines: lines,
	}
	if in.ExpenseID != nil {
		input.Source = &journals.Source{Module: SourceExpense, Ref: *in.ExpenseID}
	}
	return s.kernel.Post(ctx, repo, input)
}

// PayExpenseTx posts the cash leg for an expense that was accrued: debit
// payable, credit cash. Used by the expenses module when a row moves to
// "dibayarkan".
func (s *Service) PayExpenseTx(ctx context.Context, repo TxRepository, expenseID uuid.UUID, amount decimal.Decimal, cashCode, memo string, date time.Time) (Entry, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return Entry{}, accshared.ErrInvalidLine
	}
	return s.kernel.Post(ctx, repo, journals.PostingInput{
		Date: date,
		Memo: memo,
		Kind: journals.KindExpense,
		Lines: []journals.LineInput{
			{AccountCode: s.codes.Payable, Description: "Hutang beban", Debit: amount},
			{AccountCode: pick(cashCode, s.codes.Cash), Description: "Pembayaran beban", Credit: amount},
		},
		Source: &journals.Source{Module: SourceExpensePayment, Ref: expenseID},
	})
}

// ConsignmentPayment settles consignment payable owed to a supplier.
func (s *Service) ConsignmentPayment(ctx context.Context, in ConsignmentPaymentInput) (Entry, error) {
	var entry Entry
	err := s.inTx(ctx, func(repo TxRepository) error {
		amount := in.Amount.Round(2)
		discount := in.Discount.Round(2)
		if !amount.IsPositive() || discount.IsNegative() || discount.GreaterThan(amount) {
			return accshared.ErrInvalidLine
		}
		lines := []journals.LineInput{
			{AccountCode: pick(in.PayableCode, s.codes.ConsignmentPayable), Description: "Hutang konsinyasi", Debit: amount},
			{AccountCode: pick(in.CashCode, s.codes.Cash), Description: "Pembayaran konsinyasi", Credit: amount.Sub(discount)},
		}
		if discount.IsPositive() {
			lines = append(lines, journals.LineInput{
				AccountCode: pick(in.DiscountCode, s.codes.ConsignmentDisc), Description: "Potongan konsinyasi", Credit: discount,
			})
		}
		var err error
		entry, err = s.kernel.Post(ctx, repo, journals.PostingInput{
			Date:  in.Date,
			Memo:  in.Memo,
			Kind:  journals.KindConsignment,
			Links: journals.Links{SupplierID: in.SupplierID},
			Lines: lines,
		})
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.auditTrail(ctx, "accounting.consignment_payment", "journal_entry", entry.ID, map[string]any{"entry_no": entry.EntryNo})
	return entry, nil
}

// CashIn posts a generic debit to cash against any counter account.
func (s *Service) CashIn(ctx context.Context, in CashMovementInput) (Entry, error) {
	return s.cashMovement(ctx, in, true)
}

// CashOut posts a generic credit to cash against any counter account.
func (s *Service) CashOut(ctx context.Context, in CashMovementInput) (Entry, error) {
	return s.cashMovement(ctx, in, false)
}

func (s *Service) cashMovement(ctx context.Context, in CashMovementInput, inbound bool) (Entry, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return Entry{}, accshared.ErrInvalidLine
	}
	if in.CounterCode == "" {
		return Entry{}, accshared.ErrAccountNotFound
	}
	cash := journals.LineInput{AccountCode: pick(in.CashCode, s.codes.Cash)}
	counter := journals.LineInput{AccountCode: in.CounterCode}
	if inbound {
		cash.Debit, cash.Description = amount, "Kas masuk"
		counter.Credit, counter.Description = amount, "Lawan kas masuk"
	} else {
		counter.Debit, counter.Description = amount, "Lawan kas keluar"
		cash.Credit, cash.Description = amount, "Kas keluar"
	}
	var entry Entry
	err := s.inTx(ctx, func(repo TxRepository) error {
		var err error
		entry, err = s.kernel.Post(ctx, repo, journals.PostingInput{
			Date:  in.Date,
			Memo:  in.Memo,
			Kind:  journals.KindGeneral,
			Lines: []journals.LineInput{cash, counter},
		})
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	action := "accounting.cash_out"
	if inbound {
		action = "accounting.cash_in"
	}
	s.auditTrail(ctx, action, "journal_entry", entry.ID, map[string]any{"entry_no": entry.EntryNo})
	return entry, nil
}

// RecordLoss writes off stock at cost and records the outcome movement in
// the same unit of work.
func (s *Service) RecordLoss(ctx context.Context, in LossInput) (Entry, error) {
	if !in.Qty.IsPositive() {
		return Entry{}, inventory.ErrQuantityMustBePositive
	}
	var entry Entry
	err := s.inTx(ctx, func(repo TxRepository) error {
		product, err := repo.GetProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if !product.Cost.IsPositive() {
			return inventory.ErrProductHasNoCost
		}
		amount := product.Cost.Mul(in.Qty).Round(2)

		entry, err = s.kernel.Post(ctx, repo, journals.PostingInput{
			Date: in.Date,
			Memo: in.Memo,
			Kind: journals.KindGeneral,
			Lines: []journals.LineInput{
				{AccountCode: pick(in.LossCode, s.codes.LossExpense), Description: "Kerugian persediaan", Debit: amount},
				{AccountCode: pick(in.InventoryCode, s.codes.Inventory), Description: "Persediaan hilang", Credit: amount},
			},
		})
		if err != nil {
			return err
		}
		_, _, err = s.ledger.Record(ctx, repo, inventory.MovementInput{
			ProductID: in.ProductID,
			Qty:       in.Qty.Neg(),
			Kind:      inventory.MovementOutcome,
			Notes:     "stock loss: " + in.Memo,
			Actor:     in.Actor,
		})
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.auditTrail(ctx, "accounting.stock_loss", "journal_entry", entry.ID, map[string]any{"entry_no": entry.EntryNo})
	return entry, nil
}
