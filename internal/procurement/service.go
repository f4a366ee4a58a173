package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting"
	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/db"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// Poster is the slice of the accounting service the status flow needs.
type Poster interface {
	RecordPurchaseTx(ctx context.Context, repo accounting.TxRepository, in accounting.PurchaseInput) (accounting.Entry, error)
	PayAPTx(ctx context.Context, repo accounting.TxRepository, in accounting.APPaymentInput) (accounting.Entry, error)
}

// Service owns the purchase-order lifecycle. Entering "diterima" receives
// stock and reprices it; entering "dibayarkan" settles the payable. The
// status change and its postings share one transaction.
type Service struct {
	repo   Repository
	poster Poster
	ledger *inventory.Ledger
	logger *slog.Logger
	now    func() time.Time

	run func(ctx context.Context, fn func(tx TxRepository, acc accounting.TxRepository) error) error
}

// NewService builds a Service.
func NewService(pool *pgxpool.Pool, repo Repository, poster Poster, ledger *inventory.Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		poster: poster,
		ledger: ledger,
		logger: logger,
		now:    time.Now,
		run: func(ctx context.Context, fn func(TxRepository, accounting.TxRepository) error) error {
			return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
				return fn(NewTxRepository(tx), accounting.NewTxRepository(tx))
			})
		},
	}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List proxies the read repository.
func (s *Service) List(ctx context.Context, status Status, limit int) ([]PurchaseOrder, error) {
	if status != "" && !status.Valid() {
		return nil, ErrUnknownStatus
	}
	return s.repo.List(ctx, status, limit)
}

// Get proxies the read repository.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a draft order. Total is derived from the lines.
func (s *Service) Create(ctx context.Context, in CreateInput) (PurchaseOrder, error) {
	if len(in.Lines) == 0 {
		return PurchaseOrder{}, ErrNoLines
	}
	now := s.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	po := PurchaseOrder{
		ID:         uuid.New(),
		PONo:       in.PONo,
		SupplierID: in.SupplierID,
		Date:       date,
		Status:     StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if po.PONo == "" {
		po.PONo = fmt.Sprintf("PO-%s-%s", date.Format("20060102"), po.ID.String()[:8])
	}
	total := decimal.Zero
	for _, l := range in.Lines {
		if !l.Qty.IsPositive() || l.Price.IsNegative() {
			return PurchaseOrder{}, inventory.ErrQuantityMustBePositive
		}
		subtotal := l.Qty.Mul(l.Price).Round(2)
		po.Lines = append(po.Lines, Line{
			ID:        uuid.New(),
			POID:      po.ID,
			ProductID: l.ProductID,
			Qty:       l.Qty.Round(2),
			Price:     l.Price.Round(2),
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}
	po.Total = total

	err := s.run(ctx, func(tx TxRepository, _ accounting.TxRepository) error {
		if err := tx.Insert(ctx, po); err != nil {
			return err
		}
		return tx.InsertLines(ctx, po.Lines)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.logger.InfoContext(ctx, "purchase order created",
		slog.String("po_no", po.PONo), slog.String("total", po.Total.String()))
	return po, nil
}

// SetStatus advances the order along the flow. A repeat of the current
// status is a no-op; moving backwards fails. Effects fire once, exactly
// when the order first crosses each threshold, even if several are
// crossed in one call.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, target Status) (TransitionResult, error) {
	if !target.Valid() {
		return TransitionResult{}, ErrUnknownStatus
	}
	var result TransitionResult
	err := s.run(ctx, func(tx TxRepository, acc accounting.TxRepository) error {
		po, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from, to := po.Status.rank(), target.rank()
		if to < from {
			return ErrRewind
		}
		result.Order = po
		if to == from {
			return nil
		}

		if from < StatusDiterima.rank() && to >= StatusDiterima.rank() {
			if err := s.receive(ctx, tx, acc, po, &result); err != nil {
				return err
			}
		}
		if from < StatusDibayarkan.rank() && to >= StatusDibayarkan.rank() {
			entry, err := s.poster.PayAPTx(ctx, acc, accounting.APPaymentInput{
				SupplierID: &po.SupplierID,
				PurchaseID: &po.ID,
				Date:       s.now().UTC(),
				Memo:       "Pembayaran " + po.PONo,
				Amount:     po.Total,
			})
			if err != nil {
				return err
			}
			result.PaymentNo = entry.EntryNo
		}

		if err := tx.SetStatus(ctx, id, target, s.now().UTC()); err != nil {
			return err
		}
		result.Order.Status = target
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}
	s.logger.InfoContext(ctx, "purchase order status set",
		slog.String("po_id", id.String()), slog.String("status", string(target)))
	return result, nil
}

// receive posts the purchase entry on credit and records a costed income
// movement per line.
func (s *Service) receive(ctx context.Context, tx TxRepository, acc accounting.TxRepository, po PurchaseOrder, result *TransitionResult) error {
	if len(po.Lines) == 0 {
		return ErrNoLines
	}
	if _, err := s.poster.RecordPurchaseTx(ctx, acc, accounting.PurchaseInput{
		SupplierID: &po.SupplierID,
		PurchaseID: &po.ID,
		Date:       s.now().UTC(),
		Memo:       "Penerimaan " + po.PONo,
		Amount:     po.Total,
	}); err != nil {
		return err
	}
	actor := shared.ActorFromContext(ctx)
	for _, l := range po.Lines {
		change, err := s.ledger.Receive(ctx, acc, inventory.ReceiptInput{
			ProductID: l.ProductID,
			Qty:       l.Qty,
			Price:     l.Price,
			Notes:     "purchase order " + po.PONo,
			Actor:     actor,
		})
		if err != nil {
			return err
		}
		result.CostChanges = append(result.CostChanges, inventoryCostSummary{
			ProductID: change.ProductID,
			NewCost:   change.NewCost,
			Skipped:   change.Skipped,
		})
	}
	return nil
}
