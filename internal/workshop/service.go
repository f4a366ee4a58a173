package workshop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting"
	accshared "github.com/bengkel-erp/bengkel-erp/internal/accounting/shared"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/db"
)

// Poster is the slice of the accounting service settlement needs.
type Poster interface {
	RecordSaleTx(ctx context.Context, repo accounting.TxRepository, in accounting.SaleInput) (accounting.SaleResult, error)
	ReceiveARTx(ctx context.Context, repo accounting.TxRepository, in accounting.ARReceiptInput) (accounting.Entry, error)
}

// Service owns the workorder lifecycle. Settling a payment posts the sale
// entry with its consignment sub-entries and outcome movements, then the
// receivable receipt, all in the transaction that flips the payment
// status.
type Service struct {
	repo   Repository
	poster Poster
	logger *slog.Logger
	now    func() time.Time

	run func(ctx context.Context, fn func(tx TxRepository, acc accounting.TxRepository) error) error
}

// NewService builds a Service.
func NewService(pool *pgxpool.Pool, repo Repository, poster Poster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		poster: poster,
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
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Workorder, error) {
	return s.repo.List(ctx, filter)
}

// Get proxies the read repository.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Workorder, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a workorder with derived totals. Line subtotal is
// qty*price minus the line discount.
func (s *Service) Create(ctx context.Context, in CreateInput) (Workorder, error) {
	if len(in.Products) == 0 && len(in.Services) == 0 {
		return Workorder{}, ErrEmptyOrder
	}
	now := s.now().UTC()
	dateIn := in.DateIn
	if dateIn.IsZero() {
		dateIn = now
	}
	wo := Workorder{
		ID:               uuid.New(),
		NoWO:             in.NoWO,
		DateIn:           dateIn,
		CustomerID:       in.CustomerID,
		VehicleNo:        in.VehicleNo,
		Status:           "open",
		StatusPembayaran: PaymentUnpaid,
		Tax:              in.Tax.Round(2),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if wo.NoWO == "" {
		wo.NoWO = fmt.Sprintf("WO-%s-%s", dateIn.Format("20060102"), wo.ID.String()[:8])
	}

	totalProduct := decimal.Zero
	for _, l := range in.Products {
		subtotal := l.Qty.Mul(l.Price).Sub(l.Discount).Round(2)
		wo.Products = append(wo.Products, ProductOrdered{
			ID:          uuid.New(),
			WorkorderID: wo.ID,
			ProductID:   l.ProductID,
			Qty:         l.Qty.Round(2),
			Price:       l.Price.Round(2),
			Discount:    l.Discount.Round(2),
			Subtotal:    subtotal,
		})
		totalProduct = totalProduct.Add(subtotal)
	}
	totalService := decimal.Zero
	for _, l := range in.Services {
		subtotal := l.Qty.Mul(l.Price).Sub(l.Discount).Round(2)
		wo.Services = append(wo.Services, ServiceOrdered{
			ID:          uuid.New(),
			WorkorderID: wo.ID,
			ServiceID:   l.ServiceID,
			Name:        l.Name,
			Qty:         l.Qty.Round(2),
			Price:       l.Price.Round(2),
			Discount:    l.Discount.Round(2),
			Subtotal:    subtotal,
		})
		totalService = totalService.Add(subtotal)
	}
	wo.TotalProduct = totalProduct
	wo.TotalService = totalService
	wo.Total = totalProduct.Add(totalService).Add(wo.Tax)

	err := s.run(ctx, func(tx TxRepository, _ accounting.TxRepository) error {
		if err := tx.Insert(ctx, wo); err != nil {
			return err
		}
		if err := tx.InsertProductLines(ctx, wo.Products); err != nil {
			return err
		}
		return tx.InsertServiceLines(ctx, wo.Services)
	})
	if err != nil {
		return Workorder{}, err
	}
	s.logger.InfoContext(ctx, "workorder created",
		slog.String("no_wo", wo.NoWO), slog.String("total", wo.Total.String()))
	return wo, nil
}

// Settle flips the payment status and posts the sale plus receipt.
// Double settlement is rejected both by the stored status and by the
// journal linkage on the workorder id.
func (s *Service) Settle(ctx context.Context, in SettleInput) (SettleResult, error) {
	var result SettleResult
	err := s.run(ctx, func(tx TxRepository, acc accounting.TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, in.WorkorderID)
		if err != nil {
			return err
		}
		if wo.StatusPembayaran == PaymentPaid {
			return ErrAlreadyPaid
		}
		amount := wo.TotalProduct.Add(wo.TotalService)
		if !amount.IsPositive() {
			return ErrNothingToSettle
		}
		date := in.Date
		if date.IsZero() {
			date = s.now().UTC()
		}

		// COGS covers owned stock only; consignment cost lands on the
		// consignment sub-entries instead.
		products, err := acc.GetWorkorderProducts(ctx, wo.ID)
		if err != nil {
			return err
		}
		cogs := decimal.Zero
		for _, p := range products {
			if !p.IsConsignment {
				cogs = cogs.Add(p.Cost.Mul(p.Qty))
			}
		}

		sale, err := s.poster.RecordSaleTx(ctx, acc, accounting.SaleInput{
			CustomerID:  &wo.CustomerID,
			WorkorderID: &wo.ID,
			Date:        date,
			Memo:        "Penjualan " + wo.NoWO,
			Amount:      amount,
			VAT:         wo.Tax,
			COGS:        cogs,
		})
		if errors.Is(err, accshared.ErrAlreadyPosted) || errors.Is(err, accshared.ErrDuplicateEntry) {
			return ErrAlreadyPaid
		}
		if err != nil {
			return err
		}

		receipt, err := s.poster.ReceiveARTx(ctx, acc, accounting.ARReceiptInput{
			CustomerID:  &wo.CustomerID,
			WorkorderID: &wo.ID,
			Date:        date,
			Memo:        "Pelunasan " + wo.NoWO,
			Amount:      wo.Total,
			Discount:    in.Discount,
			CashCode:    in.CashCode,
		})
		if err != nil {
			return err
		}

		if err := tx.SetPaymentStatus(ctx, wo.ID, PaymentPaid, s.now().UTC()); err != nil {
			return err
		}
		wo.StatusPembayaran = PaymentPaid
		result = SettleResult{
			Workorder: wo,
			SaleNo:    sale.Sale.EntryNo,
			ReceiptNo: receipt.EntryNo,
		}
		for _, entry := range sale.Consignment {
			result.Consignment = append(result.Consignment, entry.EntryNo)
		}
		return nil
	})
	if err != nil {
		return SettleResult{}, err
	}
	s.logger.InfoContext(ctx, "workorder settled",
		slog.String("workorder_id", in.WorkorderID.String()),
		slog.String("sale_entry", result.SaleNo))
	return result, nil
}
