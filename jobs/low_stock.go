package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
)

// LowStockScanJob flags products whose on-hand stock fell under the
// configured minimum.
type LowStockScanJob struct {
	Inventory *inventory.Service
	Logger    *slog.Logger
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(inventorySvc *inventory.Service, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{Inventory: inventorySvc, Logger: logger}
}

// Handle processes low-stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Inventory == nil {
		return errors.New("low stock scan: handler not configured")
	}
	rows, err := j.Inventory.BelowMinimum(ctx)
	if err != nil {
		j.logger().Error("low stock scan", slog.Any("error", err))
		return err
	}
	if len(rows) == 0 {
		j.logger().Info("low stock scan clean")
		return nil
	}
	for _, row := range rows {
		j.logger().Warn("stock below minimum",
			slog.String("product_id", row.ProductID.String()),
			slog.String("name", row.Name),
			slog.String("on_hand", row.Qty.String()),
			slog.String("min_stock", row.MinStock.String()))
	}
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
