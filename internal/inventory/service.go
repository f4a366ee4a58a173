package inventory

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bengkel-erp/bengkel-erp/internal/platform/db"
)

// Service fronts the ledger for callers that are not already inside a
// transaction: the HTTP adjustment endpoint and the read endpoints.
type Service struct {
	pool   *pgxpool.Pool
	repo   Repository
	ledger *Ledger
	logger *slog.Logger
}

// NewService builds a Service.
func NewService(pool *pgxpool.Pool, repo Repository, ledger *Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pool: pool, repo: repo, ledger: ledger, logger: logger}
}

// Adjust opens its own unit of work and records a manual stock adjustment.
func (s *Service) Adjust(ctx context.Context, input MovementInput) (Movement, error) {
	var movement Movement
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		movement, err = s.ledger.Adjust(ctx, NewTxLedger(tx), input)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.logger.InfoContext(ctx, "stock adjusted",
		slog.String("product_id", input.ProductID.String()),
		slog.String("qty", input.Qty.String()),
		slog.String("actor", input.Actor))
	return movement, nil
}

// Stock lists current on-hand quantities, optionally filtered by name.
func (s *Service) Stock(ctx context.Context, search string) ([]StockRow, error) {
	return s.repo.ListStock(ctx, search)
}

// History lists movements, newest first.
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]Movement, error) {
	return s.repo.ListHistory(ctx, filter)
}

// CostHistory lists cost changes for one product, newest first.
func (s *Service) CostHistory(ctx context.Context, productID uuid.UUID, limit int) ([]CostChange, error) {
	return s.repo.ListCostHistory(ctx, productID, limit)
}

// BelowMinimum lists products whose on-hand stock is under their minimum.
func (s *Service) BelowMinimum(ctx context.Context) ([]StockRow, error) {
	return s.repo.ListBelowMinimum(ctx)
}
