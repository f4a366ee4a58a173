package products

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service validates product master writes.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// List proxies the repository.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	return s.repo.List(ctx, filter)
}

// Get proxies the repository.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new product with the seed cost.
func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Product{}, ErrEmptyName
	}
	if in.Cost.IsNegative() || in.Price.IsNegative() {
		return Product{}, ErrNegativeCost
	}
	now := s.now().UTC()
	p := Product{
		ID:                    uuid.New(),
		Name:                  strings.TrimSpace(in.Name),
		Type:                  in.Type,
		Price:                 in.Price.Round(2),
		Cost:                  in.Cost.Round(2),
		MinStock:              in.MinStock.Round(2),
		BrandID:               in.BrandID,
		SatuanID:              in.SatuanID,
		CategoryID:            in.CategoryID,
		SupplierID:            in.SupplierID,
		IsConsignment:         in.IsConsignment,
		ConsignmentCommission: in.ConsignmentCommission.Round(2),
		IsInternalConsumption: in.IsInternalConsumption,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return Product{}, err
	}
	s.logger.InfoContext(ctx, "product created", slog.String("name", p.Name))
	return p, nil
}

// Update rewrites descriptive fields. Cost stays under ledger control.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Product{}, ErrEmptyName
	}
	if in.Price.IsNegative() {
		return Product{}, ErrNegativeCost
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Type = in.Type
	p.Price = in.Price.Round(2)
	p.MinStock = in.MinStock.Round(2)
	p.BrandID = in.BrandID
	p.SatuanID = in.SatuanID
	p.CategoryID = in.CategoryID
	p.SupplierID = in.SupplierID
	p.IsConsignment = in.IsConsignment
	p.ConsignmentCommission = in.ConsignmentCommission.Round(2)
	p.IsInternalConsumption = in.IsInternalConsumption
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Delete removes a product that no movement or order references.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
