package journals

import (
	"context"

	"github.com/google/uuid"

	sharedpkg "github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// Service exposes journal reads. All writes flow through the Kernel inside
// a recorder's unit of work; posted entries are never mutated.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, sharedpkg.Pagination, error) {
	filter.Normalize()
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, sharedpkg.Pagination{}, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, sharedpkg.Pagination{}, err
	}
	return entries, sharedpkg.NewPagination(filter.Page, filter.PerPage, total), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}
