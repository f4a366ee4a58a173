package accounts

import (
	"context"
	"strings"

	"github.com/google/uuid"

	internalShared "github.com/bengkel-erp/bengkel-erp/internal/shared"
)

var errInvalidAccount = internalShared.NewValidation("INVALID_ACCOUNT", "accounting: account requires code, name, valid type and balance side")

// Service wraps the chart of accounts store.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.GetByCode(ctx, code)
}

// CreateInput carries the mutable account fields.
type CreateInput struct {
	Code          string
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	IsActive      *bool
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Account, error) {
	account := Account{
		ID:            uuid.New(),
		Code:          strings.TrimSpace(input.Code),
		Name:          strings.TrimSpace(input.Name),
		Type:          input.Type,
		NormalBalance: input.NormalBalance,
		IsActive:      true,
	}
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}
	if account.Code == "" || len(account.Code) > 32 || account.Name == "" ||
		!account.Type.Valid() || !account.NormalBalance.Valid() {
		return Account{}, errInvalidAccount
	}
	return s.repo.Create(ctx, account)
}

// UpdateInput updates mutable fields; nil fields keep current values.
type UpdateInput struct {
	Name          *string
	Type          *AccountType
	NormalBalance *NormalBalance
	IsActive      *bool
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Account, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if input.Name != nil {
		current.Name = strings.TrimSpace(*input.Name)
	}
	if input.Type != nil {
		current.Type = *input.Type
	}
	if input.NormalBalance != nil {
		current.NormalBalance = *input.NormalBalance
	}
	if input.IsActive != nil {
		current.IsActive = *input.IsActive
	}
	if current.Name == "" || !current.Type.Valid() || !current.NormalBalance.Valid() {
		return Account{}, errInvalidAccount
	}
	if err := s.repo.Update(ctx, current); err != nil {
		return Account{}, err
	}
	return current, nil
}
