package customers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	items map[uuid.UUID]Customer
}

func (m *memoryRepo) List(context.Context, string, int) ([]Customer, error) {
	var out []Customer
	for _, c := range m.items {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (Customer, error) {
	c, ok := m.items[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) Insert(_ context.Context, c Customer) error {
	m.items[c.ID] = c
	return nil
}

func (m *memoryRepo) Update(_ context.Context, c Customer) error {
	if _, ok := m.items[c.ID]; !ok {
		return ErrNotFound
	}
	m.items[c.ID] = c
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func TestCustomerLifecycle(t *testing.T) {
	repo := &memoryRepo{items: make(map[uuid.UUID]Customer)}
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Name: "   "})
	require.ErrorIs(t, err, ErrEmptyName)

	c, err := svc.Create(ctx, Input{Name: " Budi Santoso ", Phone: "0812"})
	require.NoError(t, err)
	require.Equal(t, "Budi Santoso", c.Name)

	updated, err := svc.Update(ctx, c.ID, Input{Name: "Budi S.", Address: "Jl. Melati 1"})
	require.NoError(t, err)
	require.Equal(t, "Budi S.", updated.Name)
	require.Equal(t, "Jl. Melati 1", updated.Address)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
