package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/pilgrim-quotes/internal/utils"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

func (m *marketplace) ListOperators(ctx context.Context) ([]domain.OperatorProfile, error) {
	ops, err := m.store.Operators.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	return ops, nil
}

func (m *marketplace) GetOperator(ctx context.Context, id string) (*domain.OperatorProfile, error) {
	op, err := m.store.Operators.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return op, nil
}

// FindUserByEmail backs the session endpoint. It returns nil for an unknown address.
func (m *marketplace) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = utils.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
	}
	u, err := m.store.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
