package repository

import (
	"context"

	"drainflow/internal/domain"
)

// OperatorRepository defines the persistence operations for operators.
type OperatorRepository interface {
	// Create persists a new operator.
	Create(ctx context.Context, operator *domain.Operator) error

	// GetByID retrieves an operator by ID.
	GetByID(ctx context.Context, id string) (*domain.Operator, error)

	// GetByPhone retrieves an operator by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Operator, error)

	// GetAll retrieves all operators.
	GetAll(ctx context.Context) ([]*domain.Operator, error)

	// UpdateStatus updates an operator's availability status.
	UpdateStatus(ctx context.Context, id string, status domain.OperatorStatus) error
}
