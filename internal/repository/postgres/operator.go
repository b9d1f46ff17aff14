package postgres

import (
	"context"
	"database/sql"
	"errors"

	"drainflow/internal/domain"
	"drainflow/internal/repository"
)

// OperatorRepository is a PostgreSQL implementation of repository.OperatorRepository.
type OperatorRepository struct {
	q Querier
}

// NewOperatorRepository creates a new PostgreSQL operator repository.
func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{q: db}
}

// NewOperatorRepositoryWithTx creates an operator repository using a transaction.
func NewOperatorRepositoryWithTx(tx *sql.Tx) *OperatorRepository {
	return &OperatorRepository{q: tx}
}

// Create adds a new operator.
func (r *OperatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	query := `INSERT INTO operators (id, name, phone, status, vehicle_class) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, operator.ID, operator.Name, operator.Phone, operator.Status, operator.VehicleClass)
	return err
}

// GetByID retrieves an operator by ID.
func (r *OperatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	query := `SELECT id, COALESCE(name, ''), COALESCE(phone, ''), status, vehicle_class FROM operators WHERE id = $1`

	var operator domain.Operator
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&operator.ID,
		&operator.Name,
		&operator.Phone,
		&operator.Status,
		&operator.VehicleClass,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &operator, nil
}

// GetByPhone retrieves an operator by phone number.
func (r *OperatorRepository) GetByPhone(ctx context.Context, phone string) (*domain.Operator, error) {
	query := `SELECT id, name, phone, status, vehicle_class FROM operators WHERE phone = $1`

	var operator domain.Operator
	err := r.q.QueryRowContext(ctx, query, phone).Scan(
		&operator.ID,
		&operator.Name,
		&operator.Phone,
		&operator.Status,
		&operator.VehicleClass,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &operator, nil
}

// GetAll retrieves all operators.
func (r *OperatorRepository) GetAll(ctx context.Context) ([]*domain.Operator, error) {
	query := `SELECT id, COALESCE(name, ''), COALESCE(phone, ''), status, vehicle_class FROM operators ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var operators []*domain.Operator
	for rows.Next() {
		var operator domain.Operator
		if err := rows.Scan(&operator.ID, &operator.Name, &operator.Phone, &operator.Status, &operator.VehicleClass); err != nil {
			return nil, err
		}
		operators = append(operators, &operator)
	}
	return operators, rows.Err()
}

// UpdateStatus updates the availability status of an operator.
func (r *OperatorRepository) UpdateStatus(ctx context.Context, id string, status domain.OperatorStatus) error {
	query := `UPDATE operators SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
