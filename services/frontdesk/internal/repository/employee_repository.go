package repository

import (
	"context"
	"errors"

	"github.com/diagnosis/frontdesk/pkg/database"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/jackc/pgx/v5"
)

type EmployeeRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Employee, error)
	// Create inserts e unless the username exists; it reports whether a row was written.
	Create(ctx context.Context, e *domain.Employee) (bool, error)
}

type employeeRepository struct {
	db database.DBTX
}

func NewEmployeeRepository(db database.DBTX) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) FindByUsername(ctx context.Context, username string) (*domain.Employee, error) {
	const q = `SELECT id, username, password_hash, full_name, role, active, created_at
		FROM employees WHERE lower(username)=lower($1)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var e domain.Employee
	err := r.db.QueryRow(ctx, q, username).Scan(
		&e.ID, &e.Username, &e.PasswordHash, &e.FullName, &e.Role, &e.Active, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) (bool, error) {
	const q = `INSERT INTO employees (username, password_hash, full_name, role, active)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (username) DO NOTHING
		RETURNING id, created_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, q, e.Username, e.PasswordHash, e.FullName, e.Role, e.Active).
		Scan(&e.ID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
