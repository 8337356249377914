package repository

import (
	"context"
	"errors"

	"github.com/diagnosis/frontdesk/pkg/database"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/jackc/pgx/v5"
)

type GuestRepository interface {
	Create(ctx context.Context, in domain.GuestInput) (*domain.Guest, error)
	GetByID(ctx context.Context, id int64) (*domain.Guest, error)
	// ListByName returns guests whose three names match case-insensitively, oldest first.
	ListByName(ctx context.Context, first, middle, last string) ([]domain.Guest, error)
	FindExact(ctx context.Context, l domain.GuestLookup) (*int64, error)
	// LockName serializes guest resolution for one name until the transaction ends.
	LockName(ctx context.Context, first, middle, last string) error
}

type guestRepository struct {
	db database.DBTX
}

func NewGuestRepository(db database.DBTX) GuestRepository {
	return &guestRepository{db: db}
}

const guestCols = `id, first_name, middle_name, last_name, phone, email, id_type, id_number, created_at, updated_at`

func scanGuest(row pgx.Row, g *domain.Guest) error {
	return row.Scan(
		&g.ID, &g.FirstName, &g.MiddleName, &g.LastName,
		&g.Phone, &g.Email, &g.IDType, &g.IDNumber,
		&g.CreatedAt, &g.UpdatedAt,
	)
}

func (r *guestRepository) Create(ctx context.Context, in domain.GuestInput) (*domain.Guest, error) {
	const q = `INSERT INTO guests (
		first_name, middle_name, last_name, phone, email, id_type, id_number
	) VALUES ($1,$2,$3,$4,$5,$6,$7)
	RETURNING ` + guestCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var g domain.Guest
	err := scanGuest(r.db.QueryRow(ctx, q,
		in.FirstName, in.MiddleName, in.LastName,
		in.Phone, in.Email, in.IDType, in.IDNumber,
	), &g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *guestRepository) GetByID(ctx context.Context, id int64) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var g domain.Guest
	err := scanGuest(r.db.QueryRow(ctx, q, id), &g)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *guestRepository) ListByName(ctx context.Context, first, middle, last string) ([]domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests
		WHERE lower(first_name) = lower($1)
		  AND lower(middle_name) = lower($2)
		  AND lower(last_name) = lower($3)
		ORDER BY id`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.Query(ctx, q, first, middle, last)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []domain.Guest
	for rows.Next() {
		var g domain.Guest
		if err := scanGuest(rows, &g); err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func (r *guestRepository) FindExact(ctx context.Context, l domain.GuestLookup) (*int64, error) {
	const q = `SELECT id FROM guests
		WHERE lower(first_name) = lower($1)
		  AND lower(middle_name) = lower($2)
		  AND lower(last_name) = lower($3)
		  AND lower(phone) = lower($4)
		  AND lower(email) = lower($5)
		ORDER BY id
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRow(ctx, q, l.FirstName, l.MiddleName, l.LastName, l.Phone, l.Email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *guestRepository) LockName(ctx context.Context, first, middle, last string) error {
	const q = `SELECT pg_advisory_xact_lock(hashtext(lower($1 || '|' || $2 || '|' || $3)))`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.Exec(ctx, q, first, middle, last)
	return err
}
