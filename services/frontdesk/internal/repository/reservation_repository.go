package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/frontdesk/pkg/database"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ReservationRepository interface {
	// Create inserts res and fills its id and timestamps. It returns false, without
	// error and without aborting the surrounding transaction, when res.Code is taken.
	Create(ctx context.Context, res *domain.Reservation) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByCode(ctx context.Context, code string) (*domain.Reservation, error)
	// TransitionStatus is a compare-and-set on the reservation status.
	TransitionStatus(ctx context.Context, id int64, target domain.ReservationStatus, from ...domain.ReservationStatus) (bool, error)
	CountByGuestAndStatus(ctx context.Context, guestID int64, status domain.ReservationStatus) (int, error)
	// ListOpenBefore returns pending/confirmed reservations whose check-in date is before date.
	ListOpenBefore(ctx context.Context, date time.Time) ([]domain.Reservation, error)
}

type reservationRepository struct {
	db database.DBTX
}

func NewReservationRepository(db database.DBTX) ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationCols = `id, code, guest_id, room_id, check_in_date, check_out_date,
guest_count, special_requests, downpayment, total_amount, status,
created_by, created_at, updated_at`

func scanReservation(row pgx.Row, res *domain.Reservation) error {
	return row.Scan(
		&res.ID, &res.Code, &res.GuestID, &res.RoomID, &res.CheckInDate, &res.CheckOutDate,
		&res.GuestCount, &res.SpecialRequests, &res.Downpayment, &res.Total, &res.Status,
		&res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
	)
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) (bool, error) {
	const q = `INSERT INTO reservations (
		code, guest_id, room_id, check_in_date, check_out_date,
		guest_count, special_requests, downpayment, total_amount, status, created_by
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	ON CONFLICT (code) DO NOTHING
	RETURNING id, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, q,
		res.Code, res.GuestID, res.RoomID, res.CheckInDate, res.CheckOutDate,
		res.GuestCount, res.SpecialRequests, res.Downpayment, res.Total, res.Status, res.CreatedBy,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id=$1`
	return r.getOne(ctx, q, id)
}

func (r *reservationRepository) GetByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE code=$1`
	return r.getOne(ctx, q, code)
}

func (r *reservationRepository) getOne(ctx context.Context, q string, arg any) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var res domain.Reservation
	err := scanReservation(r.db.QueryRow(ctx, q, arg), &res)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) TransitionStatus(ctx context.Context, id int64, target domain.ReservationStatus, from ...domain.ReservationStatus) (bool, error) {
	const q = `UPDATE reservations SET status=$2, updated_at=now() WHERE id=$1 AND status = ANY($3)`

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := r.db.Exec(ctx, q, id, target, allowed)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *reservationRepository) CountByGuestAndStatus(ctx context.Context, guestID int64, status domain.ReservationStatus) (int, error) {
	const q = `SELECT count(*) FROM reservations WHERE guest_id=$1 AND status=$2`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, q, guestID, status).Scan(&n)
	return n, err
}

func (r *reservationRepository) ListOpenBefore(ctx context.Context, date time.Time) ([]domain.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
		WHERE status IN ('pending', 'confirmed') AND check_in_date < $1
		ORDER BY check_in_date, id`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.Query(ctx, q, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
