package repository

import (
	"context"
	"errors"

	"github.com/diagnosis/frontdesk/pkg/database"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CheckInRepository interface {
	Create(ctx context.Context, c *domain.CheckIn) error
	GetByID(ctx context.Context, id int64) (*domain.CheckIn, error)
	ListActive(ctx context.Context) ([]domain.CheckIn, error)
	// Close writes the billing fields only while the check-in is still open.
	Close(ctx context.Context, id int64, closing domain.Closing) (bool, error)
	UpdateNotes(ctx context.Context, id int64, notes string) (bool, error)
}

type checkInRepository struct {
	db database.DBTX
}

func NewCheckInRepository(db database.DBTX) CheckInRepository {
	return &checkInRepository{db: db}
}

const checkInCols = `id, guest_id, room_id, reservation_id, checked_in_at, expected_check_out,
actual_check_out, guest_count, notes, nights, extra_charges, total_amount,
payment_method, transaction_reference, created_by, created_at, updated_at`

func scanCheckIn(row pgx.Row, c *domain.CheckIn) error {
	var extras, total decimal.NullDecimal
	err := row.Scan(
		&c.ID, &c.GuestID, &c.RoomID, &c.ReservationID, &c.CheckedInAt, &c.ExpectedCheckOut,
		&c.ActualCheckOut, &c.GuestCount, &c.Notes, &c.Nights, &extras, &total,
		&c.PaymentMethod, &c.TransactionReference, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if extras.Valid {
		c.ExtraCharges = &extras.Decimal
	}
	if total.Valid {
		c.Total = &total.Decimal
	}
	return nil
}

func (r *checkInRepository) Create(ctx context.Context, c *domain.CheckIn) error {
	const q = `INSERT INTO check_ins (
		guest_id, room_id, reservation_id, checked_in_at, expected_check_out,
		guest_count, notes, created_by
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	RETURNING id, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.db.QueryRow(ctx, q,
		c.GuestID, c.RoomID, c.ReservationID, c.CheckedInAt, c.ExpectedCheckOut,
		c.GuestCount, c.Notes, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *checkInRepository) GetByID(ctx context.Context, id int64) (*domain.CheckIn, error) {
	const q = `SELECT ` + checkInCols + ` FROM check_ins WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var c domain.CheckIn
	err := scanCheckIn(r.db.QueryRow(ctx, q, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *checkInRepository) ListActive(ctx context.Context) ([]domain.CheckIn, error) {
	const q = `SELECT ` + checkInCols + ` FROM check_ins
		WHERE actual_check_out IS NULL
		ORDER BY checked_in_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CheckIn
	for rows.Next() {
		var c domain.CheckIn
		if err := scanCheckIn(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *checkInRepository) Close(ctx context.Context, id int64, closing domain.Closing) (bool, error) {
	const q = `UPDATE check_ins SET
			actual_check_out      = $2,
			nights                = $3,
			extra_charges         = $4,
			total_amount          = $5,
			payment_method        = $6,
			transaction_reference = NULLIF($7, ''),
			updated_at            = now()
		WHERE id=$1 AND actual_check_out IS NULL`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := r.db.Exec(ctx, q, id,
		closing.CheckedOutAt, closing.Nights, closing.ExtraCharges, closing.Total,
		closing.PaymentMethod, closing.TransactionReference,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *checkInRepository) UpdateNotes(ctx context.Context, id int64, notes string) (bool, error) {
	const q = `UPDATE check_ins SET notes=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := r.db.Exec(ctx, q, id, notes)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
