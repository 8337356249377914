package repository

import (
	"context"
	"errors"

	"github.com/diagnosis/frontdesk/pkg/database"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/jackc/pgx/v5"
)

type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	List(ctx context.Context, status *domain.RoomStatus) ([]domain.Room, error)
	// UpdateStatusIf sets status to target only while the current status is one of from,
	// as a single statement. It reports whether the row changed.
	UpdateStatusIf(ctx context.Context, id int64, target domain.RoomStatus, from []domain.RoomStatus) (bool, error)
}

type roomRepository struct {
	db database.DBTX
}

func NewRoomRepository(db database.DBTX) RoomRepository {
	return &roomRepository{db: db}
}

const roomCols = `id, room_number, floor, room_type, price_per_night, max_occupancy, amenities, description, status, updated_at`

func scanRoom(row pgx.Row, rm *domain.Room) error {
	return row.Scan(
		&rm.ID, &rm.Number, &rm.Floor, &rm.Type, &rm.PricePerNight,
		&rm.MaxOccupancy, &rm.Amenities, &rm.Description, &rm.Status, &rm.UpdatedAt,
	)
}

func (r *roomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rm domain.Room
	err := scanRoom(r.db.QueryRow(ctx, q, id), &rm)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *roomRepository) List(ctx context.Context, status *domain.RoomStatus) ([]domain.Room, error) {
	q := `SELECT ` + roomCols + ` FROM rooms`
	var args []any
	if status != nil {
		q += ` WHERE status=$1`
		args = append(args, *status)
	}
	q += ` ORDER BY floor, room_number`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var rm domain.Room
		if err := scanRoom(rows, &rm); err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}

func (r *roomRepository) UpdateStatusIf(ctx context.Context, id int64, target domain.RoomStatus, from []domain.RoomStatus) (bool, error) {
	const q = `UPDATE rooms SET status=$2, updated_at=now() WHERE id=$1 AND status = ANY($3)`

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
