package repository

import (
	"context"
	"time"

	"github.com/diagnosis/frontdesk/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 3 * time.Second

// Repos groups the repositories that take part in one unit of work.
type Repos struct {
	Guests       GuestRepository
	Rooms        RoomRepository
	Reservations ReservationRepository
	CheckIns     CheckInRepository
}

// Store hands out repositories bound either to the pool or to a single transaction.
type Store interface {
	Repos() Repos
	WithinTx(ctx context.Context, fn func(tx Repos) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Repos() Repos {
	return newRepos(s.pool)
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(tx Repos) error) error {
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(newRepos(tx))
	})
}

func newRepos(db database.DBTX) Repos {
	return Repos{
		Guests:       NewGuestRepository(db),
		Rooms:        NewRoomRepository(db),
		Reservations: NewReservationRepository(db),
		CheckIns:     NewCheckInRepository(db),
	}
}
