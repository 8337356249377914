package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/repository"
)

type GuestDirectory interface {
	ResolveOrCreateGuest(ctx context.Context, in domain.GuestInput) (int64, error)
	HasActiveConfirmedReservation(ctx context.Context, guestID int64) (bool, error)
	FindGuestID(ctx context.Context, lookup domain.GuestLookup) (*int64, error)
	GetGuest(ctx context.Context, id int64) (*domain.Guest, error)
}

type guestDirectory struct {
	store repository.Store
}

func NewGuestDirectory(store repository.Store) GuestDirectory {
	return &guestDirectory{store: store}
}

func (d *guestDirectory) ResolveOrCreateGuest(ctx context.Context, in domain.GuestInput) (int64, error) {
	in.Normalize()
	if err := validateStruct(in); err != nil {
		return 0, err
	}

	var id int64
	err := d.store.WithinTx(ctx, func(tx repository.Repos) error {
		var err error
		id, _, err = resolveGuest(ctx, tx.Guests, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// resolveGuest applies the dedup rule against the guests visible to the caller's
// transaction and inserts a new guest when nothing matches. in must be normalized.
func resolveGuest(ctx context.Context, guests repository.GuestRepository, in domain.GuestInput) (id int64, created bool, err error) {
	if err := guests.LockName(ctx, in.FirstName, in.MiddleName, in.LastName); err != nil {
		return 0, false, fmt.Errorf("failed to lock guest name: %w", err)
	}

	candidates, err := guests.ListByName(ctx, in.FirstName, in.MiddleName, in.LastName)
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up guest: %w", err)
	}
	for i := range candidates {
		if in.Matches(&candidates[i]) {
			return candidates[i].ID, false, nil
		}
	}

	g, err := guests.Create(ctx, in)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create guest: %w", err)
	}
	return g.ID, true, nil
}

func (d *guestDirectory) HasActiveConfirmedReservation(ctx context.Context, guestID int64) (bool, error) {
	n, err := d.store.Repos().Reservations.CountByGuestAndStatus(ctx, guestID, domain.ReservationConfirmed)
	if err != nil {
		return false, fmt.Errorf("failed to count reservations: %w", err)
	}
	return n > 0, nil
}

func (d *guestDirectory) FindGuestID(ctx context.Context, lookup domain.GuestLookup) (*int64, error) {
	lookup.Normalize()
	if err := validateStruct(lookup); err != nil {
		return nil, err
	}

	id, err := d.store.Repos().Guests.FindExact(ctx, lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to find guest: %w", err)
	}
	return id, nil
}

func (d *guestDirectory) GetGuest(ctx context.Context, id int64) (*domain.Guest, error) {
	g, err := d.store.Repos().Guests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	if g == nil {
		return nil, domain.NotFound("guest %d not found", id)
	}
	return g, nil
}
