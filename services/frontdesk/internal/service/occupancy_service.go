package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/frontdesk/pkg/auth"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/database"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/repository"
)

const maxNotesLength = 4000

type OccupancyService interface {
	CheckInWalkIn(ctx context.Context, actor auth.Actor, req domain.WalkInRequest) (*domain.CheckIn, error)
	// CheckInFromReservation uses the reservation's guest count when guestCount is 0.
	CheckInFromReservation(ctx context.Context, actor auth.Actor, reservationID int64, guestCount int, notes string) (*domain.CheckIn, error)
	CheckInByCode(ctx context.Context, actor auth.Actor, code string, guestCount int, notes string) (*domain.CheckIn, error)
	CheckOut(ctx context.Context, actor auth.Actor, checkInID int64, req domain.CheckOutRequest) (*domain.BillingSummary, error)
	UpdateNotes(ctx context.Context, actor auth.Actor, checkInID int64, notes string) error
	GetCheckIn(ctx context.Context, id int64) (*domain.CheckIn, error)
	ListActiveCheckIns(ctx context.Context) ([]domain.CheckIn, error)
}

type occupancyService struct {
	store  repository.Store
	ledger *RoomLedger
	audit  AuditTrail
	events events.Publisher
	loc    *time.Location

	now func() time.Time
}

func NewOccupancyService(
	store repository.Store,
	ledger *RoomLedger,
	audit AuditTrail,
	publisher events.Publisher,
	hotel config.HotelConfig,
) OccupancyService {
	return &occupancyService{
		store:  store,
		ledger: ledger,
		audit:  audit,
		events: publisher,
		loc:    hotel.Location(),
		now:    time.Now,
	}
}

func (s *occupancyService) CheckInWalkIn(ctx context.Context, actor auth.Actor, req domain.WalkInRequest) (*domain.CheckIn, error) {
	if req.Guest != nil {
		req.Guest.Normalize()
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()
	expected := domain.DateOf(req.ExpectedCheckOut, s.loc)
	if expected.Before(domain.DateOf(now, s.loc)) {
		return nil, domain.Validation("expected_check_out cannot be before today")
	}

	var (
		ci   *domain.CheckIn
		room *domain.Room
	)
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		var err error
		room, err = s.loadRoom(ctx, tx, req.RoomID)
		if err != nil {
			return err
		}
		if !room.Fits(req.GuestCount) {
			return domain.Validation("room %s holds at most %d guests", room.Number, room.MaxOccupancy)
		}

		guestID := req.GuestID
		if req.Guest != nil {
			guestID, _, err = resolveGuest(ctx, tx.Guests, *req.Guest)
			if err != nil {
				return err
			}
		} else {
			g, err := tx.Guests.GetByID(ctx, guestID)
			if err != nil {
				return fmt.Errorf("failed to get guest: %w", err)
			}
			if g == nil {
				return domain.NotFound("guest %d not found", guestID)
			}
		}

		if err := s.ledger.allocate(ctx, tx.Rooms, room, domain.RoomOccupied, domain.RoomAvailable); err != nil {
			return err
		}

		ci = &domain.CheckIn{
			GuestID:          guestID,
			RoomID:           room.ID,
			CheckedInAt:      now,
			ExpectedCheckOut: expected,
			GuestCount:       req.GuestCount,
			Notes:            strings.TrimSpace(req.Notes),
			CreatedBy:        actorRef(actor),
		}
		return s.createCheckIn(ctx, tx, ci, room)
	})
	if err != nil {
		return nil, err
	}

	s.afterCheckIn(ctx, actor, ci, fmt.Sprintf("Walk-in check-in to room %s", room.Number))
	return ci, nil
}

func (s *occupancyService) CheckInFromReservation(ctx context.Context, actor auth.Actor, reservationID int64, guestCount int, notes string) (*domain.CheckIn, error) {
	if guestCount < 0 {
		return nil, domain.Validation("guest_count cannot be negative")
	}
	if len(notes) > maxNotesLength {
		return nil, domain.Validation("notes must be at most %d characters", maxNotesLength)
	}

	var (
		ci   *domain.CheckIn
		res  *domain.Reservation
		room *domain.Room
	)
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		var err error
		res, err = tx.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return fmt.Errorf("failed to get reservation: %w", err)
		}
		if res == nil {
			return domain.NotFound("reservation %d not found", reservationID)
		}
		if res.Status != domain.ReservationConfirmed {
			return domain.InvalidState("reservation %s is %s; only confirmed reservations can be checked in", res.Code, res.Status)
		}

		room, err = s.loadRoom(ctx, tx, res.RoomID)
		if err != nil {
			return err
		}
		count := guestCount
		if count == 0 {
			count = res.GuestCount
		}
		if !room.Fits(count) {
			return domain.Validation("room %s holds at most %d guests", room.Number, room.MaxOccupancy)
		}

		ok, err := tx.Reservations.TransitionStatus(ctx, res.ID, domain.ReservationCheckedIn, domain.ReservationConfirmed)
		if err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		if !ok {
			return domain.InvalidState("reservation %s was just changed by another front-desk user", res.Code)
		}

		if err := s.ledger.allocate(ctx, tx.Rooms, room, domain.RoomOccupied, domain.RoomReserved); err != nil {
			return err
		}

		ci = &domain.CheckIn{
			GuestID:          res.GuestID,
			RoomID:           room.ID,
			ReservationID:    ref(res.ID),
			CheckedInAt:      s.now(),
			ExpectedCheckOut: res.CheckOutDate,
			GuestCount:       count,
			Notes:            strings.TrimSpace(notes),
			CreatedBy:        actorRef(actor),
		}
		return s.createCheckIn(ctx, tx, ci, room)
	})
	if err != nil {
		return nil, err
	}

	s.afterCheckIn(ctx, actor, ci, fmt.Sprintf("Reservation %s checked in to room %s", res.Code, room.Number))
	return ci, nil
}

func (s *occupancyService) CheckInByCode(ctx context.Context, actor auth.Actor, code string, guestCount int, notes string) (*domain.CheckIn, error) {
	code = NormalizeReservationCode(code)
	if code == "" {
		return nil, domain.Validation("code is required")
	}

	res, err := s.store.Repos().Reservations.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return nil, domain.NotFound("no reservation matches code %s", code)
	}
	return s.CheckInFromReservation(ctx, actor, res.ID, guestCount, notes)
}

func (s *occupancyService) CheckOut(ctx context.Context, actor auth.Actor, checkInID int64, req domain.CheckOutRequest) (*domain.BillingSummary, error) {
	req.TransactionReference = strings.TrimSpace(req.TransactionReference)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.ExtraCharges.IsNegative() {
		return nil, domain.Validation("extra_charges cannot be negative")
	}

	var summary *domain.BillingSummary
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		ci, err := tx.CheckIns.GetByID(ctx, checkInID)
		if err != nil {
			return fmt.Errorf("failed to get check-in: %w", err)
		}
		if ci == nil {
			return domain.NotFound("check-in %d not found", checkInID)
		}
		if !ci.Active() {
			return domain.InvalidState("check-in %d was already checked out", checkInID)
		}

		room, err := s.loadRoom(ctx, tx, ci.RoomID)
		if err != nil {
			return err
		}

		checkedOutAt := s.now()
		nights, roomCharge, total := domain.Bill(ci.CheckedInAt, checkedOutAt, room.PricePerNight, req.ExtraCharges, s.loc)

		closed, err := tx.CheckIns.Close(ctx, ci.ID, domain.Closing{
			CheckedOutAt:         checkedOutAt,
			Nights:               nights,
			ExtraCharges:         req.ExtraCharges.Round(2),
			Total:                total,
			PaymentMethod:        req.PaymentMethod,
			TransactionReference: req.TransactionReference,
		})
		if err != nil {
			return fmt.Errorf("failed to close check-in: %w", err)
		}
		if !closed {
			return domain.InvalidState("check-in %d was already checked out", checkInID)
		}

		released, err := s.ledger.TryAllocate(ctx, tx.Rooms, room.ID, domain.RoomAvailable, domain.RoomOccupied)
		if err != nil {
			return err
		}
		if !released {
			return domain.Conflict("room %s is no longer marked occupied; checkout was not recorded", room.Number)
		}

		summary = &domain.BillingSummary{
			CheckInID:            ci.ID,
			GuestID:              ci.GuestID,
			RoomID:               room.ID,
			RoomNumber:           room.Number,
			CheckedInAt:          ci.CheckedInAt,
			CheckedOutAt:         checkedOutAt,
			Nights:               nights,
			RatePerNight:         room.PricePerNight,
			RoomCharge:           roomCharge,
			ExtraCharges:         req.ExtraCharges.Round(2),
			Total:                total,
			PaymentMethod:        req.PaymentMethod,
			TransactionReference: req.TransactionReference,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Guest checked out",
		"check_in_id", summary.CheckInID,
		"room_id", summary.RoomID,
		"nights", summary.Nights,
		"total", summary.Total.StringFixed(2),
	)
	s.audit.Record(ctx, actor.EmployeeID, domain.ActivityCheckOut,
		fmt.Sprintf("Room %s checked out: %d night(s), total %s via %s",
			summary.RoomNumber, summary.Nights, summary.Total.StringFixed(2), summary.PaymentMethod),
		ref(summary.CheckInID))

	evt := events.CheckInClosedEvent{
		CheckInID:    summary.CheckInID,
		GuestID:      summary.GuestID,
		RoomID:       summary.RoomID,
		Nights:       summary.Nights,
		Total:        summary.Total,
		EmployeeID:   actor.EmployeeID,
		CheckedOutAt: summary.CheckedOutAt,
	}
	if err := s.events.Publish(ctx, events.CheckInClosed, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "error", err, "subject", events.CheckInClosed)
	}
	return summary, nil
}

func (s *occupancyService) UpdateNotes(ctx context.Context, actor auth.Actor, checkInID int64, notes string) error {
	notes = strings.TrimSpace(notes)
	if len(notes) > maxNotesLength {
		return domain.Validation("notes must be at most %d characters", maxNotesLength)
	}

	ok, err := s.store.Repos().CheckIns.UpdateNotes(ctx, checkInID, notes)
	if err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}
	if !ok {
		return domain.NotFound("check-in %d not found", checkInID)
	}

	s.audit.Record(ctx, actor.EmployeeID, domain.ActivityNotesUpdated,
		fmt.Sprintf("Notes updated on check-in %d", checkInID), ref(checkInID))
	return nil
}

func (s *occupancyService) GetCheckIn(ctx context.Context, id int64) (*domain.CheckIn, error) {
	ci, err := s.store.Repos().CheckIns.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}
	if ci == nil {
		return nil, domain.NotFound("check-in %d not found", id)
	}
	return ci, nil
}

func (s *occupancyService) ListActiveCheckIns(ctx context.Context) ([]domain.CheckIn, error) {
	list, err := s.store.Repos().CheckIns.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active check-ins: %w", err)
	}
	return list, nil
}

func (s *occupancyService) loadRoom(ctx context.Context, tx repository.Repos, id int64) (*domain.Room, error) {
	room, err := tx.Rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, domain.NotFound("room %d not found", id)
	}
	return room, nil
}

// createCheckIn inserts ci. The one-active-stay-per-room index backs up the room CAS.
func (s *occupancyService) createCheckIn(ctx context.Context, tx repository.Repos, ci *domain.CheckIn, room *domain.Room) error {
	if err := tx.CheckIns.Create(ctx, ci); err != nil {
		if database.IsUniqueViolation(err) {
			return domain.RoomUnavailable(room.Number)
		}
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

func (s *occupancyService) afterCheckIn(ctx context.Context, actor auth.Actor, ci *domain.CheckIn, description string) {
	logger.InfoContext(ctx, "Guest checked in",
		"check_in_id", ci.ID,
		"room_id", ci.RoomID,
		"guest_id", ci.GuestID,
	)
	s.audit.Record(ctx, actor.EmployeeID, domain.ActivityCheckIn, description, ref(ci.ID))

	evt := events.CheckInOpenedEvent{
		CheckInID:     ci.ID,
		GuestID:       ci.GuestID,
		RoomID:        ci.RoomID,
		ReservationID: ci.ReservationID,
		GuestCount:    ci.GuestCount,
		EmployeeID:    actor.EmployeeID,
		CheckedInAt:   ci.CheckedInAt,
	}
	if err := s.events.Publish(ctx, events.CheckInOpened, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "error", err, "subject", events.CheckInOpened)
	}
}
