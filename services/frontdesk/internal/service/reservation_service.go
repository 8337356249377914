package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/frontdesk/pkg/auth"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/mailer"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/repository"
)

type ReservationService interface {
	CreateReservation(ctx context.Context, actor auth.Actor, req domain.CreateReservationRequest) (*domain.Reservation, error)
	ConfirmReservation(ctx context.Context, actor auth.Actor, id int64) (*domain.Reservation, error)
	VerifyReservationCode(ctx context.Context, code string) (*domain.ReservationDetails, error)
	CancelReservation(ctx context.Context, actor auth.Actor, id int64) error
	ExpireReservations(ctx context.Context, actor auth.Actor, asOf time.Time) (int, error)
	GetReservation(ctx context.Context, id int64) (*domain.Reservation, error)
}

type reservationService struct {
	store  repository.Store
	ledger *RoomLedger
	audit  AuditTrail
	events events.Publisher
	mailer mailer.Service
	hotel  config.HotelConfig
	loc    *time.Location

	now     func() time.Time
	newCode func() (string, error)
}

func NewReservationService(
	store repository.Store,
	ledger *RoomLedger,
	audit AuditTrail,
	publisher events.Publisher,
	mail mailer.Service,
	hotel config.HotelConfig,
) ReservationService {
	if hotel.ReservationCodeAttempts < 1 {
		hotel.ReservationCodeAttempts = 8
	}
	return &reservationService{
		store:   store,
		ledger:  ledger,
		audit:   audit,
		events:  publisher,
		mailer:  mail,
		hotel:   hotel,
		loc:     hotel.Location(),
		now:     time.Now,
		newCode: GenerateReservationCode,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, actor auth.Actor, req domain.CreateReservationRequest) (*domain.Reservation, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	checkIn := domain.DateOf(req.CheckIn, s.loc)
	checkOut := domain.DateOf(req.CheckOut, s.loc)
	if !checkOut.After(checkIn) {
		return nil, domain.Validation("check_out must be after check_in")
	}
	if checkIn.Before(domain.DateOf(s.now(), s.loc)) {
		return nil, domain.Validation("check_in cannot be in the past")
	}
	if req.Downpayment.IsNegative() {
		return nil, domain.Validation("downpayment cannot be negative")
	}

	var (
		res   *domain.Reservation
		guest *domain.Guest
		room  *domain.Room
	)
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		var err error
		guest, err = tx.Guests.GetByID(ctx, req.GuestID)
		if err != nil {
			return fmt.Errorf("failed to get guest: %w", err)
		}
		if guest == nil {
			return domain.NotFound("guest %d not found", req.GuestID)
		}

		room, err = tx.Rooms.GetByID(ctx, req.RoomID)
		if err != nil {
			return fmt.Errorf("failed to get room: %w", err)
		}
		if room == nil {
			return domain.NotFound("room %d not found", req.RoomID)
		}
		if !room.Fits(req.GuestCount) {
			return domain.Validation("room %s holds at most %d guests", room.Number, room.MaxOccupancy)
		}

		nights := domain.NightsBetween(checkIn, checkOut, time.UTC)
		total := domain.StayCharge(nights, room.PricePerNight)
		if req.Downpayment.GreaterThan(total) {
			return domain.Validation("downpayment %s exceeds the reservation total %s", req.Downpayment.StringFixed(2), total.StringFixed(2))
		}

		if err := s.ledger.allocate(ctx, tx.Rooms, room, domain.RoomReserved, domain.RoomAvailable); err != nil {
			return err
		}

		status := domain.ReservationPending
		if req.Downpayment.IsPositive() {
			status = domain.ReservationConfirmed
		}
		res = &domain.Reservation{
			GuestID:         guest.ID,
			RoomID:          room.ID,
			CheckInDate:     checkIn,
			CheckOutDate:    checkOut,
			GuestCount:      req.GuestCount,
			SpecialRequests: req.SpecialRequests,
			Downpayment:     req.Downpayment.Round(2),
			Total:           total,
			Status:          status,
			CreatedBy:       actorRef(actor),
		}
		return s.insertWithFreshCode(ctx, tx.Reservations, res)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Reservation created",
		"reservation_id", res.ID,
		"code", res.Code,
		"room_id", res.RoomID,
		"status", res.Status,
	)
	s.audit.Record(ctx, actor.EmployeeID, domain.ActivityReservationCreated,
		fmt.Sprintf("Reservation %s for %s in room %s", res.Code, guest.FullName(), room.Number), ref(res.ID))
	s.publish(ctx, events.ReservationCreated, res, actor)
	s.sendConfirmation(ctx, actor, res, guest, room)

	return res, nil
}

// insertWithFreshCode retries code generation on collision. A taken code does not
// abort the transaction, so the retry stays inside it.
func (s *reservationService) insertWithFreshCode(ctx context.Context, reservations repository.ReservationRepository, res *domain.Reservation) error {
	for attempt := 1; attempt <= s.hotel.ReservationCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		res.Code = code

		ok, err := reservations.Create(ctx, res)
		if err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		if ok {
			return nil
		}
		logger.WarnContext(ctx, "Reservation code collision", "code", code, "attempt", attempt)
	}
	return domain.Conflict("could not allocate a unique reservation code, please retry")
}

func (s *reservationService) sendConfirmation(ctx context.Context, actor auth.Actor, res *domain.Reservation, guest *domain.Guest, room *domain.Room) {
	if guest.Email == "" {
		return
	}

	msg := mailer.ReservationConfirmation{
		HotelName:   s.hotel.Name,
		ToEmail:     guest.Email,
		ToName:      guest.FullName(),
		Code:        res.Code,
		RoomNumber:  room.Number,
		RoomType:    room.Type,
		CheckIn:     res.CheckInDate,
		CheckOut:    res.CheckOutDate,
		Nights:      domain.NightsBetween(res.CheckInDate, res.CheckOutDate, time.UTC),
		GuestCount:  res.GuestCount,
		Total:       res.Total,
		Downpayment: res.Downpayment,
	}
	if err := s.mailer.SendReservationConfirmation(ctx, msg); err != nil {
		logger.WarnContext(ctx, "Failed to send reservation confirmation", "error", err, "reservation_id", res.ID)
		s.audit.Record(ctx, actor.EmployeeID, domain.ActivityEmailFailed,
			fmt.Sprintf("Confirmation for %s to %s failed: %v", res.Code, guest.Email, err), ref(res.ID))
		return
	}
	s.audit.Record(ctx, actor.EmployeeID, domain.ActivityEmailSent,
		fmt.Sprintf("Confirmation for %s sent to %s", res.Code, guest.Email), ref(res.ID))
}

func (s *reservationService) ConfirmReservation(ctx context.Context, actor auth.Actor, id int64) (*domain.Reservation, error) {
	repos := s.store.Repos()
	ok, err := repos.Reservations.TransitionStatus(ctx, id, domain.ReservationConfirmed, domain.ReservationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm reservation: %w", err)
	}

	res, err := s.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.InvalidState("reservation %s is %s; only pending reservations can be confirmed", res.Code, res.Status)
	}

	s.audit.Record(ctx, actor.EmployeeID, domain.ActivityReservationConfirmed,
		fmt.Sprintf("Reservation %s confirmed", res.Code), ref(res.ID))
	s.publish(ctx, events.ReservationConfirmed, res, actor)
	return res, nil
}

func (s *reservationService) VerifyReservationCode(ctx context.Context, code string) (*domain.ReservationDetails, error) {
	code = NormalizeReservationCode(code)
	if code == "" {
		return nil, domain.Validation("code is required")
	}

	repos := s.store.Repos()
	res, err := repos.Reservations.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return nil, domain.NotFound("no reservation matches code %s", code)
	}

	guest, err := repos.Guests.GetByID(ctx, res.GuestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	room, err := repos.Rooms.GetByID(ctx, res.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if guest == nil || room == nil {
		return nil, fmt.Errorf("reservation %d references a missing guest or room", res.ID)
	}

	return &domain.ReservationDetails{
		ReservationID: res.ID,
		Code:          res.Code,
		GuestID:       guest.ID,
		GuestName:     guest.FullName(),
		RoomID:        room.ID,
		RoomNumber:    room.Number,
		RoomType:      room.Type,
		CheckInDate:   res.CheckInDate,
		CheckOutDate:  res.CheckOutDate,
		Nights:        domain.NightsBetween(res.CheckInDate, res.CheckOutDate, time.UTC),
		GuestCount:    res.GuestCount,
		Total:         res.Total,
		Downpayment:   res.Downpayment,
		Balance:       res.Total.Sub(res.Downpayment),
		Status:        res.Status,
	}, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, actor auth.Actor, id int64) error {
	var res *domain.Reservation
	err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
		var err error
		res, err = s.closeOpen(ctx, tx, id, domain.ReservationCancelled)
		return err
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actor.EmployeeID, domain.ActivityReservationCancelled,
		fmt.Sprintf("Reservation %s cancelled", res.Code), ref(res.ID))
	s.publish(ctx, events.ReservationCancelled, res, actor)
	return nil
}

// closeOpen moves an open reservation to target and gives its room back.
// A room that is no longer reserved (e.g. sent to maintenance) is left alone.
func (s *reservationService) closeOpen(ctx context.Context, tx repository.Repos, id int64, target domain.ReservationStatus) (*domain.Reservation, error) {
	res, err := tx.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return nil, domain.NotFound("reservation %d not found", id)
	}

	ok, err := tx.Reservations.TransitionStatus(ctx, id, target, domain.ReservationPending, domain.ReservationConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}
	if !ok {
		current, err := tx.Reservations.GetByID(ctx, id)
		if err == nil && current != nil {
			res = current
		}
		return nil, domain.InvalidState("reservation %s is %s and can no longer be %s", res.Code, res.Status, target)
	}
	res.Status = target

	released, err := s.ledger.TryAllocate(ctx, tx.Rooms, res.RoomID, domain.RoomAvailable, domain.RoomReserved)
	if err != nil {
		return nil, err
	}
	if !released {
		logger.WarnContext(ctx, "Room was not reserved when its reservation closed",
			"reservation_id", res.ID, "room_id", res.RoomID, "status", target)
	}
	return res, nil
}

func (s *reservationService) ExpireReservations(ctx context.Context, actor auth.Actor, asOf time.Time) (int, error) {
	if !actor.IsAdmin() {
		return 0, domain.Forbidden("only administrators can expire reservations")
	}
	if asOf.IsZero() {
		asOf = s.now()
	}

	stale, err := s.store.Repos().Reservations.ListOpenBefore(ctx, domain.DateOf(asOf, s.loc))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale reservations: %w", err)
	}

	var (
		expired int
		errs    []error
	)
	for _, candidate := range stale {
		var res *domain.Reservation
		err := s.store.WithinTx(ctx, func(tx repository.Repos) error {
			var err error
			res, err = s.closeOpen(ctx, tx, candidate.ID, domain.ReservationExpired)
			return err
		})
		if errors.Is(err, domain.ErrInvalidState) {
			// Checked in or cancelled since the listing.
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("reservation %d: %w", candidate.ID, err))
			continue
		}

		expired++
		s.audit.Record(ctx, actor.EmployeeID, domain.ActivityReservationExpired,
			fmt.Sprintf("Reservation %s expired (check-in was %s)", res.Code, res.CheckInDate.Format(time.DateOnly)), ref(res.ID))
		s.publish(ctx, events.ReservationExpired, res, actor)
	}

	logger.InfoContext(ctx, "Reservations expired", "count", expired, "candidates", len(stale))
	return expired, errors.Join(errs...)
}

func (s *reservationService) GetReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := s.store.Repos().Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return nil, domain.NotFound("reservation %d not found", id)
	}
	return res, nil
}

func (s *reservationService) publish(ctx context.Context, subject string, res *domain.Reservation, actor auth.Actor) {
	evt := events.ReservationEvent{
		ReservationID: res.ID,
		Code:          res.Code,
		GuestID:       res.GuestID,
		RoomID:        res.RoomID,
		CheckIn:       res.CheckInDate,
		CheckOut:      res.CheckOutDate,
		Total:         res.Total,
		Status:        string(res.Status),
		EmployeeID:    actor.EmployeeID,
		OccurredAt:    s.now(),
	}
	if err := s.events.Publish(ctx, subject, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}

func actorRef(actor auth.Actor) *int64 {
	if actor.EmployeeID <= 0 {
		return nil
	}
	return ref(actor.EmployeeID)
}
