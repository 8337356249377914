package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCheckedIn ReservationStatus = "checked_in"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

// Open reports whether the reservation still holds its room.
func (s ReservationStatus) Open() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

type Reservation struct {
	ID              int64             `json:"id"`
	Code            string            `json:"code"`
	GuestID         int64             `json:"guest_id"`
	RoomID          int64             `json:"room_id"`
	CheckInDate     time.Time         `json:"check_in_date"`
	CheckOutDate    time.Time         `json:"check_out_date"`
	GuestCount      int               `json:"guest_count"`
	SpecialRequests string            `json:"special_requests"`
	Downpayment     decimal.Decimal   `json:"downpayment"`
	Total           decimal.Decimal   `json:"total"`
	Status          ReservationStatus `json:"status"`
	CreatedBy       *int64            `json:"created_by,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type CreateReservationRequest struct {
	GuestID         int64           `json:"guest_id" validate:"required,gt=0"`
	RoomID          int64           `json:"room_id" validate:"required,gt=0"`
	CheckIn         time.Time       `json:"check_in" validate:"required"`
	CheckOut        time.Time       `json:"check_out" validate:"required"`
	GuestCount      int             `json:"guest_count" validate:"required,gte=1"`
	SpecialRequests string          `json:"special_requests" validate:"max=2000"`
	Downpayment     decimal.Decimal `json:"downpayment"`
}

// ReservationDetails is what the desk sees when a guest presents a reservation code.
type ReservationDetails struct {
	ReservationID int64             `json:"reservation_id"`
	Code          string            `json:"code"`
	GuestID       int64             `json:"guest_id"`
	GuestName     string            `json:"guest_name"`
	RoomID        int64             `json:"room_id"`
	RoomNumber    string            `json:"room_number"`
	RoomType      string            `json:"room_type"`
	CheckInDate   time.Time         `json:"check_in_date"`
	CheckOutDate  time.Time         `json:"check_out_date"`
	Nights        int               `json:"nights"`
	GuestCount    int               `json:"guest_count"`
	Total         decimal.Decimal   `json:"total"`
	Downpayment   decimal.Decimal   `json:"downpayment"`
	Balance       decimal.Decimal   `json:"balance"`
	Status        ReservationStatus `json:"status"`
}
