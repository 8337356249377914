package mailer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	SendReservationConfirmation(ctx context.Context, msg ReservationConfirmation) error
}

// ReservationConfirmation is everything the confirmation email renders.
type ReservationConfirmation struct {
	HotelName   string
	ToEmail     string
	ToName      string
	Code        string
	RoomNumber  string
	RoomType    string
	CheckIn     time.Time
	CheckOut    time.Time
	Nights      int
	GuestCount  int
	Total       decimal.Decimal
	Downpayment decimal.Decimal
}

func (m ReservationConfirmation) Subject() string {
	return "Your reservation " + m.Code + " at " + m.HotelName
}
