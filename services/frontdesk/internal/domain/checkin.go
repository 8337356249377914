package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckIn is an occupancy record. ActualCheckOut == nil means the stay is active.
type CheckIn struct {
	ID                   int64            `json:"id"`
	GuestID              int64            `json:"guest_id"`
	RoomID               int64            `json:"room_id"`
	ReservationID        *int64           `json:"reservation_id,omitempty"`
	CheckedInAt          time.Time        `json:"checked_in_at"`
	ExpectedCheckOut     time.Time        `json:"expected_check_out"`
	ActualCheckOut       *time.Time       `json:"actual_check_out,omitempty"`
	GuestCount           int              `json:"guest_count"`
	Notes                string           `json:"notes"`
	Nights               *int             `json:"nights,omitempty"`
	ExtraCharges         *decimal.Decimal `json:"extra_charges,omitempty"`
	Total                *decimal.Decimal `json:"total,omitempty"`
	PaymentMethod        *string          `json:"payment_method,omitempty"`
	TransactionReference *string          `json:"transaction_reference,omitempty"`
	CreatedBy            *int64           `json:"created_by,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func (c *CheckIn) Active() bool {
	return c.ActualCheckOut == nil
}

// WalkInRequest carries either an existing guest id or the identity to resolve.
type WalkInRequest struct {
	GuestID          int64       `json:"guest_id" validate:"required_without=Guest,excluded_with=Guest"`
	Guest            *GuestInput `json:"guest" validate:"omitempty"`
	RoomID           int64       `json:"room_id" validate:"required,gt=0"`
	GuestCount       int         `json:"guest_count" validate:"required,gte=1"`
	ExpectedCheckOut time.Time   `json:"expected_check_out" validate:"required"`
	Notes            string      `json:"notes" validate:"max=4000"`
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentEWallet      PaymentMethod = "e_wallet"
)

type CheckOutRequest struct {
	ExtraCharges         decimal.Decimal `json:"extra_charges"`
	PaymentMethod        PaymentMethod   `json:"payment_method" validate:"required,oneof=cash card bank_transfer e_wallet"`
	TransactionReference string          `json:"transaction_reference" validate:"required_unless=PaymentMethod cash,max=120"`
}

type BillingSummary struct {
	CheckInID            int64           `json:"check_in_id"`
	GuestID              int64           `json:"guest_id"`
	RoomID               int64           `json:"room_id"`
	RoomNumber           string          `json:"room_number"`
	CheckedInAt          time.Time       `json:"checked_in_at"`
	CheckedOutAt         time.Time       `json:"checked_out_at"`
	Nights               int             `json:"nights"`
	RatePerNight         decimal.Decimal `json:"rate_per_night"`
	RoomCharge           decimal.Decimal `json:"room_charge"`
	ExtraCharges         decimal.Decimal `json:"extra_charges"`
	Total                decimal.Decimal `json:"total"`
	PaymentMethod        PaymentMethod   `json:"payment_method"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
}

// Closing is the single mutation that ends a stay.
type Closing struct {
	CheckedOutAt         time.Time
	Nights               int
	ExtraCharges         decimal.Decimal
	Total                decimal.Decimal
	PaymentMethod        PaymentMethod
	TransactionReference string
}
