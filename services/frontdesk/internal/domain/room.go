package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomReserved    RoomStatus = "reserved"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

func ParseRoomStatus(s string) (RoomStatus, bool) {
	switch RoomStatus(s) {
	case RoomAvailable, RoomReserved, RoomOccupied, RoomMaintenance:
		return RoomStatus(s), true
	default:
		return "", false
	}
}

type Room struct {
	ID            int64           `json:"id"`
	Number        string          `json:"room_number"`
	Floor         int             `json:"floor"`
	Type          string          `json:"room_type"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	MaxOccupancy  int             `json:"max_occupancy"`
	Amenities     string          `json:"amenities"`
	Description   string          `json:"description"`
	Status        RoomStatus      `json:"status"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (r *Room) Fits(guestCount int) bool {
	return guestCount >= 1 && guestCount <= r.MaxOccupancy
}

// roomTransitions is the room state machine. Maintenance is entered by an explicit admin action.
var roomTransitions = map[RoomStatus][]RoomStatus{
	RoomAvailable:   {RoomReserved, RoomOccupied, RoomMaintenance},
	RoomReserved:    {RoomOccupied, RoomAvailable, RoomMaintenance},
	RoomOccupied:    {RoomAvailable, RoomMaintenance},
	RoomMaintenance: {RoomAvailable},
}

func CanTransition(from, to RoomStatus) bool {
	for _, s := range roomTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
