package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url, nats.Name("frontdesk"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// NopPublisher logs events instead of sending them; used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, subject string, _ interface{}) error {
	logger.DebugContext(ctx, "Event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NopPublisher) Close() error { return nil }

// Event subjects
const (
	ReservationCreated   = "reservation.created"
	ReservationConfirmed = "reservation.confirmed"
	ReservationCancelled = "reservation.cancelled"
	ReservationExpired   = "reservation.expired"

	CheckInOpened = "checkin.opened"
	CheckInClosed = "checkin.closed"
)

// Event payloads
type ReservationEvent struct {
	ReservationID int64           `json:"reservation_id"`
	Code          string          `json:"code"`
	GuestID       int64           `json:"guest_id"`
	RoomID        int64           `json:"room_id"`
	CheckIn       time.Time       `json:"check_in"`
	CheckOut      time.Time       `json:"check_out"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	EmployeeID    int64           `json:"employee_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type CheckInOpenedEvent struct {
	CheckInID     int64     `json:"check_in_id"`
	GuestID       int64     `json:"guest_id"`
	RoomID        int64     `json:"room_id"`
	ReservationID *int64    `json:"reservation_id,omitempty"`
	GuestCount    int       `json:"guest_count"`
	EmployeeID    int64     `json:"employee_id"`
	CheckedInAt   time.Time `json:"checked_in_at"`
}

type CheckInClosedEvent struct {
	CheckInID    int64           `json:"check_in_id"`
	GuestID      int64           `json:"guest_id"`
	RoomID       int64           `json:"room_id"`
	Nights       int             `json:"nights"`
	Total        decimal.Decimal `json:"total"`
	EmployeeID   int64           `json:"employee_id"`
	CheckedOutAt time.Time       `json:"checked_out_at"`
}
