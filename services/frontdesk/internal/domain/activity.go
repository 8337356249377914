package domain

import "time"

type ActivityType string

const (
	ActivityLogin                ActivityType = "Login"
	ActivityLogout               ActivityType = "Logout"
	ActivityCheckIn              ActivityType = "CheckIn"
	ActivityCheckOut             ActivityType = "CheckOut"
	ActivityReservationCreated   ActivityType = "ReservationCreated"
	ActivityReservationConfirmed ActivityType = "ReservationConfirmed"
	ActivityReservationCancelled ActivityType = "ReservationCancelled"
	ActivityReservationExpired   ActivityType = "ReservationExpired"
	ActivityNotesUpdated         ActivityType = "NotesUpdated"
	ActivityRoomMaintenance      ActivityType = "RoomMaintenance"
	ActivityEmailSent            ActivityType = "EmailSent"
	ActivityEmailFailed          ActivityType = "EmailFailed"
)

type ActivityLogEntry struct {
	ID              int64        `json:"id"`
	EmployeeID      *int64       `json:"employee_id,omitempty"`
	Type            ActivityType `json:"activity_type"`
	Description     string       `json:"description"`
	RelatedEntityID *int64       `json:"related_entity_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
