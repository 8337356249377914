package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/frontdesk/pkg/auth"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/repository"
)

// RoomService is the presentation-facing side of the room ledger.
type RoomService interface {
	GetRoom(ctx context.Context, id int64) (*domain.Room, error)
	ListRooms(ctx context.Context, status *domain.RoomStatus) ([]domain.Room, error)
	SetMaintenance(ctx context.Context, actor auth.Actor, roomID int64) (*domain.Room, error)
	ReturnToService(ctx context.Context, actor auth.Actor, roomID int64) (*domain.Room, error)
}

// RoomLedger is the only writer of rooms.status. Every change is a compare-and-set.
type RoomLedger struct {
	store repository.Store
	audit AuditTrail
}

func NewRoomLedger(store repository.Store, audit AuditTrail) *RoomLedger {
	return &RoomLedger{store: store, audit: audit}
}

// TryAllocate moves the room to target if, and only if, its current status is one of from.
// A false result means another action got there first.
func (l *RoomLedger) TryAllocate(ctx context.Context, rooms repository.RoomRepository, roomID int64, target domain.RoomStatus, from ...domain.RoomStatus) (bool, error) {
	allowed := make([]domain.RoomStatus, 0, len(from))
	for _, s := range from {
		if domain.CanTransition(s, target) {
			allowed = append(allowed, s)
		}
	}
	if len(allowed) == 0 {
		return false, fmt.Errorf("no legal transition to %s from %v", target, from)
	}

	ok, err := rooms.UpdateStatusIf(ctx, roomID, target, allowed)
	if err != nil {
		return false, fmt.Errorf("failed to update room %d status: %w", roomID, err)
	}
	if !ok {
		logger.InfoContext(ctx, "Room allocation lost", "room_id", roomID, "target", target, "from", allowed)
	}
	return ok, nil
}

// allocate is TryAllocate with the lost race reported as RoomUnavailable.
func (l *RoomLedger) allocate(ctx context.Context, rooms repository.RoomRepository, room *domain.Room, target domain.RoomStatus, from ...domain.RoomStatus) error {
	ok, err := l.TryAllocate(ctx, rooms, room.ID, target, from...)
	if err != nil {
		return err
	}
	if !ok {
		return domain.RoomUnavailable(room.Number)
	}
	room.Status = target
	return nil
}

func (l *RoomLedger) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	room, err := l.store.Repos().Rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, domain.NotFound("room %d not found", id)
	}
	return room, nil
}

func (l *RoomLedger) ListRooms(ctx context.Context, status *domain.RoomStatus) ([]domain.Room, error) {
	rooms, err := l.store.Repos().Rooms.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (l *RoomLedger) SetMaintenance(ctx context.Context, actor auth.Actor, roomID int64) (*domain.Room, error) {
	return l.adminTransition(ctx, actor, roomID, domain.RoomMaintenance,
		[]domain.RoomStatus{domain.RoomAvailable, domain.RoomReserved, domain.RoomOccupied})
}

func (l *RoomLedger) ReturnToService(ctx context.Context, actor auth.Actor, roomID int64) (*domain.Room, error) {
	return l.adminTransition(ctx, actor, roomID, domain.RoomAvailable,
		[]domain.RoomStatus{domain.RoomMaintenance})
}

func (l *RoomLedger) adminTransition(ctx context.Context, actor auth.Actor, roomID int64, target domain.RoomStatus, from []domain.RoomStatus) (*domain.Room, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbidden("only administrators can change room maintenance status")
	}

	room, err := l.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	ok, err := l.TryAllocate(ctx, l.store.Repos().Rooms, roomID, target, from...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.InvalidState("room %s cannot move to %s from its current status", room.Number, target)
	}
	room.Status = target

	l.audit.Record(ctx, actor.EmployeeID, domain.ActivityRoomMaintenance,
		fmt.Sprintf("Room %s set to %s", room.Number, target), ref(room.ID))
	return room, nil
}
