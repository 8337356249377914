package handlers

import (
	"net/http"

	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
)

func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	var statusPtr *domain.RoomStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseRoomStatus(raw)
		if !ok {
			badRequest(w, "Invalid status parameter")
			return
		}
		statusPtr = &st
	}

	rooms, err := h.rooms.ListRooms(r.Context(), statusPtr)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid room ID")
		return
	}

	room, err := h.rooms.GetRoom(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handlers) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid room ID")
		return
	}

	room, err := h.rooms.SetMaintenance(r.Context(), actorOf(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handlers) ReturnToService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid room ID")
		return
	}

	room, err := h.rooms.ReturnToService(r.Context(), actorOf(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}
