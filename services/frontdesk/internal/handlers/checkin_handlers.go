package handlers

import (
	"net/http"

	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
)

type walkInBody struct {
	GuestID          int64              `json:"guest_id"`
	Guest            *domain.GuestInput `json:"guest"`
	RoomID           int64              `json:"room_id"`
	GuestCount       int                `json:"guest_count"`
	ExpectedCheckOut string             `json:"expected_check_out"`
	Notes            string             `json:"notes"`
}

func (h *Handlers) CheckInWalkIn(w http.ResponseWriter, r *http.Request) {
	var body walkInBody
	if err := decode(r, &body); err != nil {
		badRequest(w, "Invalid JSON format")
		return
	}
	expected, ok := h.parseDate(body.ExpectedCheckOut)
	if !ok {
		badRequest(w, "expected_check_out must be a date (YYYY-MM-DD)")
		return
	}

	ci, err := h.occupancy.CheckInWalkIn(r.Context(), actorOf(r), domain.WalkInRequest{
		GuestID:          body.GuestID,
		Guest:            body.Guest,
		RoomID:           body.RoomID,
		GuestCount:       body.GuestCount,
		ExpectedCheckOut: expected,
		Notes:            body.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ci)
}

type reservationCheckInBody struct {
	ReservationID int64  `json:"reservation_id"`
	Code          string `json:"code"`
	GuestCount    int    `json:"guest_count"`
	Notes         string `json:"notes"`
}

// CheckInFromReservation accepts either a reservation id or the code the guest presents.
func (h *Handlers) CheckInFromReservation(w http.ResponseWriter, r *http.Request) {
	var body reservationCheckInBody
	if err := decode(r, &body); err != nil {
		badRequest(w, "Invalid JSON format")
		return
	}

	var (
		ci  *domain.CheckIn
		err error
	)
	switch {
	case body.ReservationID > 0 && body.Code != "":
		badRequest(w, "Send either reservation_id or code, not both")
		return
	case body.ReservationID > 0:
		ci, err = h.occupancy.CheckInFromReservation(r.Context(), actorOf(r), body.ReservationID, body.GuestCount, body.Notes)
	case body.Code != "":
		ci, err = h.occupancy.CheckInByCode(r.Context(), actorOf(r), body.Code, body.GuestCount, body.Notes)
	default:
		badRequest(w, "reservation_id or code is required")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ci)
}

func (h *Handlers) CheckOut(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid check-in ID")
		return
	}

	var req domain.CheckOutRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "Invalid JSON format")
		return
	}

	summary, err := h.occupancy.CheckOut(r.Context(), actorOf(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid check-in ID")
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "Invalid JSON format")
		return
	}

	if err := h.occupancy.UpdateNotes(r.Context(), actorOf(r), id, body.Notes); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetCheckIn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid check-in ID")
		return
	}

	ci, err := h.occupancy.GetCheckIn(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ci)
}

func (h *Handlers) ListActiveCheckIns(w http.ResponseWriter, r *http.Request) {
	list, err := h.occupancy.ListActiveCheckIns(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.CheckIn{}
	}
	writeJSON(w, http.StatusOK, list)
}
