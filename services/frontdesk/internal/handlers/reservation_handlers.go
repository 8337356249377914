package handlers

import (
	"net/http"
	"time"

	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createReservationBody struct {
	GuestID         int64           `json:"guest_id"`
	RoomID          int64           `json:"room_id"`
	CheckIn         string          `json:"check_in"`
	CheckOut        string          `json:"check_out"`
	GuestCount      int             `json:"guest_count"`
	SpecialRequests string          `json:"special_requests"`
	Downpayment     decimal.Decimal `json:"downpayment"`
}

func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var body createReservationBody
	if err := decode(r, &body); err != nil {
		badRequest(w, "Invalid JSON format")
		return
	}
	checkIn, ok := h.parseDate(body.CheckIn)
	if !ok {
		badRequest(w, "check_in must be a date (YYYY-MM-DD)")
		return
	}
	checkOut, ok := h.parseDate(body.CheckOut)
	if !ok {
		badRequest(w, "check_out must be a date (YYYY-MM-DD)")
		return
	}

	res, err := h.reservations.CreateReservation(r.Context(), actorOf(r), domain.CreateReservationRequest{
		GuestID:         body.GuestID,
		RoomID:          body.RoomID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		GuestCount:      body.GuestCount,
		SpecialRequests: body.SpecialRequests,
		Downpayment:     body.Downpayment,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid reservation ID")
		return
	}

	res, err := h.reservations.GetReservation(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) VerifyReservationCode(w http.ResponseWriter, r *http.Request) {
	details, err := h.reservations.VerifyReservationCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handlers) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid reservation ID")
		return
	}

	res, err := h.reservations.ConfirmReservation(r.Context(), actorOf(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid reservation ID")
		return
	}

	if err := h.reservations.CancelReservation(r.Context(), actorOf(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ExpireReservations(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		t, ok := h.parseDate(raw)
		if !ok {
			badRequest(w, "as_of must be a date (YYYY-MM-DD)")
			return
		}
		asOf = t
	}

	n, err := h.reservations.ExpireReservations(r.Context(), actorOf(r), asOf)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": n})
}
