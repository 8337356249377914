package handlers

import (
	"net/http"

	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
)

func (h *Handlers) ResolveGuest(w http.ResponseWriter, r *http.Request) {
	var in domain.GuestInput
	if err := decode(r, &in); err != nil {
		badRequest(w, "Invalid JSON format")
		return
	}

	id, err := h.guests.ResolveOrCreateGuest(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"guest_id": id})
}

// LookupGuest answers 200 with a null guest_id when nothing matches exactly.
func (h *Handlers) LookupGuest(w http.ResponseWriter, r *http.Request) {
	var lookup domain.GuestLookup
	if err := decode(r, &lookup); err != nil {
		badRequest(w, "Invalid JSON format")
		return
	}

	id, err := h.guests.FindGuestID(r.Context(), lookup)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*int64{"guest_id": id})
}

func (h *Handlers) GetGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid guest ID")
		return
	}

	g, err := h.guests.GetGuest(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handlers) GuestHasActiveReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "Invalid guest ID")
		return
	}

	has, err := h.guests.HasActiveConfirmedReservation(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_active_reservation": has})
}
