package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	mw "github.com/diagnosis/frontdesk/pkg/middleware"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
)

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "Invalid JSON format")
		return
	}

	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), actorOf(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoginRateKeys limits login attempts per client address and per username.
// The body is restored for the handler.
func LoginRateKeys(r *http.Request) []string {
	keys := mw.ClientIPKeyFunc(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return keys
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var req domain.LoginRequest
	if json.Unmarshal(body, &req) == nil {
		if u := strings.ToLower(strings.TrimSpace(req.Username)); u != "" {
			keys = append(keys, "login:"+u)
		}
	}
	return keys
}
