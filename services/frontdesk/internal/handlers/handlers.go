package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/frontdesk/pkg/auth"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/service"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	guests       service.GuestDirectory
	rooms        service.RoomService
	reservations service.ReservationService
	occupancy    service.OccupancyService
	auth         service.AuthService
	jwtSecret    string
	loc          *time.Location
}

func New(
	guests service.GuestDirectory,
	rooms service.RoomService,
	reservations service.ReservationService,
	occupancy service.OccupancyService,
	authService service.AuthService,
	jwtSecret string,
	loc *time.Location,
) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{
		guests:       guests,
		rooms:        rooms,
		reservations: reservations,
		occupancy:    occupancy,
		auth:         authService,
		jwtSecret:    jwtSecret,
		loc:          loc,
	}
}

// RequireEmployee authenticates the bearer token and puts the actor on the context.
func (h *Handlers) RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", CodeUnauthorized)
			return
		}

		claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", CodeUnauthorized)
			return
		}

		actor := auth.ActorFromClaims(claims)
		ctx := context.WithValue(r.Context(), logger.EmployeeIDKey, actor.EmployeeID)
		ctx = auth.WithActor(ctx, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireEmployee.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFrom(r.Context())
		if !ok || !actor.IsAdmin() {
			writeError(w, http.StatusForbidden, "Administrator access required", CodeForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Routes registers every front-desk endpoint. Callers wrap idempotent POSTs via idem.
func (h *Handlers) Routes(r chi.Router, loginLimit, idem func(http.Handler) http.Handler) {
	r.With(loginLimit).Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireEmployee)

		r.Post("/auth/logout", h.Logout)

		r.Route("/guests", func(r chi.Router) {
			r.Post("/resolve", h.ResolveGuest)
			r.Post("/lookup", h.LookupGuest)
			r.Get("/{id}", h.GetGuest)
			r.Get("/{id}/active-reservation", h.GuestHasActiveReservation)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Get("/{id}", h.GetRoom)
			r.With(h.RequireAdmin).Post("/{id}/maintenance", h.SetMaintenance)
			r.With(h.RequireAdmin).Delete("/{id}/maintenance", h.ReturnToService)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.With(idem).Post("/", h.CreateReservation)
			r.With(h.RequireAdmin).Post("/expire", h.ExpireReservations)
			r.Get("/code/{code}", h.VerifyReservationCode)
			r.Get("/{id}", h.GetReservation)
			r.Post("/{id}/confirm", h.ConfirmReservation)
			r.Post("/{id}/cancel", h.CancelReservation)
		})

		r.Route("/check-ins", func(r chi.Router) {
			r.With(idem).Post("/walk-in", h.CheckInWalkIn)
			r.With(idem).Post("/reservation", h.CheckInFromReservation)
			r.Get("/active", h.ListActiveCheckIns)
			r.Get("/{id}", h.GetCheckIn)
			r.Patch("/{id}/notes", h.UpdateNotes)
			r.With(idem).Post("/{id}/checkout", h.CheckOut)
		})
	})
}

func actorOf(r *http.Request) auth.Actor {
	actor, _ := auth.ActorFrom(r.Context())
	return actor
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and returns the calendar date in loc.
func (h *Handlers) parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(time.DateOnly, raw, h.loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
