package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/frontdesk/pkg/auth"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/handlers"
)

const secret = "handler-test-secret"

// ---------- Mocks ----------

type mockGuests struct {
	resolveErr error
	lookupID   *int64
}

func (m *mockGuests) ResolveOrCreateGuest(context.Context, domain.GuestInput) (int64, error) {
	return 42, m.resolveErr
}
func (m *mockGuests) HasActiveConfirmedReservation(context.Context, int64) (bool, error) {
	return true, nil
}
func (m *mockGuests) FindGuestID(context.Context, domain.GuestLookup) (*int64, error) {
	return m.lookupID, nil
}
func (m *mockGuests) GetGuest(_ context.Context, id int64) (*domain.Guest, error) {
	return nil, domain.NotFound("guest %d not found", id)
}

type mockRooms struct {
	lastActor auth.Actor
}

func (m *mockRooms) GetRoom(_ context.Context, id int64) (*domain.Room, error) {
	return &domain.Room{ID: id, Number: "101", Status: domain.RoomAvailable}, nil
}
func (m *mockRooms) ListRooms(context.Context, *domain.RoomStatus) ([]domain.Room, error) {
	return nil, nil
}
func (m *mockRooms) SetMaintenance(_ context.Context, actor auth.Actor, id int64) (*domain.Room, error) {
	m.lastActor = actor
	return &domain.Room{ID: id, Status: domain.RoomMaintenance}, nil
}
func (m *mockRooms) ReturnToService(_ context.Context, _ auth.Actor, id int64) (*domain.Room, error) {
	return &domain.Room{ID: id, Status: domain.RoomAvailable}, nil
}

type mockReservations struct {
	lastReq domain.CreateReservationRequest
}

func (m *mockReservations) CreateReservation(_ context.Context, _ auth.Actor, req domain.CreateReservationRequest) (*domain.Reservation, error) {
	m.lastReq = req
	return &domain.Reservation{ID: 1, Code: "RSV-ABCDEF", Status: domain.ReservationPending}, nil
}
func (m *mockReservations) ConfirmReservation(context.Context, auth.Actor, int64) (*domain.Reservation, error) {
	return nil, domain.InvalidState("reservation RSV-ABCDEF is cancelled")
}
func (m *mockReservations) VerifyReservationCode(context.Context, string) (*domain.ReservationDetails, error) {
	return nil, errors.New("pool exhausted")
}
func (m *mockReservations) CancelReservation(context.Context, auth.Actor, int64) error {
	return nil
}
func (m *mockReservations) ExpireReservations(context.Context, auth.Actor, time.Time) (int, error) {
	return 3, nil
}
func (m *mockReservations) GetReservation(_ context.Context, id int64) (*domain.Reservation, error) {
	return &domain.Reservation{ID: id}, nil
}

type mockOccupancy struct {
	walkInErr  error
	byCodeCode string
}

func (m *mockOccupancy) CheckInWalkIn(_ context.Context, _ auth.Actor, req domain.WalkInRequest) (*domain.CheckIn, error) {
	if m.walkInErr != nil {
		return nil, m.walkInErr
	}
	return &domain.CheckIn{ID: 9, RoomID: req.RoomID, GuestID: req.GuestID}, nil
}
func (m *mockOccupancy) CheckInFromReservation(context.Context, auth.Actor, int64, int, string) (*domain.CheckIn, error) {
	return &domain.CheckIn{ID: 10}, nil
}
func (m *mockOccupancy) CheckInByCode(_ context.Context, _ auth.Actor, code string, _ int, _ string) (*domain.CheckIn, error) {
	m.byCodeCode = code
	return &domain.CheckIn{ID: 11}, nil
}
func (m *mockOccupancy) CheckOut(context.Context, auth.Actor, int64, domain.CheckOutRequest) (*domain.BillingSummary, error) {
	return nil, domain.InvalidState("check-in 9 was already checked out")
}
func (m *mockOccupancy) UpdateNotes(context.Context, auth.Actor, int64, string) error {
	return nil
}
func (m *mockOccupancy) GetCheckIn(_ context.Context, id int64) (*domain.CheckIn, error) {
	return &domain.CheckIn{ID: id}, nil
}
func (m *mockOccupancy) ListActiveCheckIns(context.Context) ([]domain.CheckIn, error) {
	return nil, nil
}

type mockAuth struct{}

func (mockAuth) Login(_ context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Password != "right" {
		return nil, domain.Unauthorized("invalid username or password")
	}
	return &domain.LoginResponse{AccessToken: "tok", ExpiresIn: 60}, nil
}
func (mockAuth) Logout(context.Context, auth.Actor) error { return nil }
func (mockAuth) EnsureEmployee(context.Context, string, string, string, string) error {
	return nil
}

// ---------- Helpers ----------

type fixture struct {
	router       http.Handler
	guests       *mockGuests
	rooms        *mockRooms
	reservations *mockReservations
	occupancy    *mockOccupancy
}

func newFixture() *fixture {
	f := &fixture{
		guests:       &mockGuests{},
		rooms:        &mockRooms{},
		reservations: &mockReservations{},
		occupancy:    &mockOccupancy{},
	}
	h := handlers.New(f.guests, f.rooms, f.reservations, f.occupancy, mockAuth{}, secret, time.UTC)

	passthrough := func(next http.Handler) http.Handler { return next }
	r := chi.NewRouter()
	h.Routes(r, passthrough, passthrough)
	f.router = r
	return f
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.NewAccessToken(7, "clerk", role, secret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return tok
}

func (f *fixture) do(t *testing.T, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, role))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response %q: %v", rec.Body.String(), err)
	}
	return resp.Code
}

// ---------- Tests ----------

func TestRequiresToken(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/rooms", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/rooms/5/maintenance", auth.RoleFrontDesk, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for front desk, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/rooms/5/maintenance", auth.RoleAdmin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.rooms.lastActor.EmployeeID != 7 || !f.rooms.lastActor.IsAdmin() {
		t.Errorf("actor not passed through: %+v", f.rooms.lastActor)
	}

	rec = f.do(t, http.MethodPost, "/reservations/expire?as_of=2025-03-01", auth.RoleAdmin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	f := newFixture()
	f.occupancy.walkInErr = domain.RoomUnavailable("101")

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "room unavailable",
			method:     http.MethodPost,
			path:       "/check-ins/walk-in",
			body:       map[string]interface{}{"guest_id": 1, "room_id": 1, "guest_count": 1, "expected_check_out": "2030-01-02"},
			wantStatus: http.StatusConflict,
			wantCode:   handlers.CodeRoomUnavailable,
		},
		{
			name:       "not found",
			method:     http.MethodGet,
			path:       "/guests/12",
			wantStatus: http.StatusNotFound,
			wantCode:   handlers.CodeNotFound,
		},
		{
			name:       "invalid state",
			method:     http.MethodPost,
			path:       "/reservations/3/confirm",
			wantStatus: http.StatusConflict,
			wantCode:   handlers.CodeInvalidState,
		},
		{
			name:       "infrastructure failure is hidden",
			method:     http.MethodGet,
			path:       "/reservations/code/RSV-ABCDEF",
			wantStatus: http.StatusInternalServerError,
			wantCode:   handlers.CodeInternalError,
		},
		{
			name:       "bad path id",
			method:     http.MethodGet,
			path:       "/check-ins/abc",
			wantStatus: http.StatusBadRequest,
			wantCode:   handlers.CodeInvalidInput,
		},
		{
			name:       "bad date",
			method:     http.MethodPost,
			path:       "/reservations",
			body:       map[string]interface{}{"guest_id": 1, "room_id": 1, "check_in": "next week", "check_out": "2030-01-02", "guest_count": 1},
			wantStatus: http.StatusBadRequest,
			wantCode:   handlers.CodeInvalidInput,
		},
		{
			name:       "unknown field",
			method:     http.MethodPost,
			path:       "/guests/resolve",
			body:       map[string]interface{}{"first_name": "A", "nickname": "x"},
			wantStatus: http.StatusBadRequest,
			wantCode:   handlers.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, auth.RoleFrontDesk, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if got := errorCode(t, rec); got != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, got)
			}
		})
	}
}

func TestCreateReservationParsesDates(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/reservations", auth.RoleFrontDesk, map[string]interface{}{
		"guest_id": 1, "room_id": 2, "check_in": "2030-05-01", "check_out": "2030-05-04",
		"guest_count": 2, "downpayment": "50.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req := f.reservations.lastReq
	if !req.CheckIn.Equal(time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected check-in %v", req.CheckIn)
	}
	if req.Downpayment.String() != "50" {
		t.Errorf("unexpected downpayment %s", req.Downpayment)
	}
}

func TestCheckInFromReservationByCode(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/check-ins/reservation", auth.RoleFrontDesk, map[string]interface{}{"code": "rsv-abcdef"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if f.occupancy.byCodeCode != "rsv-abcdef" {
		t.Errorf("code not forwarded: %q", f.occupancy.byCodeCode)
	}

	rec = f.do(t, http.MethodPost, "/check-ins/reservation", auth.RoleFrontDesk, map[string]interface{}{"reservation_id": 1, "code": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for id and code together, got %d", rec.Code)
	}
}

func TestLookupGuestNoMatch(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/guests/lookup", auth.RoleFrontDesk, map[string]string{"first_name": "A", "last_name": "B"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]*int64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v, ok := body["guest_id"]; !ok || v != nil {
		t.Errorf("expected guest_id null, got %v", body)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "maria", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "maria", "password": "right"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginRateKeysKeepsBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":" Maria ","password":"x"}`))
	req.RemoteAddr = "10.0.0.1:5555"

	keys := handlers.LoginRateKeys(req)
	if len(keys) != 2 || keys[0] != "ip:10.0.0.1" || keys[1] != "login:maria" {
		t.Fatalf("unexpected keys %v", keys)
	}

	var body domain.LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Password != "x" {
		t.Fatalf("body not restored: %+v (%v)", body, err)
	}
}
