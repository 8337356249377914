package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/repository"
)

// ---------- In-memory store ----------

// memState holds every table. Writes land in it directly; a transaction keeps an undo log
// and replays it backwards when the unit of work fails.
type memState struct {
	nextID       int64
	guests       map[int64]domain.Guest
	rooms        map[int64]domain.Room
	reservations map[int64]domain.Reservation
	checkIns     map[int64]domain.CheckIn
}

func newMemState() *memState {
	return &memState{
		nextID:       1,
		guests:       map[int64]domain.Guest{},
		rooms:        map[int64]domain.Room{},
		reservations: map[int64]domain.Reservation{},
		checkIns:     map[int64]domain.CheckIn{},
	}
}

func (s *memState) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// memStore locks per statement, never per unit of work, so two transactions interleave
// the way they do against PostgreSQL. A read-then-write room update would let both racers
// through here; only the conditional update in UpdateStatusIf keeps them apart.
type memStore struct {
	mu    sync.Mutex
	state *memState
	// nameLocks stand in for pg_advisory_xact_lock; guarded by mu.
	nameLocks map[string]*sync.Mutex

	// failOnCheckInCreate makes the next check-in insert fail, to prove rollback. Guarded by mu.
	failOnCheckInCreate error
	// takenCodes are reported as collisions by reservation inserts.
	takenCodes map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		state:      newMemState(),
		nameLocks:  map[string]*sync.Mutex{},
		takenCodes: map[string]bool{},
	}
}

// memTx is the bookkeeping of one WithinTx call.
type memTx struct {
	undo []func(s *memState)
	held map[string]*sync.Mutex
}

func (m *memStore) Repos() repository.Repos {
	return m.repos(nil)
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx repository.Repos) error) error {
	tx := &memTx{held: map[string]*sync.Mutex{}}
	err := fn(m.repos(tx))
	if err != nil {
		m.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i](m.state)
		}
		m.mu.Unlock()
	}
	for _, l := range tx.held {
		l.Unlock()
	}
	return err
}

func (m *memStore) repos(tx *memTx) repository.Repos {
	v := &memView{store: m, tx: tx}
	return repository.Repos{
		Guests:       memGuests{v},
		Rooms:        memRooms{v},
		Reservations: memReservations{v},
		CheckIns:     memCheckIns{v},
	}
}

// memView runs each statement atomically under the store lock.
type memView struct {
	store *memStore
	tx    *memTx
}

func (v *memView) do(fn func(s *memState) error) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

// onRollback registers u to run if the surrounding transaction fails. Call it inside do.
func (v *memView) onRollback(u func(s *memState)) {
	if v.tx != nil {
		v.tx.undo = append(v.tx.undo, u)
	}
}

// Seed helpers. They bypass transactions.

func (m *memStore) addRoom(number string, price string, maxOccupancy int, status domain.RoomStatus) domain.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := domain.Room{
		ID:            m.state.id(),
		Number:        number,
		Type:          "Deluxe",
		PricePerNight: mustDecimal(price),
		MaxOccupancy:  maxOccupancy,
		Status:        status,
	}
	m.state.rooms[r.ID] = r
	return r
}

func (m *memStore) room(id int64) domain.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.rooms[id]
}

func (m *memStore) setRoomStatus(id int64, status domain.RoomStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.state.rooms[id]
	r.Status = status
	m.state.rooms[id] = r
}

func (m *memStore) reservation(id int64) domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.reservations[id]
}

func (m *memStore) checkInCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.checkIns)
}

func (m *memStore) guestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.guests)
}

// ---------- Guests ----------

type memGuests struct{ v *memView }

func (r memGuests) Create(_ context.Context, in domain.GuestInput) (*domain.Guest, error) {
	var g domain.Guest
	err := r.v.do(func(s *memState) error {
		g = domain.Guest{
			ID:         s.id(),
			FirstName:  in.FirstName,
			MiddleName: in.MiddleName,
			LastName:   in.LastName,
			Phone:      in.Phone,
			Email:      in.Email,
			IDType:     in.IDType,
			IDNumber:   in.IDNumber,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		s.guests[g.ID] = g
		id := g.ID
		r.v.onRollback(func(s *memState) { delete(s.guests, id) })
		return nil
	})
	return &g, err
}

func (r memGuests) GetByID(_ context.Context, id int64) (*domain.Guest, error) {
	var out *domain.Guest
	err := r.v.do(func(s *memState) error {
		if g, ok := s.guests[id]; ok {
			out = &g
		}
		return nil
	})
	return out, err
}

func (r memGuests) ListByName(_ context.Context, first, middle, last string) ([]domain.Guest, error) {
	var out []domain.Guest
	err := r.v.do(func(s *memState) error {
		for _, g := range s.guests {
			if strings.EqualFold(g.FirstName, first) && strings.EqualFold(g.MiddleName, middle) && strings.EqualFold(g.LastName, last) {
				out = append(out, g)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r memGuests) FindExact(_ context.Context, l domain.GuestLookup) (*int64, error) {
	var out *int64
	err := r.v.do(func(s *memState) error {
		for _, g := range s.guests {
			if strings.EqualFold(g.FirstName, l.FirstName) && strings.EqualFold(g.MiddleName, l.MiddleName) &&
				strings.EqualFold(g.LastName, l.LastName) && strings.EqualFold(g.Phone, l.Phone) &&
				strings.EqualFold(g.Email, l.Email) {
				if out == nil || g.ID < *out {
					id := g.ID
					out = &id
				}
			}
		}
		return nil
	})
	return out, err
}

// LockName blocks until no other open transaction holds the same name, and keeps it until
// this transaction ends. Outside a transaction it is a no-op, as in PostgreSQL.
func (r memGuests) LockName(_ context.Context, first, middle, last string) error {
	tx := r.v.tx
	if tx == nil {
		return nil
	}
	key := strings.ToLower(first + "|" + middle + "|" + last)
	if _, ok := tx.held[key]; ok {
		return nil
	}
	r.v.store.mu.Lock()
	l, ok := r.v.store.nameLocks[key]
	if !ok {
		l = &sync.Mutex{}
		r.v.store.nameLocks[key] = l
	}
	r.v.store.mu.Unlock()

	l.Lock()
	tx.held[key] = l
	return nil
}

// ---------- Rooms ----------

type memRooms struct{ v *memView }

func (r memRooms) GetByID(_ context.Context, id int64) (*domain.Room, error) {
	var out *domain.Room
	err := r.v.do(func(s *memState) error {
		if rm, ok := s.rooms[id]; ok {
			out = &rm
		}
		return nil
	})
	return out, err
}

func (r memRooms) List(_ context.Context, status *domain.RoomStatus) ([]domain.Room, error) {
	var out []domain.Room
	err := r.v.do(func(s *memState) error {
		for _, rm := range s.rooms {
			if status == nil || rm.Status == *status {
				out = append(out, rm)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, err
}

func (r memRooms) UpdateStatusIf(_ context.Context, id int64, target domain.RoomStatus, from []domain.RoomStatus) (bool, error) {
	var ok bool
	err := r.v.do(func(s *memState) error {
		rm, exists := s.rooms[id]
		if !exists {
			return nil
		}
		for _, f := range from {
			if rm.Status == f {
				prev := rm
				rm.Status = target
				s.rooms[id] = rm
				r.v.onRollback(func(s *memState) { s.rooms[id] = prev })
				ok = true
				return nil
			}
		}
		return nil
	})
	return ok, err
}

// ---------- Reservations ----------

type memReservations struct{ v *memView }

func (r memReservations) Create(_ context.Context, res *domain.Reservation) (bool, error) {
	if r.v.store.takenCodes[res.Code] {
		return false, nil
	}
	var created bool
	err := r.v.do(func(s *memState) error {
		for _, existing := range s.reservations {
			if existing.Code == res.Code {
				return nil
			}
		}
		res.ID = s.id()
		res.CreatedAt = time.Now()
		res.UpdatedAt = res.CreatedAt
		s.reservations[res.ID] = *res
		id := res.ID
		r.v.onRollback(func(s *memState) { delete(s.reservations, id) })
		created = true
		return nil
	})
	return created, err
}

func (r memReservations) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.v.do(func(s *memState) error {
		if res, ok := s.reservations[id]; ok {
			out = &res
		}
		return nil
	})
	return out, err
}

func (r memReservations) GetByCode(_ context.Context, code string) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.v.do(func(s *memState) error {
		for _, res := range s.reservations {
			if res.Code == code {
				res := res
				out = &res
			}
		}
		return nil
	})
	return out, err
}

func (r memReservations) TransitionStatus(_ context.Context, id int64, target domain.ReservationStatus, from ...domain.ReservationStatus) (bool, error) {
	var ok bool
	err := r.v.do(func(s *memState) error {
		res, exists := s.reservations[id]
		if !exists {
			return nil
		}
		for _, f := range from {
			if res.Status == f {
				prev := res
				res.Status = target
				s.reservations[id] = res
				r.v.onRollback(func(s *memState) { s.reservations[id] = prev })
				ok = true
				return nil
			}
		}
		return nil
	})
	return ok, err
}

func (r memReservations) CountByGuestAndStatus(_ context.Context, guestID int64, status domain.ReservationStatus) (int, error) {
	var n int
	err := r.v.do(func(s *memState) error {
		for _, res := range s.reservations {
			if res.GuestID == guestID && res.Status == status {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memReservations) ListOpenBefore(_ context.Context, date time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.v.do(func(s *memState) error {
		for _, res := range s.reservations {
			if res.Status.Open() && res.CheckInDate.Before(date) {
				out = append(out, res)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// ---------- Check-ins ----------

type memCheckIns struct{ v *memView }

func (r memCheckIns) Create(_ context.Context, c *domain.CheckIn) error {
	return r.v.do(func(s *memState) error {
		if err := r.v.store.failOnCheckInCreate; err != nil {
			r.v.store.failOnCheckInCreate = nil
			return err
		}
		for _, existing := range s.checkIns {
			if existing.RoomID == c.RoomID && existing.Active() {
				return errors.New("duplicate active check-in for room")
			}
		}
		c.ID = s.id()
		c.CreatedAt = time.Now()
		c.UpdatedAt = c.CreatedAt
		s.checkIns[c.ID] = *c
		id := c.ID
		r.v.onRollback(func(s *memState) { delete(s.checkIns, id) })
		return nil
	})
}

func (r memCheckIns) GetByID(_ context.Context, id int64) (*domain.CheckIn, error) {
	var out *domain.CheckIn
	err := r.v.do(func(s *memState) error {
		if c, ok := s.checkIns[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r memCheckIns) ListActive(_ context.Context) ([]domain.CheckIn, error) {
	var out []domain.CheckIn
	err := r.v.do(func(s *memState) error {
		for _, c := range s.checkIns {
			if c.Active() {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r memCheckIns) Close(_ context.Context, id int64, closing domain.Closing) (bool, error) {
	var ok bool
	err := r.v.do(func(s *memState) error {
		c, exists := s.checkIns[id]
		if !exists || !c.Active() {
			return nil
		}
		prev := c
		r.v.onRollback(func(s *memState) { s.checkIns[id] = prev })
		at := closing.CheckedOutAt
		nights := closing.Nights
		extras := closing.ExtraCharges
		total := closing.Total
		method := string(closing.PaymentMethod)
		c.ActualCheckOut = &at
		c.Nights = &nights
		c.ExtraCharges = &extras
		c.Total = &total
		c.PaymentMethod = &method
		if closing.TransactionReference != "" {
			ref := closing.TransactionReference
			c.TransactionReference = &ref
		}
		s.checkIns[id] = c
		ok = true
		return nil
	})
	return ok, err
}

func (r memCheckIns) UpdateNotes(_ context.Context, id int64, notes string) (bool, error) {
	var ok bool
	err := r.v.do(func(s *memState) error {
		c, exists := s.checkIns[id]
		if !exists {
			return nil
		}
		prev := c
		r.v.onRollback(func(s *memState) { s.checkIns[id] = prev })
		c.Notes = notes
		s.checkIns[id] = c
		ok = true
		return nil
	})
	return ok, err
}
