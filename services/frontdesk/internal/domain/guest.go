package domain

import (
	"strings"
	"time"
)

type Guest struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name"`
	LastName   string    `json:"last_name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	IDType     string    `json:"id_type"`
	IDNumber   string    `json:"id_number"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (g *Guest) FullName() string {
	parts := []string{g.FirstName}
	if g.MiddleName != "" {
		parts = append(parts, g.MiddleName)
	}
	parts = append(parts, g.LastName)
	return strings.Join(parts, " ")
}

// GuestInput is the identity tuple the front desk captures for a guest.
type GuestInput struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	MiddleName string `json:"middle_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"required_without=IDNumber,max=40"`
	Email      string `json:"email" validate:"omitempty,email,max=200"`
	IDType     string `json:"id_type" validate:"max=60"`
	IDNumber   string `json:"id_number" validate:"required_without=Phone,max=80"`
}

// Normalize trims every field. Case is preserved for storage; matching is case-insensitive.
func (in *GuestInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.IDType = strings.TrimSpace(in.IDType)
	in.IDNumber = strings.TrimSpace(in.IDNumber)
}

// Matches reports whether g is the same guest under the directory's dedup rule:
// all three names equal (blank middle name == "") AND (phone equal OR ID number equal),
// case-insensitively. Blank contact values never match.
func (in GuestInput) Matches(g *Guest) bool {
	if !strings.EqualFold(in.FirstName, g.FirstName) ||
		!strings.EqualFold(in.MiddleName, g.MiddleName) ||
		!strings.EqualFold(in.LastName, g.LastName) {
		return false
	}
	phoneMatch := in.Phone != "" && strings.EqualFold(in.Phone, g.Phone)
	idMatch := in.IDNumber != "" && strings.EqualFold(in.IDNumber, g.IDNumber)
	return phoneMatch || idMatch
}

// GuestLookup drives the disambiguation flow: every field must match.
type GuestLookup struct {
	FirstName  string `json:"first_name" validate:"required"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name" validate:"required"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

func (l *GuestLookup) Normalize() {
	l.FirstName = strings.TrimSpace(l.FirstName)
	l.MiddleName = strings.TrimSpace(l.MiddleName)
	l.LastName = strings.TrimSpace(l.LastName)
	l.Phone = strings.TrimSpace(l.Phone)
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
}
