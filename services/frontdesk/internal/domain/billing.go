package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NightsBetween counts whole calendar days between the dates of from and to in loc,
// with a floor of one night so same-day stays are still billed.
func NightsBetween(from, to time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	start := DateOf(from, loc)
	end := DateOf(to, loc)

	// Dates are UTC midnights, so the difference is an exact multiple of 24h.
	nights := int(end.Sub(start).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}

// DateOf truncates t to its calendar date in loc, returned as UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StayCharge is nights × rate, rounded to cents.
func StayCharge(nights int, rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(nights))).Round(2)
}

// Bill computes the checkout summary amounts.
func Bill(checkedInAt, checkedOutAt time.Time, rate, extras decimal.Decimal, loc *time.Location) (nights int, roomCharge, total decimal.Decimal) {
	nights = NightsBetween(checkedInAt, checkedOutAt, loc)
	roomCharge = StayCharge(nights, rate)
	total = roomCharge.Add(extras.Round(2))
	return nights, roomCharge, total
}
